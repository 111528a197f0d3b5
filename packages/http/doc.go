// Package http sends parsed requests over the network.
//
// It wraps the standard library's http package with:
//   - Configurable timeouts and TLS verification
//   - Redirect handling
//   - Proxy support
//   - Default headers from configuration
//   - Immutable request descriptors built from parsed blocks
package http
