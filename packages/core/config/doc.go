// Package config handles configuration loading and management for rest.
//
// It provides functionality for:
//   - Loading configuration from .rest.yaml or rest.yaml files
//   - Default configuration values
//   - Merging file settings with command-line overrides
package config
