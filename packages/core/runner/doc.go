// Package runner parses request documents and dispatches their blocks.
//
// Blocks run strictly in document order, one at a time: block N+1 is not
// parsed into a request or sent until the call for block N has returned.
// A block that fails to parse, or whose request fails in transport, is
// reported through the Reporter and the run moves on to the next block.
//
// Optional collaborators hook into every dispatch:
//   - a rate limiter spacing requests out
//   - a history store recording each request
//   - a schema validator checking JSON response bodies
//   - a latency recorder summarizing the run
package runner
