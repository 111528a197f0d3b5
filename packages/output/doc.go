// Package output provides formatters for displaying request results.
//
// Supported output formats:
//   - Console: human-readable colored terminal output
//   - JSON: machine-readable JSON document written when the run ends
//   - TAP: Test Anything Protocol, one test point per block
//
// Every formatter receives progress as a runner.Reporter. Formats that
// accumulate results before writing implement Flush.
package output
