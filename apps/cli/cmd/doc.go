// Package cmd implements the rest CLI commands using Cobra.
//
// Available commands:
//   - rest <file>: Send every request in a document
//   - validate: Check a document for malformed blocks without sending
//   - list: Print the requests a document describes
//   - history: Show requests recorded with --history
//   - version: Show version information
//
// Flags fall back to REST_* environment variables and to an optional
// .rest.yaml config file.
package cmd
