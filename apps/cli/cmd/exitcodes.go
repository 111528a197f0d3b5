package cmd

// Exit codes for the rest CLI
const (
	// ExitSuccess indicates the document was processed. Blocks that failed
	// to parse or send do not change the exit code.
	ExitSuccess = 0

	// ExitParseError indicates validate found malformed blocks
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64

	// ExitReadError indicates the document could not be read
	ExitReadError = 66
)
