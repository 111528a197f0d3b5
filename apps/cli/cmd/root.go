package cmd

import (
	"errors"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "rest <file>",
	Short: "Send the HTTP requests written in a plain text file",
	Long: `rest reads a document of plain text HTTP requests and sends them one
after another, printing each response as it arrives.

A request is a host line, optional header lines, an optional JSON body and a
terminator line that starts with the method:

  https://api.example.com
  Accept: application/json
  GET /users/1

Lines starting with # are comments.

Examples:
  rest api.http
  rest api.http -v --summary
  rest api.http --output json --history runs.db
  rest api.http --watch`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         runCommand,
}

// exitError carries the process exit code of a failed command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCode maps a command error to the process exit code.
func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitUsageError
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", getEnvString("REST_CONFIG", ""), "Path to config file (env: REST_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&historyFlag, "history", getEnvString("REST_HISTORY", ""), "SQLite database recording every sent request (env: REST_HISTORY)")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
}
