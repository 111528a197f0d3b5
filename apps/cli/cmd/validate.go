package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/restcli/packages/core/parser"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a document for malformed blocks",
	Long: `Parse a document and report every malformed block without sending
anything. Exits with status 2 when any block is malformed.

Examples:
  rest validate api.http`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	file := args[0]

	outcomes, err := parser.ParseFile(file)
	if err != nil {
		return withExitCode(ExitReadError, err)
	}

	invalid := 0
	for _, o := range outcomes {
		if !o.OK() {
			fmt.Fprintln(cmd.ErrOrStderr(), o.Err)
			invalid++
		}
	}

	if invalid > 0 {
		return withExitCode(ExitParseError, fmt.Errorf("%s: %d of %d blocks are malformed", file, invalid, len(outcomes)))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s (%d requests)\n", file, len(outcomes))
	return nil
}
