package cmd

import (
	"fmt"

	"github.com/abdul-hamid-achik/restcli/packages/core/parser"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list <file>",
	Short: "List the requests in a document",
	Long: `Print one line per block of a document: the request it describes, or
the error that makes it malformed.

Examples:
  rest list api.http`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	outcomes, err := parser.ParseFile(args[0])
	if err != nil {
		return withExitCode(ExitReadError, err)
	}

	for _, o := range outcomes {
		if !o.OK() {
			fmt.Fprintf(cmd.OutOrStdout(), "line %d: %v\n", o.Line, o.Err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "line %d: %s %s\n", o.Line, o.Request.Method, o.Request.URI)
		for _, h := range o.Request.Headers {
			fmt.Fprintf(cmd.OutOrStdout(), "    %s: %s\n", h.Name, h.Value)
		}
	}

	return nil
}
