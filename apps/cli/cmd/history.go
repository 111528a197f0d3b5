package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/abdul-hamid-achik/restcli/packages/core/config"
	"github.com/abdul-hamid-achik/restcli/packages/history"
	"github.com/spf13/cobra"
)

var (
	historyLimitFlag int
	historyRunFlag   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show requests recorded with --history",
	Long: `List requests recorded in a history database, newest first.

Examples:
  rest history --history runs.db
  rest history --history runs.db --limit 50
  rest history --history runs.db --run 3f0c...`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         historyCommand,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", getEnvInt("REST_HISTORY_LIMIT", 20), "Number of entries to show (env: REST_HISTORY_LIMIT)")
	historyCmd.Flags().StringVar(&historyRunFlag, "run", "", "Show every request of one run")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	path := historyFlag
	if path == "" {
		cfg, err := config.LoadConfig(configFlag)
		if err != nil {
			return withExitCode(ExitConfigError, err)
		}
		path = cfg.History
	}
	if path == "" {
		return withExitCode(ExitUsageError, errors.New("no history database: pass --history or set history in the config file"))
	}

	store, err := history.Open(path)
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}
	defer store.Close()

	var entries []*history.Entry
	if historyRunFlag != "" {
		entries, err = store.Run(cmd.Context(), historyRunFlag)
	} else {
		entries, err = store.Recent(cmd.Context(), historyLimitFlag)
	}
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No requests recorded.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tRUN\tREQUEST\tSTATUS\tDURATION\tSOURCE")
	for _, e := range entries {
		status := fmt.Sprintf("%d", e.Status)
		if e.Error != "" {
			status = "error"
		}
		fmt.Fprintf(w, "%s\t%s\t%s %s\t%s\t%dms\t%s:%d\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			shortID(e.RunID), e.Method, e.URL, status, e.DurationMs, e.File, e.Line)
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
