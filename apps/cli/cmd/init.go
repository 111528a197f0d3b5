package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/abdul-hamid-achik/restcli/packages/core/config"
	"github.com/spf13/cobra"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Create a config file and an example document",
	Long: `Create a starter project in the given directory (default: current).

This creates:
  - .rest.yaml     - Configuration file with the default settings
  - example.http   - Example request document

Examples:
  rest init
  rest init ./api --force`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         initCommand,
}

const exampleDocument = `# Requests are sent top to bottom. Each block is a host line, optional
# headers, an optional JSON body and a line starting with the method.

https://httpbin.org
Accept: application/json
GET /get

https://httpbin.org
Content-Type: application/json
{
    "name": "rest"
}
POST /post
`

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

func initCommand(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	configFile := filepath.Join(dir, config.ConfigFilenames[0])
	exampleFile := filepath.Join(dir, "example.http")

	if !forceInit {
		for _, f := range []string{configFile, exampleFile} {
			if _, err := os.Stat(f); err == nil {
				return withExitCode(ExitUsageError, fmt.Errorf("file already exists: %s (use --force to overwrite)", f))
			}
		}
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	cfg := config.DefaultConfig()
	cfg.Headers = config.Headers{{Name: "User-Agent", Value: "rest/" + version}}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	if err := os.WriteFile(exampleFile, []byte(exampleDocument), 0644); err != nil {
		return fmt.Errorf("failed to create example file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", exampleFile)

	return nil
}
