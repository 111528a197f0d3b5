package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/restcli/packages/core/config"
	"github.com/abdul-hamid-achik/restcli/packages/core/runner"
	"github.com/abdul-hamid-achik/restcli/packages/history"
	"github.com/abdul-hamid-achik/restcli/packages/http"
	"github.com/abdul-hamid-achik/restcli/packages/logging"
	"github.com/abdul-hamid-achik/restcli/packages/output"
	"github.com/abdul-hamid-achik/restcli/packages/schema"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	verboseFlag    int // 0=off, 1=-v, 2=-vv, 3=-vvv
	quietFlag      bool
	noColorFlag    bool
	timeoutFlag    string
	insecureFlag   bool
	proxyFlag      string
	noRedirectFlag bool
	configFlag     string
	dryRunFlag     bool
	outputFlag     string
	outputFileFlag string
	selectFlag     string
	schemaFlag     string
	rateFlag       float64
	historyFlag    string
	summaryFlag    bool
	watchFlag      bool
)

func init() {
	// Output flags
	rootCmd.Flags().CountVarP(&verboseFlag, "verbose", "v", "Verbose output (-v headers, -vv and -vvv diagnostics)")
	rootCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", getEnvBool("REST_QUIET", false), "Suppress diagnostics (env: REST_QUIET)")
	rootCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("REST_NO_COLOR", false), "Disable colored output (env: REST_NO_COLOR)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("REST_OUTPUT", "console"), "Output format: console, json, tap (env: REST_OUTPUT)")
	rootCmd.Flags().StringVar(&outputFileFlag, "output-file", getEnvString("REST_OUTPUT_FILE", ""), "Write output to file (default: stdout) (env: REST_OUTPUT_FILE)")
	rootCmd.Flags().StringVar(&selectFlag, "select", "", "Print only the part of JSON bodies matching a gjson path")
	rootCmd.Flags().BoolVar(&summaryFlag, "summary", getEnvBool("REST_SUMMARY", false), "Print request counts and latency percentiles (env: REST_SUMMARY)")

	// Execution flags
	rootCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("REST_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: REST_TIMEOUT)")
	rootCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Parse and trace requests without sending them")
	rootCmd.Flags().Float64Var(&rateFlag, "rate", getEnvFloat("REST_RATE", 0), "Maximum requests per second, 0 for unlimited (env: REST_RATE)")
	rootCmd.Flags().StringVar(&schemaFlag, "schema", getEnvString("REST_SCHEMA", ""), "JSON schema that JSON response bodies must satisfy (env: REST_SCHEMA)")
	rootCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch the document and re-run it on change")

	// Network flags
	rootCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("REST_PROXY", ""), "Proxy URL for HTTP requests (env: REST_PROXY)")
	rootCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("REST_INSECURE", false), "Disable SSL certificate validation (env: REST_INSECURE)")
	rootCmd.Flags().BoolVar(&noRedirectFlag, "no-redirect", getEnvBool("REST_NO_REDIRECT", false), "Do not follow redirects (env: REST_NO_REDIRECT)")
}

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// Formatter interface for all output formatters
type Formatter interface {
	runner.Reporter
	FormatRun(result *runner.RunResult)
	FormatError(err error)
}

// Flushable interface for formatters that need to flush output
type Flushable interface {
	Flush(totalDuration time.Duration) error
}

// loadConfig merges the config file with command line flags. Flags win.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}

	flags := &config.Config{
		Proxy:   proxyFlag,
		History: historyFlag,
		Rate:    rateFlag,
	}
	if timeoutFlag != "" {
		timeout, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err))
		}
		flags.Timeout = config.Duration(timeout)
	}
	if rateFlag < 0 {
		return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid rate %v: must not be negative", rateFlag))
	}
	if insecureFlag {
		flags.ValidateSSL = config.BoolPtr(false)
	}
	if noRedirectFlag {
		flags.FollowRedirects = config.BoolPtr(false)
	}
	if noColorFlag {
		flags.NoColor = config.BoolPtr(true)
	}
	if cmd.Flags().Changed("verbose") {
		flags.Verbose = config.BoolPtr(verboseFlag > 0)
	}

	cfg := fileConfig.Merge(flags)
	if cfg.Proxy != "" {
		if err := validateProxy(cfg.Proxy); err != nil {
			return nil, withExitCode(ExitUsageError, err)
		}
	}
	return cfg, nil
}

func validateProxy(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid proxy %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid proxy %q: expected scheme://host[:port]", raw)
	}
	return nil
}

func runnerConfig(cfg *config.Config) *runner.Config {
	rc := &runner.Config{
		Timeout:            cfg.GetTimeout(),
		FollowRedirect:     cfg.GetFollowRedirects(),
		MaxRedirects:       cfg.MaxRedirects,
		InsecureSkipVerify: !cfg.GetValidateSSL(),
		Proxy:              cfg.Proxy,
		Rate:               cfg.Rate,
		DryRun:             dryRunFlag,
	}
	for _, h := range cfg.Headers {
		rc.DefaultHeaders = append(rc.DefaultHeaders, http.Header{Name: h.Name, Value: h.Value})
	}
	return rc
}

func newFormatter(w io.Writer, cfg *config.Config) (Formatter, error) {
	switch strings.ToLower(outputFlag) {
	case "json":
		return output.NewJSONFormatter(output.JSONWithWriter(w)), nil
	case "tap":
		return output.NewTAPFormatter(output.TAPWithWriter(w)), nil
	case "console", "":
		return output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbose(cfg.GetVerbose()),
			output.WithNoColor(cfg.GetNoColor()),
			output.WithSummary(summaryFlag),
			output.WithSelect(selectFlag),
		), nil
	default:
		return nil, withExitCode(ExitUsageError, fmt.Errorf("unknown output format %q (use console, json or tap)", outputFlag))
	}
}

func runCommand(cmd *cobra.Command, args []string) error {
	path := args[0]
	level := logging.LevelFromVerbosity(verboseFlag, quietFlag)
	if name := os.Getenv("REST_LOG_LEVEL"); name != "" && !quietFlag {
		level = logging.LevelFromString(name)
	}
	logger := logging.NewLogger(cmd.ErrOrStderr(), level)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger.Debug("configuration loaded", "timeout", cfg.GetTimeout(), "redirects", cfg.GetFollowRedirects(), "rate", cfg.Rate)

	// Setup output writer
	outWriter := cmd.OutOrStdout()
	if outputFileFlag != "" {
		f, err := os.Create(outputFileFlag)
		if err != nil {
			return fmt.Errorf("cannot create output file: %w", err)
		}
		defer f.Close()
		outWriter = f
	}

	opts := []runner.Option{runner.WithLogger(logger)}

	if schemaFlag != "" {
		validator, err := schema.Load(schemaFlag)
		if err != nil {
			return withExitCode(ExitConfigError, err)
		}
		opts = append(opts, runner.WithSchema(validator))
	}

	if cfg.History != "" && !dryRunFlag {
		store, err := history.Open(cfg.History)
		if err != nil {
			return withExitCode(ExitConfigError, err)
		}
		defer store.Close()
		opts = append(opts, runner.WithHistory(store))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runOnce := func() error {
		formatter, err := newFormatter(outWriter, cfg)
		if err != nil {
			return err
		}

		runOpts := append([]runner.Option{runner.WithReporter(formatter)}, opts...)
		r := runner.NewRunner(runnerConfig(cfg), runOpts...)
		result, err := r.RunFile(ctx, path)
		if err != nil {
			formatter.FormatError(err)
			if flushable, ok := formatter.(Flushable); ok {
				_ = flushable.Flush(0)
			}
			return withExitCode(ExitReadError, err)
		}

		formatter.FormatRun(result)

		// Flush output for formatters that accumulate results
		if flushable, ok := formatter.(Flushable); ok {
			if err := flushable.Flush(result.Duration); err != nil {
				return fmt.Errorf("error writing output: %w", err)
			}
		}
		return nil
	}

	if err := runOnce(); err != nil && !watchFlag {
		return err
	}

	if !watchFlag {
		return nil
	}

	return watch(ctx, cmd, path, logger, runOnce)
}

// watch re-runs the document each time it is written until ctx is done.
func watch(ctx context.Context, cmd *cobra.Command, path string, logger *slog.Logger, runOnce func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching %s for changes... (press Ctrl+C to stop)\n", path)

	// Debounce timer for rapid file changes
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if filepath.Clean(event.Name) != abs || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			logger.Debug("watch event", "file", event.Name, "op", event.Op.String())

			// Debounce: reset timer on each event
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				fmt.Fprintf(cmd.ErrOrStderr(), "\n\nFile changed: %s\nRe-running...\n", path)
				if err := runOnce(); err != nil {
					logger.Warn("re-run failed", "file", path, "error", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "\nWatching %s for changes... (press Ctrl+C to stop)\n", path)
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", "error", err)
		}
	}
}
