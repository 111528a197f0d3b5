package output

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/abdul-hamid-achik/restcli/packages/core/runner"
	"github.com/abdul-hamid-achik/restcli/packages/http"
	"github.com/fatih/color"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

const separator = "---------------"

type ConsoleFormatter struct {
	writer     io.Writer
	verbose    bool
	noColor    bool
	summary    bool
	selectPath string
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose shows response headers.
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// WithSummary prints request counts and latency percentiles after the run.
func WithSummary(s bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.summary = s
	}
}

// WithSelect prints only the part of a JSON body matched by a gjson path.
func WithSelect(path string) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.selectPath = path
	}
}

func (f *ConsoleFormatter) Dispatching(req *http.Request) {
	yellow := color.New(color.FgYellow).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", separator)
	fmt.Fprintf(f.writer, "%s %s\n\n", req.Method, yellow(req.URL))
}

func (f *ConsoleFormatter) Completed(r *runner.Result) {
	red := color.New(color.FgRed).SprintFunc()

	switch {
	case r.ParseErr != nil:
		fmt.Fprintf(f.writer, "\n%s\n", separator)
		fmt.Fprintf(f.writer, "%s\n", red(r.ParseErr.Error()))
	case r.DryRun:
	case r.Err != nil:
		fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), r.Err)
	default:
		f.formatResponse(r.Response)
		f.formatViolations(r.Violations)
	}
}

func (f *ConsoleFormatter) formatResponse(resp *http.Response) {
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintf(f.writer, "%s %s\n", statusColor(resp).Sprint(resp.StatusCode), resp.Reason())

	if f.verbose {
		names := make([]string, 0, len(resp.Headers))
		for name := range resp.Headers {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			for _, value := range resp.Headers[name] {
				fmt.Fprintf(f.writer, "%s: %s\n", cyan(strings.ToLower(name)), value)
			}
		}
		fmt.Fprintln(f.writer)
	}

	f.formatBody(resp)
}

func statusColor(resp *http.Response) *color.Color {
	switch {
	case resp.IsSuccess():
		return color.New(color.FgGreen)
	case resp.IsRedirect():
		return color.New(color.FgBlue)
	case resp.IsInformational():
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func (f *ConsoleFormatter) formatBody(resp *http.Response) {
	if len(resp.Body) == 0 {
		return
	}

	if !resp.IsJSON() || !gjson.ValidBytes(resp.Body) {
		f.writeText(resp.BodyString())
		return
	}

	if f.selectPath == "" {
		f.writeJSON(resp.Body)
		return
	}

	result := gjson.GetBytes(resp.Body, f.selectPath)
	if !result.Exists() {
		yellow := color.New(color.FgYellow).SprintFunc()
		fmt.Fprintf(f.writer, "%s\n", yellow("no match for "+f.selectPath))
		return
	}
	if result.IsObject() || result.IsArray() {
		f.writeJSON([]byte(result.Raw))
		return
	}
	f.writeText(result.String())
}

func (f *ConsoleFormatter) writeJSON(body []byte) {
	out := pretty.Pretty(body)
	if !color.NoColor {
		out = pretty.Color(out, nil)
	}
	_, _ = f.writer.Write(out)
}

func (f *ConsoleFormatter) writeText(s string) {
	fmt.Fprint(f.writer, s)
	if !strings.HasSuffix(s, "\n") {
		fmt.Fprintln(f.writer)
	}
}

func (f *ConsoleFormatter) formatViolations(violations []string) {
	if len(violations) == 0 {
		return
	}
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "\n%s\n", red("Schema violations:"))
	for _, v := range violations {
		fmt.Fprintf(f.writer, "  %s %s\n", red("→"), v)
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

// FormatRun prints the run summary when enabled.
func (f *ConsoleFormatter) FormatRun(result *runner.RunResult) {
	if !f.summary {
		return
	}

	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", separator)
	fmt.Fprintf(f.writer, "%s ", bold("Requests:"))
	fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d sent", result.Sent)))
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Invalid > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d invalid", result.Invalid)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	fmt.Fprintf(f.writer, "%d total\n", len(result.Results))

	if s := result.Summary; s != nil && s.Success > 0 {
		fmt.Fprintf(f.writer, "%s min %s, mean %s, p50 %s, p95 %s, p99 %s, max %s\n",
			bold("Latency: "), s.Min, s.Mean, s.P50, s.P95, s.P99, s.Max)
	}
	fmt.Fprintf(f.writer, "%s %dms\n", bold("Time:    "), result.Duration.Milliseconds())
}
