package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/restcli/packages/core/runner"
	"github.com/abdul-hamid-achik/restcli/packages/http"
)

// TAPFormatter formats results in TAP (Test Anything Protocol) format. A
// block is ok when it parsed, got a response and had no schema violations.
type TAPFormatter struct {
	writer  io.Writer
	count   int
	results []tapResult
}

type tapResult struct {
	number     int
	name       string
	ok         bool
	skip       bool
	reason     string
	error      string
	status     int
	violations []string
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{
		writer:  os.Stdout,
		results: make([]tapResult, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) Dispatching(req *http.Request) {
	// Requests are named in Completed
}

func (f *TAPFormatter) Completed(r *runner.Result) {
	f.count++
	tr := tapResult{
		number:     f.count,
		name:       fmt.Sprintf("line %d", r.Line),
		violations: r.Violations,
	}

	if r.Request != nil {
		tr.name = r.Request.String()
	}

	switch {
	case r.DryRun:
		tr.skip = true
		tr.reason = "dry run"
	case r.ParseErr != nil:
		tr.error = r.ParseErr.Error()
	case r.Skipped:
		tr.skip = true
		tr.reason = r.Err.Error()
	case r.Err != nil:
		tr.error = r.Err.Error()
	case r.Response != nil:
		tr.status = r.Response.StatusCode
		tr.ok = len(r.Violations) == 0
	}

	f.results = append(f.results, tr)
}

func (f *TAPFormatter) FormatError(err error) {
	fmt.Fprintf(f.writer, "Bail out! %s\n", err)
}

func (f *TAPFormatter) FormatRun(result *runner.RunResult) {
	// Counts are implied by the plan
}

// Flush writes the accumulated TAP output
func (f *TAPFormatter) Flush(totalDuration time.Duration) error {
	fmt.Fprintf(f.writer, "TAP version 13\n")
	fmt.Fprintf(f.writer, "1..%d\n", f.count)

	for _, r := range f.results {
		if r.skip {
			fmt.Fprintf(f.writer, "ok %d - %s # SKIP %s\n", r.number, r.name, r.reason)
			continue
		}

		if r.error != "" {
			fmt.Fprintf(f.writer, "not ok %d - %s\n", r.number, r.name)
			fmt.Fprintf(f.writer, "  ---\n")
			fmt.Fprintf(f.writer, "  message: %s\n", escapeYAML(r.error))
			fmt.Fprintf(f.writer, "  severity: error\n")
			fmt.Fprintf(f.writer, "  ...\n")
			continue
		}

		if r.ok {
			fmt.Fprintf(f.writer, "ok %d - %s # %d\n", r.number, r.name, r.status)
			continue
		}

		fmt.Fprintf(f.writer, "not ok %d - %s # %d\n", r.number, r.name, r.status)
		fmt.Fprintf(f.writer, "  ---\n")
		fmt.Fprintf(f.writer, "  violations:\n")
		for _, v := range r.violations {
			fmt.Fprintf(f.writer, "    - %s\n", escapeYAML(v))
		}
		fmt.Fprintf(f.writer, "  ...\n")
	}

	fmt.Fprintf(f.writer, "# time %dms\n", totalDuration.Milliseconds())
	return nil
}

func escapeYAML(s string) string {
	// Simple YAML escaping - wrap in quotes if contains special chars
	if strings.ContainsAny(s, ":\n\"'[]{}#&*!|>%@`\\") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		return "\"" + s + "\""
	}
	return s
}
