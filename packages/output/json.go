package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/restcli/packages/core/runner"
	"github.com/abdul-hamid-achik/restcli/packages/http"
	"github.com/tidwall/gjson"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	Summary  JSONSummary   `json:"summary"`
	Latency  *JSONLatency  `json:"latency,omitempty"`
	Requests []JSONRequest `json:"requests"`
	Errors   []string      `json:"errors,omitempty"`
	Duration float64       `json:"duration"`
	Time     string        `json:"time"`
}

// JSONSummary represents the run summary
type JSONSummary struct {
	Total   int `json:"total"`
	Sent    int `json:"sent"`
	Failed  int `json:"failed"`
	Invalid int `json:"invalid"`
	Skipped int `json:"skipped"`
}

// JSONLatency summarizes response times in milliseconds. Requests that failed
// in transport are counted in Errors but not in the percentiles.
type JSONLatency struct {
	Count  int     `json:"count"`
	Errors int     `json:"errors"`
	Min    float64 `json:"min"`
	Mean   float64 `json:"mean"`
	P50    float64 `json:"p50"`
	P95    float64 `json:"p95"`
	P99    float64 `json:"p99"`
	Max    float64 `json:"max"`
}

// JSONRequest represents one block of the document
type JSONRequest struct {
	File       string        `json:"file,omitempty"`
	Line       int           `json:"line"`
	Method     string        `json:"method,omitempty"`
	URL        string        `json:"url,omitempty"`
	Headers    []http.Header `json:"headers,omitempty"`
	DryRun     bool          `json:"dryRun,omitempty"`
	Skipped    bool          `json:"skipped,omitempty"`
	Error      string        `json:"error,omitempty"`
	Response   *JSONResponse `json:"response,omitempty"`
	Violations []string      `json:"violations,omitempty"`
}

// JSONResponse represents response details. Body is embedded as JSON when
// the response body is valid JSON, otherwise as a string.
type JSONResponse struct {
	StatusCode int                 `json:"statusCode"`
	Status     string              `json:"status"`
	Proto      string              `json:"proto,omitempty"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Body       any                 `json:"body,omitempty"`
	Duration   float64             `json:"duration"`
}

// JSONFormatter formats request results as JSON
type JSONFormatter struct {
	writer  io.Writer
	results []JSONRequest
	errors  []string
	sent    int
	failed  int
	invalid int
	skipped int
	latency *JSONLatency
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONRequest, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) Dispatching(req *http.Request) {
	// Requests are included in individual results
}

func (f *JSONFormatter) Completed(r *runner.Result) {
	entry := JSONRequest{
		File:       r.File,
		Line:       r.Line,
		DryRun:     r.DryRun,
		Skipped:    r.Skipped,
		Violations: r.Violations,
	}

	if r.Request != nil {
		entry.Method = r.Request.Method
		entry.URL = r.Request.URL
		entry.Headers = r.Request.Headers
	}

	switch {
	case r.ParseErr != nil:
		entry.Error = r.ParseErr.Error()
	case r.Err != nil:
		entry.Error = r.Err.Error()
	}

	if r.Response != nil {
		entry.Response = &JSONResponse{
			StatusCode: r.Response.StatusCode,
			Status:     r.Response.Status,
			Proto:      r.Response.Proto,
			Headers:    r.Response.Headers,
			Body:       jsonBody(r.Response.Body),
			Duration:   float64(r.Response.Duration.Milliseconds()),
		}
	}

	f.results = append(f.results, entry)
}

func jsonBody(body []byte) any {
	if len(body) == 0 {
		return nil
	}
	if gjson.ValidBytes(body) {
		return json.RawMessage(body)
	}
	return string(body)
}

func (f *JSONFormatter) FormatError(err error) {
	f.errors = append(f.errors, err.Error())
}

// FormatRun accumulates the counters of a finished run.
func (f *JSONFormatter) FormatRun(result *runner.RunResult) {
	f.sent += result.Sent
	f.failed += result.Failed
	f.invalid += result.Invalid
	f.skipped += result.Skipped

	if s := result.Summary; s != nil && s.Total > 0 {
		f.latency = &JSONLatency{
			Count:  s.Total,
			Errors: s.Errors,
			Min:    ms(s.Min),
			Mean:   ms(s.Mean),
			P50:    ms(s.P50),
			P95:    ms(s.P95),
			P99:    ms(s.P99),
			Max:    ms(s.Max),
		}
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(totalDuration time.Duration) error {
	output := JSONOutput{
		Summary: JSONSummary{
			Total:   len(f.results),
			Sent:    f.sent,
			Failed:  f.failed,
			Invalid: f.invalid,
			Skipped: f.skipped,
		},
		Latency:  f.latency,
		Requests: f.results,
		Errors:   f.errors,
		Duration: float64(totalDuration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
