package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/abdul-hamid-achik/restcli/packages/core/parser"
	"github.com/abdul-hamid-achik/restcli/packages/history"
	"github.com/abdul-hamid-achik/restcli/packages/http"
	"github.com/abdul-hamid-achik/restcli/packages/logging"
	"github.com/abdul-hamid-achik/restcli/packages/schema"
	"github.com/abdul-hamid-achik/restcli/packages/stats"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Reporter receives progress of a run. Dispatching is called right before a
// request goes out; Completed once per block, in document order.
type Reporter interface {
	Dispatching(req *http.Request)
	Completed(result *Result)
}

type nopReporter struct{}

func (nopReporter) Dispatching(*http.Request) {}
func (nopReporter) Completed(*Result)         {}

type Config struct {
	Timeout        time.Duration
	FollowRedirect bool
	MaxRedirects   int
	// InsecureSkipVerify disables TLS certificate verification. The zero
	// value verifies.
	InsecureSkipVerify bool
	Proxy              string
	DefaultHeaders     []http.Header
	Rate               float64 // requests per second, 0 = unlimited
	DryRun             bool
}

// DefaultConfig mirrors the transport defaults.
func DefaultConfig() *Config {
	return &Config{
		Timeout:        http.DefaultTimeout,
		FollowRedirect: true,
		MaxRedirects:   http.DefaultMaxRedirects,
	}
}

type Runner struct {
	client    *http.Client
	config    *Config
	limiter   *rate.Limiter
	logger    *slog.Logger
	reporter  Reporter
	history   *history.Store
	validator *schema.Validator
}

type Option func(*Runner)

// WithReporter sets where progress is reported.
func WithReporter(rep Reporter) Option {
	return func(r *Runner) {
		r.reporter = rep
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithHistory records every dispatched request in store.
func WithHistory(store *history.Store) Option {
	return func(r *Runner) {
		r.history = store
	}
}

// WithSchema validates JSON response bodies against v.
func WithSchema(v *schema.Validator) Option {
	return func(r *Runner) {
		r.validator = v
	}
}

// WithClient replaces the client built from Config.
func WithClient(c *http.Client) Option {
	return func(r *Runner) {
		r.client = c
	}
}

func NewRunner(cfg *Config, opts ...Option) *Runner {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	r := &Runner{
		config:   cfg,
		logger:   logging.NewDiscardLogger(),
		reporter: nopReporter{},
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		clientOpts := []http.ClientOption{
			http.WithFollowRedirects(cfg.FollowRedirect),
			http.WithMaxRedirects(cfg.MaxRedirects),
			http.WithValidateSSL(!cfg.InsecureSkipVerify),
		}
		if cfg.Timeout > 0 {
			clientOpts = append(clientOpts, http.WithTimeout(cfg.Timeout))
		}
		if cfg.Proxy != "" {
			clientOpts = append(clientOpts, http.WithProxy(cfg.Proxy))
		}
		for _, h := range cfg.DefaultHeaders {
			clientOpts = append(clientOpts, http.WithDefaultHeader(h.Name, h.Value))
		}
		r.client = http.NewClient(clientOpts...)
	}

	if cfg.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}

	return r
}

// RunResult summarizes one pass over a document.
type RunResult struct {
	RunID    string
	File     string
	Results  []*Result
	Duration time.Duration
	Sent     int
	Failed   int
	Invalid  int
	// Skipped counts well-formed blocks never sent because the context ended
	// while waiting on the rate limiter.
	Skipped int
	Summary *stats.Summary
}

// Result is the outcome of one block. Exactly one of ParseErr, Err and
// Response is set, unless the run was a dry run.
type Result struct {
	Index    int
	File     string
	Line     int
	Request  *http.Request
	Response *http.Response
	ParseErr error
	Err      error
	Duration time.Duration
	// Violations lists schema violations of a JSON response body.
	Violations []string
	DryRun     bool
	// Skipped is set when the request was never sent; Err says why.
	Skipped bool
}

// OK reports whether the block parsed and its request got a response.
func (r *Result) OK() bool {
	return r.ParseErr == nil && r.Err == nil
}

// RunFile reads path and runs every block in it. The returned error is set
// only when the document cannot be read; nothing is sent in that case.
func (r *Runner) RunFile(ctx context.Context, path string) (*RunResult, error) {
	outcomes, err := parser.ParseFile(path)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, path, outcomes), nil
}

// Run runs every block of input. filename only labels errors and history.
func (r *Runner) Run(ctx context.Context, input, filename string) *RunResult {
	return r.run(ctx, filename, parser.Parse(input, filename))
}

func (r *Runner) run(ctx context.Context, file string, outcomes []parser.Outcome) *RunResult {
	start := time.Now()
	recorder := stats.NewRecorder()
	result := &RunResult{
		RunID: uuid.NewString(),
		File:  file,
	}

	if len(outcomes) == 0 {
		r.logger.Warn("no requests found", "file", file)
	}

	for _, outcome := range outcomes {
		if err := ctx.Err(); err != nil {
			r.logger.Warn("run interrupted", "file", file, "remaining", len(outcomes)-len(result.Results))
			break
		}

		res := r.runOutcome(ctx, result.RunID, file, outcome)
		result.Results = append(result.Results, res)

		switch {
		case res.ParseErr != nil:
			result.Invalid++
		case res.DryRun:
		case res.Skipped:
			result.Skipped++
		case res.Err != nil:
			result.Sent++
			result.Failed++
			recorder.Record(res.Duration, res.Err)
		default:
			result.Sent++
			recorder.Record(res.Duration, nil)
		}

		r.reporter.Completed(res)
	}

	result.Duration = time.Since(start)
	result.Summary = recorder.Summary()
	return result
}

func (r *Runner) runOutcome(ctx context.Context, runID, file string, outcome parser.Outcome) *Result {
	res := &Result{Index: outcome.Index, File: file, Line: outcome.Line}

	if !outcome.OK() {
		res.ParseErr = outcome.Err
		r.logger.Debug("skipping malformed block", "file", file, "line", outcome.Line, "error", outcome.Err)
		return res
	}

	res.Request = http.BuildRequest(outcome.Request)

	if r.config.DryRun {
		res.DryRun = true
		r.reporter.Dispatching(res.Request)
		return res
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			res.Err = fmt.Errorf("rate limiter: %w", err)
			res.Skipped = true
			r.logger.Warn("request not sent", "file", file, "line", outcome.Line, "error", err)
			return res
		}
	}

	resp, err := r.Dispatch(ctx, res.Request)
	if err != nil {
		res.Err = err
	} else {
		res.Response = resp
		res.Duration = resp.Duration
		res.Violations = r.validate(resp)
	}

	r.record(ctx, runID, file, res)
	return res
}

// Dispatch sends one request through the client. It performs no retries.
func (r *Runner) Dispatch(ctx context.Context, req *http.Request) (*http.Response, error) {
	r.reporter.Dispatching(req)
	r.logger.Debug("dispatching", "method", req.Method, "url", req.URL, "headers", len(req.Headers))

	start := time.Now()
	resp, err := r.client.Do(ctx, req)
	if err != nil {
		r.logger.Info("request failed", "method", req.Method, "url", req.URL, "elapsed", time.Since(start), "error", err)
		return nil, err
	}

	r.logger.Info("response", "method", req.Method, "url", req.URL, "status", resp.StatusCode, "duration", resp.Duration)
	return resp, nil
}

func (r *Runner) validate(resp *http.Response) []string {
	if r.validator == nil || !resp.IsJSON() {
		return nil
	}
	violations, err := r.validator.Validate(resp.Body)
	if err != nil {
		return []string{err.Error()}
	}
	return violations
}

func (r *Runner) record(ctx context.Context, runID, file string, res *Result) {
	if r.history == nil {
		return
	}

	entry := &history.Entry{
		RunID:  runID,
		File:   file,
		Line:   res.Line,
		Method: res.Request.Method,
		URL:    res.Request.URL,
	}
	if res.Response != nil {
		entry.Status = res.Response.StatusCode
		entry.DurationMs = res.Response.DurationMs()
	}
	if res.Err != nil {
		entry.Error = res.Err.Error()
	}

	// A canceled run still gets its last request written.
	writeCtx := context.WithoutCancel(ctx)
	if err := r.history.Record(writeCtx, entry); err != nil {
		r.logger.Warn("failed to record history", "error", err)
	}
}

