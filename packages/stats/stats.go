// Package stats aggregates request latencies for a run.
package stats

import (
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minLatencyUs = 1
	maxLatencyUs = 60_000_000
)

// Recorder collects latencies of dispatched requests. It is not safe for
// concurrent use; a run dispatches one request at a time.
type Recorder struct {
	histogram *hdrhistogram.Histogram
	total     int
	errors    int
}

// Summary is a snapshot of a Recorder.
type Summary struct {
	Total   int
	Success int
	Errors  int
	Min     time.Duration
	Max     time.Duration
	Mean    time.Duration
	P50     time.Duration
	P95     time.Duration
	P99     time.Duration
}

func NewRecorder() *Recorder {
	return &Recorder{
		// 1us to 60s, 3 significant digits
		histogram: hdrhistogram.New(minLatencyUs, maxLatencyUs, 3),
	}
}

// Record adds one request. Failed requests are counted but their latency is
// not recorded.
func (r *Recorder) Record(d time.Duration, err error) {
	r.total++
	if err != nil {
		r.errors++
		return
	}

	us := d.Microseconds()
	if us < minLatencyUs {
		us = minLatencyUs
	}
	if us > maxLatencyUs {
		us = maxLatencyUs
	}
	_ = r.histogram.RecordValue(us)
}

func (r *Recorder) Summary() *Summary {
	s := &Summary{
		Total:   r.total,
		Success: r.total - r.errors,
		Errors:  r.errors,
	}
	if r.histogram.TotalCount() == 0 {
		return s
	}
	s.Min = usToDuration(r.histogram.Min())
	s.Max = usToDuration(r.histogram.Max())
	s.Mean = usToDuration(int64(r.histogram.Mean()))
	s.P50 = usToDuration(r.histogram.ValueAtQuantile(50))
	s.P95 = usToDuration(r.histogram.ValueAtQuantile(95))
	s.P99 = usToDuration(r.histogram.ValueAtQuantile(99))
	return s
}

func usToDuration(us int64) time.Duration {
	return time.Duration(us) * time.Microsecond
}
