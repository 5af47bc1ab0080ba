// Package metrics defines the minimal metrics abstraction used by the
// pipeline.
//
// Design goals (intentionally opinionated):
//   - Keep the core pipeline code depending only on metrics.Backend.
//   - Backends buffer in memory and submit on Flush(); the pipeline never
//     blocks on a metrics network call.
//   - A nil-safe Noop backend keeps call sites free of guards.
package metrics

import "time"

// Labels are free-form metric labels (e.g. {"stage": "join"}).
type Labels map[string]string

// Backend is implemented by metric sinks (Datadog, noop).
type Backend interface {
	// IncCounter adds delta to a named counter. Non-positive deltas are
	// ignored.
	IncCounter(name string, delta float64, labels Labels)

	// ObserveHistogram records one sample of a named distribution. Negative
	// values are ignored.
	ObserveHistogram(name string, value float64, labels Labels)

	// Flush submits buffered metrics to the sink.
	Flush() error

	// Close stops background flushing and performs one final Flush.
	Close() error
}

// Metric names emitted by the pipeline. Keeping them in one place makes the
// operational contract reviewable.
const (
	// StageRowsTotal counts rows flowing through a stage, labeled
	// stage + direction (in/out/dropped/deduped).
	StageRowsTotal = "salescube_stage_rows_total"

	// StageDurationSeconds samples wall time per stage, labeled stage+status.
	StageDurationSeconds = "salescube_stage_duration_seconds"

	// StageRunsTotal counts stage executions, labeled stage+status.
	StageRunsTotal = "salescube_stage_runs_total"
)

// Noop is a Backend that drops everything.
type Noop struct{}

func (Noop) IncCounter(string, float64, Labels)       {}
func (Noop) ObserveHistogram(string, float64, Labels) {}
func (Noop) Flush() error                             { return nil }
func (Noop) Close() error                             { return nil }

// StageRows records a row count for a stage in a given direction.
func StageRows(b Backend, stage, direction string, n int) {
	if b == nil || n < 0 {
		return
	}
	b.IncCounter(StageRowsTotal, float64(n), Labels{"stage": stage, "direction": direction})
}

// StageDone records one stage execution with its duration and status.
func StageDone(b Backend, stage, status string, d time.Duration) {
	if b == nil {
		return
	}
	b.IncCounter(StageRunsTotal, 1, Labels{"stage": stage, "status": status})
	b.ObserveHistogram(StageDurationSeconds, d.Seconds(), Labels{"stage": stage, "status": status})
}
