package datadog

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"salescube/internal/metrics"

	"github.com/DataDog/datadog-api-client-go/v2/api/datadogV2"
)

// fakeSubmitter captures payloads submitted by Backend.Flush().
type fakeSubmitter struct {
	mu       sync.Mutex
	payloads []datadogV2.MetricPayload
	err      error
}

func (f *fakeSubmitter) SubmitMetrics(ctx context.Context, body datadogV2.MetricPayload, params ...datadogV2.SubmitMetricsOptionalParameters) (datadogV2.IntakePayloadAccepted, *http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, body)
	return datadogV2.IntakePayloadAccepted{}, nil, f.err
}

func (f *fakeSubmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func (f *fakeSubmitter) last() (datadogV2.MetricPayload, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.payloads) == 0 {
		return datadogV2.MetricPayload{}, false
	}
	return f.payloads[len(f.payloads)-1], true
}

func newTestBackend(t *testing.T, sub *fakeSubmitter) *Backend {
	t.Helper()

	b, err := NewBackend(context.Background(), Options{
		JobName:    "testjob",
		FlushEvery: time.Hour, // ticker must not fire during the test
		now:        func() time.Time { return time.Unix(1700000000, 0) },
		submitter:  sub,
	})
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

// TestResolveEnvTag verifies environment-tag precedence and defaults.
func TestResolveEnvTag(t *testing.T) {
	oldENV := os.Getenv("ENV")
	oldDDENV := os.Getenv("DD_ENV")
	t.Cleanup(func() {
		_ = os.Setenv("ENV", oldENV)
		_ = os.Setenv("DD_ENV", oldDDENV)
	})

	tests := []struct {
		name string
		env  string
		dd   string
		want string
	}{
		{name: "ENV_wins", env: "prod", dd: "stage", want: "env:prod"},
		{name: "DD_ENV_used_when_ENV_empty", env: "", dd: "stage", want: "env:stage"},
		{name: "whitespace_ignored", env: "   ", dd: "\n\t", want: "env:unknown"},
		{name: "default_unknown", env: "", dd: "", want: "env:unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_ = os.Setenv("ENV", tc.env)
			_ = os.Setenv("DD_ENV", tc.dd)
			if got := resolveEnvTag(); got != tc.want {
				t.Fatalf("resolveEnvTag()=%q, want %q", got, tc.want)
			}
		})
	}
}

func TestFlushEmptyIsNoop(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	b := newTestBackend(t, sub)

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if sub.count() != 0 {
		t.Fatalf("empty flush submitted %d payloads", sub.count())
	}
}

func TestFlushBuildsRowAndRunSeries(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	b := newTestBackend(t, sub)

	b.IncCounter(metrics.StageRowsTotal, 3, metrics.Labels{"stage": "join", "direction": "in"})
	b.IncCounter(metrics.StageRowsTotal, 1, metrics.Labels{"stage": "join", "direction": "dropped"})
	b.IncCounter(metrics.StageRunsTotal, 1, metrics.Labels{"stage": "join", "status": "ok"})
	b.ObserveHistogram(metrics.StageDurationSeconds, 0.25, metrics.Labels{"stage": "join", "status": "ok"})

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	payload, ok := sub.last()
	if !ok {
		t.Fatalf("no payload submitted")
	}

	var sawRows, sawRuns, sawP95 bool
	for _, s := range payload.Series {
		switch s.Metric {
		case "salescube.stage.rows":
			sawRows = true
			if !hasTag(s.Tags, "stage:join") {
				t.Fatalf("rows series missing stage tag: %v", s.Tags)
			}
			if !hasTag(s.Tags, "job:testjob") {
				t.Fatalf("rows series missing job tag: %v", s.Tags)
			}
		case "salescube.stage.runs":
			sawRuns = true
		case "salescube.stage.duration_seconds.p95":
			sawP95 = true
		}
	}
	if !sawRows || !sawRuns || !sawP95 {
		t.Fatalf("missing series: rows=%v runs=%v p95=%v", sawRows, sawRuns, sawP95)
	}

	// Buffers reset: a second flush submits nothing.
	if err := b.Flush(); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if sub.count() != 1 {
		t.Fatalf("second flush should be empty, payloads=%d", sub.count())
	}
}

func TestCountersIgnoreNonPositiveAndUnknown(t *testing.T) {
	t.Parallel()

	sub := &fakeSubmitter{}
	b := newTestBackend(t, sub)

	b.IncCounter(metrics.StageRowsTotal, 0, metrics.Labels{"stage": "join", "direction": "in"})
	b.IncCounter(metrics.StageRowsTotal, -5, metrics.Labels{"stage": "join", "direction": "in"})
	b.IncCounter("something_else_total", 7, nil)
	b.ObserveHistogram("something_else_seconds", 1, nil)

	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if sub.count() != 0 {
		t.Fatalf("expected nothing to submit, payloads=%d", sub.count())
	}
}

func TestPairKeyRoundTrip(t *testing.T) {
	t.Parallel()

	k := pairKey("aggregate", "ok")
	stage, status := splitPairKey(k)
	if stage != "aggregate" || status != "ok" {
		t.Fatalf("round trip: got (%q,%q)", stage, status)
	}

	stage, status = splitPairKey("bare")
	if stage != "bare" || status != "unknown" {
		t.Fatalf("bare key: got (%q,%q)", stage, status)
	}
}

func TestPercentileNearestRank(t *testing.T) {
	t.Parallel()

	s := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	if got := percentileNearestRank(s, 0); got != 1 {
		t.Fatalf("p0=%v", got)
	}
	if got := percentileNearestRank(s, 1); got != 10 {
		t.Fatalf("p100=%v", got)
	}
	if got := percentileNearestRank(s, 0.5); got < 5 || got > 6 {
		t.Fatalf("p50=%v outside [5,6]", got)
	}
	if got := percentileNearestRank(nil, 0.5); got != 0 {
		t.Fatalf("empty samples=%v", got)
	}
}

func hasTag(tags []string, want string) bool {
	for _, tg := range tags {
		if strings.EqualFold(tg, want) {
			return true
		}
	}
	return false
}
