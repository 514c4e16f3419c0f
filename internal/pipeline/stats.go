package pipeline

import (
	"sort"
	"sync"
	"time"
)

type sample struct {
	timestamp  time.Time
	durationMs int64
}

// LatencySnapshot is a point-in-time aggregate of processing latencies.
type LatencySnapshot struct {
	Count int     `json:"count"`
	MinMs int64   `json:"min_ms"`
	MaxMs int64   `json:"max_ms"`
	AvgMs float64 `json:"avg_ms"`
	P50Ms float64 `json:"p50_ms"`
	P95Ms float64 `json:"p95_ms"`
	P99Ms float64 `json:"p99_ms"`
}

// StatsSnapshot combines cumulative job counters with recent latencies.
type StatsSnapshot struct {
	Succeeded int64           `json:"documents_succeeded"`
	Failed    int64           `json:"documents_failed"`
	Chunks    int64           `json:"chunks_produced"`
	Latency   LatencySnapshot `json:"latency"`
}

// ProcStats tracks document processing outcomes. Latency samples live in a
// rolling window; the counters are cumulative since startup.
type ProcStats struct {
	mu        sync.Mutex
	samples   []sample
	maxAge    time.Duration
	succeeded int64
	failed    int64
	chunks    int64
}

func NewProcStats(maxAge time.Duration) *ProcStats {
	if maxAge <= 0 {
		maxAge = time.Hour
	}
	return &ProcStats{
		samples: make([]sample, 0, 256),
		maxAge:  maxAge,
	}
}

// RecordSuccess registers a completed document with its processing time and
// resulting chunk count.
func (s *ProcStats) RecordSuccess(durationMs int64, chunks int) {
	if durationMs < 0 {
		durationMs = 0
	}
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		timestamp:  now,
		durationMs: durationMs,
	})
	s.succeeded++
	s.chunks += int64(chunks)
}

// RecordFailure registers a job that failed before producing chunks.
func (s *ProcStats) RecordFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed++
}

func (s *ProcStats) Snapshot() StatsSnapshot {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(now)
	snap := StatsSnapshot{
		Succeeded: s.succeeded,
		Failed:    s.failed,
		Chunks:    s.chunks,
	}
	if len(s.samples) == 0 {
		return snap
	}

	values := make([]int64, 0, len(s.samples))
	var sum int64
	for _, sm := range s.samples {
		values = append(values, sm.durationMs)
		sum += sm.durationMs
	}
	sort.Slice(values, func(i, j int) bool { return values[i] < values[j] })

	snap.Latency = LatencySnapshot{
		Count: len(values),
		MinMs: values[0],
		MaxMs: values[len(values)-1],
		AvgMs: float64(sum) / float64(len(values)),
		P50Ms: percentile(values, 50),
		P95Ms: percentile(values, 95),
		P99Ms: percentile(values, 99),
	}
	return snap
}

func (s *ProcStats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.maxAge)
	writeIdx := 0
	for _, sm := range s.samples {
		if !sm.timestamp.Before(cutoff) {
			s.samples[writeIdx] = sm
			writeIdx++
		}
	}
	s.samples = s.samples[:writeIdx]
}

func percentile(sortedValues []int64, pct float64) float64 {
	if len(sortedValues) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sortedValues[0])
	}
	if pct >= 100 {
		return float64(sortedValues[len(sortedValues)-1])
	}

	index := (float64(len(sortedValues)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sortedValues) {
		return float64(sortedValues[lower])
	}
	weight := index - float64(lower)
	lo := float64(sortedValues[lower])
	hi := float64(sortedValues[upper])
	return lo + ((hi - lo) * weight)
}
