package metrics

import (
	"io"
	"sync"
)

// DefaultBuckets mirrors a typical latency-observing histogram: sub-
// millisecond through multi-second bounds, in seconds.
var DefaultBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// Histogram aggregates observations into a fixed set of buckets, rendered
// as cumulative le counts, plus a running count and sum. Aggregate state is guarded by a mutex;
// rendering snapshots the counters under the lock and formats them after
// releasing it, per spec.md's concurrency model for histograms/summaries.
type Histogram struct {
	metric
	mu      sync.Mutex
	bounds  []float64 // ascending, does not include +Inf
	buckets []uint64  // buckets[i] counts observations in (bounds[i-1], bounds[i]]; len(buckets) == len(bounds)+1, last is +Inf; render sums them into cumulative le counts
	count   uint64
	sum     float64
}

func newHistogram(name, help, unit string, labels Labels, bounds []float64) *Histogram {
	b := append([]float64(nil), bounds...)
	return &Histogram{
		metric:  newMetric(TypeHistogram, name, help, unit, labels),
		bounds:  b,
		buckets: make([]uint64, len(b)+1),
	}
}

// Observe records a single value. It is placed in the first bucket whose
// bound is >= value, else in the +Inf bucket — resolving the source's
// bucket-boundary ambiguity (REDESIGN FLAG / open question 2) explicitly in
// favour of the "first bound >= value" rule.
func (h *Histogram) Observe(value float64) {
	h.mu.Lock()
	idx := len(h.bounds) // default: +Inf bucket
	for i, bound := range h.bounds {
		if value <= bound {
			idx = i
			break
		}
	}
	h.buckets[idx]++
	h.count++
	h.sum += value
	h.mu.Unlock()
	h.touch()
}

// Snapshot returns a copy of the histogram's current aggregate state.
func (h *Histogram) Snapshot() (buckets []uint64, count uint64, sum float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]uint64(nil), h.buckets...), h.count, h.sum
}

func (h *Histogram) render(w io.Writer) {
	buckets, count, sum := h.Snapshot()

	cumulative := uint64(0)
	for i, bound := range h.bounds {
		cumulative += buckets[i]
		labels := sortedLabels(append(append(Labels(nil), h.labels...), Label{Name: "le", Value: formatNumber(bound)}))
		io.WriteString(w, nameWithSuffixAndLabels(h.name, "bucket", labels, false))
		io.WriteString(w, " ")
		io.WriteString(w, formatInt(cumulative))
		io.WriteString(w, "\n")
	}
	cumulative += buckets[len(h.bounds)]
	infLabels := sortedLabels(append(append(Labels(nil), h.labels...), Label{Name: "le", Value: "+Inf"}))
	io.WriteString(w, nameWithSuffixAndLabels(h.name, "bucket", infLabels, false))
	io.WriteString(w, " ")
	io.WriteString(w, formatInt(cumulative))
	io.WriteString(w, "\n")

	io.WriteString(w, nameWithSuffixAndLabels(h.name, "count", h.labels, false))
	io.WriteString(w, " ")
	io.WriteString(w, formatInt(count))
	io.WriteString(w, "\n")

	io.WriteString(w, nameWithSuffixAndLabels(h.name, "sum", h.labels, false))
	io.WriteString(w, " ")
	io.WriteString(w, formatNumber(sum))
	io.WriteString(w, "\n")
}
