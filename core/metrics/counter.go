package metrics

import (
	"io"
	"sync/atomic"
)

// cacheLineSize is sized so a padded atomic counter occupies its own cache
// line and never false-shares with its neighbour in the registry's backing
// slice, the same concern original_source's Metrics guards with `alignas`.
const cacheLineSize = 64

// paddedUint64 is an atomic.Uint64 padded out to a full cache line.
type paddedUint64 struct {
	v   atomic.Uint64
	_   [cacheLineSize - 8]byte
}

// Counter is a monotonically increasing value. Values are stored in a
// cache-line padded atomic and updated with memory_order_relaxed semantics
// (Go's atomic package has no weaker mode, so Add/Load are used directly).
type Counter struct {
	metric
	value paddedUint64
}

func newCounter(name, help, unit string, labels Labels) *Counter {
	return &Counter{metric: newMetric(TypeCounter, name, help, unit, labels)}
}

// Inc adds delta to the counter; pass 1 for a plain increment.
func (c *Counter) Inc(delta uint64) {
	c.value.v.Add(delta)
	c.touch()
}

// Value returns the current counter value.
func (c *Counter) Value() uint64 { return c.value.v.Load() }

func (c *Counter) render(w io.Writer) {
	totalName := nameWithSuffixAndLabels(c.name, "total", c.labels, false)
	io.WriteString(w, totalName)
	io.WriteString(w, " ")
	io.WriteString(w, formatInt(c.Value()))
	io.WriteString(w, "\n")
	renderCreatedLine(w, c.name, c.labels, c.created)
}

// Gauge is a value that can move up and down.
type Gauge struct {
	metric
	value paddedUint64
}

func newGauge(name, help, unit string, labels Labels) *Gauge {
	return &Gauge{metric: newMetric(TypeGauge, name, help, unit, labels)}
}

// Set stores value verbatim.
func (g *Gauge) Set(value uint64) {
	g.value.v.Store(value)
	g.touch()
}

// Inc adds delta to the gauge.
func (g *Gauge) Inc(delta uint64) {
	g.value.v.Add(delta)
	g.touch()
}

// Dec subtracts delta from the gauge.
func (g *Gauge) Dec(delta uint64) {
	g.value.v.Add(^(delta - 1)) // two's complement subtraction, avoids a CAS loop
	g.touch()
}

// Value returns the current gauge value.
func (g *Gauge) Value() uint64 { return g.value.v.Load() }

func (g *Gauge) render(w io.Writer) {
	io.WriteString(w, nameWithSuffixAndLabels(g.name, "", g.labels, false))
	io.WriteString(w, " ")
	io.WriteString(w, formatInt(g.Value()))
	io.WriteString(w, "\n")
	renderCreatedLine(w, g.name, g.labels, g.created)
}

// scopedGauge holds the Gauge that ScopeGauge incremented so its release
// function can decrement it, mirroring yahat::Metrics::Scoped — a
// resource-scoped wrapper for in-flight-request style gauges. It works on
// *Gauge only.
type scopedGauge struct {
	g *Gauge
}

// ScopeGauge increments g and returns a release function that decrements it.
// Use with defer: `defer metrics.ScopeGauge(inFlight)()`.
func ScopeGauge(g *Gauge) func() {
	g.Inc(1)
	s := scopedGauge{g: g}
	return func() {
		s.g.Dec(1)
	}
}
