package metrics

import "io"

// Untyped is an escape hatch for values that don't fit Counter/Gauge
// semantics (spec.md's Untyped type). It renders exactly like a Gauge but
// under the "unknown" OpenMetrics type.
type Untyped struct {
	metric
	value paddedUint64
}

func newUntyped(name, help, unit string, labels Labels) *Untyped {
	return &Untyped{metric: newMetric(TypeUntyped, name, help, unit, labels)}
}

// Set stores value verbatim.
func (u *Untyped) Set(value uint64) {
	u.value.v.Store(value)
	u.touch()
}

// Value returns the current value.
func (u *Untyped) Value() uint64 { return u.value.v.Load() }

func (u *Untyped) render(w io.Writer) {
	io.WriteString(w, nameWithSuffixAndLabels(u.name, "", u.labels, false))
	io.WriteString(w, " ")
	io.WriteString(w, formatInt(u.Value()))
	io.WriteString(w, "\n")
	renderCreatedLine(w, u.name, u.labels, u.created)
}
