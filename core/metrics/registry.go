package metrics

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// ErrAlreadyRegistered is returned by the Add* constructors when a metric
// with the same (name, labels[, type]) composite key already exists.
// Duplicate registration is a caller precondition failure, not something
// ever surfaced to an HTTP client (spec.md §7).
var ErrAlreadyRegistered = errors.New("metrics: metric already registered with the same name and labels")

// Registry is a thread-safe, append-only store of metrics, keyed so that
// logically equal label sets collide (testable property 8); Render places
// Info families ahead of every other family (testable property 9). The
// registry mutex guards only insertion and key lookup; individual
// metrics carry their own atomics or mutex, per spec.md §5.
type Registry struct {
	mu      sync.Mutex
	metrics map[string]renderer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{metrics: make(map[string]renderer)}
}

func (r *Registry) insert(key string, m renderer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.metrics[key]; exists {
		return ErrAlreadyRegistered
	}
	r.metrics[key] = m
	return nil
}

// AddCounter registers and returns a new Counter.
func (r *Registry) AddCounter(name, help, unit string, labels Labels) (*Counter, error) {
	c := newCounter(name, help, unit, labels)
	if err := r.insert(registryKey(name, labels, TypeCounter), c); err != nil {
		return nil, err
	}
	return c, nil
}

// AddGauge registers and returns a new Gauge.
func (r *Registry) AddGauge(name, help, unit string, labels Labels) (*Gauge, error) {
	g := newGauge(name, help, unit, labels)
	if err := r.insert(registryKey(name, labels, TypeGauge), g); err != nil {
		return nil, err
	}
	return g, nil
}

// AddInfo registers and returns a new Info metric.
func (r *Registry) AddInfo(name, help, unit string, labels Labels) (*Info, error) {
	i := newInfo(name, help, unit, labels)
	if err := r.insert(registryKey(name, labels, TypeInfo), i); err != nil {
		return nil, err
	}
	return i, nil
}

// AddStateset registers and returns a new Stateset over the given states.
func (r *Registry) AddStateset(name, help, unit string, labels Labels, states []string) (*Stateset, error) {
	s := newStateset(name, help, unit, labels, states)
	if err := r.insert(registryKey(name, labels, TypeStateset), s); err != nil {
		return nil, err
	}
	return s, nil
}

// AddUntyped registers and returns a new Untyped metric.
func (r *Registry) AddUntyped(name, help, unit string, labels Labels) (*Untyped, error) {
	u := newUntyped(name, help, unit, labels)
	if err := r.insert(registryKey(name, labels, TypeUntyped), u); err != nil {
		return nil, err
	}
	return u, nil
}

// AddHistogram registers and returns a new Histogram with the given bucket
// bounds. Bounds must be ascending and must not include +Inf (the +Inf
// bucket is implicit).
func (r *Registry) AddHistogram(name, help, unit string, labels Labels, bounds []float64) (*Histogram, error) {
	if bounds == nil {
		bounds = DefaultBuckets
	}
	h := newHistogram(name, help, unit, labels, bounds)
	if err := r.insert(registryKey(name, labels, TypeHistogram), h); err != nil {
		return nil, err
	}
	return h, nil
}

// AddSummary registers and returns a new Summary over the given quantiles,
// backed by a ring buffer of the given capacity (0 means
// DefaultRingCapacity).
func (r *Registry) AddSummary(name, help, unit string, labels Labels, quantiles []float64, capacity int) (*Summary, error) {
	if quantiles == nil {
		quantiles = DefaultQuantiles
	}
	s := newSummary(name, help, unit, labels, quantiles, capacity)
	if err := r.insert(registryKey(name, labels, TypeSummary), s); err != nil {
		return nil, err
	}
	return s, nil
}

// Lookup finds a metric by its exact (name, labels[, type]) key. It returns
// nil if no such metric exists.
func (r *Registry) Lookup(name string, labels Labels, kind *Type) renderer {
	var k Type
	if kind != nil {
		k = *kind
	}
	key := registryKey(name, labels, k)
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.metrics[key]
	if m == nil {
		return nil
	}
	if kind != nil && m.Type() != *kind {
		return nil
	}
	return m
}

// ContentType is the value to send as Content-Type when serving rendered
// metrics (spec.md §6).
const ContentType = "application/openmetrics-text; version=1.0.0; charset=utf-8"

// Render writes every registered metric in OpenMetrics text exposition
// format, terminated with "# EOF\n" (spec.md §4.5, testable property 9).
// Metrics sharing a family name are grouped so "# HELP"/"# TYPE"/optional
// "# UNIT" is emitted exactly once per family, immediately before that
// family's instance lines. Info families render first because the
// snapshot sort below orders every TypeInfo metric ahead of the rest.
func (r *Registry) Render(w io.Writer) {
	r.mu.Lock()
	snapshot := make([]renderer, 0, len(r.metrics))
	for _, m := range r.metrics {
		snapshot = append(snapshot, m)
	}
	r.mu.Unlock()

	// Sort by (Info-families-first, family name, rendered label string) so
	// families never interleave even when one metric name is a prefix of
	// another (e.g. "http" and "http2").
	sort.Slice(snapshot, func(i, j int) bool {
		a, b := snapshot[i], snapshot[j]
		aInfo, bInfo := a.Type() == TypeInfo, b.Type() == TypeInfo
		if aInfo != bInfo {
			return aInfo
		}
		if a.Name() != b.Name() {
			return a.Name() < b.Name()
		}
		return labelString(a.Labels()) < labelString(b.Labels())
	})

	currentFamily := ""
	familyStarted := false
	for _, m := range snapshot {
		if !familyStarted || currentFamily != m.Name() {
			currentFamily = m.Name()
			familyStarted = true

			if m.Help() != "" {
				fmt.Fprintf(w, "# HELP %s %s\n", m.Name(), m.Help())
			}
			fmt.Fprintf(w, "# TYPE %s %s\n", m.Name(), m.Type().String())
			if m.Unit() != "" {
				fmt.Fprintf(w, "# UNIT %s %s\n", m.Name(), m.Unit())
			}
		}
		renderMetric(w, m)
	}

	io.WriteString(w, "# EOF\n")
}

// RenderString is a convenience wrapper around Render.
func (r *Registry) RenderString() string {
	var b strings.Builder
	r.Render(&b)
	return b.String()
}

func labelString(labels Labels) string {
	var b strings.Builder
	for _, l := range labels {
		b.WriteString(l.Name)
		b.WriteByte('=')
		b.WriteString(l.Value)
		b.WriteByte(',')
	}
	return b.String()
}

func renderMetric(w io.Writer, m renderer) {
	switch v := m.(type) {
	case *Counter:
		v.render(w)
	case *Gauge:
		v.render(w)
	case *Info:
		v.render(w)
	case *Stateset:
		v.render(w)
	case *Untyped:
		v.render(w)
	case *Histogram:
		v.render(w)
	case *Summary:
		v.render(w)
	default:
		panic("metrics: unknown metric kind")
	}
}
