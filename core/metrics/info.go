package metrics

import "io"

// Info carries static, unchanging key/value-style facts (e.g. build
// version). Info families are always rendered before every other family;
// Registry.Render achieves that by sorting TypeInfo metrics first, not by
// anything in this type's own render.
type Info struct {
	metric
}

func newInfo(name, help, unit string, labels Labels) *Info {
	return &Info{metric: newMetric(TypeInfo, name, help, unit, labels)}
}

func (i *Info) render(w io.Writer) {
	infoName := nameWithSuffixAndLabels(i.name, "info", i.labels, false)
	io.WriteString(w, infoName)
	io.WriteString(w, " 1\n")
	renderCreatedLine(w, i.name, i.labels, i.created)
}

// Stateset represents exactly one active state out of a fixed set of named
// states (spec.md §4.5). Only one state is 1 at a time; the rest render 0.
type Stateset struct {
	metric
	states []string
	active atomicString
}

func newStateset(name, help, unit string, labels Labels, states []string) *Stateset {
	s := &Stateset{
		metric: newMetric(TypeStateset, name, help, unit, labels),
		states: append([]string(nil), states...),
	}
	if len(states) > 0 {
		s.active.store(states[0])
	}
	return s
}

// Set makes state the single active state. It is a no-op if state is not
// one of the states the Stateset was created with.
func (s *Stateset) Set(state string) {
	for _, candidate := range s.states {
		if candidate == state {
			s.active.store(state)
			s.touch()
			return
		}
	}
}

// Active returns the currently active state.
func (s *Stateset) Active() string { return s.active.load() }

func (s *Stateset) render(w io.Writer) {
	active := s.Active()
	for _, state := range s.states {
		labels := append(append(Labels(nil), s.labels...), Label{Name: "state", Value: state})
		labels = sortedLabels(labels)
		io.WriteString(w, nameWithSuffixAndLabels(s.name, "stateset", labels, false))
		if state == active {
			io.WriteString(w, " 1\n")
		} else {
			io.WriteString(w, " 0\n")
		}
	}
}
