package metrics

import (
	"io"
	"math"
	"strconv"
	"time"
)

// renderer is implemented by every concrete metric type. render writes the
// metric's instance line(s) only; family-level "# HELP"/"# TYPE"/"# UNIT"
// lines are written once per family by the Registry.
type renderer interface {
	Type() Type
	Name() string
	Help() string
	Unit() string
	Labels() Labels
	CreatedAt() time.Time
	render(w io.Writer)
}

// formatNumber renders a float64 the way original_source's
// DataType::renderNumber does: an exact-integer value always gets one
// decimal place ("1.0"), very small non-integers use fixed notation, and
// everything else uses %g capped at 6 significant digits.
func formatNumber(value float64) string {
	if math.Floor(value) == value && !math.IsInf(value, 0) {
		return strconv.FormatFloat(value, 'f', 1, 64)
	}
	if math.Abs(value) < 0.001 {
		return strconv.FormatFloat(value, 'f', 6, 64)
	}
	return strconv.FormatFloat(value, 'g', 6, 64)
}

// formatInt renders an integral counter/gauge value without decimals.
func formatInt(value uint64) string {
	return strconv.FormatUint(value, 10)
}

// renderCreatedLine writes "name_created{labels} <unix-seconds>\n" as a
// separate line after a counter, gauge, info or untyped instance line. The
// creation timestamp is not appended to the instance line itself, and
// histograms, summaries and statesets get no created line.
func renderCreatedLine(w io.Writer, name string, labels Labels, createdAt time.Time) {
	createdName := nameWithSuffixAndLabels(name, "created", labels, false)
	io.WriteString(w, createdName)
	io.WriteString(w, " ")
	io.WriteString(w, strconv.FormatInt(createdAt.Unix(), 10))
	io.WriteString(w, "\n")
}
