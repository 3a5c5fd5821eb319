// Package debug builds human readable tree dumps of nested structures, used
// for layout inspection output and debug reports.
package debug

import (
	"fmt"
	"strconv"
	"strings"
)

const indentStep = "  "

// TreeWriter accumulates indented lines forming a tree rendering. The zero
// value is not usable, construct with NewTreeWriter.
type TreeWriter struct {
	b strings.Builder
}

func NewTreeWriter() *TreeWriter {
	return &TreeWriter{}
}

func (tw *TreeWriter) String() string {
	return tw.b.String()
}

// Line appends one formatted line at the given depth.
func (tw *TreeWriter) Line(depth int, format string, args ...any) {
	tw.b.WriteString(strings.Repeat(indentStep, depth))
	fmt.Fprintf(&tw.b, format, args...)
	tw.b.WriteByte('\n')
}

// TextBlock appends a labeled text value, quoting it so control characters
// and surrounding whitespace stay visible.
func (tw *TreeWriter) TextBlock(depth int, label, value string) {
	tw.b.WriteString(strings.Repeat(indentStep, depth))
	tw.b.WriteString(label)
	tw.b.WriteString(": ")
	if value != "" {
		value = strconv.Quote(value)
	}
	tw.b.WriteString(value)
	tw.b.WriteByte('\n')
}

// Pt formats a point dimension compactly: whole values lose the fraction,
// fractional values keep at most two digits.
func Pt(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
