package layout

import (
	"strconv"
	"strings"

	"folio/flow"
)

// FormatPageNumber renders a display page number in the given format.
// Values below 1 render as decimal regardless of format - roman and letter
// systems have no representation for them.
func FormatPageNumber(n int, format flow.NumberFormat) string {
	if n < 1 {
		return strconv.Itoa(n)
	}
	switch format {
	case flow.NumberUpperRoman:
		return toRoman(n)
	case flow.NumberLowerRoman:
		return strings.ToLower(toRoman(n))
	case flow.NumberUpperLetter:
		return toLetter(n)
	case flow.NumberLowerLetter:
		return strings.ToLower(toLetter(n))
	default:
		return strconv.Itoa(n)
	}
}

var romanValues = []struct {
	value  int
	symbol string
}{
	{1000, "M"}, {900, "CM"}, {500, "D"}, {400, "CD"},
	{100, "C"}, {90, "XC"}, {50, "L"}, {40, "XL"},
	{10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

func toRoman(n int) string {
	var buf strings.Builder
	for _, rv := range romanValues {
		for n >= rv.value {
			buf.WriteString(rv.symbol)
			n -= rv.value
		}
	}
	return buf.String()
}

// toLetter counts A..Z, AA..ZZ, AAA.. the way word processors do: 27 is AA,
// not a positional base-26 system.
func toLetter(n int) string {
	n--
	letter := string(rune('A' + n%26))
	return strings.Repeat(letter, n/26+1)
}
