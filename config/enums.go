package config

import "folio/flow"

// Default page orientation.
// ENUM(portrait, landscape)
type PageOrientation string

// Display format of page numbers.
// ENUM(decimal, upperRoman, lowerRoman, upperLetter, lowerLetter)
type PageNumberFormat string

// Flow maps the configured format onto the flow model value.
func (f PageNumberFormat) Flow() flow.NumberFormat {
	switch f {
	case PageNumberFormatUpperRoman:
		return flow.NumberUpperRoman
	case PageNumberFormatLowerRoman:
		return flow.NumberLowerRoman
	case PageNumberFormatUpperLetter:
		return flow.NumberUpperLetter
	case PageNumberFormatLowerLetter:
		return flow.NumberLowerLetter
	default:
		return flow.NumberDecimal
	}
}
