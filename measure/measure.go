// Package measure defines pre-computed size and line breaking data for flow
// blocks, plus a bounded content-keyed cache for it. Measures are produced by
// an external shaping step and consumed positionally: measures[i] always
// describes blocks[i].
package measure

import "folio/flow"

// Kind discriminates Measure variants. It must match the measured block's
// kind; the layout engine treats a mismatch as a contract violation.
type Kind string

const (
	KindParagraph    Kind = "paragraph"
	KindImage        Kind = "image"
	KindDrawing      Kind = "drawing"
	KindTable        Kind = "table"
	KindSectionBreak Kind = "sectionBreak"
	KindPageBreak    Kind = "pageBreak"
	KindColumnBreak  Kind = "columnBreak"
)

// Measure stores shaping results for a single block. Break and section
// variants are sentinels with no payload.
type Measure struct {
	Kind Kind

	Paragraph *ParagraphMeasure
	Image     *BoxMeasure
	Drawing   *BoxMeasure
	Table     *TableMeasure
}

// ParagraphMeasure is the line breaking result for one paragraph.
type ParagraphMeasure struct {
	Lines       []Line
	TotalHeight float64
}

// BoxMeasure is the resolved intrinsic box of an image or drawing.
type BoxMeasure struct {
	Width  float64
	Height float64
}

// TableMeasure carries per row heights and per cell paragraph measures.
type TableMeasure struct {
	Rows []RowMeasure
}

type RowMeasure struct {
	Height float64
	Cells  []CellMeasure
}

type CellMeasure struct {
	Width     float64
	Paragraph *ParagraphMeasure
}

// Line is a half-open slice over a paragraph's runs: content from
// (FromRun,FromChar) inclusive to (ToRun,ToChar) exclusive.
type Line struct {
	FromRun  int
	FromChar int
	ToRun    int
	ToChar   int

	Width      float64
	Ascent     float64
	Descent    float64
	LineHeight float64

	// Segments optionally carries explicit per-run X offsets for tab
	// aligned content.
	Segments []Segment
}

type Segment struct {
	Run int
	X   float64
}

// Constraints bound a measurement request.
type Constraints struct {
	MaxWidth  float64
	MaxHeight float64
}

// Sentinel returns the payload-free measure matching a break marker kind.
func Sentinel(kind flow.BlockKind) Measure {
	switch kind {
	case flow.BlockSectionBreak:
		return Measure{Kind: KindSectionBreak}
	case flow.BlockPageBreak:
		return Measure{Kind: KindPageBreak}
	case flow.BlockColumnBreak:
		return Measure{Kind: KindColumnBreak}
	}
	return Measure{}
}

// KindFor maps a block kind to the measure kind expected for it.
func KindFor(kind flow.BlockKind) Kind {
	switch kind {
	case flow.BlockParagraph:
		return KindParagraph
	case flow.BlockImage:
		return KindImage
	case flow.BlockDrawing:
		return KindDrawing
	case flow.BlockTable:
		return KindTable
	case flow.BlockSectionBreak:
		return KindSectionBreak
	case flow.BlockPageBreak:
		return KindPageBreak
	case flow.BlockColumnBreak:
		return KindColumnBreak
	}
	return ""
}
