// Package layout places measured flow blocks onto pages and columns. The
// top level entry point is Document - a pure function from (blocks,
// measures, options) to a Layout; identical inputs always produce identical
// output. Header/footer block sets are laid out through HeaderFooter, which
// reuses Document with a synthetic single-region page.
package layout

import (
	"go.uber.org/zap"

	"folio/flow"
)

// Layout is the sole output surface of pagination, consumed by rendering,
// hit testing and export.
type Layout struct {
	PageSize flow.Size
	Pages    []*Page
	Columns  flow.Columns
}

// Page is one laid out page. Number is the physical 1-based page index;
// NumberText is the display number formatted from the numbering state active
// when the page was created.
type Page struct {
	Number      int
	NumberText  string
	Fragments   []Fragment
	Margins     flow.Margins
	Size        flow.Size
	Orientation flow.Orientation
	SectionRefs *SectionRefs
}

// SectionRefs are the header/footer relationship bindings active on a page.
type SectionRefs struct {
	HeaderRefs map[flow.Variant]string
	FooterRefs map[flow.Variant]string
}

// FragmentKind discriminates fragment variants.
type FragmentKind string

const (
	FragmentPara     FragmentKind = "para"
	FragmentImage    FragmentKind = "image"
	FragmentDrawing  FragmentKind = "drawing"
	FragmentListItem FragmentKind = "listItem"
)

// Fragment is one placed slice of a block's content on one page. Positions
// are relative to the page content box (inside margins). For para/listItem
// fragments [FromLine, ToLine) names the measured lines rendered here; a
// block's fragments across pages partition its lines with no gaps or
// overlaps.
type Fragment struct {
	Kind    FragmentKind
	BlockID string

	X      float64
	Y      float64
	Width  float64
	Height float64

	FromLine int
	ToLine   int
	Src      *flow.SourceRange
}

// Options configure one Document call. PageSize is required; zero Columns
// mean a single column; zero Numbering means decimal starting at 1.
type Options struct {
	PageSize       flow.Size
	Margins        flow.Margins
	Columns        flow.Columns
	Orientation    flow.Orientation
	Numbering      flow.Numbering
	HeaderDistance float64
	FooterDistance float64

	// Learned true header/footer heights per variant. When present they
	// enlarge the respective content inset so body content cannot overlap
	// oversized header/footer content.
	HeaderHeights map[flow.Variant]float64
	FooterHeights map[flow.Variant]float64

	// Sections is per-section metadata from the document model layer;
	// index 0 applies before the first explicit section break.
	Sections []flow.SectionMeta

	// SectionLookahead maps a section break's block index to the upcoming
	// section's resolved geometry. Consulted for breaks following the
	// end-tagged source convention (the break's own props describe the
	// section that just ended); skipped for breaks carrying pre-resolved
	// metadata.
	SectionLookahead map[int]flow.SectionProps

	Log *zap.Logger

	// anchorLeftInset translates page-relative anchor offsets when laying
	// out header/footer regions, which have no margin of their own.
	anchorLeftInset float64
}

func (o *Options) logger() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}

// effectiveColumns returns the column configuration with a zero value
// defaulted to a single column.
func effectiveColumns(c flow.Columns) flow.Columns {
	if c.Count <= 0 {
		c.Count = 1
	}
	return c
}
