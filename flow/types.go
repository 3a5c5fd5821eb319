// Package flow defines the document content model consumed by the layout
// engine: an ordered sequence of flow blocks (paragraphs, images, drawings,
// tables and break markers). Blocks are caller-owned and treated as immutable
// for the duration of one layout pass.
package flow

// Type definitions for flow content structures.

// BlockKind discriminates Block variants.
type BlockKind string

const (
	BlockParagraph    BlockKind = "paragraph"
	BlockImage        BlockKind = "image"
	BlockDrawing      BlockKind = "drawing"
	BlockTable        BlockKind = "table"
	BlockSectionBreak BlockKind = "sectionBreak"
	BlockPageBreak    BlockKind = "pageBreak"
	BlockColumnBreak  BlockKind = "columnBreak"
)

// Block stores a single unit of flow content, keeping the original document
// ordering. ID must be stable and unique within one layout pass - it is the
// identity key for caching, diffing and invalidation. Exactly one variant
// pointer matching Kind is set; pageBreak and columnBreak carry no payload.
type Block struct {
	ID   string
	Kind BlockKind

	Paragraph    *Paragraph
	Image        *Image
	Drawing      *Drawing
	Table        *Table
	SectionBreak *SectionBreak
}

// Paragraph is an ordered sequence of runs plus paragraph level attributes.
type Paragraph struct {
	Runs  []Run
	Attrs Attrs
	// ChangeView is the effective tracked-changes display mode under which
	// this paragraph renders. It participates in measurement cache keys.
	ChangeView ChangeView
	// TrackedChangesEnabled mirrors the document level switch - two
	// paragraphs with identical runs still differ structurally when the
	// switch differs.
	TrackedChangesEnabled bool
}

// ChangeView enumerates tracked-changes display modes.
type ChangeView string

const (
	ChangeViewFinal    ChangeView = "final"
	ChangeViewOriginal ChangeView = "original"
	ChangeViewMarkup   ChangeView = "markup"
)

// Image is a block level image with intrinsic dimensions in points.
type Image struct {
	Src     string
	Width   float64
	Height  float64
	Margin  Spacing
	Padding Spacing
	Anchor  *Anchor
	Wrap    WrapMode
	Attrs   Attrs
}

// DrawingKind discriminates drawing payloads.
type DrawingKind string

const (
	DrawingImage       DrawingKind = "image"
	DrawingVectorShape DrawingKind = "vectorShape"
	DrawingShapeGroup  DrawingKind = "shapeGroup"
)

// Drawing is a vector/group/image drawing object. ContentID identifies the
// drawing payload in the host document (relationship id or similar).
type Drawing struct {
	Kind      DrawingKind
	Width     float64
	Height    float64
	Margin    Spacing
	Padding   Spacing
	Anchor    *Anchor
	Wrap      WrapMode
	ZIndex    int
	ContentID string

	// kind specific payloads
	Src      string   // DrawingImage
	Shape    string   // DrawingVectorShape: serialized geometry path
	GroupIDs []string // DrawingShapeGroup: member content ids
}

// Table is a grid of rows of cells; each cell holds either a single
// paragraph or a nested block sequence.
type Table struct {
	Rows []TableRow
}

type TableRow struct {
	ID    string
	Cells []TableCell
}

type TableCell struct {
	ID        string
	Paragraph *Paragraph
	Blocks    []Block
}

// BreakType enumerates section break boundary semantics.
type BreakType string

const (
	BreakContinuous BreakType = "continuous"
	BreakNextPage   BreakType = "nextPage"
	BreakEvenPage   BreakType = "evenPage"
	BreakOddPage    BreakType = "oddPage"
)

// SectionBreak marks a change of page geometry starting at some boundary.
// Props fields are all optional - absent values leave the active geometry
// untouched.
type SectionBreak struct {
	Type  BreakType
	Props SectionProps
	Attrs Attrs
	// Resolved is set when Props already carries per-section metadata for
	// the upcoming section, so the caller supplied lookahead map must not be
	// applied on top of it.
	Resolved bool
}

// SectionProps groups every section scoped geometry property. Nil means "no
// change requested".
type SectionProps struct {
	Margins        *Margins
	PageSize       *Size
	Columns        *Columns
	Orientation    *Orientation
	Numbering      *Numbering
	HeaderDistance *float64
	FooterDistance *float64
	HeaderRefs     map[Variant]string
	FooterRefs     map[Variant]string
}

// Orientation of a page.
type Orientation string

const (
	OrientationPortrait  Orientation = "portrait"
	OrientationLandscape Orientation = "landscape"
)

// NumberFormat enumerates supported page number display formats.
type NumberFormat string

const (
	NumberDecimal     NumberFormat = "decimal"
	NumberUpperRoman  NumberFormat = "upperRoman"
	NumberLowerRoman  NumberFormat = "lowerRoman"
	NumberUpperLetter NumberFormat = "upperLetter"
	NumberLowerLetter NumberFormat = "lowerLetter"
)

// Numbering describes page numbering for a section. Start 0 continues the
// previous counter.
type Numbering struct {
	Format NumberFormat
	Start  int
}

// Variant selects a header/footer flavor per page.
type Variant string

const (
	VariantDefault Variant = "default"
	VariantFirst   Variant = "first"
	VariantEven    Variant = "even"
	VariantOdd     Variant = "odd"
)

// AnchorRef tells what an anchored object's offsets are relative to.
type AnchorRef string

const (
	AnchorColumn AnchorRef = "column"
	AnchorPage   AnchorRef = "page"
)

// Anchor positions an image/drawing relative to a paragraph instead of
// flowing it inline. BlockID names the anchor paragraph.
type Anchor struct {
	BlockID    string
	RelativeTo AnchorRef
	OffsetX    float64
	OffsetY    float64
}

// WrapMode controls how anchored objects exclude line content.
type WrapMode string

const (
	WrapNone      WrapMode = "none"
	WrapSquare    WrapMode = "square"
	WrapTopBottom WrapMode = "topBottom"
)

// Size in points.
type Size struct {
	W float64
	H float64
}

// Margins in points, clockwise from top.
type Margins struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Spacing is outer/inner box spacing of an object, clockwise from top.
type Spacing struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

// Columns describes a column configuration. When Widths is empty all columns
// share the content width evenly.
type Columns struct {
	Count  int
	Gap    float64
	Widths []float64
}

// ListAttrs marks a paragraph as a list item.
type ListAttrs struct {
	Level  int
	Marker string
}

// Attrs collects block level attributes shared by all block kinds.
type Attrs struct {
	SpacingBefore float64
	SpacingAfter  float64
	LineSpacing   float64
	Indent        float64
	List          *ListAttrs
	// RequirePageBoundary forces a section break to behave as nextPage even
	// when nominally continuous (used when paragraph level properties cannot
	// apply mid-page).
	RequirePageBoundary bool
	// Style keeps unrecognized style properties from the source document.
	Style map[string]string
}

// SectionMeta is per-section metadata supplied by the document model layer.
// Index 0 applies to content before the first explicit section break.
type SectionMeta struct {
	Index      int
	Numbering  *Numbering
	HeaderRefs map[Variant]string
	FooterRefs map[Variant]string
}
