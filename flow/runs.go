package flow

import "strings"

// RunKind discriminates Run variants.
type RunKind string

const (
	RunText      RunKind = "text"
	RunTab       RunKind = "tab"
	RunLineBreak RunKind = "lineBreak"
	RunImage     RunKind = "image"
	RunField     RunKind = "field"
)

// Run stores a single piece of paragraph content. Format, Change and Src
// apply to any variant; lineBreak and tab carry no further payload.
type Run struct {
	Kind RunKind

	Text  *TextRun
	Image *ImageRun
	Field *FieldRun

	Format Format
	Change *TrackedChange
	Src    *SourceRange
}

type TextRun struct {
	Value string
}

// ImageRun is an inline image flowing with text.
type ImageRun struct {
	Src    string
	Width  float64
	Height float64
}

// FieldKind enumerates supported page number tokens.
type FieldKind string

const (
	FieldPageNumber FieldKind = "pageNumber"
	FieldPageCount  FieldKind = "pageCount"
)

// FieldRun is a page number token. Text holds the currently resolved display
// value; it is re-resolved by the convergence loop after pagination.
type FieldRun struct {
	Kind FieldKind
	Text string
}

// Format is character level formatting of a run.
type Format struct {
	Bold          bool
	Italic        bool
	Color         string
	Font          string
	Size          float64
	LetterSpacing float64
}

// TrackedChangeKind enumerates revision kinds.
type TrackedChangeKind string

const (
	ChangeInsert TrackedChangeKind = "insert"
	ChangeDelete TrackedChangeKind = "delete"
	ChangeFormat TrackedChangeKind = "format"
)

// TrackedChange is revision metadata attached to a run.
type TrackedChange struct {
	Kind   TrackedChangeKind
	ID     string
	Author string
	Date   string
	Before string
	After  string
}

// SourceRange maps a run (or fragment) back to positions in the source
// document.
type SourceRange struct {
	Start int
	End   int
}

// DisplayText returns the text a run contributes to rendered content.
func (r *Run) DisplayText() string {
	switch r.Kind {
	case RunText:
		if r.Text != nil {
			return r.Text.Value
		}
	case RunField:
		if r.Field != nil {
			return r.Field.Text
		}
	case RunTab:
		return "\t"
	case RunLineBreak:
		return "\n"
	}
	return ""
}

// AsPlainText extracts plain text content of the paragraph, excluding inline
// images.
func (p *Paragraph) AsPlainText() string {
	var buf strings.Builder
	for i := range p.Runs {
		buf.WriteString(p.Runs[i].DisplayText())
	}
	return buf.String()
}

// HasFields reports whether any run of the paragraph is a page number token.
func (p *Paragraph) HasFields() bool {
	for i := range p.Runs {
		if p.Runs[i].Kind == RunField {
			return true
		}
	}
	return false
}
