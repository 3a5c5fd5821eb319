package flow

// Structural, kind-aware equality over blocks. Identity (pointer) differences
// never matter: two independently constructed blocks with the same content
// compare equal. The dirty-region diff relies on this to decide whether a
// block with an unchanged id was modified in place.

// Equal reports deep structural equality of two blocks.
func (b *Block) Equal(o *Block) bool {
	if b == nil || o == nil {
		return b == o
	}
	if b.ID != o.ID || b.Kind != o.Kind {
		return false
	}
	switch b.Kind {
	case BlockParagraph:
		return paragraphsEqual(b.Paragraph, o.Paragraph)
	case BlockImage:
		return imagesEqual(b.Image, o.Image)
	case BlockDrawing:
		return drawingsEqual(b.Drawing, o.Drawing)
	case BlockTable:
		return tablesEqual(b.Table, o.Table)
	case BlockSectionBreak:
		return sectionBreaksEqual(b.SectionBreak, o.SectionBreak)
	case BlockPageBreak, BlockColumnBreak:
		return true
	}
	return false
}

func paragraphsEqual(a, b *Paragraph) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ChangeView != b.ChangeView || a.TrackedChangesEnabled != b.TrackedChangesEnabled {
		return false
	}
	if !attrsEqual(&a.Attrs, &b.Attrs) {
		return false
	}
	if len(a.Runs) != len(b.Runs) {
		return false
	}
	for i := range a.Runs {
		if !runsEqual(&a.Runs[i], &b.Runs[i]) {
			return false
		}
	}
	return true
}

func runsEqual(a, b *Run) bool {
	if a.Kind != b.Kind || a.Format != b.Format {
		return false
	}
	if !changesEqual(a.Change, b.Change) {
		return false
	}
	switch a.Kind {
	case RunText:
		if (a.Text == nil) != (b.Text == nil) {
			return false
		}
		return a.Text == nil || a.Text.Value == b.Text.Value
	case RunImage:
		if (a.Image == nil) != (b.Image == nil) {
			return false
		}
		return a.Image == nil || *a.Image == *b.Image
	case RunField:
		if (a.Field == nil) != (b.Field == nil) {
			return false
		}
		return a.Field == nil || *a.Field == *b.Field
	}
	return true
}

func changesEqual(a, b *TrackedChange) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func imagesEqual(a, b *Image) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Src == b.Src &&
		a.Width == b.Width && a.Height == b.Height &&
		a.Margin == b.Margin && a.Padding == b.Padding &&
		anchorsEqual(a.Anchor, b.Anchor) && a.Wrap == b.Wrap &&
		attrsEqual(&a.Attrs, &b.Attrs)
}

func drawingsEqual(a, b *Drawing) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Width != b.Width || a.Height != b.Height ||
		a.Margin != b.Margin || a.Padding != b.Padding ||
		!anchorsEqual(a.Anchor, b.Anchor) || a.Wrap != b.Wrap ||
		a.ZIndex != b.ZIndex || a.ContentID != b.ContentID ||
		a.Src != b.Src || a.Shape != b.Shape {
		return false
	}
	if len(a.GroupIDs) != len(b.GroupIDs) {
		return false
	}
	for i := range a.GroupIDs {
		if a.GroupIDs[i] != b.GroupIDs[i] {
			return false
		}
	}
	return true
}

func tablesEqual(a, b *Table) bool {
	if a == nil || b == nil {
		return a == b
	}
	if len(a.Rows) != len(b.Rows) {
		return false
	}
	for i := range a.Rows {
		ra, rb := &a.Rows[i], &b.Rows[i]
		if ra.ID != rb.ID || len(ra.Cells) != len(rb.Cells) {
			return false
		}
		for j := range ra.Cells {
			ca, cb := &ra.Cells[j], &rb.Cells[j]
			if ca.ID != cb.ID {
				return false
			}
			if !paragraphsEqual(ca.Paragraph, cb.Paragraph) {
				return false
			}
			if len(ca.Blocks) != len(cb.Blocks) {
				return false
			}
			for k := range ca.Blocks {
				if !ca.Blocks[k].Equal(&cb.Blocks[k]) {
					return false
				}
			}
		}
	}
	return true
}

func sectionBreaksEqual(a, b *SectionBreak) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Type != b.Type || a.Resolved != b.Resolved || !attrsEqual(&a.Attrs, &b.Attrs) {
		return false
	}
	return sectionPropsEqual(&a.Props, &b.Props)
}

func sectionPropsEqual(a, b *SectionProps) bool {
	if !ptrEqual(a.Margins, b.Margins) || !ptrEqual(a.PageSize, b.PageSize) ||
		!ptrEqual(a.Orientation, b.Orientation) || !ptrEqual(a.Numbering, b.Numbering) ||
		!ptrEqual(a.HeaderDistance, b.HeaderDistance) || !ptrEqual(a.FooterDistance, b.FooterDistance) {
		return false
	}
	if !columnsEqual(a.Columns, b.Columns) {
		return false
	}
	return refsEqual(a.HeaderRefs, b.HeaderRefs) && refsEqual(a.FooterRefs, b.FooterRefs)
}

func columnsEqual(a, b *Columns) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Count != b.Count || a.Gap != b.Gap || len(a.Widths) != len(b.Widths) {
		return false
	}
	for i := range a.Widths {
		if a.Widths[i] != b.Widths[i] {
			return false
		}
	}
	return true
}

func refsEqual(a, b map[Variant]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if bv, ok := b[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func anchorsEqual(a, b *Anchor) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func attrsEqual(a, b *Attrs) bool {
	if a.SpacingBefore != b.SpacingBefore || a.SpacingAfter != b.SpacingAfter ||
		a.LineSpacing != b.LineSpacing || a.Indent != b.Indent ||
		a.RequirePageBoundary != b.RequirePageBoundary {
		return false
	}
	if (a.List == nil) != (b.List == nil) {
		return false
	}
	if a.List != nil && *a.List != *b.List {
		return false
	}
	if len(a.Style) != len(b.Style) {
		return false
	}
	for k, v := range a.Style {
		if bv, ok := b.Style[k]; !ok || bv != v {
			return false
		}
	}
	return true
}

func ptrEqual[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
