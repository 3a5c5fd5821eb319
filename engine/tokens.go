package engine

import (
	"strconv"

	"folio/flow"
	"folio/layout"
)

// numberingContext maps a finished layout back to display page numbers:
// total page count, the formatted display text of every physical page, and
// the first page each block (or table cell) landed on.
type numberingContext struct {
	totalPages int
	pageText   map[int]string
	blockPage  map[string]int
}

func buildNumberingContext(l *layout.Layout) *numberingContext {
	nc := &numberingContext{
		totalPages: len(l.Pages),
		pageText:   make(map[int]string, len(l.Pages)),
		blockPage:  make(map[string]int),
	}
	for _, p := range l.Pages {
		nc.pageText[p.Number] = p.NumberText
		for fi := range p.Fragments {
			id := p.Fragments[fi].BlockID
			if _, seen := nc.blockPage[id]; !seen {
				nc.blockPage[id] = p.Number
			}
		}
	}
	return nc
}

// numberFor returns the display number for the page the given block starts
// on; ok is false when the block produced no fragment.
func (nc *numberingContext) numberFor(id string) (string, bool) {
	page, ok := nc.blockPage[id]
	if !ok {
		return "", false
	}
	text, ok := nc.pageText[page]
	return text, ok
}

// resolveBodyTokens re-resolves page number field runs against the
// numbering context. Affected blocks are cloned, never mutated in place;
// the returned indexes name the replaced entries. An unchanged sequence
// returns the input slice and no indexes.
func resolveBodyTokens(blocks []flow.Block, nc *numberingContext) ([]flow.Block, []int) {
	var changed []int
	out := blocks
	for i := range blocks {
		var resolved *flow.Block
		switch blocks[i].Kind {
		case flow.BlockParagraph:
			if p, ok := resolveParagraph(blocks[i].Paragraph, blocks[i].ID, nc); ok {
				resolved = blocks[i].Clone()
				resolved.Paragraph = p
			}
		case flow.BlockTable:
			resolved = resolveTable(&blocks[i], nc)
		}
		if resolved == nil {
			continue
		}
		if len(changed) == 0 {
			out = make([]flow.Block, len(blocks))
			copy(out, blocks)
		}
		out[i] = *resolved
		changed = append(changed, i)
	}
	return out, changed
}

// resolveParagraph returns a clone with updated field texts, or ok false
// when every field already holds its resolved value. pageID names the block
// whose layout position supplies the page number (the table cell id for
// cell paragraphs).
func resolveParagraph(p *flow.Paragraph, pageID string, nc *numberingContext) (*flow.Paragraph, bool) {
	if p == nil || !p.HasFields() {
		return nil, false
	}
	dirty := false
	for i := range p.Runs {
		if want, ok := fieldValue(&p.Runs[i], pageID, nc); ok && p.Runs[i].Field.Text != want {
			dirty = true
			break
		}
	}
	if !dirty {
		return nil, false
	}
	out := p.Clone()
	for i := range out.Runs {
		if want, ok := fieldValue(&out.Runs[i], pageID, nc); ok {
			out.Runs[i].Field.Text = want
		}
	}
	return out, true
}

func resolveTable(b *flow.Block, nc *numberingContext) *flow.Block {
	dirty := false
	for ri := range b.Table.Rows {
		for ci := range b.Table.Rows[ri].Cells {
			cell := &b.Table.Rows[ri].Cells[ci]
			if cell.Paragraph == nil || !cell.Paragraph.HasFields() {
				continue
			}
			// cell fragments are keyed by the cell id, with the table id as
			// the page position fallback
			id := cell.ID
			if _, ok := nc.blockPage[id]; !ok {
				id = b.ID
			}
			if _, ok := resolveParagraph(cell.Paragraph, id, nc); ok {
				dirty = true
			}
		}
	}
	if !dirty {
		return nil
	}
	out := b.Clone()
	for ri := range out.Table.Rows {
		for ci := range out.Table.Rows[ri].Cells {
			cell := &out.Table.Rows[ri].Cells[ci]
			if cell.Paragraph == nil {
				continue
			}
			id := cell.ID
			if _, ok := nc.blockPage[id]; !ok {
				id = out.ID
			}
			if p, ok := resolveParagraph(cell.Paragraph, id, nc); ok {
				cell.Paragraph = p
			}
		}
	}
	return out
}

// fieldValue computes the resolved display text of a field run; ok is false
// for non-field runs and for page number fields whose block has no layout
// position yet.
func fieldValue(r *flow.Run, pageID string, nc *numberingContext) (string, bool) {
	if r.Kind != flow.RunField || r.Field == nil {
		return "", false
	}
	switch r.Field.Kind {
	case flow.FieldPageNumber:
		return nc.numberFor(pageID)
	case flow.FieldPageCount:
		return strconv.Itoa(nc.totalPages), true
	}
	return "", false
}

// resolveStaticTokens rewrites field runs in a header/footer block set
// against a fixed page text and total count; used by the final header and
// footer pass. A nil slice is returned unchanged.
func resolveStaticTokens(blocks []flow.Block, pageText string, total int) []flow.Block {
	var out []flow.Block
	for i := range blocks {
		if blocks[i].Kind != flow.BlockParagraph || blocks[i].Paragraph == nil || !blocks[i].Paragraph.HasFields() {
			continue
		}
		dirty := false
		for ri := range blocks[i].Paragraph.Runs {
			r := &blocks[i].Paragraph.Runs[ri]
			if want, ok := staticFieldValue(r, pageText, total); ok && r.Field.Text != want {
				dirty = true
				break
			}
		}
		if !dirty {
			continue
		}
		if out == nil {
			out = make([]flow.Block, len(blocks))
			copy(out, blocks)
		}
		nb := blocks[i].Clone()
		for ri := range nb.Paragraph.Runs {
			r := &nb.Paragraph.Runs[ri]
			if want, ok := staticFieldValue(r, pageText, total); ok {
				r.Field.Text = want
			}
		}
		out[i] = *nb
	}
	if out == nil {
		return blocks
	}
	return out
}

func staticFieldValue(r *flow.Run, pageText string, total int) (string, bool) {
	if r.Kind != flow.RunField || r.Field == nil {
		return "", false
	}
	switch r.Field.Kind {
	case flow.FieldPageNumber:
		if pageText == "" {
			return "", false
		}
		return pageText, true
	case flow.FieldPageCount:
		return strconv.Itoa(total), true
	}
	return "", false
}
