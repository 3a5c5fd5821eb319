package flow

// Deep copy helpers. Blocks are immutable during a layout pass, so the token
// convergence loop must not edit them in place - it clones affected blocks
// and substitutes the copies.

// Clone creates a deep copy of the block.
func (b *Block) Clone() *Block {
	if b == nil {
		return nil
	}
	c := &Block{ID: b.ID, Kind: b.Kind}
	switch b.Kind {
	case BlockParagraph:
		c.Paragraph = b.Paragraph.Clone()
	case BlockImage:
		if b.Image != nil {
			img := *b.Image
			img.Anchor = cloneAnchor(b.Image.Anchor)
			img.Attrs = cloneAttrs(&b.Image.Attrs)
			c.Image = &img
		}
	case BlockDrawing:
		if b.Drawing != nil {
			d := *b.Drawing
			d.Anchor = cloneAnchor(b.Drawing.Anchor)
			d.GroupIDs = append([]string(nil), b.Drawing.GroupIDs...)
			c.Drawing = &d
		}
	case BlockTable:
		c.Table = cloneTable(b.Table)
	case BlockSectionBreak:
		if b.SectionBreak != nil {
			sb := *b.SectionBreak
			sb.Props = cloneSectionProps(&b.SectionBreak.Props)
			sb.Attrs = cloneAttrs(&b.SectionBreak.Attrs)
			c.SectionBreak = &sb
		}
	}
	return c
}

// Clone creates a deep copy of the paragraph.
func (p *Paragraph) Clone() *Paragraph {
	if p == nil {
		return nil
	}
	c := *p
	c.Attrs = cloneAttrs(&p.Attrs)
	c.Runs = make([]Run, len(p.Runs))
	for i := range p.Runs {
		r := p.Runs[i]
		if r.Text != nil {
			t := *r.Text
			r.Text = &t
		}
		if r.Image != nil {
			im := *r.Image
			r.Image = &im
		}
		if r.Field != nil {
			f := *r.Field
			r.Field = &f
		}
		if r.Change != nil {
			ch := *r.Change
			r.Change = &ch
		}
		if r.Src != nil {
			s := *r.Src
			r.Src = &s
		}
		c.Runs[i] = r
	}
	return &c
}

func cloneTable(t *Table) *Table {
	if t == nil {
		return nil
	}
	c := &Table{Rows: make([]TableRow, len(t.Rows))}
	for i := range t.Rows {
		row := TableRow{ID: t.Rows[i].ID, Cells: make([]TableCell, len(t.Rows[i].Cells))}
		for j := range t.Rows[i].Cells {
			cell := t.Rows[i].Cells[j]
			nc := TableCell{ID: cell.ID, Paragraph: cell.Paragraph.Clone()}
			for k := range cell.Blocks {
				nc.Blocks = append(nc.Blocks, *cell.Blocks[k].Clone())
			}
			row.Cells[j] = nc
		}
		c.Rows[i] = row
	}
	return c
}

func cloneSectionProps(p *SectionProps) SectionProps {
	c := SectionProps{
		Margins:        clonePtr(p.Margins),
		PageSize:       clonePtr(p.PageSize),
		Orientation:    clonePtr(p.Orientation),
		Numbering:      clonePtr(p.Numbering),
		HeaderDistance: clonePtr(p.HeaderDistance),
		FooterDistance: clonePtr(p.FooterDistance),
		HeaderRefs:     cloneRefs(p.HeaderRefs),
		FooterRefs:     cloneRefs(p.FooterRefs),
	}
	if p.Columns != nil {
		cols := *p.Columns
		cols.Widths = append([]float64(nil), p.Columns.Widths...)
		c.Columns = &cols
	}
	return c
}

func cloneAttrs(a *Attrs) Attrs {
	c := *a
	if a.List != nil {
		l := *a.List
		c.List = &l
	}
	if a.Style != nil {
		c.Style = make(map[string]string, len(a.Style))
		for k, v := range a.Style {
			c.Style[k] = v
		}
	}
	return c
}

func cloneAnchor(a *Anchor) *Anchor {
	if a == nil {
		return nil
	}
	c := *a
	return &c
}

func cloneRefs(m map[Variant]string) map[Variant]string {
	if m == nil {
		return nil
	}
	c := make(map[Variant]string, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
