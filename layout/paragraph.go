package layout

import (
	"folio/flow"
	"folio/measure"
)

// layoutParagraph places one measured paragraph, splitting its lines across
// columns and pages as needed and narrowing lines around floating objects.
// Objects anchored to this paragraph are placed first, as a side effect.
func (w *walker) layoutParagraph(idx int, b *flow.Block, m *measure.Measure) error {
	p := w.pg
	para := b.Paragraph
	pm := m.Paragraph
	if pm == nil {
		return nil
	}
	if err := p.ensurePage(); err != nil {
		return err
	}

	if p.cursorY > p.region().topY {
		p.cursorY += para.Attrs.SpacingBefore
	}

	if err := w.placeAnchored(idx); err != nil {
		return err
	}

	kind := FragmentPara
	if para.Attrs.List != nil {
		kind = FragmentListItem
	}

	// Consecutive lines sharing position and width accumulate into one
	// fragment; a column advance or a float-driven narrowing change closes
	// the open fragment and starts the next.
	var frag Fragment
	open := false
	flush := func(to int) {
		if open && to > frag.FromLine {
			frag.ToLine = to
			p.emit(frag)
		}
		open = false
	}

	for li := range pm.Lines {
		line := &pm.Lines[li]
		lh := line.LineHeight

		for !p.fits(lh) && p.pageHasContent() {
			flush(li)
			if err := p.advanceColumn(); err != nil {
				return err
			}
		}

		colX, colW, err := p.colGeometry()
		if err != nil {
			return err
		}
		x, lw := w.floats.lineBox(p.cur.Number, p.cursorY, lh, colX, colW)
		if lw <= 0 {
			// fully blocked band (topBottom wrap): drop below it
			if ny := w.floats.clearY(p.cur.Number, p.cursorY, lh); ny > p.cursorY {
				flush(li)
				p.cursorY = ny
			}
			for !p.fits(lh) && p.pageHasContent() {
				flush(li)
				if err := p.advanceColumn(); err != nil {
					return err
				}
			}
			if colX, colW, err = p.colGeometry(); err != nil {
				return err
			}
			x, lw = w.floats.lineBox(p.cur.Number, p.cursorY, lh, colX, colW)
			if lw <= 0 {
				x, lw = colX, colW
			}
		}

		if open && (x != frag.X || lw != frag.Width) {
			flush(li)
		}
		if !open {
			frag = Fragment{
				Kind:     kind,
				BlockID:  b.ID,
				X:        x,
				Y:        p.cursorY,
				Width:    lw,
				FromLine: li,
				Src:      paragraphSrc(para),
			}
			open = true
		}
		frag.Height += lh
		p.cursorY += lh
	}
	flush(len(pm.Lines))

	p.cursorY += para.Attrs.SpacingAfter
	return nil
}

// placeAnchored emits fragments and exclusions for all objects anchored to
// the paragraph at index idx. A placed set guards against double placement
// when a paragraph re-enters layout after a column advance.
func (w *walker) placeAnchored(idx int) error {
	objs := w.anchors[idx]
	if len(objs) == 0 {
		return nil
	}
	p := w.pg
	for _, oi := range objs {
		b := &w.blocks[oi]
		if w.placed[b.ID] {
			continue
		}
		var (
			anchor *flow.Anchor
			margin flow.Spacing
			wrap   flow.WrapMode
			kind   FragmentKind
			box    *measure.BoxMeasure
		)
		switch b.Kind {
		case flow.BlockImage:
			anchor, margin, wrap = b.Image.Anchor, b.Image.Margin, b.Image.Wrap
			kind, box = FragmentImage, w.measures[oi].Image
		case flow.BlockDrawing:
			anchor, margin, wrap = b.Drawing.Anchor, b.Drawing.Margin, b.Drawing.Wrap
			kind, box = FragmentDrawing, w.measures[oi].Drawing
		default:
			continue
		}
		if box == nil {
			continue
		}

		colX, _, err := p.colGeometry()
		if err != nil {
			return err
		}
		var x float64
		switch anchor.RelativeTo {
		case flow.AnchorPage:
			// page edge offsets translate into content coordinates
			x = anchor.OffsetX - p.state.active.margins.Left - w.opts.anchorLeftInset
		default:
			x = colX + anchor.OffsetX
		}
		y := p.cursorY + anchor.OffsetY

		p.emit(Fragment{
			Kind:    kind,
			BlockID: b.ID,
			X:       x,
			Y:       y,
			Width:   box.Width,
			Height:  box.Height,
		})
		w.floats.add(p.cur.Number, idx, rect{
			x: x - margin.Left,
			y: y - margin.Top,
			w: box.Width + margin.Left + margin.Right,
			h: box.Height + margin.Top + margin.Bottom,
		}, wrap)
		w.placed[b.ID] = true
	}
	return nil
}

func paragraphSrc(p *flow.Paragraph) *flow.SourceRange {
	var r *flow.SourceRange
	for i := range p.Runs {
		s := p.Runs[i].Src
		if s == nil {
			continue
		}
		if r == nil {
			r = &flow.SourceRange{Start: s.Start, End: s.End}
			continue
		}
		if s.Start < r.Start {
			r.Start = s.Start
		}
		if s.End > r.End {
			r.End = s.End
		}
	}
	return r
}
