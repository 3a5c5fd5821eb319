package layout

import (
	"folio/flow"
	"folio/measure"
)

// layoutObject places a non-anchored image or drawing in flow: scaled down
// to the column width, moved to the next column/page when the remaining
// height is insufficient on a page that already has content, and scaled
// proportionally when even a full page cannot fit it.
func (w *walker) layoutObject(b *flow.Block, m *measure.Measure) error {
	p := w.pg
	var (
		margin flow.Spacing
		kind   FragmentKind
		box    *measure.BoxMeasure
	)
	switch b.Kind {
	case flow.BlockImage:
		margin, kind, box = b.Image.Margin, FragmentImage, m.Image
	case flow.BlockDrawing:
		margin, kind, box = b.Drawing.Margin, FragmentDrawing, m.Drawing
	}
	if box == nil || box.Width <= 0 || box.Height <= 0 {
		return nil
	}
	if err := p.ensurePage(); err != nil {
		return err
	}

	colX, colW, err := p.colGeometry()
	if err != nil {
		return err
	}
	ow, oh := scaleToWidth(box.Width, box.Height, colW-margin.Left-margin.Right)
	need := margin.Top + oh + margin.Bottom

	if !p.fits(need) && p.pageHasContent() {
		if err := p.advanceColumn(); err != nil {
			return err
		}
		if colX, colW, err = p.colGeometry(); err != nil {
			return err
		}
		ow, oh = scaleToWidth(box.Width, box.Height, colW-margin.Left-margin.Right)
		need = margin.Top + oh + margin.Bottom
	}
	if need > p.remaining() {
		// even a full column cannot fit it - shrink proportionally
		avail := p.remaining() - margin.Top - margin.Bottom
		if avail > 0 && oh > avail {
			ow, oh = ow*avail/oh, avail
		}
	}

	p.emit(Fragment{
		Kind:    kind,
		BlockID: b.ID,
		X:       colX + margin.Left,
		Y:       p.cursorY + margin.Top,
		Width:   ow,
		Height:  oh,
	})
	p.cursorY += margin.Top + oh + margin.Bottom
	return nil
}

// scaleToWidth shrinks a box to fit the available width, preserving aspect
// ratio; boxes already narrower than the width keep their size.
func scaleToWidth(w, h, avail float64) (float64, float64) {
	if avail > 0 && w > avail {
		return avail, h * avail / w
	}
	return w, h
}
