package layout

import (
	"folio/flow"
	"folio/measure"
)

// layoutTable places a measured table row by row. Rows move to the next
// column/page wholesale when they do not fit; cell paragraphs are emitted as
// para fragments keyed by the cell id, positioned at the cell's x offset.
func (w *walker) layoutTable(b *flow.Block, m *measure.Measure) error {
	p := w.pg
	tm := m.Table
	if tm == nil || b.Table == nil {
		return nil
	}
	if err := p.ensurePage(); err != nil {
		return err
	}

	for ri := range tm.Rows {
		if ri >= len(b.Table.Rows) {
			break
		}
		rm := &tm.Rows[ri]
		row := &b.Table.Rows[ri]

		for !p.fits(rm.Height) && p.pageHasContent() {
			if err := p.advanceColumn(); err != nil {
				return err
			}
		}
		colX, colW, err := p.colGeometry()
		if err != nil {
			return err
		}

		x := colX
		for ci := range row.Cells {
			cell := &row.Cells[ci]
			cw := cellWidth(rm, ci, colW, len(row.Cells))
			if ci < len(rm.Cells) && rm.Cells[ci].Paragraph != nil && cell.Paragraph != nil {
				cm := rm.Cells[ci].Paragraph
				p.emit(Fragment{
					Kind:     FragmentPara,
					BlockID:  cell.ID,
					X:        x,
					Y:        p.cursorY,
					Width:    cw,
					Height:   cm.TotalHeight,
					FromLine: 0,
					ToLine:   len(cm.Lines),
					Src:      paragraphSrc(cell.Paragraph),
				})
			}
			x += cw
		}
		p.cursorY += rm.Height
	}
	return nil
}

// cellWidth prefers the measured cell width and falls back to an even split
// of the column.
func cellWidth(rm *measure.RowMeasure, ci int, colW float64, ncells int) float64 {
	if ci < len(rm.Cells) && rm.Cells[ci].Width > 0 {
		return rm.Cells[ci].Width
	}
	if ncells <= 0 {
		return colW
	}
	return colW / float64(ncells)
}
