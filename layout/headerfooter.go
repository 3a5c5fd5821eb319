package layout

import (
	"go.uber.org/zap"

	"folio/flow"
	"folio/measure"
)

// HFConstraints bound a header/footer sub-layout. Width/Height describe the
// region itself; PageWidth and Margins describe the physical page the region
// sits on, needed to translate page-relative anchors into region
// coordinates.
type HFConstraints struct {
	Width     float64
	Height    float64
	PageWidth float64
	Margins   flow.Margins
}

// HFResult reports a header/footer sub-layout and its true rendered extent.
// MinY may be negative when an anchored object is offset above the nominal
// top.
type HFResult struct {
	Height float64
	MinY   float64
	MaxY   float64
	Pages  []*Page
}

// HeaderFooter lays out a header/footer block set as a miniature
// single-region document: one synthetic page of the given size with zero
// margins. The reported height is the true content extent, not the nominal
// region height - the engine uses it to keep body content clear of
// oversized headers/footers.
func HeaderFooter(blocks []flow.Block, measures []measure.Measure, c HFConstraints, log *zap.Logger) (*HFResult, error) {
	opts := Options{
		PageSize: flow.Size{W: c.Width, H: c.Height},
		Columns:  flow.Columns{Count: 1},
		Log:      log,
		// the region has no margin of its own, so page-relative anchors
		// shift left by the page's left margin
		anchorLeftInset: c.Margins.Left,
	}
	l, err := Document(blocks, measures, opts)
	if err != nil {
		return nil, err
	}

	res := &HFResult{Pages: l.Pages}
	byID := make(map[string]int, len(blocks))
	for i := range blocks {
		byID[blocks[i].ID] = i
	}

	first := true
	for _, page := range l.Pages {
		for fi := range page.Fragments {
			f := &page.Fragments[fi]
			top := f.Y
			bottom := f.Y + fragmentExtent(f, blocks, measures, byID)
			if first || top < res.MinY {
				res.MinY = top
			}
			if first || bottom > res.MaxY {
				res.MaxY = bottom
			}
			first = false
		}
	}
	if res.MaxY > 0 {
		res.Height = res.MaxY
	}
	return res, nil
}

// fragmentExtent is the true rendered height of a fragment: summed line
// heights for paragraphs (plus trailing paragraph spacing-after when the
// fragment carries the block's last line), measured box height otherwise.
func fragmentExtent(f *Fragment, blocks []flow.Block, measures []measure.Measure, byID map[string]int) float64 {
	switch f.Kind {
	case FragmentPara, FragmentListItem:
		i, ok := byID[f.BlockID]
		if !ok || measures[i].Paragraph == nil {
			return f.Height
		}
		pm := measures[i].Paragraph
		h := 0.0
		for li := f.FromLine; li < f.ToLine && li < len(pm.Lines); li++ {
			h += pm.Lines[li].LineHeight
		}
		if f.ToLine == len(pm.Lines) && blocks[i].Paragraph != nil {
			h += blocks[i].Paragraph.Attrs.SpacingAfter
		}
		return h
	default:
		return f.Height
	}
}
