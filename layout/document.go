package layout

import (
	"fmt"

	"go.uber.org/zap"

	"folio/flow"
	"folio/measure"
)

// Document paginates blocks into a Layout. It is pure: no state survives
// the call, and identical inputs produce identical output. measures must
// parallel blocks positionally; a length or kind mismatch is a contract
// violation, never silently tolerated.
func Document(blocks []flow.Block, measures []measure.Measure, opts Options) (*Layout, error) {
	if len(blocks) != len(measures) {
		return nil, fmt.Errorf("%w: %d blocks, %d measures", ErrLengthMismatch, len(blocks), len(measures))
	}
	if opts.PageSize.W <= 0 || opts.PageSize.H <= 0 {
		return nil, fmt.Errorf("%w: page size %.2fx%.2f", ErrGeometry, opts.PageSize.W, opts.PageSize.H)
	}
	for i := range blocks {
		want := measure.KindFor(blocks[i].Kind)
		if want == "" {
			return nil, fmt.Errorf("%w: %q at index %d", ErrBlockKind, blocks[i].Kind, i)
		}
		if measures[i].Kind != want {
			return nil, fmt.Errorf("%w: block %d is %q, measure is %q", ErrMeasureKind, i, blocks[i].Kind, measures[i].Kind)
		}
	}

	state := newSectionState(&opts)
	w := &walker{
		blocks:   blocks,
		measures: measures,
		opts:     &opts,
		pg:       newPaginator(&opts, state),
		floats:   newFloatSpace(opts.PageSize.W),
		placed:   make(map[string]bool),
	}
	w.collectAnchors()

	for i := range blocks {
		if w.skipDegenerate(i) {
			continue
		}
		if err := w.layoutBlock(i); err != nil {
			return nil, err
		}
	}

	w.pg.pruneTrailingEmptyPages()

	opts.logger().Debug("document laid out",
		zap.Int("blocks", len(blocks)),
		zap.Int("pages", len(w.pg.pages)))

	return &Layout{
		PageSize: opts.PageSize,
		Pages:    w.pg.pages,
		Columns:  effectiveColumns(opts.Columns),
	}, nil
}

// walker drives per-block dispatch over one Document call.
type walker struct {
	blocks   []flow.Block
	measures []measure.Measure
	opts     *Options
	pg       *paginator
	floats   *floatSpace

	// anchors maps an anchor paragraph's block index to the indexes of
	// objects anchored to it; anchoredIdx marks object indexes placed via
	// their anchor rather than in flow.
	anchors     map[int][]int
	anchoredIdx map[int]bool
	placed      map[string]bool
}

// collectAnchors pre-collects anchored images/drawings into an anchor
// paragraph index map, in a single pass before block iteration. Objects
// whose anchor id does not resolve stay in normal flow.
func (w *walker) collectAnchors() {
	w.anchors = make(map[int][]int)
	w.anchoredIdx = make(map[int]bool)

	byID := make(map[string]int, len(w.blocks))
	for i := range w.blocks {
		byID[w.blocks[i].ID] = i
	}
	for i := range w.blocks {
		var a *flow.Anchor
		switch w.blocks[i].Kind {
		case flow.BlockImage:
			a = w.blocks[i].Image.Anchor
		case flow.BlockDrawing:
			a = w.blocks[i].Drawing.Anchor
		}
		if a == nil {
			continue
		}
		ai, ok := byID[a.BlockID]
		if !ok || w.blocks[ai].Kind != flow.BlockParagraph {
			continue
		}
		w.anchors[ai] = append(w.anchors[ai], i)
		w.anchoredIdx[i] = true
	}
}

// skipDegenerate drops an empty paragraph sandwiched directly between a
// pageBreak and a sectionBreak - a source format marker, never visible
// content.
func (w *walker) skipDegenerate(i int) bool {
	b := &w.blocks[i]
	if b.Kind != flow.BlockParagraph || !emptyParagraph(b.Paragraph) {
		return false
	}
	return i > 0 && i+1 < len(w.blocks) &&
		w.blocks[i-1].Kind == flow.BlockPageBreak &&
		w.blocks[i+1].Kind == flow.BlockSectionBreak
}

func emptyParagraph(p *flow.Paragraph) bool {
	if p == nil {
		return true
	}
	for i := range p.Runs {
		if len(p.Runs[i].DisplayText()) > 0 {
			return false
		}
	}
	return true
}

func (w *walker) layoutBlock(i int) error {
	b := &w.blocks[i]
	m := &w.measures[i]
	switch b.Kind {
	case flow.BlockSectionBreak:
		dec := w.pg.state.schedule(b.SectionBreak, i, w.opts, w.pg.started())
		if dec.forcePageBreak {
			return w.pg.forcePageBreak(dec.requiredParity)
		}
		if dec.forceMidPageRegion {
			if err := w.pg.ensurePage(); err != nil {
				return err
			}
			w.pg.startMidPageRegion()
		}
		return nil
	case flow.BlockParagraph:
		return w.layoutParagraph(i, b, m)
	case flow.BlockImage, flow.BlockDrawing:
		if w.anchoredIdx[i] {
			// placed as a side effect of the anchor paragraph
			return nil
		}
		return w.layoutObject(b, m)
	case flow.BlockTable:
		return w.layoutTable(b, m)
	case flow.BlockPageBreak:
		if !w.pg.started() {
			return w.pg.ensurePage()
		}
		return w.pg.newPage()
	case flow.BlockColumnBreak:
		if err := w.pg.ensurePage(); err != nil {
			return err
		}
		return w.pg.advanceColumn()
	}
	return fmt.Errorf("%w: %q at index %d", ErrBlockKind, b.Kind, i)
}
