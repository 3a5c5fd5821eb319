package layout

import (
	"fmt"

	"folio/flow"
)

// colRegion is one constraint-boundary region of a page: from topY down to
// the next region (or the content bottom) the given column configuration
// applies. Pages start with a single region at Y 0; a "continuous, columns
// changed" section break appends one mid-page.
type colRegion struct {
	topY float64
	cols flow.Columns
}

// paginator owns page/column cursor state and page construction. Y
// coordinates are relative to the page content top.
type paginator struct {
	opts  *Options
	state *sectionState

	pages []*Page
	cur   *Page

	regions     []colRegion
	columnIndex int
	cursorY     float64

	contentW float64
	contentH float64

	displayCounter int
}

func newPaginator(opts *Options, state *sectionState) *paginator {
	return &paginator{opts: opts, state: state}
}

// started reports whether any page exists yet.
func (p *paginator) started() bool {
	return p.cur != nil
}

// pageHasContent reports whether the current page already holds anything -
// either emitted fragments or an advanced cursor.
func (p *paginator) pageHasContent() bool {
	return p.cur != nil && (len(p.cur.Fragments) > 0 || p.cursorY > p.region().topY || len(p.regions) > 1)
}

func (p *paginator) region() *colRegion {
	return &p.regions[len(p.regions)-1]
}

func (p *paginator) activeConstraintIndex() int {
	return len(p.regions) - 1
}

// newPage swaps pending section state into active and opens a fresh page.
func (p *paginator) newPage() error {
	p.state.swap()
	a := &p.state.active

	size := a.pageSize
	if a.orientation == flow.OrientationLandscape && size.H > size.W {
		size.W, size.H = size.H, size.W
	}
	if size.W <= 0 || size.H <= 0 {
		return fmt.Errorf("%w: page size %.2fx%.2f", ErrGeometry, size.W, size.H)
	}

	number := len(p.pages) + 1
	if a.restart {
		p.displayCounter = a.numbering.Start
		a.restart = false
	} else {
		p.displayCounter++
	}

	page := &Page{
		Number:      number,
		NumberText:  FormatPageNumber(p.displayCounter, a.numbering.Format),
		Margins:     a.margins,
		Size:        size,
		Orientation: a.orientation,
	}
	if a.headerRefs != nil || a.footerRefs != nil {
		page.SectionRefs = &SectionRefs{HeaderRefs: a.headerRefs, FooterRefs: a.footerRefs}
	}

	topInset := a.margins.Top
	if hh, ok := variantHeight(p.opts.HeaderHeights, number); ok {
		topInset = max(topInset, a.headerDistance+hh)
	}
	bottomInset := a.margins.Bottom
	if fh, ok := variantHeight(p.opts.FooterHeights, number); ok {
		bottomInset = max(bottomInset, a.footerDistance+fh)
	}

	p.contentW = size.W - a.margins.Left - a.margins.Right
	p.contentH = size.H - topInset - bottomInset
	if p.contentW <= 0 || p.contentH <= 0 {
		return fmt.Errorf("%w: content box %.2fx%.2f on page %d", ErrGeometry, p.contentW, p.contentH, number)
	}

	p.pages = append(p.pages, page)
	p.cur = page
	p.regions = []colRegion{{topY: 0, cols: a.columns}}
	p.columnIndex = 0
	p.cursorY = 0
	return nil
}

// ensurePage lazily opens the first page.
func (p *paginator) ensurePage() error {
	if p.cur == nil {
		return p.newPage()
	}
	return nil
}

// forcePageBreak starts a new page; with a parity requirement it inserts one
// extra blank page when the new page's physical number has the wrong parity.
func (p *paginator) forcePageBreak(req parity) error {
	if err := p.newPage(); err != nil {
		return err
	}
	if req == parityNone {
		return nil
	}
	even := p.cur.Number%2 == 0
	if (req == parityEven && !even) || (req == parityOdd && even) {
		return p.newPage()
	}
	return nil
}

// startMidPageRegion opens a constraint-boundary region at the current Y
// using the pending column configuration, without starting a new page.
func (p *paginator) startMidPageRegion() {
	cols := p.state.pending.columns
	p.state.active.columns = cols
	p.regions = append(p.regions, colRegion{topY: p.cursorY, cols: cols})
	p.columnIndex = 0
}

// advanceColumn moves the cursor to the next column of the active region, or
// to a new page when the region's last column is exhausted.
func (p *paginator) advanceColumn() error {
	r := p.region()
	cols := effectiveColumns(r.cols)
	if p.columnIndex+1 < cols.Count {
		p.columnIndex++
		p.cursorY = r.topY
		return nil
	}
	return p.newPage()
}

// colGeometry returns X offset and width of the current column within the
// content box.
func (p *paginator) colGeometry() (float64, float64, error) {
	cols := effectiveColumns(p.region().cols)
	var x, w float64
	if len(cols.Widths) == cols.Count {
		for i := range p.columnIndex {
			x += cols.Widths[i] + cols.Gap
		}
		w = cols.Widths[p.columnIndex]
	} else {
		w = (p.contentW - cols.Gap*float64(cols.Count-1)) / float64(cols.Count)
		x = float64(p.columnIndex) * (w + cols.Gap)
	}
	if w <= 0 {
		return 0, 0, fmt.Errorf("%w: column width %.2f", ErrGeometry, w)
	}
	return x, w, nil
}

// fits reports whether a box of the given height still fits below the
// cursor.
func (p *paginator) fits(h float64) bool {
	return p.cursorY+h <= p.contentH+dimEpsilon
}

func (p *paginator) remaining() float64 {
	return p.contentH - p.cursorY
}

func (p *paginator) emit(f Fragment) {
	p.cur.Fragments = append(p.cur.Fragments, f)
}

// pruneTrailingEmptyPages pops pages with zero fragments from the end - a
// continuous final section must not render a blank page.
func (p *paginator) pruneTrailingEmptyPages() {
	for len(p.pages) > 0 && len(p.pages[len(p.pages)-1].Fragments) == 0 {
		p.pages = p.pages[:len(p.pages)-1]
	}
}

// variantHeight picks the learned header/footer height applying to a page
// number: first page wins over parity, parity over default.
func variantHeight(heights map[flow.Variant]float64, number int) (float64, bool) {
	if len(heights) == 0 {
		return 0, false
	}
	if number == 1 {
		if h, ok := heights[flow.VariantFirst]; ok {
			return h, true
		}
	}
	if number%2 == 0 {
		if h, ok := heights[flow.VariantEven]; ok {
			return h, true
		}
	} else {
		if h, ok := heights[flow.VariantOdd]; ok {
			return h, true
		}
	}
	if h, ok := heights[flow.VariantDefault]; ok {
		return h, true
	}
	return 0, false
}

// dimEpsilon absorbs floating point drift when comparing cumulative line
// heights against the content height.
const dimEpsilon = 1e-6
