package layout

import "folio/flow"

// Floating object tracking. Anchored images/drawings carve exclusion
// rectangles out of the column space; paragraph layout asks, per line, how
// much width remains at the line's Y. Rectangles live in page content
// coordinates and are keyed by the page they were placed on and the index of
// their anchor paragraph.

type rect struct {
	x, y, w, h float64
}

func (r rect) right() float64  { return r.x + r.w }
func (r rect) bottom() float64 { return r.y + r.h }

type exclusion struct {
	page        int
	anchorIndex int
	wrap        flow.WrapMode
	rect        rect
}

// floatSpace is built once per Document call from the initial column
// geometry and page width, then accumulates exclusions as anchored objects
// are placed.
type floatSpace struct {
	pageW      float64
	exclusions []exclusion
}

func newFloatSpace(pageW float64) *floatSpace {
	return &floatSpace{pageW: pageW}
}

func (fs *floatSpace) add(page, anchorIndex int, r rect, wrap flow.WrapMode) {
	if wrap == flow.WrapNone {
		// object overlaps text, no exclusion
		return
	}
	// the part of an object hanging past the page edge excludes nothing
	if r.x < 0 {
		r.w += r.x
		r.x = 0
	}
	if r.right() > fs.pageW {
		r.w = fs.pageW - r.x
	}
	if r.w <= 0 {
		return
	}
	fs.exclusions = append(fs.exclusions, exclusion{page: page, anchorIndex: anchorIndex, wrap: wrap, rect: r})
}

// lineBox returns the X offset and width available for a line box
// [y, y+h) within the column [colX, colX+colW) on the given page. A zero
// width means the band is fully blocked (topBottom wrap) and the caller
// should advance below clearY.
func (fs *floatSpace) lineBox(page int, y, h, colX, colW float64) (float64, float64) {
	x, w := colX, colW
	for i := range fs.exclusions {
		e := &fs.exclusions[i]
		if e.page != page || !overlaps(y, y+h, e.rect.y, e.rect.bottom()) {
			continue
		}
		if e.wrap == flow.WrapTopBottom {
			return x, 0
		}
		// square wrap: keep the larger of the two horizontal gaps
		if e.rect.right() <= x || e.rect.x >= x+w {
			continue
		}
		leftGap := e.rect.x - x
		rightGap := (x + w) - e.rect.right()
		if leftGap >= rightGap {
			w = max(leftGap, 0)
		} else {
			x = e.rect.right()
			w = max(rightGap, 0)
		}
	}
	return x, w
}

// clearY returns the lowest Y at or below y where no exclusion blocks the
// band of the given height on the page.
func (fs *floatSpace) clearY(page int, y, h float64) float64 {
	for i := range fs.exclusions {
		e := &fs.exclusions[i]
		if e.page != page || e.wrap != flow.WrapTopBottom {
			continue
		}
		if overlaps(y, y+h, e.rect.y, e.rect.bottom()) && e.rect.bottom() > y {
			y = e.rect.bottom()
		}
	}
	return y
}

func overlaps(a0, a1, b0, b1 float64) bool {
	return a0 < b1 && b0 < a1
}
