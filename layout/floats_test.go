package layout

import (
	"testing"

	"folio/flow"
	"folio/measure"
)

func TestFloatSpace_SquareWrapNarrowsLines(t *testing.T) {
	fs := newFloatSpace(612)
	// 100pt wide object on the left edge of a 468pt column
	fs.add(1, 0, rect{x: 0, y: 0, w: 100, h: 50}, flow.WrapSquare)

	x, w := fs.lineBox(1, 0, 20, 0, 468)
	if x != 100 || w != 368 {
		t.Errorf("narrowed line = (%g, %g), want (100, 368)", x, w)
	}
	// below the object the full width returns
	x, w = fs.lineBox(1, 60, 20, 0, 468)
	if x != 0 || w != 468 {
		t.Errorf("clear line = (%g, %g), want (0, 468)", x, w)
	}
	// other pages are unaffected
	x, w = fs.lineBox(2, 0, 20, 0, 468)
	if x != 0 || w != 468 {
		t.Errorf("other page line = (%g, %g), want (0, 468)", x, w)
	}
}

func TestFloatSpace_SquareWrapKeepsLargerGap(t *testing.T) {
	fs := newFloatSpace(612)
	// object near the right edge: left gap 350 beats right gap 18
	fs.add(1, 0, rect{x: 350, y: 0, w: 100, h: 50}, flow.WrapSquare)

	x, w := fs.lineBox(1, 10, 20, 0, 468)
	if x != 0 || w != 350 {
		t.Errorf("line = (%g, %g), want left gap (0, 350)", x, w)
	}
}

func TestFloatSpace_ExclusionsClampedToPage(t *testing.T) {
	fs := newFloatSpace(612)
	// hangs 50pt past the right page edge: only the on-page part excludes
	fs.add(1, 0, rect{x: 562, y: 0, w: 100, h: 50}, flow.WrapSquare)
	x, w := fs.lineBox(1, 10, 20, 72, 468)
	if x != 72 || w != 468 {
		t.Errorf("line = (%g, %g), want untouched column (72, 468)", x, w)
	}
	// fully off the page, no exclusion at all
	fs.add(1, 1, rect{x: -80, y: 100, w: 60, h: 50}, flow.WrapSquare)
	if len(fs.exclusions) != 1 {
		t.Errorf("exclusions = %d, want 1", len(fs.exclusions))
	}
}

func TestFloatSpace_TopBottomBlocksBand(t *testing.T) {
	fs := newFloatSpace(612)
	fs.add(1, 0, rect{x: 100, y: 30, w: 200, h: 40}, flow.WrapTopBottom)

	if _, w := fs.lineBox(1, 40, 20, 0, 468); w != 0 {
		t.Errorf("band width = %g, want 0 (fully blocked)", w)
	}
	if y := fs.clearY(1, 40, 20); y != 70 {
		t.Errorf("clearY = %g, want 70 (exclusion bottom)", y)
	}
	if _, w := fs.lineBox(1, 70, 20, 0, 468); w != 468 {
		t.Errorf("band below exclusion width = %g, want 468", w)
	}
}

func TestFloatSpace_WrapNoneAddsNoExclusion(t *testing.T) {
	fs := newFloatSpace(612)
	fs.add(1, 0, rect{x: 0, y: 0, w: 468, h: 468}, flow.WrapNone)

	if _, w := fs.lineBox(1, 0, 20, 0, 468); w != 468 {
		t.Errorf("line width = %g, want 468 (none wrap overlaps text)", w)
	}
}

func anchoredImage(id, anchorID string, rel flow.AnchorRef, ox, oy, w, h float64, wrap flow.WrapMode) (flow.Block, measure.Measure) {
	return flow.Block{
			ID:   id,
			Kind: flow.BlockImage,
			Image: &flow.Image{
				Src:    id + ".png",
				Width:  w,
				Height: h,
				Wrap:   wrap,
				Anchor: &flow.Anchor{BlockID: anchorID, RelativeTo: rel, OffsetX: ox, OffsetY: oy},
			},
		}, measure.Measure{
			Kind:  measure.KindImage,
			Image: &measure.BoxMeasure{Width: w, Height: h},
		}
}

func TestDocument_AnchoredObjectNarrowsParagraph(t *testing.T) {
	var d docBuilder
	d.add(para("p1", 5, 20))
	img, im := anchoredImage("i1", "p1", flow.AnchorColumn, 0, 0, 100, 50, flow.WrapSquare)
	d.add(img, im)

	l, err := Document(d.blocks, d.measures, letterOptions())
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if len(l.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(l.Pages))
	}
	var imgFrag *Fragment
	var paraFrags []Fragment
	for i := range l.Pages[0].Fragments {
		f := l.Pages[0].Fragments[i]
		if f.BlockID == "i1" {
			imgFrag = &l.Pages[0].Fragments[i]
		} else {
			paraFrags = append(paraFrags, f)
		}
	}
	if imgFrag == nil {
		t.Fatal("anchored image produced no fragment")
	}
	if imgFrag.X != 0 || imgFrag.Y != 0 {
		t.Errorf("image at (%g, %g), want (0, 0)", imgFrag.X, imgFrag.Y)
	}
	// first lines narrowed next to the image, remainder full width below it
	if len(paraFrags) != 2 {
		t.Fatalf("paragraph fragments = %d, want 2 (narrowed + full width)", len(paraFrags))
	}
	if paraFrags[0].X != 100 || paraFrags[0].Width != 368 {
		t.Errorf("narrowed fragment = (x %g, w %g), want (100, 368)", paraFrags[0].X, paraFrags[0].Width)
	}
	if paraFrags[0].ToLine != 3 {
		t.Errorf("narrowed fragment holds lines [0,%d), want [0,3) next to a 50pt object", paraFrags[0].ToLine)
	}
	if paraFrags[1].X != 0 || paraFrags[1].Width != 468 {
		t.Errorf("full width fragment = (x %g, w %g), want (0, 468)", paraFrags[1].X, paraFrags[1].Width)
	}
}

func TestDocument_AnchoredTopBottomPushesLinesDown(t *testing.T) {
	var d docBuilder
	d.add(para("p1", 2, 20))
	img, im := anchoredImage("i1", "p1", flow.AnchorColumn, 100, 0, 200, 40, flow.WrapTopBottom)
	d.add(img, im)

	l, err := Document(d.blocks, d.measures, letterOptions())
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	var paraFrag *Fragment
	for i := range l.Pages[0].Fragments {
		if l.Pages[0].Fragments[i].BlockID == "p1" {
			paraFrag = &l.Pages[0].Fragments[i]
		}
	}
	if paraFrag == nil {
		t.Fatal("paragraph produced no fragment")
	}
	if paraFrag.Y != 40 {
		t.Errorf("paragraph starts at y %g, want 40 (below the object)", paraFrag.Y)
	}
}

func TestDocument_PageAnchoredObjectPosition(t *testing.T) {
	var d docBuilder
	d.add(para("p1", 1, 20))
	// page-relative x 100 translates to content x 28 inside a 72pt margin
	img, im := anchoredImage("i1", "p1", flow.AnchorPage, 100, 10, 50, 50, flow.WrapNone)
	d.add(img, im)

	l, err := Document(d.blocks, d.measures, letterOptions())
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	var imgFrag *Fragment
	for i := range l.Pages[0].Fragments {
		if l.Pages[0].Fragments[i].BlockID == "i1" {
			imgFrag = &l.Pages[0].Fragments[i]
		}
	}
	if imgFrag == nil {
		t.Fatal("anchored image produced no fragment")
	}
	if imgFrag.X != 28 || imgFrag.Y != 10 {
		t.Errorf("image at (%g, %g), want (28, 10)", imgFrag.X, imgFrag.Y)
	}
}

func TestDocument_AnchorToMissingBlockFlowsNormally(t *testing.T) {
	var d docBuilder
	img, im := anchoredImage("i1", "nosuch", flow.AnchorColumn, 0, 0, 100, 50, flow.WrapSquare)
	d.add(img, im)

	l, err := Document(d.blocks, d.measures, letterOptions())
	if err != nil {
		t.Fatalf("Document() error = %v", err)
	}
	if len(l.Pages) != 1 || len(l.Pages[0].Fragments) != 1 {
		t.Fatal("unresolved anchor should fall back to in-flow placement")
	}
	if f := l.Pages[0].Fragments[0]; f.Y != 0 || f.BlockID != "i1" {
		t.Errorf("in-flow fragment = %+v", f)
	}
}
