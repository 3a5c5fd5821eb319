package layout

import (
	"testing"

	"folio/flow"
	"folio/measure"
)

func TestHeaderFooter_HeightFromContent(t *testing.T) {
	var d docBuilder
	d.add(para("h1", 2, 15))

	res, err := HeaderFooter(d.blocks, d.measures, HFConstraints{
		Width:     468,
		Height:    720,
		PageWidth: 612,
		Margins:   flow.Margins{Left: 72, Right: 72},
	}, nil)
	if err != nil {
		t.Fatalf("HeaderFooter() error = %v", err)
	}
	if res.Height != 30 {
		t.Errorf("height = %g, want 30 (two 15pt lines)", res.Height)
	}
	if res.MinY != 0 || res.MaxY != 30 {
		t.Errorf("extent [%g, %g], want [0, 30]", res.MinY, res.MaxY)
	}
	if len(res.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(res.Pages))
	}
	if f := res.Pages[0].Fragments[0]; f.Width != 468 {
		t.Errorf("fragment width = %g, want region width 468", f.Width)
	}
}

func TestHeaderFooter_TrailingSpacingCounted(t *testing.T) {
	b, m := para("h1", 2, 15)
	b.Paragraph.Attrs.SpacingAfter = 8

	res, err := HeaderFooter([]flow.Block{b}, []measure.Measure{m}, HFConstraints{
		Width: 468, Height: 720, PageWidth: 612,
	}, nil)
	if err != nil {
		t.Fatalf("HeaderFooter() error = %v", err)
	}
	if res.Height != 38 {
		t.Errorf("height = %g, want 38 (lines plus trailing spacing)", res.Height)
	}
}

func TestHeaderFooter_AnchoredObjectExtendsExtent(t *testing.T) {
	var d docBuilder
	d.add(para("h1", 1, 15))
	// page-relative anchor offset above the region top
	img, im := anchoredImage("logo", "h1", flow.AnchorPage, 80, -10, 40, 60, flow.WrapNone)
	d.add(img, im)

	res, err := HeaderFooter(d.blocks, d.measures, HFConstraints{
		Width:     468,
		Height:    720,
		PageWidth: 612,
		Margins:   flow.Margins{Left: 72, Right: 72},
	}, nil)
	if err != nil {
		t.Fatalf("HeaderFooter() error = %v", err)
	}
	if res.MinY != -10 {
		t.Errorf("minY = %g, want -10 (object above nominal top)", res.MinY)
	}
	if res.MaxY != 50 {
		t.Errorf("maxY = %g, want 50 (object bottom)", res.MaxY)
	}
	if res.Height != 50 {
		t.Errorf("height = %g, want 50", res.Height)
	}
	// page-relative x 80 shifts left by the page margin
	var imgFrag *Fragment
	for i := range res.Pages[0].Fragments {
		if res.Pages[0].Fragments[i].BlockID == "logo" {
			imgFrag = &res.Pages[0].Fragments[i]
		}
	}
	if imgFrag == nil {
		t.Fatal("anchored object produced no fragment")
	}
	if imgFrag.X != 8 {
		t.Errorf("object x = %g, want 8 (80 minus left margin 72)", imgFrag.X)
	}
}

func TestHeaderFooter_Empty(t *testing.T) {
	res, err := HeaderFooter(nil, nil, HFConstraints{Width: 468, Height: 720, PageWidth: 612}, nil)
	if err != nil {
		t.Fatalf("HeaderFooter() error = %v", err)
	}
	if res.Height != 0 {
		t.Errorf("height = %g, want 0 for empty block set", res.Height)
	}
}
