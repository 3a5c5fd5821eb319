package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"folio/flow"
	"folio/layout"
	"folio/measure"
)

func letterOptions() layout.Options {
	return layout.Options{
		PageSize: flow.Size{W: 612, H: 792},
		Margins:  flow.Margins{Top: 72, Right: 72, Bottom: 72, Left: 72},
	}
}

func textPara(id, text string) flow.Block {
	return flow.Block{
		ID:   id,
		Kind: flow.BlockParagraph,
		Paragraph: &flow.Paragraph{
			Runs: []flow.Run{{Kind: flow.RunText, Text: &flow.TextRun{Value: text}}},
		},
	}
}

func fieldPara(id string, kind flow.FieldKind) flow.Block {
	return flow.Block{
		ID:   id,
		Kind: flow.BlockParagraph,
		Paragraph: &flow.Paragraph{
			Runs: []flow.Run{{Kind: flow.RunField, Field: &flow.FieldRun{Kind: kind}}},
		},
	}
}

func paraMeasure(lines int, lineHeight float64) measure.Measure {
	pm := &measure.ParagraphMeasure{}
	for range lines {
		pm.Lines = append(pm.Lines, measure.Line{ToRun: 1, Width: 400, LineHeight: lineHeight})
	}
	pm.TotalHeight = float64(lines) * lineHeight
	return measure.Measure{Kind: measure.KindParagraph, Paragraph: pm}
}

// linesFor encodes line counts in the block text: "lines:N".
func linesFor(b *flow.Block) int {
	text := b.Paragraph.AsPlainText()
	if i := strings.Index(text, "lines:"); i >= 0 {
		n := 0
		fmt.Sscanf(text[i:], "lines:%d", &n)
		return n
	}
	return 1
}

func countingMeasurer(calls *int) MeasureFunc {
	return func(_ context.Context, b *flow.Block, _ measure.Constraints) (measure.Measure, error) {
		*calls++
		return paraMeasure(linesFor(b), 20), nil
	}
}

func TestLayout_SinglePass(t *testing.T) {
	var calls int
	e := New(countingMeasurer(&calls), Config{})

	blocks := []flow.Block{textPara("p1", "lines:3")}
	res, err := e.Layout(context.Background(), Request{Blocks: blocks, Options: letterOptions()})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if res.Passes != 1 || !res.Converged {
		t.Errorf("passes = %d converged = %v, want 1 pass converged", res.Passes, res.Converged)
	}
	if len(res.Layout.Pages) != 1 {
		t.Fatalf("pages = %d, want 1", len(res.Layout.Pages))
	}
	if len(res.Measures) != len(blocks) {
		t.Errorf("measures = %d, want %d", len(res.Measures), len(blocks))
	}
	if calls != 1 {
		t.Errorf("measurement callbacks = %d, want 1", calls)
	}
}

func TestLayout_CacheServesRepeatCalls(t *testing.T) {
	var calls int
	e := New(countingMeasurer(&calls), Config{})
	blocks := []flow.Block{textPara("p1", "lines:3"), textPara("p2", "lines:5")}
	req := Request{Blocks: blocks, Options: letterOptions()}

	if _, err := e.Layout(context.Background(), req); err != nil {
		t.Fatalf("first Layout() error = %v", err)
	}
	first := calls
	req.Previous = blocks
	if _, err := e.Layout(context.Background(), req); err != nil {
		t.Fatalf("second Layout() error = %v", err)
	}
	if calls != first {
		t.Errorf("second pass invoked the callback %d more times, want 0 (cache)", calls-first)
	}
	if stats := e.Cache().GetStats(); stats.Hits == 0 {
		t.Error("expected cache hits on the repeat call")
	}
}

func TestLayout_DeletedBlocksInvalidated(t *testing.T) {
	var calls int
	e := New(countingMeasurer(&calls), Config{})
	a, b := textPara("a", "lines:2"), textPara("b", "lines:2")

	if _, err := e.Layout(context.Background(), Request{Blocks: []flow.Block{a, b}, Options: letterOptions()}); err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	before := e.Cache().Len()

	res, err := e.Layout(context.Background(), Request{
		Previous: []flow.Block{a, b},
		Blocks:   []flow.Block{a},
		Options:  letterOptions(),
	})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if len(res.Dirty.DeletedBlockIDs) != 1 || res.Dirty.DeletedBlockIDs[0] != "b" {
		t.Errorf("deleted ids = %v, want [b]", res.Dirty.DeletedBlockIDs)
	}
	if e.Cache().Len() >= before {
		t.Errorf("cache size %d not reduced from %d after deletion", e.Cache().Len(), before)
	}
}

func TestLayout_ConstraintsSpanAllSections(t *testing.T) {
	wide := flow.Size{W: 1000, H: 500}
	var got measure.Constraints
	e := New(func(_ context.Context, b *flow.Block, c measure.Constraints) (measure.Measure, error) {
		got = c
		return paraMeasure(1, 20), nil
	}, Config{})

	blocks := []flow.Block{
		textPara("p1", "lines:1"),
		{ID: "s1", Kind: flow.BlockSectionBreak, SectionBreak: &flow.SectionBreak{
			Type: flow.BreakNextPage, Props: flow.SectionProps{PageSize: &wide}, Resolved: true,
		}},
		textPara("p2", "lines:1"),
	}
	if _, err := e.Layout(context.Background(), Request{Blocks: blocks, Options: letterOptions()}); err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	// widest column: 1000 - 144 margins = 856; tallest content: 792 - 144 = 648
	if got.MaxWidth != 856 {
		t.Errorf("maxWidth = %g, want 856 (widest section)", got.MaxWidth)
	}
	if got.MaxHeight != 648 {
		t.Errorf("maxHeight = %g, want 648 (tallest section)", got.MaxHeight)
	}
}

func TestLayout_BadConstraintsFatal(t *testing.T) {
	e := New(countingMeasurer(new(int)), Config{})
	opts := layout.Options{
		PageSize: flow.Size{W: 100, H: 100},
		Margins:  flow.Margins{Top: 60, Bottom: 60, Left: 10, Right: 10},
	}
	_, err := e.Layout(context.Background(), Request{Blocks: []flow.Block{textPara("p1", "x")}, Options: opts})
	if !errors.Is(err, layout.ErrGeometry) {
		t.Errorf("error = %v, want ErrGeometry", err)
	}
}

func TestLayout_MeasureFailureFatalOnInitialPass(t *testing.T) {
	e := New(func(_ context.Context, _ *flow.Block, _ measure.Constraints) (measure.Measure, error) {
		return measure.Measure{}, errors.New("shaper offline")
	}, Config{})
	_, err := e.Layout(context.Background(), Request{Blocks: []flow.Block{textPara("p1", "x")}, Options: letterOptions()})
	if err == nil {
		t.Fatal("initial measurement failure must be fatal")
	}
}

func TestLayout_ConvergesAfterOneCorrection(t *testing.T) {
	e := New(countingMeasurer(new(int)), Config{ResolveBodyTokens: true})

	blocks := []flow.Block{
		textPara("filler", "lines:40"), // two pages
		fieldPara("pc", flow.FieldPageCount),
	}
	res, err := e.Layout(context.Background(), Request{Blocks: blocks, Options: letterOptions()})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if res.Passes != 2 {
		t.Errorf("passes = %d, want 2 (initial + one correction)", res.Passes)
	}
	if !res.Converged {
		t.Error("converged = false, want true")
	}
	// the returned sequence carries the resolved token text
	f := res.Blocks[1].Paragraph.Runs[0].Field
	if f.Text != "2" {
		t.Errorf("resolved page count = %q, want \"2\"", f.Text)
	}
	// input blocks are never mutated
	if got := blocks[1].Paragraph.Runs[0].Field.Text; got != "" {
		t.Errorf("input block mutated: field text %q", got)
	}
}

func TestLayout_PageNumberFieldResolved(t *testing.T) {
	e := New(countingMeasurer(new(int)), Config{ResolveBodyTokens: true})

	blocks := []flow.Block{
		textPara("filler", "lines:40"),
		fieldPara("pn", flow.FieldPageNumber),
	}
	res, err := e.Layout(context.Background(), Request{Blocks: blocks, Options: letterOptions()})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if f := res.Blocks[1].Paragraph.Runs[0].Field; f.Text != "2" {
		t.Errorf("resolved page number = %q, want \"2\" (block lands on page 2)", f.Text)
	}
}

func TestLayout_OscillationStopsAtBudget(t *testing.T) {
	// field text "1" makes the paragraph spill to two pages, anything else
	// fits one page: the page count alternates every iteration
	e := New(func(_ context.Context, b *flow.Block, _ measure.Constraints) (measure.Measure, error) {
		if b.Paragraph.Runs[0].Field.Text == "1" {
			return paraMeasure(40, 20), nil
		}
		return paraMeasure(1, 20), nil
	}, Config{ResolveBodyTokens: true})

	blocks := []flow.Block{fieldPara("osc", flow.FieldPageCount)}
	res, err := e.Layout(context.Background(), Request{Blocks: blocks, Options: letterOptions()})
	if err != nil {
		t.Fatalf("Layout() error = %v, want graceful non-convergence", err)
	}
	if res.Converged {
		t.Error("converged = true, want false for the alternating document")
	}
	if res.Passes != 1+maxTokenIterations {
		t.Errorf("passes = %d, want %d (initial + full budget)", res.Passes, 1+maxTokenIterations)
	}
	if res.Layout == nil || len(res.Layout.Pages) == 0 {
		t.Error("non-convergence must still return the last layout")
	}
}

func TestLayout_TokensOffMeansOnePass(t *testing.T) {
	e := New(countingMeasurer(new(int)), Config{})
	blocks := []flow.Block{
		textPara("filler", "lines:40"),
		fieldPara("pc", flow.FieldPageCount),
	}
	res, err := e.Layout(context.Background(), Request{Blocks: blocks, Options: letterOptions()})
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if res.Passes != 1 {
		t.Errorf("passes = %d, want 1 with token resolution off", res.Passes)
	}
	if got := res.Blocks[1].Paragraph.Runs[0].Field.Text; got != "" {
		t.Errorf("field text = %q, want unresolved", got)
	}
}

func TestLayout_ReMeasureFailureIsolated(t *testing.T) {
	e := New(func(_ context.Context, b *flow.Block, _ measure.Constraints) (measure.Measure, error) {
		if b.ID == "pc" && b.Paragraph.Runs[0].Field.Text != "" {
			return measure.Measure{}, errors.New("shaper hiccup")
		}
		if b.ID == "filler" {
			return paraMeasure(40, 20), nil
		}
		return paraMeasure(1, 20), nil
	}, Config{ResolveBodyTokens: true})

	blocks := []flow.Block{
		textPara("filler", "lines:40"),
		fieldPara("pc", flow.FieldPageCount),
	}
	res, err := e.Layout(context.Background(), Request{Blocks: blocks, Options: letterOptions()})
	if err != nil {
		t.Fatalf("Layout() error = %v, want isolated per-block failure", err)
	}
	if res.Warnings == nil {
		t.Error("expected a re-measurement warning")
	}
	if !res.Converged {
		t.Error("converged = false, want true (previous measure retained)")
	}
	if len(res.Layout.Pages) != 2 {
		t.Errorf("pages = %d, want 2", len(res.Layout.Pages))
	}
}

func TestLayout_HeaderHeightShrinksBody(t *testing.T) {
	var calls int
	e := New(countingMeasurer(&calls), Config{})

	opts := letterOptions()
	opts.HeaderDistance = 36

	// a 100pt header pushes the top inset to 136: only 29 of the 30 lines
	// fit the first page
	req := Request{
		Blocks:  []flow.Block{textPara("body", "lines:30")},
		Options: opts,
		Headers: &HeaderFooterSet{Variants: map[flow.Variant][]flow.Block{
			flow.VariantDefault: {textPara("hdr", "lines:5")},
		}},
	}
	res, err := e.Layout(context.Background(), req)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if len(res.Layout.Pages) != 2 {
		t.Errorf("pages = %d, want 2 (header steals body space)", len(res.Layout.Pages))
	}
	if res.Headers[flow.VariantDefault] == nil {
		t.Fatal("final header layout missing for default variant")
	}
	if h := res.Headers[flow.VariantDefault].Height; h != 100 {
		t.Errorf("header height = %g, want 100", h)
	}
}

func TestLayout_FooterFailureDegrades(t *testing.T) {
	e := New(func(_ context.Context, b *flow.Block, _ measure.Constraints) (measure.Measure, error) {
		if b.ID == "ftr" {
			return measure.Measure{}, errors.New("footer shaper broken")
		}
		return paraMeasure(linesFor(b), 20), nil
	}, Config{})

	req := Request{
		Blocks:  []flow.Block{textPara("body", "lines:30")},
		Options: letterOptions(),
		Footers: &HeaderFooterSet{Variants: map[flow.Variant][]flow.Block{
			flow.VariantDefault: {textPara("ftr", "lines:2")},
		}},
	}
	res, err := e.Layout(context.Background(), req)
	if err != nil {
		t.Fatalf("Layout() error = %v, want graceful footer degrade", err)
	}
	// without the learned footer height the 30 lines keep fitting page one
	if len(res.Layout.Pages) != 1 {
		t.Errorf("pages = %d, want 1 (no footer inset applied)", len(res.Layout.Pages))
	}
}

func TestLayout_HeaderFailureFatal(t *testing.T) {
	e := New(func(_ context.Context, b *flow.Block, _ measure.Constraints) (measure.Measure, error) {
		if b.ID == "hdr" {
			return measure.Measure{}, errors.New("header shaper broken")
		}
		return paraMeasure(1, 20), nil
	}, Config{})

	req := Request{
		Blocks:  []flow.Block{textPara("body", "x")},
		Options: letterOptions(),
		Headers: &HeaderFooterSet{Variants: map[flow.Variant][]flow.Block{
			flow.VariantDefault: {textPara("hdr", "x")},
		}},
	}
	if _, err := e.Layout(context.Background(), req); err == nil {
		t.Fatal("header pre-layout failure must propagate")
	}
}

func TestLayout_RelationshipRefHeights(t *testing.T) {
	e := New(countingMeasurer(new(int)), Config{})

	opts := letterOptions()
	opts.HeaderDistance = 36
	opts.Sections = []flow.SectionMeta{{
		Index:      0,
		HeaderRefs: map[flow.Variant]string{flow.VariantDefault: "rId7"},
	}}

	req := Request{
		Blocks:  []flow.Block{textPara("body", "lines:30")},
		Options: opts,
		Headers: &HeaderFooterSet{ByRef: map[string][]flow.Block{
			"rId7": {textPara("hdr", "lines:5")},
		}},
	}
	res, err := e.Layout(context.Background(), req)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if len(res.Layout.Pages) != 2 {
		t.Errorf("pages = %d, want 2 (ref-bound header height applied)", len(res.Layout.Pages))
	}
	if res.Headers[flow.VariantDefault] == nil {
		t.Error("final header layout missing for ref-bound variant")
	}
}

func TestLayout_PerPageHeaderResolution(t *testing.T) {
	e := New(countingMeasurer(new(int)), Config{ResolveHeaderFooterTokens: true})

	roman := flow.Numbering{Format: flow.NumberLowerRoman, Start: 1}
	blocks := []flow.Block{
		textPara("p1", "lines:1"),
		{ID: "s1", Kind: flow.BlockSectionBreak, SectionBreak: &flow.SectionBreak{
			Type: flow.BreakNextPage, Props: flow.SectionProps{Numbering: &roman}, Resolved: true,
		}},
		textPara("p2", "lines:1"),
	}
	req := Request{
		Blocks:  blocks,
		Options: letterOptions(),
		Headers: &HeaderFooterSet{Variants: map[flow.Variant][]flow.Block{
			flow.VariantDefault: {fieldPara("hnum", flow.FieldPageNumber)},
		}},
	}
	res, err := e.Layout(context.Background(), req)
	if err != nil {
		t.Fatalf("Layout() error = %v", err)
	}
	if len(res.Layout.Pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(res.Layout.Pages))
	}
	if res.PageHeaders == nil {
		t.Fatal("section aware numbering must produce per-page headers")
	}
	for _, p := range res.Layout.Pages {
		if res.PageHeaders[p.Number] == nil {
			t.Errorf("page %d has no resolved header", p.Number)
		}
	}
	if res.Headers != nil {
		t.Error("per-variant headers should be empty in per-page mode")
	}
}
