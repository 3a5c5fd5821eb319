package measure

import (
	"fmt"
	"math"
	"testing"

	"folio/flow"
)

func paraBlock(id, text string) *flow.Block {
	return &flow.Block{
		ID:   id,
		Kind: flow.BlockParagraph,
		Paragraph: &flow.Paragraph{
			Runs: []flow.Run{{Kind: flow.RunText, Text: &flow.TextRun{Value: text}}},
		},
	}
}

func paraMeasure(h float64) Measure {
	return Measure{Kind: KindParagraph, Paragraph: &ParagraphMeasure{
		Lines:       []Line{{ToRun: 1, Width: 100, LineHeight: h}},
		TotalHeight: h,
	}}
}

func TestCache_SetGet(t *testing.T) {
	c := NewCache()
	b := paraBlock("p1", "hello")

	c.Set(b, 468, 648, paraMeasure(20))

	m, ok := c.Get(b, 468, 648)
	if !ok {
		t.Fatal("expected hit after set")
	}
	if m.Paragraph == nil || m.Paragraph.TotalHeight != 20 {
		t.Error("hit returned wrong measure")
	}

	if _, ok := c.Get(b, 500, 648); ok {
		t.Error("different width must miss")
	}
	if _, ok := c.Get(b, 468, 700); ok {
		t.Error("different height must miss")
	}
}

func TestCache_ContentKeyed(t *testing.T) {
	c := NewCache()
	c.Set(paraBlock("p1", "hello"), 468, 648, paraMeasure(20))

	// same id, same content, different object
	if _, ok := c.Get(paraBlock("p1", "hello"), 468, 648); !ok {
		t.Error("recreated block with identical content must hit")
	}
	// whitespace runs normalize away
	if _, ok := c.Get(paraBlock("p1", "  hello  "), 468, 648); !ok {
		t.Error("whitespace-normalized content must hit")
	}
	// content edit misses
	if _, ok := c.Get(paraBlock("p1", "bye"), 468, 648); ok {
		t.Error("changed text must miss")
	}
	// formatting edit misses
	b := paraBlock("p1", "hello")
	b.Paragraph.Runs[0].Format.Bold = true
	if _, ok := c.Get(b, 468, 648); ok {
		t.Error("changed formatting must miss")
	}
}

func TestCache_ContentKeyed_ImageAndTable(t *testing.T) {
	c := NewCache()

	img := &flow.Block{ID: "i1", Kind: flow.BlockImage, Image: &flow.Image{Src: "a.png", Width: 100, Height: 50}}
	c.Set(img, 468, 648, Measure{Kind: KindImage, Image: &BoxMeasure{Width: 100, Height: 50}})

	same := &flow.Block{ID: "i1", Kind: flow.BlockImage, Image: &flow.Image{Src: "a.png", Width: 100, Height: 50}}
	if _, ok := c.Get(same, 468, 648); !ok {
		t.Error("identical image content must hit")
	}
	changed := &flow.Block{ID: "i1", Kind: flow.BlockImage, Image: &flow.Image{Src: "b.png", Width: 100, Height: 50}}
	if _, ok := c.Get(changed, 468, 648); ok {
		t.Error("image with different source must miss")
	}

	tbl := func(text string) *flow.Block {
		return &flow.Block{ID: "t1", Kind: flow.BlockTable, Table: &flow.Table{Rows: []flow.TableRow{
			{ID: "r1", Cells: []flow.TableCell{{ID: "c1", Paragraph: paraBlock("x", text).Paragraph}}},
		}}}
	}
	c.Set(tbl("cell"), 468, 648, Measure{Kind: KindTable, Table: &TableMeasure{}})
	if _, ok := c.Get(tbl("cell"), 468, 648); !ok {
		t.Error("identical table content must hit")
	}
	if _, ok := c.Get(tbl("edited"), 468, 648); ok {
		t.Error("table with edited cell text must miss")
	}
}

func TestCache_MalformedBlocks(t *testing.T) {
	c := NewCache()

	c.Set(nil, 468, 648, paraMeasure(20))
	c.Set(&flow.Block{Kind: flow.BlockParagraph}, 468, 648, paraMeasure(20))

	if c.Len() != 0 {
		t.Error("set with nil or id-less block must no-op")
	}
	if _, ok := c.Get(nil, 468, 648); ok {
		t.Error("get with nil block must miss")
	}
}

func TestCache_DimensionClamping(t *testing.T) {
	c := NewCache()
	b := paraBlock("p1", "hello")
	c.Set(b, 0, 0, paraMeasure(20))

	for _, dims := range [][2]float64{
		{math.NaN(), math.NaN()},
		{-5, -100},
		{math.Inf(-1), -1},
	} {
		if _, ok := c.Get(b, dims[0], dims[1]); !ok {
			t.Errorf("dims %v must key identically to 0", dims)
		}
	}

	c.Set(b, maxDim, maxDim, paraMeasure(30))
	for _, dims := range [][2]float64{
		{math.Inf(1), math.Inf(1)},
		{maxDim + 1, 2 * maxDim},
	} {
		m, ok := c.Get(b, dims[0], dims[1])
		if !ok || m.Paragraph.TotalHeight != 30 {
			t.Errorf("dims %v must key identically to the clamp maximum", dims)
		}
	}
}

func TestCache_LRUEviction(t *testing.T) {
	c := NewCacheSize(3)
	for i := range 3 {
		c.Set(paraBlock(fmt.Sprintf("p%d", i), "x"), 100, 100, paraMeasure(float64(i)))
	}

	// touch p0 so p1 becomes least recently used
	if _, ok := c.Get(paraBlock("p0", "x"), 100, 100); !ok {
		t.Fatal("p0 should be cached")
	}

	c.Set(paraBlock("p3", "x"), 100, 100, paraMeasure(3))

	if c.Len() != 3 {
		t.Errorf("cache size = %d, want 3", c.Len())
	}
	if _, ok := c.Get(paraBlock("p1", "x"), 100, 100); ok {
		t.Error("least recently used entry p1 should have been evicted")
	}
	if _, ok := c.Get(paraBlock("p0", "x"), 100, 100); !ok {
		t.Error("recently promoted p0 should survive eviction")
	}
	if got := c.GetStats().Evictions; got != 1 {
		t.Errorf("evictions = %d, want 1", got)
	}
}

func TestCache_Invalidate(t *testing.T) {
	c := NewCache()
	b := paraBlock("p1", "hello")
	c.Set(b, 100, 100, paraMeasure(20))
	c.Set(b, 200, 100, paraMeasure(21))
	c.Set(paraBlock("p2", "other"), 100, 100, paraMeasure(22))

	c.Invalidate([]string{"p1"})

	if _, ok := c.Get(b, 100, 100); ok {
		t.Error("invalidated id must miss at every dimension")
	}
	if _, ok := c.Get(b, 200, 100); ok {
		t.Error("invalidated id must miss at every dimension")
	}
	if _, ok := c.Get(paraBlock("p2", "other"), 100, 100); !ok {
		t.Error("unrelated id must survive invalidation")
	}
	if got := c.GetStats().Invalidations; got != 2 {
		t.Errorf("invalidations = %d, want 2", got)
	}
}

func TestCache_StatsAndClear(t *testing.T) {
	c := NewCache()
	b := paraBlock("p1", "hello")
	c.Set(b, 100, 100, paraMeasure(20))
	c.Get(b, 100, 100)
	c.Get(b, 999, 100)

	s := c.GetStats()
	if s.Hits != 1 || s.Misses != 1 || s.Sets != 1 || s.Size != 1 {
		t.Errorf("unexpected stats: %+v", s)
	}

	c.ResetStats()
	if s := c.GetStats(); s.Hits != 0 || s.Size != 1 {
		t.Errorf("ResetStats must zero counters but keep entries: %+v", s)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Error("Clear must drop all entries")
	}
	if s := c.GetStats(); s.Clears != 1 {
		t.Errorf("clears = %d, want 1", s.Clears)
	}
}
