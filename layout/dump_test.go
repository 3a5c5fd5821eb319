package layout

import (
	"strings"
	"testing"

	"folio/flow"
	"folio/measure"
)

func TestDump(t *testing.T) {
	b, m := para("p1", 3, 20)
	l, err := Document([]flow.Block{b}, []measure.Measure{m}, letterOptions())
	if err != nil {
		t.Fatalf("layout: %v", err)
	}

	out := Dump(l)
	if !strings.Contains(out, "Layout 612x792 pt, 1 page(s)") {
		t.Errorf("missing layout header:\n%s", out)
	}
	if !strings.Contains(out, `Page 1 ("1")`) {
		t.Errorf("missing page line:\n%s", out)
	}
	if !strings.Contains(out, "p1 lines [0,3) at (0, 0) 468x60") {
		t.Errorf("missing fragment line:\n%s", out)
	}
}
