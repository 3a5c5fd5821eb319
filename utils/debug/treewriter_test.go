package debug

import "testing"

func TestTreeWriterIndentation(t *testing.T) {
	tw := NewTreeWriter()
	tw.Line(0, "root")
	tw.Line(1, "child %d", 1)
	tw.Line(2, "leaf")

	want := "root\n  child 1\n    leaf\n"
	if got := tw.String(); got != want {
		t.Errorf("tree output:\n%q\nwant:\n%q", got, want)
	}
}

func TestTextBlockQuoting(t *testing.T) {
	tw := NewTreeWriter()
	tw.TextBlock(1, "text", "line\nbreak ")
	tw.TextBlock(1, "empty", "")

	want := "  text: \"line\\nbreak \"\n  empty: \n"
	if got := tw.String(); got != want {
		t.Errorf("text block output:\n%q\nwant:\n%q", got, want)
	}
}

func TestPt(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{72, "72"},
		{10.5, "10.5"},
		{0.25, "0.25"},
		// FormatFloat rounds half to even: 468.125 is exact in binary
		{468.125, "468.12"},
		{0, "0"},
	}
	for _, tc := range cases {
		if got := Pt(tc.in); got != tc.want {
			t.Errorf("Pt(%g): want %q, got %q", tc.in, tc.want, got)
		}
	}
}
