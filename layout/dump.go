package layout

import (
	"sort"

	"folio/flow"
	"folio/utils/debug"
)

// Dump returns a tree-like debug representation of the layout.
func Dump(l *Layout) string {
	tw := debug.NewTreeWriter()

	tw.Line(0, "Layout %dx%d pt, %d page(s)", int(l.PageSize.W), int(l.PageSize.H), len(l.Pages))
	for _, p := range l.Pages {
		tw.Line(1, "Page %d (%q) %dx%d %s", p.Number, p.NumberText, int(p.Size.W), int(p.Size.H), p.Orientation)
		if p.SectionRefs != nil {
			for _, v := range sortedVariants(p.SectionRefs.HeaderRefs) {
				tw.Line(2, "header[%s]: %s", v, p.SectionRefs.HeaderRefs[v])
			}
			for _, v := range sortedVariants(p.SectionRefs.FooterRefs) {
				tw.Line(2, "footer[%s]: %s", v, p.SectionRefs.FooterRefs[v])
			}
		}
		for fi := range p.Fragments {
			f := &p.Fragments[fi]
			switch f.Kind {
			case FragmentPara, FragmentListItem:
				tw.Line(2, "%s %s lines [%d,%d) at (%s, %s) %sx%s",
					f.Kind, f.BlockID, f.FromLine, f.ToLine,
					debug.Pt(f.X), debug.Pt(f.Y), debug.Pt(f.Width), debug.Pt(f.Height))
			default:
				tw.Line(2, "%s %s at (%s, %s) %sx%s",
					f.Kind, f.BlockID,
					debug.Pt(f.X), debug.Pt(f.Y), debug.Pt(f.Width), debug.Pt(f.Height))
			}
		}
	}
	return tw.String()
}

func sortedVariants(m map[flow.Variant]string) []flow.Variant {
	keys := make([]flow.Variant, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
