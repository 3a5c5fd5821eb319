package layout

import "folio/flow"

// Section layout state: an explicit active/pending pair for every section
// scoped property. "Active" applies to the page under construction;
// "pending" is staged by a section break and swapped into active atomically
// the moment a new page is created - never mid-page, except for column
// changes explicitly promoted to a constraint-boundary region.

type sectionProps struct {
	margins        flow.Margins
	pageSize       flow.Size
	columns        flow.Columns
	orientation    flow.Orientation
	numbering      flow.Numbering
	headerDistance float64
	footerDistance float64
	headerRefs     map[flow.Variant]string
	footerRefs     map[flow.Variant]string
	// restart is set when numbering staged a counter restart; consumed at
	// the next page boundary.
	restart bool
}

type sectionState struct {
	active  sectionProps
	pending sectionProps
	// index of the section currently flowing, counted in section breaks
	// seen so far; section 0 is everything before the first break.
	index int
}

func newSectionState(opts *Options) *sectionState {
	props := sectionProps{
		margins:        opts.Margins,
		pageSize:       opts.PageSize,
		columns:        effectiveColumns(opts.Columns),
		orientation:    opts.Orientation,
		numbering:      opts.Numbering,
		headerDistance: opts.HeaderDistance,
		footerDistance: opts.FooterDistance,
	}
	if props.numbering.Format == "" {
		props.numbering.Format = flow.NumberDecimal
	}
	if props.numbering.Start > 0 {
		props.restart = true
	}
	s := &sectionState{active: props, pending: props}
	if len(opts.Sections) > 0 {
		s.applyMeta(&opts.Sections[0], &s.active)
		s.applyMeta(&opts.Sections[0], &s.pending)
	}
	return s
}

// swap promotes pending into active at a page boundary. The restart flag is
// delivered once: the paginator consumes it from active, and pending drops
// it so later pages continue counting.
func (s *sectionState) swap() {
	s.active = s.pending
	s.pending.restart = false
}

// parity requirement of a forced break.
type parity int

const (
	parityNone parity = iota
	parityEven
	parityOdd
)

// breakDecision is the scheduler's verdict for one section break.
type breakDecision struct {
	forcePageBreak     bool
	forceMidPageRegion bool
	requiredParity     parity
}

// schedule consumes one section break. contentStarted reports whether any
// page has been started yet; breakIndex is the block index of the break for
// lookahead resolution.
func (s *sectionState) schedule(br *flow.SectionBreak, breakIndex int, opts *Options, contentStarted bool) breakDecision {
	props := br.Props
	// In the end-tagged source convention the break's own geometry describes
	// the section that just ended; prefer the precomputed upcoming section
	// geometry unless the block already carries resolved metadata.
	if !br.Resolved {
		if la, ok := opts.SectionLookahead[breakIndex]; ok {
			if la.Margins != nil {
				props.Margins = la.Margins
			}
			if la.PageSize != nil {
				props.PageSize = la.PageSize
			}
			if la.Columns != nil {
				props.Columns = la.Columns
			}
			if la.Orientation != nil {
				props.Orientation = la.Orientation
			}
		}
	}

	s.index++
	if meta := findSectionMeta(opts.Sections, s.index); meta != nil {
		s.applyMeta(meta, &s.pending)
	}

	if !contentStarted {
		// no current page to protect: geometry applies directly
		s.applyProps(&props, &s.pending)
		s.active = s.pending
		return breakDecision{}
	}

	s.applyProps(&props, &s.pending)

	if br.Attrs.RequirePageBoundary {
		return breakDecision{forcePageBreak: true}
	}
	switch br.Type {
	case flow.BreakNextPage:
		return breakDecision{forcePageBreak: true}
	case flow.BreakEvenPage:
		return breakDecision{forcePageBreak: true, requiredParity: parityEven}
	case flow.BreakOddPage:
		return breakDecision{forcePageBreak: true, requiredParity: parityOdd}
	default: // continuous
		if !columnsEquivalent(s.active.columns, s.pending.columns) {
			// text below this point in the same page uses the new column
			// geometry
			return breakDecision{forceMidPageRegion: true}
		}
		return breakDecision{}
	}
}

func (s *sectionState) applyProps(p *flow.SectionProps, dst *sectionProps) {
	if p.Margins != nil {
		dst.margins = *p.Margins
	}
	if p.PageSize != nil {
		dst.pageSize = *p.PageSize
	}
	if p.Columns != nil {
		dst.columns = effectiveColumns(*p.Columns)
	}
	if p.Orientation != nil {
		dst.orientation = *p.Orientation
	}
	if p.Numbering != nil {
		dst.numbering.Format = p.Numbering.Format
		if dst.numbering.Format == "" {
			dst.numbering.Format = flow.NumberDecimal
		}
		if p.Numbering.Start > 0 {
			dst.numbering.Start = p.Numbering.Start
			dst.restart = true
		}
	}
	if p.HeaderDistance != nil {
		dst.headerDistance = *p.HeaderDistance
	}
	if p.FooterDistance != nil {
		dst.footerDistance = *p.FooterDistance
	}
	if p.HeaderRefs != nil {
		dst.headerRefs = p.HeaderRefs
	}
	if p.FooterRefs != nil {
		dst.footerRefs = p.FooterRefs
	}
}

func (s *sectionState) applyMeta(m *flow.SectionMeta, dst *sectionProps) {
	if m.Numbering != nil {
		dst.numbering.Format = m.Numbering.Format
		if dst.numbering.Format == "" {
			dst.numbering.Format = flow.NumberDecimal
		}
		if m.Numbering.Start > 0 {
			dst.numbering.Start = m.Numbering.Start
			dst.restart = true
		}
	}
	if m.HeaderRefs != nil {
		dst.headerRefs = m.HeaderRefs
	}
	if m.FooterRefs != nil {
		dst.footerRefs = m.FooterRefs
	}
}

func findSectionMeta(metas []flow.SectionMeta, index int) *flow.SectionMeta {
	for i := range metas {
		if metas[i].Index == index {
			return &metas[i]
		}
	}
	return nil
}

func columnsEquivalent(a, b flow.Columns) bool {
	if a.Count != b.Count || a.Gap != b.Gap || len(a.Widths) != len(b.Widths) {
		return false
	}
	for i := range a.Widths {
		if a.Widths[i] != b.Widths[i] {
			return false
		}
	}
	return true
}
