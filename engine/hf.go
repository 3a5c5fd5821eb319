package engine

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"folio/flow"
	"folio/layout"
	"folio/measure"
)

// hfKind selects header vs footer relationship refs at shared call sites.
type hfKind int

const (
	headerKind hfKind = iota
	footerKind
)

// prelayoutSet lays a header/footer set out at a placeholder page count of 1
// and returns the learned true height per variant. Relationship-id keyed
// block sets contribute under the variants the section refs bind them to;
// when a variant receives both sources the larger height wins.
func (e *Engine) prelayoutSet(ctx context.Context, set *HeaderFooterSet, kind hfKind, bodyBlocks []flow.Block, cons measure.Constraints, opts *layout.Options) (map[flow.Variant]float64, error) {
	heights := make(map[flow.Variant]float64)

	record := func(v flow.Variant, blocks []flow.Block) error {
		if len(blocks) == 0 {
			return nil
		}
		if e.cfg.ResolveHeaderFooterTokens {
			blocks = resolveStaticTokens(blocks, "1", 1)
		}
		res, err := e.layoutHF(ctx, blocks, v, opts)
		if err != nil {
			return fmt.Errorf("variant %s: %w", v, err)
		}
		heights[v] = max(heights[v], res.Height)
		return nil
	}

	for v, blocks := range set.Variants {
		if err := record(v, blocks); err != nil {
			return nil, err
		}
	}
	for v, refs := range refVariants(bodyBlocks, opts, kind) {
		for _, ref := range refs {
			if err := record(v, set.ByRef[ref]); err != nil {
				return nil, err
			}
		}
	}
	if len(heights) == 0 {
		return nil, nil
	}
	return heights, nil
}

// layoutHF measures and lays out one header/footer block sequence as a
// single-region sub-document spanning the body content width.
func (e *Engine) layoutHF(ctx context.Context, blocks []flow.Block, v flow.Variant, opts *layout.Options) (*layout.HFResult, error) {
	pageW, pageH := opts.PageSize.W, opts.PageSize.H
	if opts.Orientation == flow.OrientationLandscape && pageH > pageW {
		pageW, pageH = pageH, pageW
	}
	width := pageW - opts.Margins.Left - opts.Margins.Right
	cons := measure.Constraints{MaxWidth: width, MaxHeight: pageH}

	measures, err := e.measureAll(ctx, blocks, cons, e.hfCache.Variant(v))
	if err != nil {
		return nil, err
	}
	return layout.HeaderFooter(blocks, measures, layout.HFConstraints{
		Width:     width,
		Height:    pageH,
		PageWidth: pageW,
		Margins:   opts.Margins,
	}, e.log)
}

// finalizeHeaderFooter lays headers and footers out against the final
// layout's numbering. With section aware numbering and token resolution on,
// each physical page gets its own resolved sub-layout; otherwise one
// sub-layout per variant is produced against the total page count.
func (e *Engine) finalizeHeaderFooter(ctx context.Context, req Request, l *layout.Layout, res *Result) error {
	nc := buildNumberingContext(l)
	perPage := e.cfg.ResolveHeaderFooterTokens && sectionAwareNumbering(req.Blocks, &req.Options)

	finalize := func(set *HeaderFooterSet, kind hfKind) (map[flow.Variant]*layout.HFResult, map[int]*layout.HFResult, error) {
		variants := availableVariants(set, req.Blocks, &req.Options, kind)
		if len(variants) == 0 {
			return nil, nil, nil
		}
		if perPage {
			pages := make(map[int]*layout.HFResult, len(l.Pages))
			for _, page := range l.Pages {
				v := variantForPage(page.Number, variants)
				blocks := blocksForPage(set, page, v, kind)
				if len(blocks) == 0 {
					continue
				}
				blocks = resolveStaticTokens(blocks, page.NumberText, nc.totalPages)
				hres, err := e.layoutHF(ctx, blocks, v, &req.Options)
				if err != nil {
					return nil, nil, fmt.Errorf("page %d variant %s: %w", page.Number, v, err)
				}
				pages[page.Number] = hres
			}
			return nil, pages, nil
		}
		out := make(map[flow.Variant]*layout.HFResult, len(variants))
		for v := range variants {
			blocks := variantBlocks(set, req.Blocks, &req.Options, v, kind)
			if len(blocks) == 0 {
				continue
			}
			if e.cfg.ResolveHeaderFooterTokens {
				// page numbers stay per-page; only the total resolves here
				blocks = resolveStaticTokens(blocks, "", nc.totalPages)
			}
			hres, err := e.layoutHF(ctx, blocks, v, &req.Options)
			if err != nil {
				return nil, nil, fmt.Errorf("variant %s: %w", v, err)
			}
			out[v] = hres
		}
		return out, nil, nil
	}

	if req.Headers != nil {
		byVariant, byPage, err := finalize(req.Headers, headerKind)
		if err != nil {
			return fmt.Errorf("final header layout: %w", err)
		}
		res.Headers, res.PageHeaders = byVariant, byPage
	}
	if req.Footers != nil {
		byVariant, byPage, err := finalize(req.Footers, footerKind)
		if err != nil {
			// footers degrade: the body is already paginated, a missing
			// footer sub-layout must not abort the pass
			e.log.Warn("final footer layout failed", zap.Error(err))
			res.Warnings = multierr.Append(res.Warnings, fmt.Errorf("final footer layout: %w", err))
		} else {
			res.Footers, res.PageFooters = byVariant, byPage
		}
	}
	return nil
}

// refVariants collects relationship ids per variant from the section
// metadata and every section break in the body.
func refVariants(blocks []flow.Block, opts *layout.Options, kind hfKind) map[flow.Variant][]string {
	out := make(map[flow.Variant][]string)
	add := func(refs map[flow.Variant]string) {
		for v, ref := range refs {
			out[v] = append(out[v], ref)
		}
	}
	for i := range opts.Sections {
		add(pickRefs(opts.Sections[i].HeaderRefs, opts.Sections[i].FooterRefs, kind))
	}
	for i := range blocks {
		if blocks[i].Kind != flow.BlockSectionBreak {
			continue
		}
		p := &blocks[i].SectionBreak.Props
		add(pickRefs(p.HeaderRefs, p.FooterRefs, kind))
	}
	return out
}

func pickRefs(header, footer map[flow.Variant]string, kind hfKind) map[flow.Variant]string {
	if kind == headerKind {
		return header
	}
	return footer
}

// availableVariants is the union of variant-name keys and variants bound by
// relationship refs.
func availableVariants(set *HeaderFooterSet, blocks []flow.Block, opts *layout.Options, kind hfKind) map[flow.Variant]bool {
	out := make(map[flow.Variant]bool)
	for v, b := range set.Variants {
		if len(b) > 0 {
			out[v] = true
		}
	}
	for v, refs := range refVariants(blocks, opts, kind) {
		for _, ref := range refs {
			if len(set.ByRef[ref]) > 0 {
				out[v] = true
			}
		}
	}
	return out
}

// variantBlocks prefers the variant-name keyed set, with relationship refs
// as the fallback source.
func variantBlocks(set *HeaderFooterSet, blocks []flow.Block, opts *layout.Options, v flow.Variant, kind hfKind) []flow.Block {
	if b := set.Variants[v]; len(b) > 0 {
		return b
	}
	for _, ref := range refVariants(blocks, opts, kind)[v] {
		if b := set.ByRef[ref]; len(b) > 0 {
			return b
		}
	}
	return nil
}

// blocksForPage resolves the block set for one physical page, honoring the
// page's own relationship refs before the shared sets.
func blocksForPage(set *HeaderFooterSet, page *layout.Page, v flow.Variant, kind hfKind) []flow.Block {
	if page.SectionRefs != nil {
		refs := pickRefs(page.SectionRefs.HeaderRefs, page.SectionRefs.FooterRefs, kind)
		if ref, ok := refs[v]; ok {
			if b := set.ByRef[ref]; len(b) > 0 {
				return b
			}
		}
	}
	if b := set.Variants[v]; len(b) > 0 {
		return b
	}
	return set.Variants[flow.VariantDefault]
}

// variantForPage picks the most specific available variant for a physical
// page: first beats parity, parity beats default.
func variantForPage(number int, available map[flow.Variant]bool) flow.Variant {
	if number == 1 && available[flow.VariantFirst] {
		return flow.VariantFirst
	}
	if number%2 == 0 {
		if available[flow.VariantEven] {
			return flow.VariantEven
		}
	} else if available[flow.VariantOdd] {
		return flow.VariantOdd
	}
	return flow.VariantDefault
}

// sectionAwareNumbering reports whether any section restarts or reformats
// the page counter, which makes display numbers diverge from physical ones.
func sectionAwareNumbering(blocks []flow.Block, opts *layout.Options) bool {
	for i := range opts.Sections {
		if opts.Sections[i].Numbering != nil {
			return true
		}
	}
	for i := range blocks {
		if blocks[i].Kind == flow.BlockSectionBreak && blocks[i].SectionBreak.Props.Numbering != nil {
			return true
		}
	}
	return false
}
