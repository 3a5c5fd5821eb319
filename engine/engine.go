// Package engine orchestrates incremental document layout: it diffs block
// sequences, measures content through a bounded cache, paginates, resolves
// page number tokens in a bounded convergence loop, and lays out headers and
// footers against the final numbering. One Engine serves one open document
// session; the caller serializes Layout calls.
package engine

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"folio/diff"
	"folio/flow"
	"folio/layout"
	"folio/measure"
)

// MeasureFunc is the injected shaping callback: it produces a Measure for a
// single block under the given constraints. It must be deterministic for
// identical (block content, constraints) or the cache will serve stale
// results. It is awaited sequentially per block.
type MeasureFunc func(ctx context.Context, b *flow.Block, c measure.Constraints) (measure.Measure, error)

// maxTokenIterations bounds the page number convergence loop. Exhaustion is
// not an error; the last layout is returned with Converged false.
const maxTokenIterations = 3

// Config carries the engine feature switches.
type Config struct {
	// ResolveBodyTokens enables the convergence loop re-resolving page
	// number fields embedded in body content.
	ResolveBodyTokens bool
	// ResolveHeaderFooterTokens enables page number resolution inside
	// header/footer block sets during the final header/footer pass.
	ResolveHeaderFooterTokens bool
	// MaxCacheEntries overrides the measurement cache bound; zero keeps the
	// default.
	MaxCacheEntries int

	Log *zap.Logger
}

// Engine owns the caches of one document session.
type Engine struct {
	measure MeasureFunc
	cache   *measure.Cache
	hfCache *measure.HeaderFooterCache
	cfg     Config
	log     *zap.Logger
}

// New creates an engine around a measurement callback.
func New(measureFn MeasureFunc, cfg Config) *Engine {
	log := cfg.Log
	if log == nil {
		log = zap.NewNop()
	}
	var cache *measure.Cache
	if cfg.MaxCacheEntries > 0 {
		cache = measure.NewCacheSize(cfg.MaxCacheEntries)
	} else {
		cache = measure.NewCache()
	}
	return &Engine{
		measure: measureFn,
		cache:   cache,
		hfCache: measure.NewHeaderFooterCache(),
		cfg:     cfg,
		log:     log,
	}
}

// Cache exposes the body measurement cache for host-driven invalidation.
func (e *Engine) Cache() *measure.Cache { return e.cache }

// HeaderFooterSet supplies header or footer block sequences, keyed by
// variant name and/or by relationship id (section refs bind the latter to
// variants per section).
type HeaderFooterSet struct {
	Variants map[flow.Variant][]flow.Block
	ByRef    map[string][]flow.Block
}

// Request is one incremental layout call. Previous is the block sequence of
// the preceding call (nil on first layout); Blocks is the sequence to lay
// out now.
type Request struct {
	Previous []flow.Block
	Blocks   []flow.Block
	Options  layout.Options
	Headers  *HeaderFooterSet
	Footers  *HeaderFooterSet
}

// Result is the output of one Layout call. Blocks is the sequence actually
// laid out: when token resolution ran it differs from Request.Blocks in the
// resolved field run texts.
type Result struct {
	Layout   *layout.Layout
	Measures []measure.Measure
	Blocks   []flow.Block
	Dirty    diff.Regions

	// Converged is false only when the token loop exhausted its iteration
	// budget without the page count stabilizing.
	Converged bool
	// Passes counts pagination passes, initial included.
	Passes int

	// Headers/Footers hold the final per-variant sub-layouts. PageHeaders/
	// PageFooters are populated instead when section aware numbering
	// requires a distinct resolution per physical page.
	Headers     map[flow.Variant]*layout.HFResult
	Footers     map[flow.Variant]*layout.HFResult
	PageHeaders map[int]*layout.HFResult
	PageFooters map[int]*layout.HFResult

	// Warnings aggregates per-block measurement failures survived during
	// token re-measurement.
	Warnings error
}

// Layout runs one full incremental pass.
func (e *Engine) Layout(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()
	res := &Result{Converged: true}

	res.Dirty = diff.Compute(req.Previous, req.Blocks)
	if len(res.Dirty.DeletedBlockIDs) > 0 {
		e.cache.Invalidate(res.Dirty.DeletedBlockIDs)
	}

	cons, err := resolveConstraints(req.Blocks, &req.Options)
	if err != nil {
		return nil, err
	}

	blocks := req.Blocks
	tMeasure := time.Now()
	measures, err := e.measureAll(ctx, blocks, cons, e.cache)
	if err != nil {
		return nil, err
	}
	e.log.Debug("measured blocks",
		zap.Int("blocks", len(blocks)),
		zap.Duration("elapsed", time.Since(tMeasure)))

	opts := req.Options
	if req.Headers != nil {
		heights, err := e.prelayoutSet(ctx, req.Headers, headerKind, blocks, cons, &req.Options)
		if err != nil {
			return nil, fmt.Errorf("header pre-layout: %w", err)
		}
		opts.HeaderHeights = heights
	}
	if req.Footers != nil {
		heights, err := e.prelayoutSet(ctx, req.Footers, footerKind, blocks, cons, &req.Options)
		if err != nil {
			// degrade: paginate without the overlap adjustment
			e.log.Warn("footer pre-layout failed, heights discarded", zap.Error(err))
			opts.FooterHeights = nil
		} else {
			opts.FooterHeights = heights
		}
	}

	tPaginate := time.Now()
	l, err := layout.Document(blocks, measures, opts)
	if err != nil {
		return nil, err
	}
	res.Passes = 1
	e.log.Debug("paginated",
		zap.Int("pages", len(l.Pages)),
		zap.Duration("elapsed", time.Since(tPaginate)))

	if e.cfg.ResolveBodyTokens && hasFields(blocks) {
		blocks, measures, l = e.converge(ctx, blocks, measures, l, cons, opts, res)
	}

	if req.Headers != nil || req.Footers != nil {
		if err := e.finalizeHeaderFooter(ctx, req, l, res); err != nil {
			return nil, err
		}
	}

	stats := e.cache.GetStats()
	e.log.Debug("layout complete",
		zap.Int("passes", res.Passes),
		zap.Bool("converged", res.Converged),
		zap.Int("cacheHits", stats.Hits),
		zap.Int("cacheMisses", stats.Misses),
		zap.Int("cacheSize", stats.Size),
		zap.Duration("elapsed", time.Since(start)))

	res.Layout = l
	res.Measures = measures
	res.Blocks = blocks
	return res, nil
}

// converge runs the page number token fixed-point loop: resolve tokens
// against the current layout, re-measure only the affected blocks, and
// re-paginate, up to maxTokenIterations times. Page count stability after
// the first correction stops the loop early (oscillation guard).
func (e *Engine) converge(ctx context.Context, blocks []flow.Block, measures []measure.Measure, l *layout.Layout, cons measure.Constraints, opts layout.Options, res *Result) ([]flow.Block, []measure.Measure, *layout.Layout) {
	tConverge := time.Now()
	for iter := 1; iter <= maxTokenIterations; iter++ {
		nc := buildNumberingContext(l)
		next, changed := resolveBodyTokens(blocks, nc)
		if len(changed) == 0 {
			e.log.Debug("tokens stable",
				zap.Int("iteration", iter),
				zap.Duration("elapsed", time.Since(tConverge)))
			return blocks, measures, l
		}
		blocks = next

		ids := make([]string, len(changed))
		for i, bi := range changed {
			ids[i] = blocks[bi].ID
		}
		e.cache.Invalidate(ids)

		for _, bi := range changed {
			m, err := e.measureOne(ctx, &blocks[bi], cons, e.cache)
			if err != nil {
				// keep the previous measure; one bad block must not abort
				// the pass
				res.Warnings = multierr.Append(res.Warnings,
					fmt.Errorf("re-measure block %s: %w", blocks[bi].ID, err))
				continue
			}
			measures[bi] = m
		}

		prevPages := len(l.Pages)
		nl, err := layout.Document(blocks, measures, opts)
		if err != nil {
			res.Warnings = multierr.Append(res.Warnings,
				fmt.Errorf("token iteration %d: %w", iter, err))
			return blocks, measures, l
		}
		l = nl
		res.Passes++

		if iter > 1 && len(l.Pages) == prevPages {
			e.log.Debug("page count stable, stopping token loop",
				zap.Int("iteration", iter),
				zap.Int("pages", len(l.Pages)))
			return blocks, measures, l
		}
	}
	res.Converged = false
	e.log.Debug("token loop exhausted",
		zap.Int("iterations", maxTokenIterations),
		zap.Duration("elapsed", time.Since(tConverge)))
	return blocks, measures, l
}

// measureAll builds the positional measures slice: sentinels for break
// markers, cache-or-callback for everything else.
func (e *Engine) measureAll(ctx context.Context, blocks []flow.Block, cons measure.Constraints, cache *measure.Cache) ([]measure.Measure, error) {
	measures := make([]measure.Measure, len(blocks))
	for i := range blocks {
		switch blocks[i].Kind {
		case flow.BlockSectionBreak, flow.BlockPageBreak, flow.BlockColumnBreak:
			measures[i] = measure.Sentinel(blocks[i].Kind)
		default:
			m, err := e.measureOne(ctx, &blocks[i], cons, cache)
			if err != nil {
				return nil, fmt.Errorf("measure block %s: %w", blocks[i].ID, err)
			}
			measures[i] = m
		}
	}
	return measures, nil
}

func (e *Engine) measureOne(ctx context.Context, b *flow.Block, cons measure.Constraints, cache *measure.Cache) (measure.Measure, error) {
	if m, ok := cache.Get(b, cons.MaxWidth, cons.MaxHeight); ok {
		return m, nil
	}
	if e.measure == nil {
		return measure.Measure{}, fmt.Errorf("no measurement callback for block kind %q", b.Kind)
	}
	m, err := e.measure(ctx, b, cons)
	if err != nil {
		return measure.Measure{}, err
	}
	cache.Set(b, cons.MaxWidth, cons.MaxHeight, m)
	return m, nil
}

// resolveConstraints computes the widest column width and tallest content
// height across the default section and every section break, so measures
// stay valid no matter which section ultimately places the block.
func resolveConstraints(blocks []flow.Block, opts *layout.Options) (measure.Constraints, error) {
	size := opts.PageSize
	margins := opts.Margins
	columns := opts.Columns
	orientation := opts.Orientation

	var cons measure.Constraints
	apply := func() {
		w, h := size.W, size.H
		if orientation == flow.OrientationLandscape && h > w {
			w, h = h, w
		}
		contentW := w - margins.Left - margins.Right
		contentH := h - margins.Top - margins.Bottom
		n := columns.Count
		if n < 1 {
			n = 1
		}
		colW := (contentW - columns.Gap*float64(n-1)) / float64(n)
		cons.MaxWidth = max(cons.MaxWidth, colW)
		cons.MaxHeight = max(cons.MaxHeight, contentH)
	}
	apply()

	for i := range blocks {
		if blocks[i].Kind != flow.BlockSectionBreak {
			continue
		}
		props := blocks[i].SectionBreak.Props
		if !blocks[i].SectionBreak.Resolved {
			if la, ok := opts.SectionLookahead[i]; ok {
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
		if props.PageSize != nil {
			size = *props.PageSize
		}
		if props.Margins != nil {
			margins = *props.Margins
		}
		if props.Columns != nil {
			columns = *props.Columns
		}
		if props.Orientation != nil {
			orientation = *props.Orientation
		}
		apply()
	}

	if cons.MaxWidth <= 0 || cons.MaxHeight <= 0 {
		return cons, fmt.Errorf("%w: resolved measurement constraints %.2fx%.2f",
			layout.ErrGeometry, cons.MaxWidth, cons.MaxHeight)
	}
	return cons, nil
}

// hasFields reports whether any block carries a page number field run,
// table cell paragraphs included.
func hasFields(blocks []flow.Block) bool {
	for i := range blocks {
		switch blocks[i].Kind {
		case flow.BlockParagraph:
			if blocks[i].Paragraph.HasFields() {
				return true
			}
		case flow.BlockTable:
			for ri := range blocks[i].Table.Rows {
				for ci := range blocks[i].Table.Rows[ri].Cells {
					p := blocks[i].Table.Rows[ri].Cells[ci].Paragraph
					if p != nil && p.HasFields() {
						return true
					}
				}
			}
		}
	}
	return false
}
