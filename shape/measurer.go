// Package shape is a deterministic reference measurer. It knows nothing
// about real fonts: per-rune advances come from a fixed width table, so the
// same content always produces the same measures. It exists for the CLI and
// for integration tests; real hosts inject their own shaping callback.
package shape

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"folio/flow"
	"folio/measure"
)

// Options tune the synthetic font.
type Options struct {
	// FontSize in points; used when a run carries no explicit size.
	FontSize float64
	// LineSpacing multiplies the font size into a line height.
	LineSpacing float64
	// TabWidth is the fixed tab stop interval.
	TabWidth float64
}

func (o *Options) setDefaults() {
	if o.FontSize <= 0 {
		o.FontSize = 12
	}
	if o.LineSpacing <= 0 {
		o.LineSpacing = 1.2
	}
	if o.TabWidth <= 0 {
		o.TabWidth = 48
	}
}

// Measurer implements the engine measurement callback.
type Measurer struct {
	opts Options
	log  *zap.Logger
}

func NewMeasurer(opts Options, log *zap.Logger) *Measurer {
	opts.setDefaults()
	if log == nil {
		log = zap.NewNop()
	}
	return &Measurer{opts: opts, log: log}
}

// Measure produces a measure for one block under the given constraints.
func (m *Measurer) Measure(_ context.Context, b *flow.Block, c measure.Constraints) (measure.Measure, error) {
	switch b.Kind {
	case flow.BlockParagraph:
		pm := m.measureParagraph(b.Paragraph, c.MaxWidth)
		return measure.Measure{Kind: measure.KindParagraph, Paragraph: pm}, nil
	case flow.BlockImage:
		box, err := m.measureBox(b.Image.Src, b.Image.Width, b.Image.Height, c)
		if err != nil {
			return measure.Measure{}, err
		}
		return measure.Measure{Kind: measure.KindImage, Image: box}, nil
	case flow.BlockDrawing:
		box, err := m.measureBox(b.Drawing.Src, b.Drawing.Width, b.Drawing.Height, c)
		if err != nil {
			return measure.Measure{}, err
		}
		return measure.Measure{Kind: measure.KindDrawing, Drawing: box}, nil
	case flow.BlockTable:
		return m.measureTable(b.Table, c)
	case flow.BlockSectionBreak, flow.BlockPageBreak, flow.BlockColumnBreak:
		return measure.Sentinel(b.Kind), nil
	}
	return measure.Measure{}, fmt.Errorf("unsupported block kind %q", b.Kind)
}

// measureBox resolves an object's intrinsic size: explicit dimensions win,
// then a header probe of the source file, then a fixed placeholder.
func (m *Measurer) measureBox(src string, w, h float64, c measure.Constraints) (*measure.BoxMeasure, error) {
	if w <= 0 || h <= 0 {
		if pw, ph, err := Probe(src); err == nil {
			w, h = pw, ph
		} else {
			m.log.Debug("image probe failed, using placeholder",
				zap.String("src", src), zap.Error(err))
			w, h = 100, 100
		}
	}
	if c.MaxWidth > 0 && w > c.MaxWidth {
		h = h * c.MaxWidth / w
		w = c.MaxWidth
	}
	return &measure.BoxMeasure{Width: w, Height: h}, nil
}

// pos addresses one rune inside a paragraph's run sequence.
type pos struct {
	run  int
	char int
}

// measureParagraph breaks runs into lines greedily. Explicit line break runs
// always end the line; tabs advance to the next fixed tab stop; words never
// split unless a single word exceeds the full width.
func (m *Measurer) measureParagraph(p *flow.Paragraph, maxWidth float64) *measure.ParagraphMeasure {
	pm := &measure.ParagraphMeasure{}
	if p == nil {
		return pm
	}
	lh := m.lineHeight(p)
	if maxWidth <= 0 {
		maxWidth = 1
	}

	var (
		lineStart pos
		lineWidth float64
		havePos   bool
	)
	flush := func(end pos) {
		pm.Lines = append(pm.Lines, measure.Line{
			FromRun:    lineStart.run,
			FromChar:   lineStart.char,
			ToRun:      end.run,
			ToChar:     end.char,
			Width:      lineWidth,
			Ascent:     lh * 0.8,
			Descent:    lh * 0.2,
			LineHeight: lh,
		})
		lineStart = end
		lineWidth = 0
	}

	for ri := range p.Runs {
		r := &p.Runs[ri]
		switch r.Kind {
		case flow.RunLineBreak:
			flush(pos{run: ri + 1})
			havePos = false
			continue
		case flow.RunTab:
			next := (float64(int(lineWidth/m.opts.TabWidth)) + 1) * m.opts.TabWidth
			if next > maxWidth && lineWidth > 0 {
				flush(pos{run: ri})
			} else {
				lineWidth = next
			}
			havePos = true
			continue
		case flow.RunImage:
			if r.Image == nil {
				continue
			}
			w := r.Image.Width
			if w > maxWidth {
				w = maxWidth
			}
			if lineWidth+w > maxWidth && lineWidth > 0 {
				flush(pos{run: ri})
			}
			lineWidth += w
			havePos = true
			continue
		}

		text := r.DisplayText()
		if text == "" {
			continue
		}
		size := m.opts.FontSize
		if r.Format.Size > 0 {
			size = r.Format.Size
		}
		ci := 0
		for ci < len(text) {
			word, next := nextWord(text, ci)
			w := m.textWidth(word, size, r.Format)
			if lineWidth+w > maxWidth && lineWidth > 0 {
				flush(pos{run: ri, char: ci})
			}
			lineWidth += w
			ci = next
			havePos = true
		}
	}
	if havePos || len(pm.Lines) == 0 {
		flush(pos{run: len(p.Runs)})
	}
	pm.TotalHeight = float64(len(pm.Lines)) * lh
	return pm
}

func (m *Measurer) lineHeight(p *flow.Paragraph) float64 {
	size := m.opts.FontSize
	for i := range p.Runs {
		if p.Runs[i].Format.Size > size {
			size = p.Runs[i].Format.Size
		}
	}
	spacing := m.opts.LineSpacing
	if p.Attrs.LineSpacing > 0 {
		spacing = p.Attrs.LineSpacing
	}
	return size * spacing
}

// nextWord returns the chunk starting at i: a run of spaces or a run of
// non-spaces, and the index past it. Trailing spaces travel with the line
// they end.
func nextWord(text string, i int) (string, int) {
	j := i
	isSpace := text[i] == ' '
	for j < len(text) && (text[j] == ' ') == isSpace {
		j++
	}
	return text[i:j], j
}

// textWidth sums fixed per-rune advances. Three width classes keep the
// result believable without any font data.
func (m *Measurer) textWidth(text string, size float64, f flow.Format) float64 {
	var w float64
	for _, r := range text {
		w += advanceFactor(r) * size
	}
	if f.Bold {
		w *= 1.08
	}
	if f.LetterSpacing > 0 {
		w += f.LetterSpacing * float64(len([]rune(text)))
	}
	return w
}

func advanceFactor(r rune) float64 {
	switch {
	case r == ' ':
		return 0.28
	case r == 'i' || r == 'j' || r == 'l' || r == 't' || r == 'f' ||
		r == 'I' || r == '.' || r == ',' || r == '\'' || r == ':' || r == ';':
		return 0.30
	case r == 'm' || r == 'w' || r == 'M' || r == 'W' || r == '@':
		return 0.82
	case r >= 'A' && r <= 'Z':
		return 0.66
	case r >= '0' && r <= '9':
		return 0.55
	default:
		return 0.52
	}
}

// measureTable measures every cell paragraph at an even split of the table
// width; a row is as tall as its tallest cell.
func (m *Measurer) measureTable(t *flow.Table, c measure.Constraints) (measure.Measure, error) {
	tm := &measure.TableMeasure{}
	for ri := range t.Rows {
		row := &t.Rows[ri]
		rm := measure.RowMeasure{}
		n := len(row.Cells)
		if n == 0 {
			tm.Rows = append(tm.Rows, rm)
			continue
		}
		cellW := c.MaxWidth / float64(n)
		for ci := range row.Cells {
			cm := measure.CellMeasure{Width: cellW}
			if p := row.Cells[ci].Paragraph; p != nil {
				cm.Paragraph = m.measureParagraph(p, cellW)
				rm.Height = max(rm.Height, cm.Paragraph.TotalHeight)
			}
			rm.Cells = append(rm.Cells, cm)
		}
		if rm.Height == 0 {
			rm.Height = m.opts.FontSize * m.opts.LineSpacing
		}
		tm.Rows = append(tm.Rows, rm)
	}
	return measure.Measure{Kind: measure.KindTable, Table: tm}, nil
}
