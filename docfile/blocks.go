package docfile

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"folio/flow"
)

// parseBlocks walks the children of a container element building the flow
// block sequence in document order.
func parseBlocks(el *etree.Element, log *zap.Logger) ([]flow.Block, error) {
	var blocks []flow.Block
	for _, child := range el.ChildElements() {
		b, err := parseBlock(child, log)
		if err != nil {
			return nil, err
		}
		if b != nil {
			blocks = append(blocks, *b)
		}
	}
	return blocks, nil
}

func parseBlock(el *etree.Element, log *zap.Logger) (*flow.Block, error) {
	id := el.SelectAttrValue("id", "")
	if id == "" {
		id = flow.NewID()
	}

	switch el.Tag {
	case "p":
		return &flow.Block{ID: id, Kind: flow.BlockParagraph, Paragraph: parseParagraph(el, log)}, nil
	case "image":
		img, err := parseImage(el, log)
		if err != nil {
			return nil, fmt.Errorf("image %q: %w", id, err)
		}
		return &flow.Block{ID: id, Kind: flow.BlockImage, Image: img}, nil
	case "drawing":
		d, err := parseDrawing(el, log)
		if err != nil {
			return nil, fmt.Errorf("drawing %q: %w", id, err)
		}
		return &flow.Block{ID: id, Kind: flow.BlockDrawing, Drawing: d}, nil
	case "table":
		t, err := parseTable(el, log)
		if err != nil {
			return nil, fmt.Errorf("table %q: %w", id, err)
		}
		return &flow.Block{ID: id, Kind: flow.BlockTable, Table: t}, nil
	case "pagebreak":
		return &flow.Block{ID: id, Kind: flow.BlockPageBreak}, nil
	case "columnbreak":
		return &flow.Block{ID: id, Kind: flow.BlockColumnBreak}, nil
	case "sectionbreak":
		sb, err := parseSectionBreak(el, log)
		if err != nil {
			return nil, fmt.Errorf("sectionbreak %q: %w", id, err)
		}
		return &flow.Block{ID: id, Kind: flow.BlockSectionBreak, SectionBreak: sb}, nil
	}
	log.Warn("Unexpected tag in flow content, ignoring",
		zap.String("parent", el.Parent().Tag), zap.String("tag", el.Tag))
	return nil, nil
}

func parseParagraph(el *etree.Element, log *zap.Logger) *flow.Paragraph {
	p := &flow.Paragraph{}
	applyParagraphStyle(&p.Attrs, parseStyleAttr(el.SelectAttrValue("style", ""), log))
	if lvl, ok := intAttr(el, "list-level"); ok {
		p.Attrs.List = &flow.ListAttrs{
			Level:  lvl,
			Marker: el.SelectAttrValue("list-marker", ""),
		}
	}
	p.Runs = parseRuns(el, flow.Format{}, log)
	return p
}

// parseRuns flattens inline content into a run sequence. Formatting elements
// (b, i, span) nest and inherit.
func parseRuns(parent *etree.Element, format flow.Format, log *zap.Logger) []flow.Run {
	var runs []flow.Run
	for _, node := range parent.Child {
		switch t := node.(type) {
		case *etree.CharData:
			text := collapseSpace(t.Data)
			if text == "" {
				continue
			}
			runs = append(runs, flow.Run{
				Kind:   flow.RunText,
				Text:   &flow.TextRun{Value: text},
				Format: format,
			})
		case *etree.Element:
			runs = append(runs, parseInlineElement(t, format, log)...)
		}
	}
	return runs
}

func parseInlineElement(el *etree.Element, format flow.Format, log *zap.Logger) []flow.Run {
	switch el.Tag {
	case "b", "strong":
		format.Bold = true
		return parseRuns(el, format, log)
	case "i", "em":
		format.Italic = true
		return parseRuns(el, format, log)
	case "span":
		applyFormatStyle(&format, parseStyleAttr(el.SelectAttrValue("style", ""), log))
		return parseRuns(el, format, log)
	case "br":
		return []flow.Run{{Kind: flow.RunLineBreak, Format: format}}
	case "tab":
		return []flow.Run{{Kind: flow.RunTab, Format: format}}
	case "img":
		w, _ := floatAttr(el, "width")
		h, _ := floatAttr(el, "height")
		return []flow.Run{{
			Kind: flow.RunImage,
			Image: &flow.ImageRun{
				Src:    el.SelectAttrValue("src", ""),
				Width:  w,
				Height: h,
			},
			Format: format,
		}}
	case "field":
		kind := flow.FieldKind(el.SelectAttrValue("kind", string(flow.FieldPageNumber)))
		if kind != flow.FieldPageNumber && kind != flow.FieldPageCount {
			log.Warn("Unknown field kind, treating as pageNumber", zap.String("kind", string(kind)))
			kind = flow.FieldPageNumber
		}
		return []flow.Run{{
			Kind:   flow.RunField,
			Field:  &flow.FieldRun{Kind: kind, Text: strings.TrimSpace(el.Text())},
			Format: format,
		}}
	}
	log.Warn("Unexpected inline tag, flattening", zap.String("tag", el.Tag))
	return parseRuns(el, format, log)
}

func parseImage(el *etree.Element, log *zap.Logger) (*flow.Image, error) {
	src := el.SelectAttrValue("src", "")
	if src == "" {
		return nil, fmt.Errorf("missing src attribute")
	}
	w, _ := floatAttr(el, "width")
	h, _ := floatAttr(el, "height")
	img := &flow.Image{Src: src, Width: w, Height: h}
	applyParagraphStyle(&img.Attrs, parseStyleAttr(el.SelectAttrValue("style", ""), log))
	img.Anchor, img.Wrap = parseAnchor(el, log)
	return img, nil
}

func parseDrawing(el *etree.Element, log *zap.Logger) (*flow.Drawing, error) {
	kind := flow.DrawingKind(el.SelectAttrValue("kind", string(flow.DrawingImage)))
	switch kind {
	case flow.DrawingImage, flow.DrawingVectorShape, flow.DrawingShapeGroup:
	default:
		return nil, fmt.Errorf("unknown drawing kind %q", kind)
	}
	w, _ := floatAttr(el, "width")
	h, _ := floatAttr(el, "height")
	d := &flow.Drawing{
		Kind:      kind,
		Width:     w,
		Height:    h,
		ContentID: el.SelectAttrValue("content-id", ""),
		Src:       el.SelectAttrValue("src", ""),
		Shape:     el.SelectAttrValue("shape", ""),
	}
	if z, ok := intAttr(el, "z-index"); ok {
		d.ZIndex = z
	}
	d.Anchor, d.Wrap = parseAnchor(el, log)
	return d, nil
}

// parseAnchor reads anchored-object attributes shared by image and drawing.
func parseAnchor(el *etree.Element, log *zap.Logger) (*flow.Anchor, flow.WrapMode) {
	wrap := flow.WrapMode(el.SelectAttrValue("wrap", string(flow.WrapNone)))
	switch wrap {
	case flow.WrapNone, flow.WrapSquare, flow.WrapTopBottom:
	default:
		log.Warn("Unknown wrap mode, using none", zap.String("wrap", string(wrap)))
		wrap = flow.WrapNone
	}

	anchorID := el.SelectAttrValue("anchor", "")
	if anchorID == "" {
		return nil, wrap
	}
	rel := flow.AnchorRef(el.SelectAttrValue("anchor-ref", string(flow.AnchorColumn)))
	if rel != flow.AnchorColumn && rel != flow.AnchorPage {
		log.Warn("Unknown anchor reference, using column", zap.String("anchor-ref", string(rel)))
		rel = flow.AnchorColumn
	}
	ox, _ := floatAttr(el, "offset-x")
	oy, _ := floatAttr(el, "offset-y")
	return &flow.Anchor{BlockID: anchorID, RelativeTo: rel, OffsetX: ox, OffsetY: oy}, wrap
}

func parseTable(el *etree.Element, log *zap.Logger) (*flow.Table, error) {
	t := &flow.Table{}
	for _, rowEl := range el.ChildElements() {
		if rowEl.Tag != "tr" {
			log.Warn("Unexpected tag in table, ignoring", zap.String("tag", rowEl.Tag))
			continue
		}
		row := flow.TableRow{ID: rowEl.SelectAttrValue("id", flow.NewID())}
		for _, cellEl := range rowEl.ChildElements() {
			if cellEl.Tag != "td" {
				log.Warn("Unexpected tag in table row, ignoring", zap.String("tag", cellEl.Tag))
				continue
			}
			cell := flow.TableCell{ID: cellEl.SelectAttrValue("id", flow.NewID())}
			children := cellEl.ChildElements()
			switch {
			case len(children) == 1 && children[0].Tag == "p":
				cell.Paragraph = parseParagraph(children[0], log)
			case len(children) > 0:
				blocks, err := parseBlocks(cellEl, log)
				if err != nil {
					return nil, fmt.Errorf("cell %q: %w", cell.ID, err)
				}
				cell.Blocks = blocks
			default:
				cell.Paragraph = &flow.Paragraph{}
			}
			row.Cells = append(row.Cells, cell)
		}
		t.Rows = append(t.Rows, row)
	}
	if len(t.Rows) == 0 {
		return nil, fmt.Errorf("table has no rows")
	}
	return t, nil
}

func parseSectionBreak(el *etree.Element, log *zap.Logger) (*flow.SectionBreak, error) {
	typ := flow.BreakType(el.SelectAttrValue("type", string(flow.BreakNextPage)))
	switch typ {
	case flow.BreakContinuous, flow.BreakNextPage, flow.BreakEvenPage, flow.BreakOddPage:
	default:
		return nil, fmt.Errorf("unknown break type %q", typ)
	}
	sb := &flow.SectionBreak{Type: typ, Resolved: true}

	if w, okW := floatAttr(el, "page-width"); okW {
		h, okH := floatAttr(el, "page-height")
		if !okH {
			return nil, fmt.Errorf("page-width without page-height")
		}
		sb.Props.PageSize = &flow.Size{W: w, H: h}
	}
	if m, ok := marginAttrs(el); ok {
		sb.Props.Margins = m
	}
	if c, ok := columnAttrs(el); ok {
		sb.Props.Columns = c
	}
	if o := el.SelectAttrValue("orientation", ""); o != "" {
		v := flow.Orientation(o)
		sb.Props.Orientation = &v
	}
	if n, ok := numberingAttrs(el); ok {
		sb.Props.Numbering = n
	}
	if v, ok := floatAttr(el, "header-distance"); ok {
		sb.Props.HeaderDistance = &v
	}
	if v, ok := floatAttr(el, "footer-distance"); ok {
		sb.Props.FooterDistance = &v
	}
	if el.SelectAttrValue("require-page-boundary", "") == "true" {
		sb.Attrs.RequirePageBoundary = true
	}

	for _, refEl := range el.ChildElements() {
		if refEl.Tag != "ref" {
			log.Warn("Unexpected tag in sectionbreak, ignoring", zap.String("tag", refEl.Tag))
			continue
		}
		variant := flow.Variant(refEl.SelectAttrValue("variant", string(flow.VariantDefault)))
		rel := refEl.SelectAttrValue("rel", "")
		if rel == "" {
			return nil, fmt.Errorf("ref element without rel attribute")
		}
		switch kind := refEl.SelectAttrValue("kind", "header"); kind {
		case "header":
			if sb.Props.HeaderRefs == nil {
				sb.Props.HeaderRefs = make(map[flow.Variant]string)
			}
			sb.Props.HeaderRefs[variant] = rel
		case "footer":
			if sb.Props.FooterRefs == nil {
				sb.Props.FooterRefs = make(map[flow.Variant]string)
			}
			sb.Props.FooterRefs[variant] = rel
		default:
			return nil, fmt.Errorf("unknown ref kind %q", kind)
		}
	}
	return sb, nil
}

// attribute helpers

func floatAttr(el *etree.Element, name string) (float64, bool) {
	s := el.SelectAttrValue(name, "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func intAttr(el *etree.Element, name string) (int, bool) {
	s := el.SelectAttrValue(name, "")
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return v, true
}

func marginAttrs(el *etree.Element) (*flow.Margins, bool) {
	top, okT := floatAttr(el, "margin-top")
	right, okR := floatAttr(el, "margin-right")
	bottom, okB := floatAttr(el, "margin-bottom")
	left, okL := floatAttr(el, "margin-left")
	if !okT && !okR && !okB && !okL {
		return nil, false
	}
	return &flow.Margins{Top: top, Right: right, Bottom: bottom, Left: left}, true
}

func columnAttrs(el *etree.Element) (*flow.Columns, bool) {
	count, ok := intAttr(el, "columns")
	if !ok {
		return nil, false
	}
	gap, _ := floatAttr(el, "column-gap")
	return &flow.Columns{Count: count, Gap: gap}, true
}

func numberingAttrs(el *etree.Element) (*flow.Numbering, bool) {
	format := el.SelectAttrValue("number-format", "")
	start, okS := intAttr(el, "number-start")
	if format == "" && !okS {
		return nil, false
	}
	n := &flow.Numbering{Format: flow.NumberFormat(format)}
	if n.Format == "" {
		n.Format = flow.NumberDecimal
	}
	if okS {
		n.Start = start
	}
	return n, true
}

// collapseSpace trims surrounding XML whitespace while preserving single
// interior spaces.
func collapseSpace(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	joined := strings.Join(fields, " ")
	// keep one boundary space when the source had one, so adjacent runs
	// do not fuse words together
	if isSpaceByte(s[0]) {
		joined = " " + joined
	}
	if isSpaceByte(s[len(s)-1]) {
		joined += " "
	}
	return joined
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\n' || b == '\t' || b == '\r'
}
