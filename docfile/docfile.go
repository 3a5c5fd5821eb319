// Package docfile reads flow documents from a simple XML format: a
// <document> root with an optional <page> setup element, a <body> holding
// flow blocks and any number of <header>/<footer> variant sections. It is
// the input path for the CLI and for end to end tests; hosts with richer
// document models construct flow blocks directly.
package docfile

import (
	"fmt"
	"io"
	"os"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"folio/flow"
	"folio/layout"
)

// Document is the parsed result: body blocks plus optional page setup and
// header/footer variants.
type Document struct {
	Blocks  []flow.Block
	Headers map[flow.Variant][]flow.Block
	Footers map[flow.Variant][]flow.Block

	// Page holds the document level page setup; nil fields leave the
	// caller's defaults untouched.
	Page flow.SectionProps

	// Sections is per-section metadata collected from section breaks that
	// carry header/footer references or numbering.
	Sections []flow.SectionMeta
}

// Options merges the document's page setup onto caller defaults.
func (d *Document) Options(defaults layout.Options) layout.Options {
	opts := defaults
	p := &d.Page
	if p.PageSize != nil {
		opts.PageSize = *p.PageSize
	}
	if p.Margins != nil {
		opts.Margins = *p.Margins
	}
	if p.Columns != nil {
		opts.Columns = *p.Columns
	}
	if p.Orientation != nil {
		opts.Orientation = *p.Orientation
	}
	if p.Numbering != nil {
		opts.Numbering = *p.Numbering
	}
	if p.HeaderDistance != nil {
		opts.HeaderDistance = *p.HeaderDistance
	}
	if p.FooterDistance != nil {
		opts.FooterDistance = *p.FooterDistance
	}
	if len(d.Sections) > 0 {
		opts.Sections = d.Sections
	}
	return opts
}

// ReadFile reads and parses a flow document from a file.
func ReadFile(path string, log *zap.Logger) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open document: %w", err)
	}
	defer f.Close()
	return Read(f, log)
}

// Read parses a flow document from a reader. Input in legacy encodings is
// transcoded via the declared charset label.
func Read(r io.Reader, log *zap.Logger) (*Document, error) {
	if log == nil {
		log = zap.NewNop()
	}

	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		ValidateInput: false,
		Permissive:    true,
	}
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("unable to read document XML: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	if root.Tag != "document" {
		return nil, fmt.Errorf("unexpected root element %q", root.Tag)
	}

	d := &Document{
		Headers: make(map[flow.Variant][]flow.Block),
		Footers: make(map[flow.Variant][]flow.Block),
	}
	for _, child := range root.ChildElements() {
		switch child.Tag {
		case "page":
			d.Page = parsePageSetup(child, log)
		case "body":
			blocks, err := parseBlocks(child, log)
			if err != nil {
				return nil, fmt.Errorf("body: %w", err)
			}
			d.Blocks = blocks
		case "header", "footer":
			variant := flow.Variant(child.SelectAttrValue("variant", string(flow.VariantDefault)))
			blocks, err := parseBlocks(child, log)
			if err != nil {
				return nil, fmt.Errorf("%s %q: %w", child.Tag, variant, err)
			}
			if child.Tag == "header" {
				d.Headers[variant] = blocks
			} else {
				d.Footers[variant] = blocks
			}
		default:
			log.Warn("Unexpected tag in document, ignoring",
				zap.String("parent", root.Tag), zap.String("tag", child.Tag))
		}
	}
	if len(d.Headers) == 0 {
		d.Headers = nil
	}
	if len(d.Footers) == 0 {
		d.Footers = nil
	}

	d.Sections = collectSections(d.Blocks)
	return d, nil
}

// parsePageSetup reads the document level <page> element. Every attribute
// is optional.
func parsePageSetup(el *etree.Element, log *zap.Logger) flow.SectionProps {
	var p flow.SectionProps

	if w, okW := floatAttr(el, "width"); okW {
		if h, okH := floatAttr(el, "height"); okH {
			p.PageSize = &flow.Size{W: w, H: h}
		} else {
			log.Warn("page width without height, ignoring", zap.Float64("width", w))
		}
	}
	if m, ok := marginAttrs(el); ok {
		p.Margins = m
	}
	if c, ok := columnAttrs(el); ok {
		p.Columns = c
	}
	if o := el.SelectAttrValue("orientation", ""); o != "" {
		v := flow.Orientation(o)
		p.Orientation = &v
	}
	if n, ok := numberingAttrs(el); ok {
		p.Numbering = n
	}
	if v, ok := floatAttr(el, "header-distance"); ok {
		p.HeaderDistance = &v
	}
	if v, ok := floatAttr(el, "footer-distance"); ok {
		p.FooterDistance = &v
	}
	return p
}

// collectSections builds per-section metadata for section breaks carrying
// numbering or header/footer references. Index 0 covers content before the
// first break.
func collectSections(blocks []flow.Block) []flow.SectionMeta {
	var metas []flow.SectionMeta
	section := 1
	for i := range blocks {
		if blocks[i].Kind != flow.BlockSectionBreak {
			continue
		}
		props := &blocks[i].SectionBreak.Props
		if props.Numbering != nil || len(props.HeaderRefs) > 0 || len(props.FooterRefs) > 0 {
			metas = append(metas, flow.SectionMeta{
				Index:      section,
				Numbering:  props.Numbering,
				HeaderRefs: props.HeaderRefs,
				FooterRefs: props.FooterRefs,
			})
		}
		section++
	}
	return metas
}
