package measure

import (
	"encoding/binary"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/unicode/norm"

	"folio/flow"
)

// Content fingerprints key cached measures on rendering-relevant content so
// that a re-created block with identical content still hits the cache, while
// any edit that can change shaping misses. The fingerprint is a pure function
// of content: object identity, map iteration order and whitespace runs do not
// affect it. All block kinds are fingerprinted, not just paragraphs - image
// source/geometry and table cell content participate too.

// Fingerprint digests rendering-relevant content of a block.
func Fingerprint(b *flow.Block) uint64 {
	d := xxhash.New()
	writeBlock(d, b)
	return d.Sum64()
}

func writeBlock(d *xxhash.Digest, b *flow.Block) {
	if b == nil {
		return
	}
	writeString(d, string(b.Kind))
	switch b.Kind {
	case flow.BlockParagraph:
		writeParagraph(d, b.Paragraph)
	case flow.BlockImage:
		writeImage(d, b.Image)
	case flow.BlockDrawing:
		writeDrawing(d, b.Drawing)
	case flow.BlockTable:
		writeTable(d, b.Table)
	case flow.BlockSectionBreak:
		// section breaks carry no rendered content; geometry changes are
		// caught by the structural diff, not the measure cache
	}
}

func writeParagraph(d *xxhash.Digest, p *flow.Paragraph) {
	if p == nil {
		return
	}
	writeString(d, string(p.ChangeView))
	writeBool(d, p.TrackedChangesEnabled)
	writeFloat(d, p.Attrs.SpacingBefore)
	writeFloat(d, p.Attrs.SpacingAfter)
	writeFloat(d, p.Attrs.LineSpacing)
	writeFloat(d, p.Attrs.Indent)
	if p.Attrs.List != nil {
		writeString(d, "list")
		writeInt(d, p.Attrs.List.Level)
		writeString(d, p.Attrs.List.Marker)
	}
	for i := range p.Runs {
		writeRun(d, &p.Runs[i])
	}
}

func writeRun(d *xxhash.Digest, r *flow.Run) {
	writeString(d, string(r.Kind))
	writeString(d, normalizeText(r.DisplayText()))
	writeBool(d, r.Format.Bold)
	writeBool(d, r.Format.Italic)
	writeString(d, r.Format.Color)
	writeString(d, r.Format.Font)
	writeFloat(d, r.Format.Size)
	writeFloat(d, r.Format.LetterSpacing)
	if r.Image != nil {
		writeString(d, r.Image.Src)
		writeFloat(d, r.Image.Width)
		writeFloat(d, r.Image.Height)
	}
	if c := r.Change; c != nil {
		writeString(d, string(c.Kind))
		writeString(d, c.ID)
		writeString(d, c.Author)
		writeString(d, c.Date)
		writeString(d, normalizeText(c.Before))
		writeString(d, normalizeText(c.After))
	}
}

func writeImage(d *xxhash.Digest, img *flow.Image) {
	if img == nil {
		return
	}
	writeString(d, img.Src)
	writeFloat(d, img.Width)
	writeFloat(d, img.Height)
	writeSpacing(d, img.Margin)
	writeSpacing(d, img.Padding)
	writeAnchor(d, img.Anchor)
	writeString(d, string(img.Wrap))
	writeStyle(d, img.Attrs.Style)
}

func writeDrawing(d *xxhash.Digest, dr *flow.Drawing) {
	if dr == nil {
		return
	}
	writeString(d, string(dr.Kind))
	writeFloat(d, dr.Width)
	writeFloat(d, dr.Height)
	writeSpacing(d, dr.Margin)
	writeSpacing(d, dr.Padding)
	writeAnchor(d, dr.Anchor)
	writeString(d, string(dr.Wrap))
	writeInt(d, dr.ZIndex)
	writeString(d, dr.ContentID)
	writeString(d, dr.Src)
	writeString(d, dr.Shape)
	for _, id := range dr.GroupIDs {
		writeString(d, id)
	}
}

func writeTable(d *xxhash.Digest, t *flow.Table) {
	if t == nil {
		return
	}
	for i := range t.Rows {
		writeString(d, t.Rows[i].ID)
		for j := range t.Rows[i].Cells {
			cell := &t.Rows[i].Cells[j]
			writeString(d, cell.ID)
			writeParagraph(d, cell.Paragraph)
			for k := range cell.Blocks {
				writeBlock(d, &cell.Blocks[k])
			}
		}
	}
}

func writeAnchor(d *xxhash.Digest, a *flow.Anchor) {
	if a == nil {
		return
	}
	writeString(d, a.BlockID)
	writeString(d, string(a.RelativeTo))
	writeFloat(d, a.OffsetX)
	writeFloat(d, a.OffsetY)
}

func writeSpacing(d *xxhash.Digest, s flow.Spacing) {
	writeFloat(d, s.Top)
	writeFloat(d, s.Right)
	writeFloat(d, s.Bottom)
	writeFloat(d, s.Left)
}

// writeStyle digests style maps in sorted key order so map iteration order
// cannot leak into the fingerprint.
func writeStyle(d *xxhash.Digest, style map[string]string) {
	if len(style) == 0 {
		return
	}
	keys := make([]string, 0, len(style))
	for k := range style {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		writeString(d, k)
		writeString(d, style[k])
	}
}

// normalizeText applies NFC and collapses whitespace runs to a single space,
// so editor-side whitespace representation differences never defeat caching.
func normalizeText(s string) string {
	if s == "" {
		return s
	}
	return strings.Join(strings.Fields(norm.NFC.String(s)), " ")
}

func writeString(d *xxhash.Digest, s string) {
	_, _ = d.WriteString(s)
	_, _ = d.Write([]byte{0})
}

func writeFloat(d *xxhash.Digest, f float64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(f))
	_, _ = d.Write(buf[:])
}

func writeInt(d *xxhash.Digest, i int) {
	writeString(d, strconv.Itoa(i))
}

func writeBool(d *xxhash.Digest, b bool) {
	if b {
		_, _ = d.Write([]byte{1})
	} else {
		_, _ = d.Write([]byte{0})
	}
}
