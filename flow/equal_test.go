package flow

import "testing"

func textPara(id, text string) *Block {
	return &Block{
		ID:   id,
		Kind: BlockParagraph,
		Paragraph: &Paragraph{
			ChangeView: ChangeViewFinal,
			Runs:       []Run{{Kind: RunText, Text: &TextRun{Value: text}}},
		},
	}
}

func TestBlockEqual_Paragraph(t *testing.T) {
	a := textPara("p1", "hello")
	b := textPara("p1", "hello")

	if !a.Equal(b) {
		t.Error("structurally identical paragraphs should compare equal")
	}

	b.Paragraph.Runs[0].Text.Value = "world"
	if a.Equal(b) {
		t.Error("paragraphs with different text should not compare equal")
	}

	b = textPara("p1", "hello")
	b.Paragraph.Runs[0].Format.Bold = true
	if a.Equal(b) {
		t.Error("paragraphs with different run formatting should not compare equal")
	}

	b = textPara("p1", "hello")
	b.Paragraph.ChangeView = ChangeViewMarkup
	if a.Equal(b) {
		t.Error("paragraphs with different tracked-changes view should not compare equal")
	}

	b = textPara("p2", "hello")
	if a.Equal(b) {
		t.Error("paragraphs with different ids should not compare equal")
	}
}

func TestBlockEqual_TrackedChange(t *testing.T) {
	a := textPara("p1", "hello")
	b := textPara("p1", "hello")
	b.Paragraph.Runs[0].Change = &TrackedChange{Kind: ChangeInsert, ID: "c1", Author: "me"}

	if a.Equal(b) {
		t.Error("run with tracked change should differ from run without")
	}

	a.Paragraph.Runs[0].Change = &TrackedChange{Kind: ChangeInsert, ID: "c1", Author: "me"}
	if !a.Equal(b) {
		t.Error("identical tracked changes should compare equal")
	}
}

func TestBlockEqual_Image(t *testing.T) {
	a := &Block{ID: "i1", Kind: BlockImage, Image: &Image{Src: "pic.png", Width: 100, Height: 50}}
	b := &Block{ID: "i1", Kind: BlockImage, Image: &Image{Src: "pic.png", Width: 100, Height: 50}}

	if !a.Equal(b) {
		t.Error("identical images should compare equal")
	}

	b.Image.Anchor = &Anchor{BlockID: "p1", OffsetX: 10}
	if a.Equal(b) {
		t.Error("images with different anchors should not compare equal")
	}
}

func TestBlockEqual_Drawing(t *testing.T) {
	a := &Block{ID: "d1", Kind: BlockDrawing, Drawing: &Drawing{Kind: DrawingVectorShape, Width: 40, Height: 40, Shape: "M0,0 L40,40", ZIndex: 2}}
	b := &Block{ID: "d1", Kind: BlockDrawing, Drawing: &Drawing{Kind: DrawingVectorShape, Width: 40, Height: 40, Shape: "M0,0 L40,40", ZIndex: 2}}

	if !a.Equal(b) {
		t.Error("identical drawings should compare equal")
	}
	b.Drawing.ZIndex = 3
	if a.Equal(b) {
		t.Error("drawings with different z order should not compare equal")
	}
}

func TestBlockEqual_Table(t *testing.T) {
	mk := func(text string) *Block {
		return &Block{ID: "t1", Kind: BlockTable, Table: &Table{Rows: []TableRow{
			{ID: "r1", Cells: []TableCell{{ID: "c1", Paragraph: textPara("cp", text).Paragraph}}},
		}}}
	}
	if !mk("x").Equal(mk("x")) {
		t.Error("identical tables should compare equal")
	}
	if mk("x").Equal(mk("y")) {
		t.Error("tables with different cell text should not compare equal")
	}
}

func TestBlockEqual_Markers(t *testing.T) {
	a := &Block{ID: "b1", Kind: BlockPageBreak}
	b := &Block{ID: "b1", Kind: BlockPageBreak}
	if !a.Equal(b) {
		t.Error("page break markers with matching ids should compare equal")
	}
	c := &Block{ID: "b1", Kind: BlockColumnBreak}
	if a.Equal(c) {
		t.Error("markers of different kind should not compare equal")
	}
}

func TestClone_Independent(t *testing.T) {
	a := textPara("p1", "hello")
	a.Paragraph.Runs = append(a.Paragraph.Runs, Run{Kind: RunField, Field: &FieldRun{Kind: FieldPageNumber, Text: "1"}})

	c := a.Clone()
	if !a.Equal(c) {
		t.Fatal("clone should compare equal to the original")
	}

	c.Paragraph.Runs[1].Field.Text = "2"
	if a.Paragraph.Runs[1].Field.Text != "1" {
		t.Error("mutating the clone must not affect the original")
	}
	if a.Equal(c) {
		t.Error("clone with updated field text should no longer compare equal")
	}
}
