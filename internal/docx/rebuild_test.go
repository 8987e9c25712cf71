package docx_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"redline/api/internal/docx"
)

// editsReproducing builds an edit list that re-submits every paragraph's
// original text unchanged.
func editsReproducing(ext *docx.Extraction) []docx.Edit {
	edits := make([]docx.Edit, len(ext.Paragraphs))
	for i, p := range ext.Paragraphs {
		id := p.ID
		edits[i] = docx.Edit{ID: &id, Text: p.Text}
	}

	return edits
}

func TestRebuildRoundTripIdentity(t *testing.T) {
	data := buildSampleDOCX(t, threeParagraphDoc)

	ext, err := docx.Extract(data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	out, err := docx.Rebuild(data, editsReproducing(ext), ext.Index, ext.Styles)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	reExt, err := docx.Extract(out)
	if err != nil {
		t.Fatalf("re-extract: %v", err)
	}

	if len(reExt.Paragraphs) != len(ext.Paragraphs) {
		t.Fatalf("paragraph count changed: %d -> %d", len(ext.Paragraphs), len(reExt.Paragraphs))
	}

	for i := range ext.Paragraphs {
		if reExt.Paragraphs[i].Text != ext.Paragraphs[i].Text {
			t.Errorf("paragraph %d text changed: %q -> %q", i, ext.Paragraphs[i].Text, reExt.Paragraphs[i].Text)
		}
	}

	// Non-primary parts must be byte-identical.
	orig, _ := docx.Unpack(data)
	rebuilt, _ := docx.Unpack(out)

	for _, name := range orig.Entries() {
		if name == docx.PrimaryPart {
			continue
		}

		if !bytes.Equal(orig.Part(name), rebuilt.Part(name)) {
			t.Errorf("non-primary part %s changed across rebuild", name)
		}
	}
}

func TestRebuildMultiLineTextFidelity(t *testing.T) {
	data := buildSampleDOCX(t, threeParagraphDoc)

	ext, err := docx.Extract(data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	edits := editsReproducing(ext)
	edits[1].Text = "first line\nsecond line\n\nfourth line"

	out, err := docx.Rebuild(data, edits, ext.Index, ext.Styles)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	reExt, err := docx.Extract(out)
	if err != nil {
		t.Fatalf("re-extract: %v", err)
	}

	if got := reExt.Paragraphs[1].Text; got != edits[1].Text {
		t.Errorf("multi-line text = %q, want %q", got, edits[1].Text)
	}
}

func TestRebuildDeletionByOmission(t *testing.T) {
	data := buildSampleDOCX(t, threeParagraphDoc)

	ext, err := docx.Extract(data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	p0, p2 := ext.Paragraphs[0].ID, ext.Paragraphs[2].ID
	edits := []docx.Edit{
		{ID: &p0, Text: ext.Paragraphs[0].Text},
		{ID: &p2, Text: ext.Paragraphs[2].Text},
	}

	out, err := docx.Rebuild(data, edits, ext.Index, ext.Styles)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	reExt, err := docx.Extract(out)
	if err != nil {
		t.Fatalf("re-extract: %v", err)
	}

	if len(reExt.Paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs after deletion, got %d", len(reExt.Paragraphs))
	}

	if reExt.Paragraphs[0].Text != ext.Paragraphs[0].Text || reExt.Paragraphs[1].Text != ext.Paragraphs[2].Text {
		t.Errorf("surviving paragraphs out of order: %q, %q", reExt.Paragraphs[0].Text, reExt.Paragraphs[1].Text)
	}
}

func TestRebuildInsertWithStyleInheritance(t *testing.T) {
	data := buildSampleDOCX(t, threeParagraphDoc)

	ext, err := docx.Extract(data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	p0 := ext.Paragraphs[0].ID
	edits := []docx.Edit{
		{ID: &p0, Text: "A"},
		{ID: nil, Text: "B", InheritStyleFrom: p0},
	}

	out, err := docx.Rebuild(data, edits, ext.Index, ext.Styles)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	reExt, err := docx.Extract(out)
	if err != nil {
		t.Fatalf("re-extract: %v", err)
	}

	if len(reExt.Paragraphs) != 2 {
		t.Fatalf("expected 2 paragraphs, got %d", len(reExt.Paragraphs))
	}

	if reExt.Paragraphs[1].Text != "B" {
		t.Errorf("inserted paragraph text = %q, want B", reExt.Paragraphs[1].Text)
	}

	if reExt.Paragraphs[1].StyleInfo != ext.Paragraphs[0].StyleInfo {
		t.Errorf("inherited style = %q, want %q", reExt.Paragraphs[1].StyleInfo, ext.Paragraphs[0].StyleInfo)
	}
}

func TestRebuildInsertWithoutAnchorGoesFirst(t *testing.T) {
	data := buildSampleDOCX(t, threeParagraphDoc)

	ext, err := docx.Extract(data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	edits := append([]docx.Edit{{ID: nil, Text: "prologue"}}, editsReproducing(ext)...)

	out, err := docx.Rebuild(data, edits, ext.Index, ext.Styles)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	reExt, err := docx.Extract(out)
	if err != nil {
		t.Fatalf("re-extract: %v", err)
	}

	if reExt.Paragraphs[0].Text != "prologue" {
		t.Errorf("first paragraph = %q, want prologue", reExt.Paragraphs[0].Text)
	}
}

func TestRebuildUnknownIDIsHardError(t *testing.T) {
	data := buildSampleDOCX(t, threeParagraphDoc)

	ext, err := docx.Extract(data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	bogus := "00000000-0000-0000-0000-000000000000"
	edits := []docx.Edit{{ID: &bogus, Text: "x"}}

	_, err = docx.Rebuild(data, edits, ext.Index, ext.Styles)
	if !errors.Is(err, docx.ErrUnknownParagraph) {
		t.Fatalf("expected ErrUnknownParagraph, got %v", err)
	}
}

func TestRebuildPreservesTablesAndSectPr(t *testing.T) {
	data := buildSampleDOCX(t, threeParagraphDoc)

	ext, err := docx.Extract(data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	// Delete everything except the middle paragraph.
	p1 := ext.Paragraphs[1].ID
	edits := []docx.Edit{{ID: &p1, Text: "only survivor"}}

	out, err := docx.Rebuild(data, edits, ext.Index, ext.Styles)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	rebuilt, err := docx.Unpack(out)
	if err != nil {
		t.Fatalf("unpack rebuilt: %v", err)
	}

	primary := string(rebuilt.Primary())
	for _, fragment := range []string{"<w:tbl>", "Cell A", "Cell B", "<w:sectPr>", "w:pgSz"} {
		if !strings.Contains(primary, fragment) {
			t.Errorf("structural fragment %q lost across rebuild", fragment)
		}
	}
}

func TestRebuildKeepsRunFormatting(t *testing.T) {
	data := buildSampleDOCX(t, threeParagraphDoc)

	ext, err := docx.Extract(data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	heading := ext.Paragraphs[0].ID
	edits := []docx.Edit{{ID: &heading, Text: "Retitled\nReport"}}

	out, err := docx.Rebuild(data, edits, ext.Index, ext.Styles)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	rebuilt, err := docx.Unpack(out)
	if err != nil {
		t.Fatalf("unpack rebuilt: %v", err)
	}

	primary := string(rebuilt.Primary())

	// Both emitted runs and the break run carry the original bold/size rPr.
	if got := strings.Count(primary, "<w:b/>"); got < 3 {
		t.Errorf("expected rPr propagated onto every new run, found %d copies", got)
	}
}

func TestRebuildEmptyTextKeepsParagraph(t *testing.T) {
	data := buildSampleDOCX(t, threeParagraphDoc)

	ext, err := docx.Extract(data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	edits := editsReproducing(ext)
	edits[1].Text = ""

	out, err := docx.Rebuild(data, edits, ext.Index, ext.Styles)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	reExt, err := docx.Extract(out)
	if err != nil {
		t.Fatalf("re-extract: %v", err)
	}

	if len(reExt.Paragraphs) != 3 {
		t.Fatalf("blanked paragraph vanished: %d paragraphs", len(reExt.Paragraphs))
	}

	if !reExt.Paragraphs[1].IsEmpty {
		t.Errorf("blanked paragraph still has text %q", reExt.Paragraphs[1].Text)
	}
}

func TestRebuildEmptyDocumentSyntheticParagraph(t *testing.T) {
	data := buildSampleDOCX(t, emptyBodyDoc)

	ext, err := docx.Extract(data)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	id := ext.Paragraphs[0].ID
	edits := []docx.Edit{{ID: &id, Text: "now with content"}}

	out, err := docx.Rebuild(data, edits, ext.Index, ext.Styles)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}

	reExt, err := docx.Extract(out)
	if err != nil {
		t.Fatalf("re-extract: %v", err)
	}

	if len(reExt.Paragraphs) != 1 || reExt.Paragraphs[0].Text != "now with content" {
		t.Fatalf("unexpected paragraphs: %+v", reExt.Paragraphs)
	}

	// sectPr must remain the last body child.
	rebuilt, _ := docx.Unpack(out)
	primary := string(rebuilt.Primary())

	if !strings.Contains(primary, "<w:sectPr>") {
		t.Fatalf("sectPr lost")
	}

	if strings.Index(primary, "now with content") > strings.Index(primary, "<w:sectPr>") {
		t.Errorf("paragraph inserted after sectPr")
	}
}
