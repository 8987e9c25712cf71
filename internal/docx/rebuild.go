package docx

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Sentinel errors for rebuild operations.
var (
	errNoBody           = fmt.Errorf("%w: missing w:body element", ErrCorruptDocument)
	ErrUnknownParagraph = errors.New("edit references a paragraph not present in this document")
)

// Edit is one entry of the ordered edit list submitted on export.
//
//   - ID set and mapped: update that paragraph's text in place.
//   - ID nil: insert a new paragraph at this position of the edit sequence;
//     InheritStyleFrom, when it resolves, copies paragraph and run formatting
//     from the referenced paragraph.
//   - ID set but unmapped: caller error (document/session mismatch).
//
// Paragraphs mapped at upload time but absent from the edit list are deleted.
// There is no explicit delete edit kind.
type Edit struct {
	ID               *string `json:"id"`
	Text             string  `json:"text"`
	InheritStyleFrom string  `json:"inheritStyleFrom,omitempty"`
}

// Rebuild applies the ordered edit list to a fresh parse of the original
// container and reassembles it.
//
// Existing paragraphs are patched positionally, in place: only their runs
// are replaced, so tables, drawings, images, and section properties keep
// their exact positions and bytes. The index and styles maps come from the
// editing session and are treated as read-only.
func Rebuild(original []byte, edits []Edit, index map[string]int, styles map[string]string) ([]byte, error) {
	pkg, err := Unpack(original)
	if err != nil {
		return nil, err
	}

	doc, err := parseDocument(pkg.Primary())
	if err != nil {
		return nil, err
	}

	body := findBody(doc)
	if body == nil {
		return nil, errNoBody
	}

	paras := bodyParagraphs(body)

	// anchor tracks the element resolved or created by the previous edit so
	// inserts land immediately after it.
	var anchor *etree.Element

	referenced := make(map[int]bool, len(edits))

	for _, edit := range edits {
		if edit.ID != nil {
			idx, ok := index[*edit.ID]
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownParagraph, *edit.ID)
			}

			referenced[idx] = true

			if idx < len(paras) {
				p := paras[idx]
				replaceParagraphText(p, edit.Text)
				anchor = p

				continue
			}

			// The synthetic paragraph of an originally empty document has no
			// backing element; materialize it as an insert.
			p := buildParagraph(edit.Text, nil, nil)
			placeParagraph(body, anchor, p)
			anchor = p

			continue
		}

		var pPr, rPr *etree.Element

		if edit.InheritStyleFrom != "" {
			if srcIdx, ok := index[edit.InheritStyleFrom]; ok {
				pPr = parseFragment(styles[edit.InheritStyleFrom])
				if srcIdx < len(paras) {
					rPr = firstRunProps(paras[srcIdx])
				}
			}
		}

		p := buildParagraph(edit.Text, pPr, rPr)
		placeParagraph(body, anchor, p)
		anchor = p
	}

	// Implicit delete: mapped paragraphs the edit list never referenced are
	// dropped from the output.
	for _, idx := range index {
		if referenced[idx] || idx >= len(paras) {
			continue
		}

		body.RemoveChild(paras[idx])
	}

	primary, err := serializeDocument(doc)
	if err != nil {
		return nil, err
	}

	return pkg.Repack(primary)
}

// placeParagraph inserts p after the previous edit's element, or at the
// start of the body when this is the first edit of the sequence. An insert
// with no anchor in an effectively empty body still lands ahead of a
// trailing sectPr.
func placeParagraph(body, anchor, p *etree.Element) {
	if anchor != nil {
		insertAfter(body, anchor, p)

		return
	}

	children := body.ChildElements()
	if len(children) == 0 || (len(children) == 1 && children[0].Tag == "sectPr") {
		insertBeforeSectPr(body, p)

		return
	}

	insertAtBodyStart(body, p)
}

// replaceParagraphText swaps a paragraph's runs for runs carrying the new
// text. The paragraph's w:pPr and any non-run children (bookmarks, field
// markers) stay where they are; the first original run's w:rPr is carried
// onto every emitted run so edits do not strip formatting.
func replaceParagraphText(p *etree.Element, text string) {
	rPr := firstRunProps(p)

	var runs []*etree.Element

	for _, child := range p.ChildElements() {
		if child.Tag == "r" {
			runs = append(runs, child)
		}
	}

	for _, r := range runs {
		p.RemoveChild(r)
	}

	appendTextRuns(p, text, rPr)
}

// buildParagraph constructs a new w:p with optional inherited paragraph and
// run properties.
func buildParagraph(text string, pPr, rPr *etree.Element) *etree.Element {
	p := etree.NewElement("w:p")

	if pPr != nil {
		p.AddChild(pPr.Copy())
	}

	appendTextRuns(p, text, rPr)

	return p
}

// appendTextRuns expands text into alternating text runs and line-break
// runs. Splitting on "\n" keeps multi-line edits as soft breaks within one
// paragraph. Empty segments emit no text run; a fully empty text emits
// exactly one run with an empty w:t so the paragraph stays well-formed for
// downstream tooling.
func appendTextRuns(p *etree.Element, text string, rPr *etree.Element) {
	newRun := func() *etree.Element {
		r := p.CreateElement("w:r")
		if rPr != nil {
			r.AddChild(rPr.Copy())
		}

		return r
	}

	newTextRun := func(segment string) {
		t := newRun().CreateElement("w:t")
		t.CreateAttr("xml:space", "preserve")
		t.SetText(segment)
	}

	if text == "" {
		newTextRun("")

		return
	}

	for i, segment := range strings.Split(text, "\n") {
		if i > 0 {
			newRun().CreateElement("w:br")
		}

		if segment != "" {
			newTextRun(segment)
		}
	}
}
