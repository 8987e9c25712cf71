package docx

import (
	"strings"

	"github.com/google/uuid"
)

// Paragraph is the edit-friendly view of one w:p element.
type Paragraph struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsEmpty   bool   `json:"isEmpty"`
	StyleInfo string `json:"styleInfo,omitempty"`
}

// Extraction is the parse result for one uploaded document: the ordered
// paragraph list plus the identifier maps an editing session retains.
// Index values are dense, 0-based, and reflect original document order;
// the maps are never mutated after extraction.
type Extraction struct {
	Paragraphs []Paragraph
	Index      map[string]int
	Styles     map[string]string
}

// Extract unpacks the container, parses the primary part, and builds the
// paragraph model. Paragraph identifiers are freshly generated UUIDs; they
// are unique within the session and never reused across sessions.
func Extract(data []byte) (*Extraction, error) {
	pkg, err := Unpack(data)
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

	ext := &Extraction{
		Index:  make(map[string]int),
		Styles: make(map[string]string),
	}

	for _, p := range bodyParagraphs(body) {
		text := paragraphText(p)

		style := ""
		if pPr := paragraphProps(p); pPr != nil {
			style = serializeFragment(pPr)
		}

		id := uuid.NewString()
		ext.Index[id] = len(ext.Paragraphs)
		ext.Styles[id] = style
		ext.Paragraphs = append(ext.Paragraphs, Paragraph{
			ID:        id,
			Text:      text,
			IsEmpty:   strings.TrimSpace(text) == "",
			StyleInfo: style,
		})
	}

	// A document with no paragraphs still gets one synthetic empty entry so
	// the editing UI has something to anchor edits to. Its index points one
	// past the (empty) paragraph list; the rebuilder treats that as an
	// append-style insert.
	if len(ext.Paragraphs) == 0 {
		id := uuid.NewString()
		ext.Index[id] = 0
		ext.Styles[id] = ""
		ext.Paragraphs = append(ext.Paragraphs, Paragraph{ID: id, Text: "", IsEmpty: true})
	}

	return ext, nil
}

// PlainText joins paragraph texts with newlines, used for search indexing
// and PDF rendering.
func (e *Extraction) PlainText() string {
	texts := make([]string, len(e.Paragraphs))
	for i, p := range e.Paragraphs {
		texts[i] = p.Text
	}

	return strings.Join(texts, "\n")
}
