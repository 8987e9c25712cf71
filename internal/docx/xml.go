package docx

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// parseDocument parses the primary part bytes into an etree document.
// Malformed XML surfaces as ErrCorruptDocument; the adapter performs no
// recovery.
func parseDocument(raw []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptDocument, err)
	}

	if doc.Root() == nil {
		return nil, fmt.Errorf("%w: no root element", ErrCorruptDocument)
	}

	return doc, nil
}

// serializeDocument writes the tree back out. The tree is never re-indented:
// whitespace-significant text nodes must round-trip untouched.
func serializeDocument(doc *etree.Document) ([]byte, error) {
	raw, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", PrimaryPart, err)
	}

	return raw, nil
}

// findBody locates the w:body element under the document root.
func findBody(doc *etree.Document) *etree.Element {
	root := doc.Root()
	if root == nil {
		return nil
	}

	for _, child := range root.ChildElements() {
		if child.Tag == "body" {
			return child
		}
	}

	return nil
}

// bodyParagraphs returns the direct w:p children of the body in document
// order. Paragraphs nested inside tables or other structural elements are
// deliberately excluded; they are untouched pass-through content.
func bodyParagraphs(body *etree.Element) []*etree.Element {
	var paras []*etree.Element

	for _, child := range body.ChildElements() {
		if child.Tag == "p" {
			paras = append(paras, child)
		}
	}

	return paras
}

// paragraphText concatenates the text of all runs in a paragraph. Run-level
// w:br markers are collapsed into "\n" so multi-line paragraphs keep their
// line structure in the extracted text.
func paragraphText(p *etree.Element) string {
	var sb strings.Builder

	for _, r := range p.ChildElements() {
		if r.Tag != "r" {
			continue
		}

		for _, child := range r.ChildElements() {
			switch child.Tag {
			case "t":
				sb.WriteString(child.Text())
			case "br":
				sb.WriteByte('\n')
			}
		}
	}

	return sb.String()
}

// paragraphProps returns the paragraph's w:pPr element, or nil.
func paragraphProps(p *etree.Element) *etree.Element {
	for _, child := range p.ChildElements() {
		if child.Tag == "pPr" {
			return child
		}
	}

	return nil
}

// firstRunProps returns a copy of the first run's w:rPr element, or nil when
// the paragraph has no formatted runs.
func firstRunProps(p *etree.Element) *etree.Element {
	for _, r := range p.ChildElements() {
		if r.Tag != "r" {
			continue
		}

		for _, child := range r.ChildElements() {
			if child.Tag == "rPr" {
				return child.Copy()
			}
		}

		return nil
	}

	return nil
}

// serializeFragment renders a single element (e.g. a w:pPr subtree) as a
// standalone XML string. Style snapshots are carried verbatim, never
// normalized.
func serializeFragment(el *etree.Element) string {
	doc := etree.NewDocument()
	doc.SetRoot(el.Copy())

	s, err := doc.WriteToString()
	if err != nil {
		return ""
	}

	return s
}

// parseFragment turns a serialized fragment back into an element for
// clone-and-reattach. Returns nil for empty or unparseable fragments.
func parseFragment(s string) *etree.Element {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(s); err != nil {
		return nil
	}

	root := doc.Root()
	if root == nil {
		return nil
	}

	return root.Copy()
}

// insertAfter places newChild immediately after refChild within parent.
func insertAfter(parent, refChild, newChild *etree.Element) {
	children := parent.ChildElements()
	refIdx := -1

	for i, child := range children {
		if child == refChild {
			refIdx = i

			break
		}
	}

	if refIdx == -1 || refIdx == len(children)-1 {
		parent.AddChild(newChild)

		return
	}

	next := children[refIdx+1]
	parent.InsertChildAt(next.Index(), newChild)
}

// insertAtBodyStart places newChild as the first child of the body.
func insertAtBodyStart(body, newChild *etree.Element) {
	children := body.ChildElements()
	if len(children) == 0 {
		body.AddChild(newChild)

		return
	}

	body.InsertChildAt(children[0].Index(), newChild)
}

// insertBeforeSectPr appends newChild at the end of the body, but ahead of a
// trailing w:sectPr so section properties stay the last body child.
func insertBeforeSectPr(body, newChild *etree.Element) {
	children := body.ChildElements()
	if len(children) > 0 {
		last := children[len(children)-1]
		if last.Tag == "sectPr" {
			body.InsertChildAt(last.Index(), newChild)

			return
		}
	}

	body.AddChild(newChild)
}
