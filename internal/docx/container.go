// Package docx implements the paragraph-mapping and document-reconstruction
// engine for OOXML (.docx) documents.
//
// A DOCX file is a ZIP archive of XML parts. The engine unpacks the archive,
// extracts an edit-friendly paragraph model from the primary document part,
// and later patches user edits back into the same container. Every archived
// entry other than word/document.xml is copied through byte-for-byte on
// repack.
package docx

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// PrimaryPart is the ZIP entry holding the main document body.
const PrimaryPart = "word/document.xml"

// MimeType is the wordprocessing document content type used for exports.
const MimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Sentinel errors for container and parse failures. The HTTP layer maps each
// to a distinct error code so callers can tell a non-ZIP payload apart from a
// ZIP with a broken or missing document part.
var (
	ErrInvalidFormat   = errors.New("payload is not a docx container")
	ErrMissingPart     = errors.New("primary document part missing")
	ErrEmptyDocument   = errors.New("primary document part is empty")
	ErrCorruptDocument = errors.New("primary document part is not valid xml")
)

// Package holds the unpacked entries of a DOCX container. Entry order is
// recorded so a repacked archive lists its parts in the original order.
type Package struct {
	entries []string
	parts   map[string][]byte
}

// Unpack reads a DOCX container into memory. It fails with ErrInvalidFormat
// when the payload is not a ZIP archive, ErrMissingPart when the primary
// document part is absent, and ErrEmptyDocument when that part has no bytes.
func Unpack(data []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	pkg := &Package{
		entries: make([]string, 0, len(zr.File)),
		parts:   make(map[string][]byte, len(zr.File)),
	}

	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: open entry %s: %v", ErrInvalidFormat, f.Name, err)
		}

		raw, err := io.ReadAll(rc)
		_ = rc.Close()

		if err != nil {
			return nil, fmt.Errorf("%w: read entry %s: %v", ErrInvalidFormat, f.Name, err)
		}

		if _, seen := pkg.parts[f.Name]; !seen {
			pkg.entries = append(pkg.entries, f.Name)
		}

		pkg.parts[f.Name] = raw
	}

	primary, ok := pkg.parts[PrimaryPart]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingPart, PrimaryPart)
	}

	if len(bytes.TrimSpace(primary)) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyDocument, PrimaryPart)
	}

	return pkg, nil
}

// Primary returns the raw bytes of the main document part.
func (p *Package) Primary() []byte {
	return p.parts[PrimaryPart]
}

// Part returns the raw bytes of an arbitrary entry, or nil if absent.
func (p *Package) Part(name string) []byte {
	return p.parts[name]
}

// Entries returns the entry names in original archive order.
func (p *Package) Entries() []string {
	out := make([]string, len(p.entries))
	copy(out, p.entries)

	return out
}

// Repack reassembles the container, substituting newPrimary for the main
// document part and copying every other entry verbatim in original order.
func (p *Package) Repack(newPrimary []byte) ([]byte, error) {
	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for _, name := range p.entries {
		w, err := zw.Create(name)
		if err != nil {
			_ = zw.Close()

			return nil, fmt.Errorf("create zip entry %s: %w", name, err)
		}

		raw := p.parts[name]
		if name == PrimaryPart {
			raw = newPrimary
		}

		if _, err := w.Write(raw); err != nil {
			_ = zw.Close()

			return nil, fmt.Errorf("write zip entry %s: %w", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close zip writer: %w", err)
	}

	return buf.Bytes(), nil
}
