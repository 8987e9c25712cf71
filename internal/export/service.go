package export

import (
	"fmt"
	"strings"
	"time"
)

// Service renders paragraph text to PDF.
type Service struct{}

// NewService creates a new export service.
func NewService() *Service {
	return &Service{}
}

// PDF renders the given paragraph texts, in order, as a PDF document.
// Each element of texts is one paragraph; embedded newlines become soft
// line breaks.
func (s *Service) PDF(name string, texts []string) (*Result, error) {
	title := strings.TrimSuffix(name, ".docx")

	paragraphs := make([]TemplateParagraph, 0, len(texts))
	for _, text := range texts {
		paragraphs = append(paragraphs, NewTemplateParagraph(text))
	}

	html, err := RenderDocumentHTML(TemplateData{
		Name:       title,
		Paragraphs: paragraphs,
		ExportedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	return exportPDF(html, title)
}
