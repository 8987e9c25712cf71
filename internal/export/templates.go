package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"
)

var documentTemplate = template.Must(template.New("document").Parse(documentTemplateText))

// TemplateData holds data for document template rendering.
type TemplateData struct {
	Name       string
	Paragraphs []TemplateParagraph
	ExportedAt time.Time
}

// TemplateParagraph holds one paragraph for the template. Lines come from
// splitting paragraph text on newlines so soft breaks survive as <br>.
type TemplateParagraph struct {
	Lines   []string
	IsEmpty bool
}

// NewTemplateParagraph splits paragraph text into renderable lines.
func NewTemplateParagraph(text string) TemplateParagraph {
	return TemplateParagraph{
		Lines:   strings.Split(text, "\n"),
		IsEmpty: strings.TrimSpace(text) == "",
	}
}

// RenderDocumentHTML renders the document template with provided data.
func RenderDocumentHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const documentTemplateText = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Name}}</title>
  <style>
    body { font-family: Georgia, serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; font-size: 1.4em; }
    .meta { color: #666; font-size: 0.85em; margin-bottom: 2rem; }
    p { margin: 0 0 0.8em; }
    p.empty { min-height: 1em; }
  </style>
</head>
<body>
  <h1>{{.Name}}</h1>
  <div class="meta">Exported {{.ExportedAt.Format "Jan 2, 2006 15:04"}}</div>
  {{range .Paragraphs}}<p{{if .IsEmpty}} class="empty"{{end}}>{{range $i, $line := .Lines}}{{if $i}}<br>{{end}}{{$line}}{{end}}</p>
  {{end}}
</body>
</html>`
