package server

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/MarcoPoloResearchLab/quicknote/internal/notebook"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func loadTemplates() (*template.Template, error) {
	return template.New("pages").Funcs(template.FuncMap{
		"detailPath": notebook.DetailPath,
		"formatTime": formatNoteTime,
		"markdown":   renderMarkdown,
	}).ParseFS(templateFS, "templates/*.tmpl")
}

func formatNoteTime(value time.Time) string {
	return value.UTC().Format("Jan 2, 2006 15:04 MST")
}

// renderMarkdown converts a note description to HTML. Raw HTML in the source is not passed through.
func renderMarkdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(buf.String())
}
