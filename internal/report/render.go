package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"
)

//go:embed templates/dashboard.html.tmpl
var templateFS embed.FS

var dashboard = template.Must(template.New("dashboard.html.tmpl").Funcs(template.FuncMap{
	"heading": heading,
}).ParseFS(templateFS, "templates/dashboard.html.tmpl"))

// Render writes the report as a self-contained HTML page
func (r *Report) Render(w io.Writer) error {
	if err := dashboard.Execute(w, r); err != nil {
		return fmt.Errorf("rendering dashboard: %w", err)
	}
	return nil
}

// heading renders inline `code` spans the way the section texts use them
func heading(s string) template.HTML {
	parts := strings.Split(s, "`")
	var b strings.Builder
	for i, p := range parts {
		escaped := template.HTMLEscapeString(p)
		if i%2 == 1 && i < len(parts)-1 {
			b.WriteString("<code>" + escaped + "</code>")
			continue
		}
		if i%2 == 1 {
			b.WriteString("`")
		}
		b.WriteString(escaped)
	}
	return template.HTML(b.String())
}
