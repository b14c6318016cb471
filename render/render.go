package render

import (
	"bytes"
	"html/template"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

var sanitizer = bluemonday.UGCPolicy()

// HTML converts markdown to sanitized HTML.
func HTML(md string) string {
	// Parsers keep state and cannot be reused.
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	return string(sanitizer.SanitizeBytes(markdown.Render(doc, renderer)))
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; max-width: 46rem; margin: 2rem auto; padding: 0 1rem; line-height: 1.55; color: #222; }
h1 { border-bottom: 1px solid #ddd; padding-bottom: .3rem; }
h2 { margin-top: 1.8rem; color: #2b4c7e; }
section.report { margin-top: 3rem; border-top: 2px solid #2b4c7e; }
</style>
</head>
<body>
<article class="brief">
{{.Brief}}
</article>
{{- if .Report}}
<section class="report">
{{.Report}}
</section>
{{- end}}
</body>
</html>
`))

// Page renders a standalone HTML document for a brief and an optional report, both
// given as markdown.
func Page(title, briefMD, reportMD string) (string, error) {
	data := struct {
		Title  string
		Brief  template.HTML
		Report template.HTML
	}{
		Title: title,
		Brief: template.HTML(HTML(briefMD)), // #nosec G203 -- sanitized by bluemonday
	}
	if reportMD != "" {
		data.Report = template.HTML(HTML(reportMD)) // #nosec G203 -- sanitized by bluemonday
	}

	var buf bytes.Buffer
	if err := pageTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
