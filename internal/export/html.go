package export

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/mohammad-safakhou/readmode/internal/helpers"
	"github.com/mohammad-safakhou/readmode/models"
)

var pageTemplate = template.Must(template.New("article").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{max-width:42rem;margin:2rem auto;padding:0 1rem;font:18px/1.6 Georgia,serif;color:#222}
img{max-width:100%;height:auto}
pre{overflow-x:auto;background:#f5f5f5;padding:.75rem}
.byline{color:#666;font-style:italic}
.sources{font-size:.85em;border-top:1px solid #ddd;margin-top:2rem}
</style>
</head>
<body>
<article>
<h1>{{.Title}}</h1>
{{if .Byline}}<p class="byline">{{.Byline}}</p>{{end}}
<p class="origin"><a href="{{.URL}}">{{.URL}}</a></p>
{{.Body}}
</article>
{{if .Sources}}<section class="sources">
<h2>Sources</h2>
<ol>
{{range .Sources}}<li><a href="{{.URI}}">{{.Title}}</a></li>
{{end}}</ol>
</section>{{end}}
</body>
</html>
`))

type pageData struct {
	Title   string
	Byline  string
	URL     string
	Body    template.HTML
	Sources []models.Source
}

// RenderBody converts Markdown article content to sanitised HTML.
func RenderBody(content string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.HrefTargetBlank})
	out := markdown.ToHTML([]byte(content), p, renderer)
	return helpers.SanitizeArticleHTML(string(out))
}

// HTML renders a as a standalone reader-view page.
func HTML(a models.Article) ([]byte, error) {
	data := pageData{
		Title:   a.Title,
		Byline:  bylineText(a),
		URL:     a.URL,
		Body:    template.HTML(RenderBody(a.Content)),
		Sources: a.Sources,
	}
	var b bytes.Buffer
	if err := pageTemplate.Execute(&b, data); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return b.Bytes(), nil
}
