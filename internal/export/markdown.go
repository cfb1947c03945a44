package export

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mohammad-safakhou/readmode/internal/helpers"
	"github.com/mohammad-safakhou/readmode/models"
)

type frontMatter struct {
	Title    string   `yaml:"title"`
	Author   string   `yaml:"author"`
	SiteName string   `yaml:"site_name"`
	URL      string   `yaml:"url"`
	Sources  []string `yaml:"sources,omitempty"`
}

// Markdown renders a as a Markdown document with YAML front matter, the title
// as a top-level heading, the body and a numbered sources section.
func Markdown(a models.Article) ([]byte, error) {
	fm := frontMatter{Title: a.Title, Author: a.Author, SiteName: a.SiteName, URL: a.URL}
	for _, s := range a.Sources {
		fm.Sources = append(fm.Sources, s.URI)
	}
	meta, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(meta)
	b.WriteString("---\n\n")
	fmt.Fprintf(&b, "# %s\n\n", a.Title)
	if byline := bylineText(a); byline != "" {
		fmt.Fprintf(&b, "*%s*\n\n", byline)
	}
	if body := strings.TrimSpace(a.Content); body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	}
	if cites := helpers.FormatCitations(citations(a.Sources)); cites != "" {
		b.WriteString("\n## Sources\n\n")
		b.WriteString(cites)
	}
	return b.Bytes(), nil
}

// bylineText is "Author · Site", leaving out the placeholder defaults.
func bylineText(a models.Article) string {
	var parts []string
	if a.Author != "" && a.Author != models.UnknownAuthor {
		parts = append(parts, a.Author)
	}
	if a.SiteName != "" && a.SiteName != models.DefaultSiteName {
		parts = append(parts, a.SiteName)
	}
	return strings.Join(parts, " · ")
}

func citations(sources []models.Source) []helpers.Citation {
	out := make([]helpers.Citation, 0, len(sources))
	for _, s := range sources {
		out = append(out, helpers.Citation{Title: s.Title, URL: s.URI})
	}
	return out
}
