package helpers

import (
	"fmt"
	"strings"
)

// Citation is one grounding reference shown under an exported article.
type Citation struct {
	Title string
	URL   string
}

// FormatCitation renders c as a Markdown list item body:
// [Title](URL) (domain). The domain is omitted when it equals the title,
// which is how search grounding usually labels its chunks.
func FormatCitation(c Citation) string {
	title := strings.Join(strings.Fields(c.Title), " ")
	link := strings.TrimSpace(c.URL)
	if title == "" {
		title = link
	}
	if link == "" {
		return escapeLinkText(title)
	}
	out := fmt.Sprintf("[%s](%s)", escapeLinkText(title), link)
	if d := Domain(link); d != "" && !strings.EqualFold(d, title) && !strings.EqualFold("www."+d, title) {
		out += " (" + d + ")"
	}
	return out
}

// FormatCitations renders a numbered Markdown list, one line per citation.
func FormatCitations(citations []Citation) string {
	if len(citations) == 0 {
		return ""
	}
	var b strings.Builder
	for i, c := range citations {
		fmt.Fprintf(&b, "%d. %s\n", i+1, FormatCitation(c))
	}
	return b.String()
}

func escapeLinkText(s string) string {
	return strings.NewReplacer("[", `\[`, "]", `\]`).Replace(s)
}
