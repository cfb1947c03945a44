package reader

import (
	"html"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mohammad-safakhou/readmode/internal/helpers"
	"github.com/mohammad-safakhou/readmode/models"
	"github.com/mohammad-safakhou/readmode/provider"
)

const (
	// MinTitleLength is the shortest title, in runes, accepted from any source.
	MinTitleLength = 3
	// FallbackTitle is used when no other strategy yields a title.
	FallbackTitle = "Untitled Article"

	maxPreambleLines = 3
)

var (
	// Interior is non-greedy and the remainder greedy, so only the first
	// block is metadata and later horizontal rules stay in the body.
	metadataBlockRe = regexp.MustCompile(`(?sm)\A\s*---[ \t]*\n(.*?)(?:^|\n)---[ \t]*(?:\n|\z)(.*)\z`)
	metadataLineRe  = regexp.MustCompile(`^\s*([A-Za-z][A-Za-z _-]*?)\s*:\s*(.*?)\s*$`)
	headingRe       = regexp.MustCompile(`(?m)^[ \t]{0,3}#{1,2}[ \t]+(.+?)(?:[ \t]+#+)?[ \t]*$`)
	headingPrefixRe = regexp.MustCompile(`^\s*#{1,6}\s*`)
	mdLinkRe        = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	edgeUnderRe     = regexp.MustCompile(`(^|\s)_+|_+(\s|$)`)
)

var placeholderTitles = map[string]struct{}{
	"untitled":               {},
	"untitled article":       {},
	"unknown":                {},
	"unknown title":          {},
	"title":                  {},
	"article":                {},
	"article title":          {},
	"n/a":                    {},
	"none":                   {},
	"null":                   {},
	"undefined":              {},
	"home":                   {},
	"<the article headline>": {},
}

var placeholderValues = map[string]struct{}{
	"unknown":   {},
	"n/a":       {},
	"none":      {},
	"null":      {},
	"undefined": {},
}

// path segments that never make a good title on their own
var genericSegments = map[string]struct{}{
	"index":    {},
	"default":  {},
	"amp":      {},
	"home":     {},
	"article":  {},
	"articles": {},
	"news":     {},
	"story":    {},
	"post":     {},
	"posts":    {},
	"blog":     {},
	"content":  {},
}

// Metadata holds the values read from the leading structured block.
type Metadata struct {
	Title    string
	Author   string
	SiteName string
	// Found is true when a structured block was recognised.
	Found bool
}

// ParseResult is the parser output plus which title strategy won.
type ParseResult struct {
	Article     models.Article
	TitleSource string
}

// TitleInput is what every title strategy gets to look at.
type TitleInput struct {
	Metadata string
	Content  string
	URL      string
}

// TitleStrategy resolves a title candidate; an empty string means no opinion.
type TitleStrategy struct {
	Name    string
	Resolve func(TitleInput) string
}

// TitleStrategies are tried in order; the first usable candidate wins.
var TitleStrategies = []TitleStrategy{
	{Name: "metadata", Resolve: titleFromMetadata},
	{Name: "heading", Resolve: titleFromHeading},
	{Name: "url", Resolve: titleFromURL},
	{Name: "fallback", Resolve: func(TitleInput) string { return FallbackTitle }},
}

// Parse turns raw model text into an Article. It never fails: every field
// has a fallback. pageURL is echoed verbatim into the record.
func Parse(text, pageURL string, grounding []provider.GroundingChunk) ParseResult {
	meta, content := SplitMetadata(text)

	title, source := ResolveTitle(TitleInput{Metadata: meta.Title, Content: content, URL: pageURL})
	switch source {
	case "heading":
		content = removeFirstHeading(content)
	default:
		content = removeDuplicateLeadingHeading(content, title)
	}

	author := meta.Author
	if isPlaceholderValue(author) {
		author = models.UnknownAuthor
	}
	siteName := meta.SiteName
	if isPlaceholderValue(siteName) {
		siteName = models.DefaultSiteName
	}

	return ParseResult{
		Article: models.Article{
			Title:    title,
			Content:  content,
			Author:   author,
			SiteName: siteName,
			URL:      pageURL,
			Sources:  ExtractSources(grounding),
		},
		TitleSource: source,
	}
}

// SplitMetadata extracts the leading structured block, if any, and returns the
// remaining working content. Without a block the whole text is the content.
// A block made only of blank lines is dropped. A short preamble of at most
// maxPreambleLines lines may precede the block when it names a known key.
func SplitMetadata(text string) (Metadata, string) {
	text = helpers.NormalizeModelText(text)
	if meta, rest, ok := splitLeadingBlock(text, false); ok {
		return meta, rest
	}
	if body, ok := skipPreamble(text); ok {
		if meta, rest, ok := splitLeadingBlock(body, true); ok {
			return meta, rest
		}
	}
	return Metadata{}, strings.TrimSpace(text)
}

func splitLeadingBlock(text string, requireKnown bool) (Metadata, string, bool) {
	m := metadataBlockRe.FindStringSubmatch(text)
	if m == nil {
		return Metadata{}, "", false
	}
	if strings.TrimSpace(m[1]) == "" {
		if requireKnown {
			return Metadata{}, "", false
		}
		return Metadata{}, strings.TrimSpace(m[2]), true
	}
	meta, known := parseMetadataBlock(m[1])
	if !meta.Found || (requireKnown && !known) {
		return Metadata{}, "", false
	}
	return meta, strings.TrimSpace(m[2]), true
}

// skipPreamble returns text from the first delimiter line when it follows a
// few plain lines. Headings and code fences end the search.
func skipPreamble(text string) (string, bool) {
	pos, lines := 0, 0
	for _, raw := range strings.SplitAfter(text, "\n") {
		line := strings.TrimSpace(raw)
		switch {
		case line == "---":
			return text[pos:], lines > 0
		case line == "":
		case strings.HasPrefix(line, "#"), fenceMarker(line) != "":
			return "", false
		default:
			lines++
			if lines > maxPreambleLines {
				return "", false
			}
		}
		pos += len(raw)
	}
	return "", false
}

// parseMetadataBlock reads key: value lines. known reports whether a title,
// author or site name key was present.
func parseMetadataBlock(block string) (meta Metadata, known bool) {
	var seenTitle, seenAuthor, seenSite bool
	for _, line := range strings.Split(block, "\n") {
		m := metadataLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		meta.Found = true
		value := cleanValue(m[2])
		switch normalizeKey(m[1]) {
		case "title":
			if !seenTitle {
				meta.Title, seenTitle = value, true
			}
		case "author":
			if !seenAuthor {
				meta.Author, seenAuthor = value, true
			}
		case "sitename":
			if !seenSite {
				meta.SiteName, seenSite = value, true
			}
		}
	}
	return meta, seenTitle || seenAuthor || seenSite
}

func normalizeKey(k string) string {
	k = strings.ToLower(k)
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(k)
}

// cleanValue trims a metadata value, strips one matching pair of surrounding
// quotes and normalises entity and whitespace artifacts.
func cleanValue(v string) string {
	v = strings.TrimSpace(v)
	v = stripQuotePair(v)
	v = html.UnescapeString(v)
	v = strings.ReplaceAll(v, "\u00a0", " ")
	return strings.Join(strings.Fields(v), " ")
}

func stripQuotePair(v string) string {
	pairs := [][2]string{{`"`, `"`}, {`'`, `'`}, {"\u201c", "\u201d"}, {"\u2018", "\u2019"}}
	for _, p := range pairs {
		if len(v) >= len(p[0])+len(p[1]) && strings.HasPrefix(v, p[0]) && strings.HasSuffix(v, p[1]) {
			return strings.TrimSpace(v[len(p[0]) : len(v)-len(p[1])])
		}
	}
	return v
}

// ResolveTitle runs TitleStrategies in order and returns the first usable,
// sanitised candidate along with the name of the strategy that produced it.
func ResolveTitle(in TitleInput) (string, string) {
	for _, s := range TitleStrategies {
		candidate := SanitizeTitle(s.Resolve(in))
		if usableTitle(candidate) {
			return candidate, s.Name
		}
	}
	return FallbackTitle, "fallback"
}

func usableTitle(t string) bool {
	if utf8.RuneCountInString(t) < MinTitleLength {
		return false
	}
	_, placeholder := placeholderTitles[strings.ToLower(t)]
	return !placeholder
}

func isPlaceholderValue(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return true
	}
	if strings.HasPrefix(v, "<") && strings.HasSuffix(v, ">") {
		return true
	}
	_, ok := placeholderValues[strings.ToLower(v)]
	return ok
}

// SanitizeTitle strips Markdown heading, emphasis, code and link markup.
func SanitizeTitle(t string) string {
	t = mdLinkRe.ReplaceAllString(t, "$1")
	t = headingPrefixRe.ReplaceAllString(t, "")
	t = strings.NewReplacer("**", "", "*", "", "`", "", "~~", "").Replace(t)
	t = edgeUnderRe.ReplaceAllString(t, "$1$2")
	return strings.Join(strings.Fields(t), " ")
}

func titleFromMetadata(in TitleInput) string { return in.Metadata }

func titleFromHeading(in TitleInput) string {
	text, _, _, _ := firstHeading(in.Content)
	return text
}

// firstHeading finds the first level one or two heading outside fenced code.
// start and end bound the heading line including its newline.
func firstHeading(content string) (text string, start, end int, ok bool) {
	var fence string
	pos := 0
	for _, raw := range strings.SplitAfter(content, "\n") {
		start, pos = pos, pos+len(raw)
		line := strings.TrimSuffix(raw, "\n")
		if marker := fenceMarker(line); marker != "" {
			switch {
			case fence == "":
				fence = marker
			case marker[0] == fence[0] && len(marker) >= len(fence):
				fence = ""
			}
			continue
		}
		if fence != "" {
			continue
		}
		if m := headingRe.FindStringSubmatch(line); m != nil {
			return m[1], start, pos, true
		}
	}
	return "", 0, 0, false
}

// fenceMarker returns the backtick or tilde run opening a code fence line.
func fenceMarker(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return ""
	}
	for _, c := range []byte{'`', '~'} {
		n := 0
		for n < len(trimmed) && trimmed[n] == c {
			n++
		}
		if n >= 3 {
			return trimmed[:n]
		}
	}
	return ""
}

func titleFromURL(in TitleInput) string {
	raw := strings.TrimSpace(in.URL)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if u.Host == "" && u.Scheme == "" {
		if u, err = url.Parse("https://" + raw); err != nil {
			return ""
		}
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "" {
		return ""
	}
	segments := strings.Split(u.Path, "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if t := segmentTitle(segments[i]); t != "" {
			return t
		}
	}
	return host
}

func segmentTitle(seg string) string {
	seg = strings.TrimSpace(seg)
	if ext := path.Ext(seg); ext != "" && len(ext) <= 6 {
		seg = strings.TrimSuffix(seg, ext)
	}
	seg = strings.NewReplacer("-", " ", "_", " ", "+", " ").Replace(seg)
	seg = strings.Join(strings.Fields(seg), " ")
	if utf8.RuneCountInString(seg) < MinTitleLength || !strings.ContainsFunc(seg, unicode.IsLetter) {
		return ""
	}
	if _, generic := genericSegments[strings.ToLower(seg)]; generic {
		return ""
	}
	r, size := utf8.DecodeRuneInString(seg)
	return string(unicode.ToUpper(r)) + seg[size:]
}

func removeFirstHeading(content string) string {
	_, start, end, ok := firstHeading(content)
	if !ok {
		return content
	}
	return strings.TrimSpace(content[:start] + content[end:])
}

// removeDuplicateLeadingHeading drops a first-line heading that repeats title.
func removeDuplicateLeadingHeading(content, title string) string {
	first, rest, _ := strings.Cut(content, "\n")
	m := headingRe.FindStringSubmatch(first)
	if m == nil || !strings.EqualFold(SanitizeTitle(m[1]), title) {
		return content
	}
	return strings.TrimSpace(rest)
}

// ExtractSources maps grounding chunks with a web payload to sources, keeping
// order and duplicates. Entries without both title and URI are dropped.
func ExtractSources(chunks []provider.GroundingChunk) []models.Source {
	sources := make([]models.Source, 0, len(chunks))
	for _, c := range chunks {
		if c.Web == nil {
			continue
		}
		title := strings.TrimSpace(c.Web.Title)
		uri := strings.TrimSpace(c.Web.URI)
		if title == "" || uri == "" {
			continue
		}
		sources = append(sources, models.Source{Title: title, URI: uri})
	}
	return sources
}
