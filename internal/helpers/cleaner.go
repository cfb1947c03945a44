package helpers

import (
	"strings"
	"unicode/utf8"
)

// markdownFenceLangs lists the info strings accepted when a model wraps its
// whole reply in a fenced block.
var markdownFenceLangs = map[string]struct{}{
	"":         {},
	"markdown": {},
	"md":       {},
	"text":     {},
	"yaml":     {},
}

// NormalizeModelText removes a UTF-8 BOM, converts CRLF/CR line endings to LF
// and unwraps a fence enclosing the entire reply.
func NormalizeModelText(s string) string {
	s = trimBOM(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	if inner, ok := UnwrapFence(s); ok {
		return inner
	}
	return s
}

// UnwrapFence returns the inner content when s, once trimmed, is exactly one
// ``` or ~~~ fenced block tagged as markdown (or untagged). Fences that only
// cover part of the text are left alone so code samples inside an article
// survive.
func UnwrapFence(s string) (string, bool) {
	trim := strings.TrimSpace(s)
	fence := ""
	switch {
	case strings.HasPrefix(trim, "```"):
		fence = "```"
	case strings.HasPrefix(trim, "~~~"):
		fence = "~~~"
	default:
		return "", false
	}
	nl := strings.IndexByte(trim, '\n')
	if nl == -1 {
		return "", false
	}
	info := strings.ToLower(strings.TrimSpace(trim[len(fence):nl]))
	if _, ok := markdownFenceLangs[info]; !ok {
		return "", false
	}
	body := trim[nl+1:]
	if !strings.HasSuffix(body, fence) {
		return "", false
	}
	body = strings.TrimSuffix(body, fence)
	if !strings.HasSuffix(body, "\n") && body != "" {
		// closing fence must sit on its own line
		return "", false
	}
	return strings.TrimSpace(body), true
}

// trimBOM removes an optional UTF-8 BOM.
func trimBOM(s string) string {
	if strings.HasPrefix(s, "\uFEFF") {
		return strings.TrimPrefix(s, "\uFEFF")
	}
	// Handle malformed BOM-like prefix (rare)
	if len(s) >= 3 {
		b0, b1, b2 := s[0], s[1], s[2]
		if b0 == 0xEF && b1 == 0xBB && b2 == 0xBF && utf8.ValidString(s[3:]) {
			return s[3:]
		}
	}
	return s
}

// TruncateRunes keeps at most n runes of s, counted from the start.
func TruncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
