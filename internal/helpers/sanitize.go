package helpers

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy

	articlePolicyOnce sync.Once
	articlePolicy     *bluemonday.Policy
)

// StrictHTMLPolicy strips every element and attribute.
func StrictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// ArticleHTMLPolicy allows the markup a rendered article needs: headings,
// lists, tables, code, links and images over http(s). Scripts, styles, event
// handlers and javascript: URLs are dropped.
func ArticleHTMLPolicy() *bluemonday.Policy {
	articlePolicyOnce.Do(func() {
		policy := bluemonday.UGCPolicy()
		policy.AllowElements("figure", "figcaption", "picture")
		policy.AllowAttrs("class").OnElements("code", "pre", "figure")
		policy.AllowAttrs("src", "alt", "title", "loading").OnElements("img")
		policy.AllowURLSchemes("http", "https", "mailto")
		policy.RequireParseableURLs(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		articlePolicy = policy
	})
	return articlePolicy
}

// SanitizeHTMLStrict returns s as plain text.
func SanitizeHTMLStrict(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(StrictHTMLPolicy().Sanitize(s))
}

// SanitizeArticleHTML cleans rendered article HTML with ArticleHTMLPolicy.
func SanitizeArticleHTML(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return strings.TrimSpace(ArticleHTMLPolicy().Sanitize(s))
}
