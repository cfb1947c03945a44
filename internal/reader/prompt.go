package reader

import (
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/readmode/internal/helpers"
)

const outputContract = `Your response MUST start with this exact block, followed immediately by the article body in Markdown:

---
title: <the article headline>
author: <the author name, or Unknown>
siteName: <the publication or website name>
---

Rules for the body:
- Do NOT repeat the title as a heading at the start of the body.
- Keep the original section structure using Markdown headings (## and below), lists, quotes and links.
- Include at least one relevant image from the article using Markdown image syntax with a direct, absolute image URL, when one is available.
- Do not add commentary, notes about your process, or a preamble before the block.`

// BuildRetrievalPrompt returns the instruction asking the model to retrieve and
// reconstruct the article at url.
func BuildRetrievalPrompt(url string) string {
	return fmt.Sprintf(`Find and read the article at this URL: %s

Use web search to locate the full text of this exact page, including syndicated or cached copies if the page itself is hard to reach. Reconstruct the complete article content as faithfully as possible, removing navigation, ads, cookie banners, newsletter prompts and other clutter.

%s`, url, outputContract)
}

// BuildParaphrasePrompt is the stricter variant used after a recitation block:
// the model must rewrite the article in its own words.
func BuildParaphrasePrompt(url string) string {
	return fmt.Sprintf(`Find and read the article at this URL: %s

Use web search to understand the article, then write a detailed, section-by-section rendition of it in your own words. Do NOT quote or reproduce sentences verbatim; paraphrase every paragraph while preserving facts, names, figures and the order of the argument. Short direct quotes of a few words are allowed only when attributed.

%s`, url, outputContract)
}

// QuestionSystemInstruction scopes question answering to the supplied article.
const QuestionSystemInstruction = `You answer questions about a single article. Use ONLY the article text provided by the user. If the answer is not in the article, say that the article does not cover it. Do not use outside knowledge. Answer concisely in Markdown.`

// BuildQuestionPrompt embeds the (already truncated) article text and the
// question.
func BuildQuestionPrompt(content, question string) string {
	var b strings.Builder
	b.WriteString("Article:\n\"\"\"\n")
	b.WriteString(strings.TrimSpace(content))
	b.WriteString("\n\"\"\"\n\nQuestion: ")
	b.WriteString(strings.TrimSpace(question))
	return b.String()
}

// truncateContext keeps the head of content within limit runes.
func truncateContext(content string, limit int) string {
	return helpers.TruncateRunes(content, limit)
}
