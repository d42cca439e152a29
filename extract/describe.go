package extract

import (
	"log/slog"
	nurl "net/url"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	readability "github.com/go-shiori/go-readability"
)

// minDescriptionLength is the minimum plain-text length for a readability
// fallback to be considered a real description rather than page chrome.
const minDescriptionLength = 50

// The converter is goroutine-safe and reused for every description.
var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
	),
)

// DescriptionMarkdown converts a description HTML fragment to markdown.
// Relative links are resolved against domain. On conversion failure the
// plain text of the fragment is returned: the field degrades, it never
// fails the record.
func DescriptionMarkdown(fragment, domain string) string {
	md, err := mdConverter.ConvertString(fragment, converter.WithDomain(domain))
	if err != nil {
		slog.Warn("description markdown conversion failed, keeping raw text", "error", err)
		return strings.TrimSpace(stripTags(fragment))
	}
	return strings.TrimSpace(md)
}

// FallbackDescription runs readability over the whole captured page when
// every description locator missed. Product pages bury the description in
// arbitrary markup; readability finds the main prose block more often than
// another hand-tuned selector would.
func FallbackDescription(rawHTML, sourceURL string) string {
	parsed, err := nurl.Parse(sourceURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), parsed)
	if err != nil {
		slog.Debug("readability fallback failed", "url", sourceURL, "error", err)
		return ""
	}
	text := strings.TrimSpace(article.TextContent)
	if len(text) < minDescriptionLength {
		return ""
	}
	if article.Excerpt != "" {
		return strings.TrimSpace(article.Excerpt)
	}
	return text
}

// stripTags is the last-ditch projection when markdown conversion fails.
func stripTags(fragment string) string {
	doc, err := ParseDocument(fragment)
	if err != nil {
		return fragment
	}
	return doc.Text()
}
