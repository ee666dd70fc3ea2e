// Package richtext renders and cleans article bodies: Markdown to HTML,
// HTML sanitizing, and plain-text excerpts for listings.
package richtext

import (
	"bytes"
	"fmt"
	"html"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// DefaultExcerptLength is the excerpt size, in runes, used when an article
// is created without one.
const DefaultExcerptLength = 200

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.Table, extension.Strikethrough),
)

// MarkdownToHTML renders GitHub-flavoured Markdown (tables and
// strikethrough included). Raw HTML in the source is omitted.
func MarkdownToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// policy is the user-generated-content policy plus the inline table styles
// and data URL images produced by document extraction.
var policy = func() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowDataURIImages()
	p.AllowStyles("border-collapse", "width", "margin").OnElements("table")
	p.AllowStyles("border", "padding", "background-color").OnElements("th", "td")
	return p
}()

var stripPolicy = bluemonday.StrictPolicy()

// Sanitize removes scripts, event handlers and anything else outside the
// content policy from s. It is safe for concurrent use.
func Sanitize(s string) string {
	return policy.Sanitize(s)
}

// placeholderURL is handed to readability, which resolves relative links
// against it; article bodies have no page URL of their own.
var placeholderURL = &url.URL{Scheme: "http", Host: "localhost", Path: "/"}

// Excerpt derives a plain-text summary of an HTML body, at most max runes
// long. Readability picks the main text; if it finds none, tags are
// stripped instead. Truncated excerpts end with "…".
func Excerpt(body string, max int) string {
	if max <= 0 {
		max = DefaultExcerptLength
	}
	text := ""
	doc := "<html><body><article>" + body + "</article></body></html>"
	if article, err := readability.FromReader(strings.NewReader(doc), placeholderURL); err == nil {
		text = article.TextContent
	}
	if strings.TrimSpace(text) == "" {
		text = PlainText(body)
	}
	return truncate(strings.Join(strings.Fields(text), " "), max)
}

// PlainText strips every tag from s and unescapes entities. Block
// boundaries become spaces so words from adjacent paragraphs stay apart.
func PlainText(s string) string {
	s = strings.NewReplacer("</p>", "</p> ", "<br>", " ", "<br/>", " ", "</td>", "</td> ", "</th>", "</th> ").Replace(s)
	return strings.Join(strings.Fields(html.UnescapeString(stripPolicy.Sanitize(s))), " ")
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimRight(string(runes[:max]), " ") + "…"
}
