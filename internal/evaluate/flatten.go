package evaluate

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// skipTags never carry property information and only inflate the prompt.
var skipTags = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"svg":      true,
	"iframe":   true,
	"template": true,
}

// Flatten renders the body of page as an indented outline: one line per
// element with its tag and attributes, and text content on its own lines.
// An element whose only child is text is rendered on a single line as
// "[tag attrs]: text". The result is cut to maxChars when maxChars > 0.
func Flatten(page string, maxChars int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return ""
	}
	body := doc.Find("body")
	if body.Length() == 0 {
		return ""
	}

	var b strings.Builder
	for c := body.Nodes[0].FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			writeNode(&b, c, 0)
		}
	}

	out := strings.TrimRight(b.String(), "\n")
	if maxChars > 0 && len(out) > maxChars {
		out = truncate(out, maxChars)
	}
	return out
}

func writeNode(b *strings.Builder, n *html.Node, indent int) {
	if skipTags[n.Data] {
		return
	}

	b.WriteString(strings.Repeat("  ", indent))
	b.WriteByte('[')
	b.WriteString(n.Data)
	for _, a := range n.Attr {
		b.WriteByte(' ')
		b.WriteString(a.Key)
		b.WriteString(`="`)
		b.WriteString(a.Val)
		b.WriteByte('"')
	}
	b.WriteByte(']')

	if only := n.FirstChild; only != nil && only.NextSibling == nil && only.Type == html.TextNode {
		if text := collapse(only.Data); text != "" {
			b.WriteString(": ")
			b.WriteString(text)
		}
		b.WriteByte('\n')
		return
	}
	b.WriteByte('\n')

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if text := collapse(c.Data); text != "" {
				b.WriteString(strings.Repeat("  ", indent+1))
				b.WriteString(text)
				b.WriteByte('\n')
			}
		case html.ElementNode:
			writeNode(b, c, indent+1)
		}
	}
}

// collapse trims text and folds internal whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
