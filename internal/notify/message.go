package notify

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"github.com/JodusNodus/apartment-eagle/internal/model"
)

// Message is a rendered report with plain-text and HTML bodies.
type Message struct {
	Subject string
	Text    string
	HTML    string
}

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithRendererOptions(gmhtml.WithHardWraps()),
)

// agencyGroup holds one agency's matches in first-seen order.
type agencyGroup struct {
	name    string
	matches []model.Match
}

func groupByAgency(matches []model.Match) []agencyGroup {
	var groups []agencyGroup
	index := make(map[string]int)
	for _, m := range matches {
		i, ok := index[m.Agency]
		if !ok {
			i = len(groups)
			index[m.Agency] = i
			groups = append(groups, agencyGroup{name: m.Agency})
		}
		groups[i].matches = append(groups[i].matches, m)
	}
	return groups
}

// Compose renders matches into a single report. Matches are grouped into one
// section per agency.
func Compose(matches []model.Match, now time.Time) Message {
	groups := groupByAgency(matches)
	stamp := now.UTC().Format(time.RFC3339)

	var text strings.Builder
	fmt.Fprintf(&text, "New apartment listings were found on %d agencies!\n\n", len(groups))
	fmt.Fprintf(&text, "Timestamp: %s\n\nAI Evaluations:\n", stamp)
	for _, g := range groups {
		fmt.Fprintf(&text, "\n%s:\n", g.name)
		for _, m := range g.matches {
			fmt.Fprintf(&text, "- %s\n  %s\n", m.URL, m.Evaluation.Reasoning)
		}
	}

	var body strings.Builder
	body.WriteString("<h2>New Apartments Found!</h2>\n")
	fmt.Fprintf(&body, "<p><strong>Timestamp:</strong> %s</p>\n", stamp)
	fmt.Fprintf(&body, "<p><strong>Agencies with updates:</strong> %d</p>\n", len(groups))
	body.WriteString(`<hr style="margin: 20px 0;">` + "\n")
	for _, g := range groups {
		body.WriteString(`<div style="margin-bottom: 30px; border: 1px solid #ddd; border-radius: 8px; padding: 20px;">` + "\n")
		fmt.Fprintf(&body, `<h3 style="margin-top: 0; color: #007cba;">%s</h3>`+"\n", html.EscapeString(g.name))
		for _, m := range g.matches {
			u := html.EscapeString(m.URL)
			fmt.Fprintf(&body, `<p><strong>Property:</strong> <a href="%s">%s</a></p>`+"\n", u, u)
			body.WriteString(`<div style="background-color: #f5f5f5; padding: 15px; border-radius: 5px; border-left: 4px solid #007cba;">` + "\n")
			body.WriteString(renderMarkdown(m.Evaluation.Reasoning))
			body.WriteString("</div>\n")
		}
		body.WriteString("</div>\n")
	}

	return Message{
		Subject: fmt.Sprintf("New Apartments Found: %d agencies have updates", len(groups)),
		Text:    text.String(),
		HTML:    body.String(),
	}
}

// renderMarkdown converts reasoning text to HTML, escaping it verbatim if
// the converter fails.
func renderMarkdown(src string) string {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "<p>" + html.EscapeString(src) + "</p>\n"
	}
	return buf.String()
}
