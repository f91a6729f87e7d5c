// Package richtext reads the HTML markup produced by the note editor.
package richtext

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// EmptyDocument is what the editor submits when nothing has been typed.
const EmptyDocument = "<p></p>"

func IsEmptyDocument(markup string) bool {
	return strings.TrimSpace(markup) == EmptyDocument
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// PlainText flattens editor markup into readable text, one block element per line.
// Input that is not HTML comes back trimmed but otherwise untouched.
func PlainText(markup string) string {
	if !strings.Contains(markup, "<") {
		return strings.TrimSpace(markup)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return strings.TrimSpace(markup)
	}

	var parts []string
	blocks := doc.Find("h1,h2,h3,h4,h5,h6,p,li,blockquote,pre")
	if blocks.Length() == 0 {
		return strings.TrimSpace(doc.Text())
	}
	blocks.Each(func(_ int, s *goquery.Selection) {
		// nested blocks (p inside li) are emitted by their outermost parent
		if s.ParentsFiltered("li,blockquote").Length() > 0 {
			return
		}
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	out := strings.ReplaceAll(strings.Join(parts, "\n"), "\r", "")
	return blankLines.ReplaceAllString(out, "\n\n")
}
