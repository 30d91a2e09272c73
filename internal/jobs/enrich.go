package jobs

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/spigell/jobhackr/internal/analyzer"
)

var blockElements = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"tr": true, "td": true, "th": true,
}

// CleanHTML returns the visible text of an HTML fragment with whitespace
// collapsed. Plain text passes through unchanged apart from whitespace.
func CleanHTML(s string) string {
	if !strings.Contains(s, "<") {
		return strings.Join(strings.Fields(s), " ")
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}

	var b strings.Builder
	collectText(doc.Selection, &b)

	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, node *goquery.Selection) {
		name := goquery.NodeName(node)
		switch {
		case name == "#text":
			b.WriteString(node.Text())
		case name == "script" || name == "style":
		case blockElements[name]:
			b.WriteByte(' ')
			collectText(node, b)
			b.WriteByte(' ')
		default:
			collectText(node, b)
		}
	})
}

// Enrich fills the skills, industry and language of postings that came
// without them, using the text of the title and description.
func Enrich(postings *Postings, a *analyzer.Analyzer) {
	if postings == nil || a == nil {
		return
	}

	for _, p := range postings.Items {
		p.Description = CleanHTML(p.Description)
		text := p.Title + " " + p.Description

		if len(p.Skills) == 0 {
			p.Skills = a.ExtractSkills(text)
		}
		if p.Industry == "" {
			if industries := a.ExtractIndustries(p.Description); len(industries) > 0 {
				p.Industry = industries[0]
			}
		}
		if p.Language == "" {
			p.Language = a.DetectLanguage(text)
		}
	}
}
