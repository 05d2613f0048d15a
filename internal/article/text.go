package article

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true,
	"figure": true, "footer": true, "h1": true, "h2": true, "h3": true,
	"h4": true, "h5": true, "h6": true, "header": true, "hr": true,
	"li": true, "main": true, "ol": true, "p": true, "pre": true,
	"section": true, "table": true, "td": true, "th": true, "tr": true,
	"ul": true,
}

var skippedTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"iframe": true, "svg": true,
}

// flattenHTML renders an HTML fragment as plain text. Block elements become
// paragraphs separated by a blank line.
func flattenHTML(fragment string) (string, error) {
	if strings.TrimSpace(fragment) == "" {
		return "", nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	writeText(doc.Selection, &b)

	return normalizeText(b.String()), nil
}

func writeText(sel *goquery.Selection, b *strings.Builder) {
	sel.Contents().Each(func(_ int, s *goquery.Selection) {
		node := s.Get(0)

		switch node.Type {
		case html.TextNode:
			b.WriteString(node.Data)
		case html.ElementNode:
			name := goquery.NodeName(s)
			if skippedTags[name] {
				return
			}
			if name == "br" {
				b.WriteString("\n")
				return
			}

			block := blockTags[name]
			if block {
				b.WriteString("\n\n")
			}
			writeText(s, b)
			if block {
				b.WriteString("\n\n")
			}
		default:
			writeText(s, b)
		}
	})
}

// normalizeText collapses runs of spaces inside lines and runs of blank
// lines between paragraphs.
func normalizeText(text string) string {
	var (
		paragraphs []string
		current    []string
	)

	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if len(current) > 0 {
				paragraphs = append(paragraphs, strings.Join(current, "\n"))
				current = nil
			}
			continue
		}
		current = append(current, line)
	}

	if len(current) > 0 {
		paragraphs = append(paragraphs, strings.Join(current, "\n"))
	}

	return strings.Join(paragraphs, "\n\n")
}

// pageTitle falls back from og:title to the document title.
func pageTitle(doc *goquery.Document) string {
	if title, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if title = strings.TrimSpace(title); title != "" {
			return title
		}
	}

	return strings.TrimSpace(doc.Find("title").First().Text())
}
