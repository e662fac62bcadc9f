package record

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageMeta is the descriptive metadata of an HTML page.
type PageMeta struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	H1          string `json:"h1"`
}

// ExtractMeta parses an HTML document and returns its title, meta description
// and first H1. Open Graph tags are used when the plain ones are absent.
func ExtractMeta(html []byte) (PageMeta, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return PageMeta{}, fmt.Errorf("failed to parse html: %w", err)
	}

	m := PageMeta{
		Title:       normSpace(doc.Find("head title").First().Text()),
		Description: metaContent(doc, "meta[name='description']", "meta[name='Description']"),
		H1:          normSpace(doc.Find("h1").First().Text()),
	}

	if m.Title == "" {
		m.Title = normSpace(doc.Find("title").First().Text())
	}

	if m.Title == "" {
		m.Title = metaContent(doc, "meta[property='og:title']")
	}

	if m.Description == "" {
		m.Description = metaContent(doc, "meta[property='og:description']")
	}

	return m, nil
}

func metaContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if v := normSpace(content); v != "" {
				return v
			}
		}
	}

	return ""
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
