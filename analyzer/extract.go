package analyzer

import (
	"encoding/json"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Extract scans html for SEO signals. pageURL is the validated URL the page
// was requested with; it decides HTTPS and which links count as internal.
// Missing elements yield empty or zero values, never an error.
func Extract(html, pageURL string) Signals {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// The html5 parser only fails on reader errors, which a string reader
		// never returns.
		return Signals{IsHTTPS: strings.HasPrefix(pageURL, "https://")}
	}

	var s Signals

	s.Title = strings.TrimSpace(doc.Find("title").First().Text())
	s.TitleLength = utf8.RuneCountInString(s.Title)

	s.MetaDescription = metaContent(doc, "name", "description")
	s.MetaDescriptionLength = utf8.RuneCountInString(s.MetaDescription)
	s.RobotsMeta = metaContent(doc, "name", "robots")
	s.OGTitle = metaContent(doc, "property", "og:title")
	s.OGDescription = metaContent(doc, "property", "og:description")
	s.OGImage = metaContent(doc, "property", "og:image")
	s.TwitterCard = metaContent(doc, "name", "twitter:card")

	doc.Find("link[rel]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		rel, _ := sel.Attr("rel")
		if !strings.EqualFold(strings.TrimSpace(rel), "canonical") {
			return true
		}
		s.CanonicalURL, _ = sel.Attr("href")
		return false
	})

	s.H1Tags = []string{}
	doc.Find("h1").Each(func(_ int, sel *goquery.Selection) {
		s.H1Tags = append(s.H1Tags, strings.TrimSpace(sel.Text()))
	})
	s.H1Count = len(s.H1Tags)
	s.H2Count = doc.Find("h2").Length()

	images := doc.Find("img")
	s.ImagesTotal = images.Length()
	images.Each(func(_ int, sel *goquery.Selection) {
		if _, ok := sel.Attr("alt"); ok {
			s.ImagesWithAlt++
		}
	})
	s.ImagesWithoutAlt = s.ImagesTotal - s.ImagesWithAlt

	s.InternalLinks, s.ExternalLinks = countLinks(doc, pageURL)
	s.WordCount = countWords(doc)

	doc.Find("meta[name]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		name, _ := sel.Attr("name")
		if strings.EqualFold(strings.TrimSpace(name), "viewport") {
			s.HasViewportMeta = true
			return false
		}
		return true
	})
	s.MobileFriendly = s.HasViewportMeta

	s.IsHTTPS = strings.HasPrefix(strings.ToLower(pageURL), "https://")

	s.SchemaTypes = []string{}
	doc.Find("script[type]").Each(func(_ int, sel *goquery.Selection) {
		typ, _ := sel.Attr("type")
		if !strings.EqualFold(strings.TrimSpace(typ), "application/ld+json") {
			return
		}
		s.HasSchemaMarkup = true
		s.SchemaTypes = append(s.SchemaTypes, schemaTypes(sel.Text())...)
	})

	return s
}

// metaContent returns the content of the first <meta> whose attr equals
// value, ignoring case.
func metaContent(doc *goquery.Document, attr, value string) string {
	var content string
	doc.Find("meta[" + attr + "]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		v, _ := sel.Attr(attr)
		if !strings.EqualFold(strings.TrimSpace(v), value) {
			return true
		}
		content, _ = sel.Attr("content")
		content = strings.TrimSpace(content)
		return false
	})
	return content
}

// countLinks returns the internal count and the absolute http(s) count minus
// the internal count. The second value is not clamped.
func countLinks(doc *goquery.Document, pageURL string) (internal, external int) {
	site := strings.ToLower(pageURL)
	absolute := 0

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" {
			return
		}
		lower := strings.ToLower(href)

		if (site != "" && strings.HasPrefix(lower, site)) || strings.HasPrefix(href, "/") {
			internal++
		}
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			absolute++
		}
	})

	return internal, absolute - internal
}

func countWords(doc *goquery.Document) int {
	body := doc.Find("body")
	if body.Length() == 0 {
		return 0
	}
	body = body.Clone()
	body.Find("script, style, noscript, template").Remove()

	// Text() concatenates adjacent nodes without a separator, so words in
	// sibling elements are joined by walking the text nodes instead.
	var b strings.Builder
	body.Find("*").AddBack().Contents().Each(func(_ int, sel *goquery.Selection) {
		if goquery.NodeName(sel) == "#text" {
			b.WriteString(sel.Text())
			b.WriteByte(' ')
		}
	})
	return len(strings.Fields(b.String()))
}

// schemaTypes returns the @type values of one JSON-LD block. Malformed JSON
// yields nothing.
func schemaTypes(raw string) []string {
	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &doc); err != nil {
		return nil
	}

	switch t := doc["@type"].(type) {
	case string:
		if t != "" {
			return []string{t}
		}
	case []interface{}:
		var out []string
		for _, v := range t {
			if s, ok := v.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
