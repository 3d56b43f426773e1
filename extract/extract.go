package extract

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Field is the result of one selector lookup. A missing element yields the
// zero Field, whose String is empty.
type Field struct {
	Value string
	Found bool
}

// String returns the value, or "" when the field was not found.
func (f Field) String() string {
	return f.Value
}

// Or returns the value when found and fallback otherwise.
func (f Field) Or(fallback string) string {
	if !f.Found {
		return fallback
	}
	return f.Value
}

// Fields maps field names to lookup results.
type Fields map[string]Field

// Values flattens the lookups into plain strings, empty for missing fields.
func (f Fields) Values() map[string]string {
	values := make(map[string]string, len(f))
	for name, field := range f {
		values[name] = field.Value
	}
	return values
}

// Missing returns the names of fields that were not found.
func (f Fields) Missing() []string {
	var missing []string
	for name, field := range f {
		if !field.Found {
			missing = append(missing, name)
		}
	}
	return missing
}

// Lookup returns the whitespace-normalized text of the first element matching
// selector.
func Lookup(doc *goquery.Document, selector string) Field {
	sel := first(doc, selector)
	if sel == nil {
		return Field{}
	}
	return Field{Value: normalize(sel.Text()), Found: true}
}

// LookupAttr returns an attribute of the first element matching selector.
// An element without the attribute counts as not found.
func LookupAttr(doc *goquery.Document, selector, attr string) Field {
	sel := first(doc, selector)
	if sel == nil {
		return Field{}
	}
	value, ok := sel.Attr(attr)
	if !ok {
		return Field{}
	}
	return Field{Value: strings.TrimSpace(value), Found: true}
}

// LookupHTML returns the inner HTML of the first element matching selector.
func LookupHTML(doc *goquery.Document, selector string) Field {
	sel := first(doc, selector)
	if sel == nil {
		return Field{}
	}
	html, err := sel.Html()
	if err != nil {
		return Field{}
	}
	return Field{Value: strings.TrimSpace(html), Found: true}
}

// Extract looks up every selector in the map independently. It never fails:
// a missing or empty selector yields a zero Field for that name.
func Extract(doc *goquery.Document, selectors map[string]string) Fields {
	fields := make(Fields, len(selectors))
	for name, selector := range selectors {
		fields[name] = Lookup(doc, selector)
	}
	return fields
}

// Links returns the href of every element matching selector, resolved
// against the document URL when it is known. Empty hrefs are skipped.
func Links(doc *goquery.Document, selector string) []string {
	if selector == "" {
		return nil
	}

	var links []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		href = strings.TrimSpace(href)
		if !ok || href == "" {
			return
		}
		links = append(links, resolve(doc.Url, href))
	})
	return links
}

// Texts returns the normalized text of every element matching selector.
func Texts(doc *goquery.Document, selector string) []string {
	if selector == "" {
		return nil
	}

	var texts []string
	doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, normalize(s.Text()))
	})
	return texts
}

// NameFromURL returns the last path segment of a URL without its extension,
// used as the product's slug.
func NameFromURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	tail := path.Base(strings.TrimRight(u.Path, "/"))
	if tail == "." || tail == "/" {
		return ""
	}
	return strings.TrimSuffix(tail, path.Ext(tail))
}

func first(doc *goquery.Document, selector string) *goquery.Selection {
	if doc == nil || selector == "" {
		return nil
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	return sel
}

// normalize replaces runs of whitespace with single spaces.
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func resolve(base *url.URL, href string) string {
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}
