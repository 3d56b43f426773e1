package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/fairscrape/browser"
)

// fakeSite serves canned HTML. Listings are keyed by URL and hold one page
// of HTML per page number, starting at page 1.
type fakeSite struct {
	listings map[string][]string
	pages    map[string]string
	// stallAt makes the click to that page number never complete.
	stallAt map[string]int
	// goneAfter makes a URL fail to load once it has been loaded that many
	// times.
	goneAfter map[string]int
	visits    map[string]int
}

func newFakeSite() *fakeSite {
	return &fakeSite{
		listings:  make(map[string][]string),
		pages:     make(map[string]string),
		stallAt:   make(map[string]int),
		goneAfter: make(map[string]int),
		visits:    make(map[string]int),
	}
}

// fakeBrowser is an in-memory Browser over a fakeSite.
type fakeBrowser struct {
	site        *fakeSite
	url         string
	page        int
	navigations []string
	clicks      []string
}

func newFakeBrowser(site *fakeSite) *fakeBrowser {
	return &fakeBrowser{site: site}
}

func (b *fakeBrowser) Navigate(_ context.Context, target string) error {
	b.navigations = append(b.navigations, target)
	_, listing := b.site.listings[target]
	_, page := b.site.pages[target]
	if !listing && !page {
		return fmt.Errorf("HTTP error: 404 Not Found")
	}
	if n, ok := b.site.goneAfter[target]; ok && b.site.visits[target] >= n {
		return fmt.Errorf("HTTP error: 503 Service Unavailable")
	}
	b.site.visits[target]++
	b.url = target
	b.page = 1
	return nil
}

func (b *fakeBrowser) html() string {
	if pages, ok := b.site.listings[b.url]; ok {
		return pages[b.page-1]
	}
	return b.site.pages[b.url]
}

func (b *fakeBrowser) WaitPresent(ctx context.Context, selector string, _ time.Duration) error {
	doc, err := b.Document(ctx)
	if err != nil {
		return err
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %s", browser.ErrTimeout, selector)
	}
	return nil
}

func (b *fakeBrowser) WaitText(ctx context.Context, selector, text string, _ time.Duration) error {
	doc, err := b.Document(ctx)
	if err != nil {
		return err
	}
	if strings.TrimSpace(doc.Find(selector).First().Text()) != text {
		return fmt.Errorf("%w: %s never showed %s", browser.ErrTimeout, selector, text)
	}
	return nil
}

func (b *fakeBrowser) Click(ctx context.Context, selector string) error {
	b.clicks = append(b.clicks, selector)

	doc, err := b.Document(ctx)
	if err != nil {
		return err
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
	}

	target, err := strconv.Atoi(strings.TrimSpace(sel.Text()))
	if err != nil {
		return err
	}
	if b.site.stallAt[b.url] == target {
		return nil
	}
	b.page = target
	return nil
}

func (b *fakeBrowser) Document(context.Context) (*goquery.Document, error) {
	if b.url == "" {
		return nil, fmt.Errorf("%w: no page loaded", browser.ErrNotFound)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.html()))
	if err != nil {
		return nil, err
	}
	doc.Url, _ = url.Parse(b.url)
	return doc, nil
}

func (b *fakeBrowser) URL() string { return b.url }

func (b *fakeBrowser) Close() error { return nil }

// listingPage renders a search result page in the exhibitor directory's
// markup.
func listingPage(category string, current, total int, links ...string) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><div id="pagearea">`)
	if category != "" {
		fmt.Fprintf(&sb, `<div id="curmb"><a href="/">%s</a></div>`, category)
	}

	sb.WriteString(`<div id="gjh_pro_result"><div class="czs-list">`)
	for _, link := range links {
		fmt.Fprintf(&sb, `<div class="min"><dl><dt><a target="_blank" href="%s">x</a></dt></dl></div>`, link)
	}
	// Anchors that don't open a new tab are not detail links
	sb.WriteString(`<div class="min"><dl><dt><a href="/ad">ad</a></dt></dl></div>`)
	sb.WriteString(`</div></div>`)

	if total > 1 {
		sb.WriteString(`<div class="pagenumber">`)
		for p := 1; p <= total; p++ {
			fmt.Fprintf(&sb, `<a _pageindex="%d">%d</a>`, p, p)
		}
		sb.WriteString(`</div>`)
	}
	fmt.Fprintf(&sb, `<span class="page_cur">%d</span>`, current)
	sb.WriteString(`</div></body></html>`)
	return sb.String()
}

// addListing registers a listing whose page p carries linksPerPage[p-1].
func (s *fakeSite) addListing(listingURL, category string, linksPerPage ...[]string) {
	total := len(linksPerPage)
	pages := make([]string, total)
	for i, links := range linksPerPage {
		pages[i] = listingPage(category, i+1, total, links...)
	}
	s.listings[listingURL] = pages
}

// exhibitorPage renders an exhibitor detail page with the given element ids.
func exhibitorPage(fields map[string]string) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><div id="content"><div class="cright">`)
	for id, value := range fields {
		fmt.Fprintf(&sb, `<span id="%s">%s</span>`, id, value)
	}
	sb.WriteString(`</div></div></body></html>`)
	return sb.String()
}
