package browser

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"
)

// StaticOptions configures the plain HTTP fetcher.
type StaticOptions struct {
	Timeout   time.Duration
	UserAgent string
	// Limiter throttles requests. Nil means unthrottled.
	Limiter *rate.Limiter
}

// Static fetches pages over plain HTTP without running scripts. Waits are
// answered from the fetched document: the page cannot change after it has
// loaded, so an absent element is reported as ErrNotFound right away.
type Static struct {
	client  *resty.Client
	limiter *rate.Limiter
	doc     *goquery.Document
	url     string
}

// NewStatic creates a static fetcher.
func NewStatic(opts StaticOptions) *Static {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "fairscrape/1.0"
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent)

	return &Static{client: client, limiter: opts.Limiter}
}

// Navigate fetches url and parses the response body.
func (s *Static) Navigate(ctx context.Context, pageURL string) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	resp, err := s.client.R().SetContext(ctx).Get(pageURL)
	if err != nil {
		return fmt.Errorf("failed to fetch URL: %w", err)
	}

	// Check for HTTP errors
	if resp.IsError() {
		return fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Body()))
	if err != nil {
		return fmt.Errorf("failed to parse HTML: %w", err)
	}

	// Follow redirects when resolving relative links
	final := pageURL
	if resp.RawResponse != nil && resp.RawResponse.Request != nil {
		final = resp.RawResponse.Request.URL.String()
	}
	setDocumentURL(doc, final)

	s.doc = doc
	s.url = final
	return nil
}

// WaitPresent succeeds when selector matches in the fetched document.
func (s *Static) WaitPresent(_ context.Context, selector string, _ time.Duration) error {
	if s.doc == nil || s.doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, selector)
	}
	return nil
}

// WaitText succeeds when an element matching selector has the given text.
func (s *Static) WaitText(_ context.Context, selector, text string, _ time.Duration) error {
	if s.doc == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, selector)
	}

	found := false
	s.doc.Find(selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		found = strings.TrimSpace(sel.Text()) == text
		return !found
	})
	if !found {
		return fmt.Errorf("%w: %q never showed %q", ErrNotFound, selector, text)
	}
	return nil
}

// Click is not possible without a script engine.
func (s *Static) Click(context.Context, string) error {
	return fmt.Errorf("%w: static fetcher cannot click", ErrUnsupported)
}

// Document returns the last fetched document.
func (s *Static) Document(context.Context) (*goquery.Document, error) {
	if s.doc == nil {
		return nil, fmt.Errorf("%w: no page loaded", ErrNotFound)
	}
	return s.doc, nil
}

// URL returns the address of the last fetched page.
func (s *Static) URL() string {
	return s.url
}

// Close is a no-op; the HTTP client holds no session.
func (s *Static) Close() error {
	return nil
}

func setDocumentURL(doc *goquery.Document, raw string) {
	if u, err := url.Parse(raw); err == nil {
		doc.Url = u
	}
}
