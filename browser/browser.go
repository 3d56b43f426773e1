// Package browser provides the page fetcher used by the crawler: something
// that can load a URL, wait for the page to reach a state, click controls and
// hand back the rendered document for querying.
package browser

import (
	"context"
	"errors"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Errors returned by Browser implementations. Callers classify failures
// with errors.Is.
var (
	// ErrTimeout means the page never reached the expected state.
	ErrTimeout = errors.New("timed out waiting for page")
	// ErrNotFound means an element the operation needed is absent.
	ErrNotFound = errors.New("element not found")
	// ErrUnsupported means the implementation cannot perform the operation.
	ErrUnsupported = errors.New("operation not supported")
)

// Browser is a single page session. Calls are sequential; implementations
// are not safe for concurrent use.
type Browser interface {
	// Navigate loads url into the session.
	Navigate(ctx context.Context, url string) error
	// WaitPresent blocks until an element matching selector exists.
	WaitPresent(ctx context.Context, selector string, timeout time.Duration) error
	// WaitText blocks until an element matching selector has exactly the
	// given trimmed text.
	WaitText(ctx context.Context, selector, text string, timeout time.Duration) error
	// Click clicks the first element matching selector.
	Click(ctx context.Context, selector string) error
	// Document returns a snapshot of the current DOM.
	Document(ctx context.Context) (*goquery.Document, error)
	// URL returns the address of the current page.
	URL() string
	// Close releases the session.
	Close() error
}

// IsStall reports whether err is a stalled-page failure (timeout or missing
// element), as opposed to a broken session.
func IsStall(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrNotFound)
}
