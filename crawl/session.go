package crawl

import (
	"fmt"

	"github.com/pevans/fairscrape/browser"
	"github.com/pevans/fairscrape/exhibitors"
	"github.com/pevans/fairscrape/products"
	"github.com/pevans/fairscrape/scraper"
	"go.uber.org/zap"
)

// Session carries the collaborators of one run: a single browser, the row
// stores and the site profile. Operations run strictly one after another.
type Session struct {
	Browser    browser.Browser
	Profile    scraper.Profile
	Exhibitors *exhibitors.ExhibitorStore
	Products   *products.ProductStore
	Logger     *zap.Logger
}

// NewSession creates a session. A nil logger is replaced with a no-op one.
func NewSession(
	b browser.Browser,
	profile scraper.Profile,
	exhibitorStore *exhibitors.ExhibitorStore,
	productStore *products.ProductStore,
	logger *zap.Logger,
) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Session{
		Browser:    b,
		Profile:    profile,
		Exhibitors: exhibitorStore,
		Products:   productStore,
		Logger:     logger.Named("crawl"),
	}
}

// Status is the outcome of a unit of work.
type Status int

const (
	// StatusSuccess means everything in the unit completed.
	StatusSuccess Status = iota
	// StatusPartial means the unit stopped early but kept what it had.
	StatusPartial
	// StatusFailed means the unit produced nothing usable.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusPartial:
		return "partial"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// RowError describes a failure to process a single URL.
type RowError struct {
	URL string
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s: %v", e.URL, e.Err)
}

// Report summarizes a phase. Row-level failures are collected here rather
// than aborting the phase.
type Report struct {
	Categories        int
	CategoriesSkipped int
	PartialCategories int
	FailedCategories  int
	Registered        int
	Scraped           int
	Skipped           int
	Failed            int
	Errors            []RowError
}

// Status rolls the report up into a single outcome.
func (r *Report) Status() Status {
	switch {
	case r.Failed > 0 && r.Scraped == 0 && r.Registered == 0:
		return StatusFailed
	case r.Failed > 0 || r.CategoriesSkipped > 0 || r.PartialCategories > 0 || r.FailedCategories > 0:
		return StatusPartial
	}
	return StatusSuccess
}

func (r *Report) fail(url string, err error) {
	r.Failed++
	r.Errors = append(r.Errors, RowError{URL: url, Err: err})
}
