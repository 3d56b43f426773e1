package crawl

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pevans/fairscrape/browser"
	"github.com/pevans/fairscrape/extract"
	"go.uber.org/zap"
)

// ErrNoPageCount is recorded when no pagination label parses as a number.
var ErrNoPageCount = errors.New("no numeric page label")

// PageCount is the result of inspecting a category listing.
type PageCount struct {
	Pages    int
	Category string
	Status   Status
	Err      error
}

// LinkResult holds the detail links gathered from a category listing.
type LinkResult struct {
	Links  []string // deduplicated and sorted
	Pages  int      // pages whose links were collected
	Status Status
	Err    error
}

// PageCount loads a category listing and reads its label and number of
// pages. It never fails outright: any error is logged and reported as zero
// pages, which tells the caller to skip the category.
func (s *Session) PageCount(ctx context.Context, categoryURL string) PageCount {
	list := s.Profile.List
	logger := s.Logger.With(zap.String("category_url", categoryURL))

	result := PageCount{Category: s.Profile.DefaultCategory}
	failed := func(err error) PageCount {
		logger.Error("failed to read page count", zap.Error(err))
		result.Pages = 0
		result.Status = StatusFailed
		result.Err = err
		return result
	}

	if err := s.openListing(ctx, categoryURL); err != nil {
		return failed(err)
	}

	doc, err := s.Browser.Document(ctx)
	if err != nil {
		return failed(err)
	}

	// An absent or blank breadcrumb falls back to the profile's label
	if label := extract.Lookup(doc, list.CategorySelector).Value; label != "" {
		result.Category = label
	}

	labels := extract.Texts(doc, list.PaginationSelector)
	if len(labels) <= 1 {
		result.Pages = 1
		result.Status = StatusSuccess
		return result
	}

	// The last control is normally the last page number; skip trailing
	// "next"-style controls that carry no number.
	for i := len(labels) - 1; i >= 0; i-- {
		if n, err := strconv.Atoi(strings.TrimSpace(labels[i])); err == nil && n > 0 {
			result.Pages = n
			result.Status = StatusSuccess
			logger.Info("read page count",
				zap.String("category", result.Category),
				zap.Int("pages", n),
			)
			return result
		}
	}

	return failed(fmt.Errorf("%w among %q", ErrNoPageCount, labels))
}

// CollectLinks walks pages 1..pages of a category listing and gathers the
// detail links on each. A page that stalls ends the walk; the links already
// gathered are still returned.
func (s *Session) CollectLinks(ctx context.Context, categoryURL string, pages int) LinkResult {
	list := s.Profile.List
	logger := s.Logger.With(zap.String("category_url", categoryURL))

	seen := make(map[string]struct{})
	result := LinkResult{}

	finish := func(status Status, err error) LinkResult {
		result.Links = make([]string, 0, len(seen))
		for link := range seen {
			result.Links = append(result.Links, link)
		}
		sort.Strings(result.Links)
		result.Status = status
		result.Err = err
		return result
	}

	stopped := func(page int, err error) LinkResult {
		if browser.IsStall(err) {
			logger.Warn("page stalled", zap.Int("page", page), zap.Error(err))
		} else {
			logger.Error("failed to collect links", zap.Int("page", page), zap.Error(err))
		}
		if result.Pages == 0 {
			return finish(StatusFailed, err)
		}
		return finish(StatusPartial, err)
	}

	if pages < 1 {
		return finish(StatusFailed, ErrNoPageCount)
	}

	if err := s.openListing(ctx, categoryURL); err != nil {
		return stopped(1, err)
	}
	if err := s.collectPage(ctx, seen); err != nil {
		return stopped(1, err)
	}
	result.Pages = 1

	for page := 2; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return stopped(page, err)
		}

		button := fmt.Sprintf(list.PageButtonSelector, page)
		if err := s.Browser.Click(ctx, button); err != nil {
			return stopped(page, err)
		}

		// The click is asynchronous; the current-page marker confirms the
		// new results have replaced the old ones.
		err := s.Browser.WaitText(ctx, list.CurrentPageSelector, strconv.Itoa(page), s.Profile.Timeouts.Page)
		if err != nil {
			return stopped(page, err)
		}

		if err := s.collectPage(ctx, seen); err != nil {
			return stopped(page, err)
		}
		result.Pages = page

		logger.Debug("collected page", zap.Int("page", page), zap.Int("links", len(seen)))
	}

	logger.Info("collected links", zap.Int("pages", result.Pages), zap.Int("links", len(seen)))
	return finish(StatusSuccess, nil)
}

// RegisterLinks queues every link under the category. A store failure stops
// registration and is returned; rows already written stay committed.
func (s *Session) RegisterLinks(ctx context.Context, links []string, category string) (int, error) {
	registered := 0
	for _, link := range links {
		if err := s.Exhibitors.Register(ctx, link, category); err != nil {
			return registered, fmt.Errorf("failed to register %s: %w", link, err)
		}
		registered++
	}
	return registered, nil
}

// RegisterCategories builds the exhibitor work queue from the given
// category listings.
func (s *Session) RegisterCategories(ctx context.Context, categoryURLs []string) (*Report, error) {
	report := &Report{}

	err := s.eachCategory(ctx, categoryURLs, report, func(pc PageCount, links LinkResult) error {
		n, err := s.RegisterLinks(ctx, links.Links, pc.Category)
		report.Registered += n
		if err != nil {
			return err
		}

		s.Logger.Info("registered exhibitors",
			zap.String("category", pc.Category),
			zap.Int("count", n),
			zap.Stringer("status", links.Status),
		)
		return nil
	})

	return report, err
}

// eachCategory runs the paginator and link collector over each category and
// hands the links to fn. Categories whose page count can't be read are
// skipped. An error from fn aborts the loop.
func (s *Session) eachCategory(
	ctx context.Context,
	categoryURLs []string,
	report *Report,
	fn func(PageCount, LinkResult) error,
) error {
	for _, categoryURL := range categoryURLs {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Categories++

		pc := s.PageCount(ctx, categoryURL)
		if pc.Pages == 0 {
			report.CategoriesSkipped++
			continue
		}

		links := s.CollectLinks(ctx, categoryURL, pc.Pages)
		switch links.Status {
		case StatusPartial:
			report.PartialCategories++
		case StatusFailed:
			report.FailedCategories++
		}

		if err := fn(pc, links); err != nil {
			return err
		}
	}
	return nil
}

// openListing navigates to a listing and waits for its results container.
func (s *Session) openListing(ctx context.Context, categoryURL string) error {
	if err := s.Browser.Navigate(ctx, categoryURL); err != nil {
		return err
	}
	return s.Browser.WaitPresent(ctx, s.Profile.List.ReadySelector, s.Profile.Timeouts.Listing)
}

func (s *Session) collectPage(ctx context.Context, seen map[string]struct{}) error {
	doc, err := s.Browser.Document(ctx)
	if err != nil {
		return err
	}
	for _, link := range extract.Links(doc, s.Profile.List.LinkSelector) {
		seen[link] = struct{}{}
	}
	return nil
}
