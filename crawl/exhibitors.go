package crawl

import (
	"context"
	"errors"
	"fmt"

	"github.com/pevans/fairscrape/exhibitors"
	"github.com/pevans/fairscrape/extract"
	"go.uber.org/zap"
)

// ScrapeExhibitors drains the pending work queue, up to limit rows when
// limit is positive. Each row is scraped and marked done on its own, so an
// interrupted run resumes where it stopped. A detail page that fails leaves
// its row pending; a store failure ends the run.
func (s *Session) ScrapeExhibitors(ctx context.Context, limit int) (*Report, error) {
	report := &Report{}

	pending, err := s.Exhibitors.ListPending(ctx, limit)
	if err != nil {
		return report, err
	}

	s.Logger.Info("scraping exhibitors", zap.Int("pending", len(pending)))

	for i, row := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		logger := s.Logger.With(
			zap.String("url", row.URL),
			zap.Int("row", i+1),
			zap.Int("of", len(pending)),
		)

		details, err := s.ScrapeExhibitor(ctx, row.URL)
		if err != nil {
			logger.Error("failed to scrape exhibitor", zap.Error(err))
			report.fail(row.URL, err)
			continue
		}

		err = s.Exhibitors.Complete(ctx, row.URL, details)
		switch {
		case errors.Is(err, exhibitors.ErrAlreadyDone):
			logger.Info("exhibitor already done")
			report.Skipped++
			continue
		case err != nil:
			return report, fmt.Errorf("failed to save %s: %w", row.URL, err)
		}

		report.Scraped++
		logger.Info("scraped exhibitor", zap.String("company", details["company_name"]))
	}

	return report, nil
}

// ScrapeExhibitor reads one exhibitor detail page. Fields whose element is
// absent come back as empty strings.
func (s *Session) ScrapeExhibitor(ctx context.Context, url string) (exhibitors.Details, error) {
	cfg := s.Profile.Exhibitor

	if err := s.Browser.Navigate(ctx, url); err != nil {
		return nil, err
	}
	if err := s.Browser.WaitPresent(ctx, cfg.ReadySelector, s.Profile.Timeouts.Detail); err != nil {
		return nil, err
	}

	doc, err := s.Browser.Document(ctx)
	if err != nil {
		return nil, err
	}

	fields := extract.Extract(doc, cfg.Fields)
	if missing := fields.Missing(); len(missing) > 0 {
		s.Logger.Debug("exhibitor fields missing",
			zap.String("url", url),
			zap.Strings("fields", missing),
		)
	}

	return exhibitors.Details(fields.Values()), nil
}
