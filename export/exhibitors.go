package export

import (
	"context"
	"fmt"
	"io"

	"github.com/pevans/fairscrape/exhibitors"
	"github.com/pevans/fairscrape/scraper"
)

// ExhibitorSource provides completed exhibitors in export order.
type ExhibitorSource interface {
	ListDone(ctx context.Context) ([]exhibitors.Exhibitor, error)
}

// ExhibitorHeader returns the header row of the exhibitor dump.
func ExhibitorHeader() []string {
	header := []string{"url", "category_name"}
	return append(header, scraper.ExhibitorFields...)
}

// WriteExhibitors writes the header and one row per completed exhibitor,
// ordered by category then url. It returns the number of data rows.
func WriteExhibitors(ctx context.Context, out io.Writer, src ExhibitorSource) (int, error) {
	rows, err := src.ListDone(ctx)
	if err != nil {
		return 0, err
	}

	w := NewWriter(out)
	header := ExhibitorHeader()
	if err := w.Write(header); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	for i := range rows {
		record := make([]string, len(header))
		for j, column := range header {
			record[j] = rows[i].Field(column)
		}
		if err := w.Write(record); err != nil {
			return i, fmt.Errorf("failed to write exhibitor %s: %w", rows[i].URL, err)
		}
	}

	if err := w.Flush(); err != nil {
		return 0, fmt.Errorf("failed to flush output: %w", err)
	}

	return len(rows), nil
}
