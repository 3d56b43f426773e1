package exhibitors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pevans/fairscrape/scraper"
	"github.com/pevans/fairscrape/storage"
)

// Custom errors for exhibitor operations
var (
	ErrExhibitorNotFound = errors.New("exhibitor not found")
	ErrAlreadyDone       = errors.New("exhibitor is already done")
	ErrEmptyURL          = errors.New("exhibitor url is empty")
)

// ExhibitorStore manages exhibitor rows. Every write is a single statement,
// so each row commits on its own.
type ExhibitorStore struct {
	db *storage.DB
}

// Exhibitor represents one company listed in the fair directory.
type Exhibitor struct {
	URL                          string `json:"url"`
	CategoryName                 string `json:"category_name"`
	Address                      string `json:"address"`
	BusinessType                 string `json:"business_type"`
	CityProvince                 string `json:"city_province"`
	CompanyName                  string `json:"company_name"`
	ExhibitionRecords            string `json:"exhibition_records"`
	InternationalCommercialTerms string `json:"international_commercial_terms"`
	MainProducts                 string `json:"main_products"`
	NumberOfStaff                string `json:"number_of_staff"`
	PostCode                     string `json:"post_code"`
	RegisteredCapital            string `json:"registered_capital"`
	TargetCustomer               string `json:"target_customer"`
	Website                      string `json:"website"`
	IsDone                       bool   `json:"is_done"`
}

// Details holds the scraped columns of an exhibitor, keyed by column name as
// listed in scraper.ExhibitorFields. Missing keys are stored as empty
// strings.
type Details map[string]string

// ExhibitorFilter represents filtering options for listing exhibitors.
type ExhibitorFilter struct {
	Done     *bool  // Filter by is_done
	Category string // Filter by category_name
	Limit    int    // Pagination limit
}

// Counts summarizes the work queue.
type Counts struct {
	Category string
	Pending  int
	Done     int
}

// NewExhibitorStore creates a new exhibitor store on an open database.
func NewExhibitorStore(db *storage.DB) *ExhibitorStore {
	return &ExhibitorStore{db: db}
}

// Register inserts the url with its category, or updates the category of an
// existing row. Scraped columns and is_done are never touched.
func (s *ExhibitorStore) Register(ctx context.Context, url, category string) error {
	if url == "" {
		return ErrEmptyURL
	}

	query := `
		INSERT INTO exhibitor (url, category_name)
		VALUES (?, ?)
		ON CONFLICT (url)
		DO UPDATE SET category_name = excluded.category_name
	`

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(query), url, category); err != nil {
		return fmt.Errorf("failed to register exhibitor: %w", err)
	}

	return nil
}

// Complete stores the scraped details and marks the exhibitor done. Rows
// that are already done are left untouched and ErrAlreadyDone is returned.
func (s *ExhibitorStore) Complete(ctx context.Context, url string, details Details) error {
	setClauses := make([]string, 0, len(scraper.ExhibitorFields)+1)
	args := make([]any, 0, len(scraper.ExhibitorFields)+1)

	for _, field := range scraper.ExhibitorFields {
		setClauses = append(setClauses, field+" = ?")
		args = append(args, details[field])
	}
	setClauses = append(setClauses, "is_done = ?")
	args = append(args, true)

	// Add WHERE clause
	args = append(args, url)

	query := fmt.Sprintf("UPDATE exhibitor SET %s WHERE url = ? AND is_done = ?",
		strings.Join(setClauses, ", "))
	args = append(args, false)

	result, err := s.db.ExecContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return fmt.Errorf("failed to update exhibitor: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		// Distinguish a missing row from one that was already done
		if _, err := s.GetExhibitor(ctx, url); err != nil {
			return err
		}
		return ErrAlreadyDone
	}

	return nil
}

// GetExhibitor retrieves an exhibitor by url.
func (s *ExhibitorStore) GetExhibitor(ctx context.Context, url string) (*Exhibitor, error) {
	query := selectColumns + " WHERE url = ?"

	e, err := scanExhibitor(s.db.QueryRowContext(ctx, s.db.Rebind(query), url))
	if err == sql.ErrNoRows {
		return nil, ErrExhibitorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query exhibitor: %w", err)
	}

	return e, nil
}

// ListExhibitors lists exhibitors ordered by category then url.
func (s *ExhibitorStore) ListExhibitors(ctx context.Context, filter ExhibitorFilter) ([]Exhibitor, error) {
	query := selectColumns

	var whereClauses []string
	var args []any

	if filter.Done != nil {
		whereClauses = append(whereClauses, "is_done = ?")
		args = append(args, *filter.Done)
	}
	if filter.Category != "" {
		whereClauses = append(whereClauses, "category_name = ?")
		args = append(args, filter.Category)
	}

	if len(whereClauses) > 0 {
		query += " WHERE " + strings.Join(whereClauses, " AND ")
	}

	query += " ORDER BY category_name, url"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query exhibitors: %w", err)
	}
	defer rows.Close()

	var exhibitors []Exhibitor
	for rows.Next() {
		e, err := scanExhibitor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exhibitor: %w", err)
		}
		exhibitors = append(exhibitors, *e)
	}

	return exhibitors, rows.Err()
}

// ListPending returns exhibitors not yet scraped.
func (s *ExhibitorStore) ListPending(ctx context.Context, limit int) ([]Exhibitor, error) {
	done := false
	return s.ListExhibitors(ctx, ExhibitorFilter{Done: &done, Limit: limit})
}

// ListDone returns exhibitors that have been scraped.
func (s *ExhibitorStore) ListDone(ctx context.Context) ([]Exhibitor, error) {
	done := true
	return s.ListExhibitors(ctx, ExhibitorFilter{Done: &done})
}

// CountByCategory returns pending and done counts per category.
func (s *ExhibitorStore) CountByCategory(ctx context.Context) ([]Counts, error) {
	query := `
		SELECT category_name,
		       SUM(CASE WHEN is_done THEN 0 ELSE 1 END),
		       SUM(CASE WHEN is_done THEN 1 ELSE 0 END)
		FROM exhibitor
		GROUP BY category_name
		ORDER BY category_name
	`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count exhibitors: %w", err)
	}
	defer rows.Close()

	var counts []Counts
	for rows.Next() {
		var c Counts
		if err := rows.Scan(&c.Category, &c.Pending, &c.Done); err != nil {
			return nil, fmt.Errorf("failed to scan counts: %w", err)
		}
		counts = append(counts, c)
	}

	return counts, rows.Err()
}

// Field returns the value of a scraped column by name.
func (e *Exhibitor) Field(name string) string {
	switch name {
	case "url":
		return e.URL
	case "category_name":
		return e.CategoryName
	case "address":
		return e.Address
	case "business_type":
		return e.BusinessType
	case "city_province":
		return e.CityProvince
	case "company_name":
		return e.CompanyName
	case "exhibition_records":
		return e.ExhibitionRecords
	case "international_commercial_terms":
		return e.InternationalCommercialTerms
	case "main_products":
		return e.MainProducts
	case "number_of_staff":
		return e.NumberOfStaff
	case "post_code":
		return e.PostCode
	case "registered_capital":
		return e.RegisteredCapital
	case "target_customer":
		return e.TargetCustomer
	case "website":
		return e.Website
	}
	return ""
}

const selectColumns = `
	SELECT url, category_name, address, business_type, city_province,
	       company_name, exhibition_records, international_commercial_terms,
	       main_products, number_of_staff, post_code, registered_capital,
	       target_customer, website, is_done
	FROM exhibitor
`

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanExhibitor is a shared helper that parses SQL row data into an
// Exhibitor struct.
func scanExhibitor(row scanner) (*Exhibitor, error) {
	var e Exhibitor
	err := row.Scan(
		&e.URL, &e.CategoryName, &e.Address, &e.BusinessType, &e.CityProvince,
		&e.CompanyName, &e.ExhibitionRecords, &e.InternationalCommercialTerms,
		&e.MainProducts, &e.NumberOfStaff, &e.PostCode, &e.RegisteredCapital,
		&e.TargetCustomer, &e.Website, &e.IsDone,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
