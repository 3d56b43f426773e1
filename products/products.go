package products

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pevans/fairscrape/storage"
	"github.com/shopspring/decimal"
)

// Custom errors for product operations
var (
	ErrProductNotFound = errors.New("product not found")
	ErrDuplicateURL    = errors.New("product with this URL already exists")
)

// ProductStore manages products and their sizes.
type ProductStore struct {
	db *storage.DB
}

// Product is a scraped shop product. Products are written once and never
// updated.
type Product struct {
	ID              uuid.UUID       `json:"id"`
	ProductURL      string          `json:"product_url"`
	NameURL         string          `json:"name_url"`
	BackPicture     string          `json:"back_picture"`
	Colors          string          `json:"colors"`
	DescriptionHTML string          `json:"description_html"`
	DescriptionText string          `json:"description_text"`
	FrontPicture    string          `json:"front_picture"`
	Manufacturer    string          `json:"manufacturer"`
	Name            string          `json:"name"`
	PriceCleaned    decimal.Decimal `json:"price_cleaned"`
	CreatedAt       time.Time       `json:"created_at"`
	Sizes           []Size          `json:"sizes"`
}

// Size is one size option of a product.
type Size struct {
	Value     string `json:"value"`
	Available bool   `json:"available"`
}

// NewProductStore creates a new product store on an open database.
func NewProductStore(db *storage.DB) *ProductStore {
	return &ProductStore{db: db}
}

// CreateProduct stores a product and its sizes in one transaction. The ID
// and CreatedAt fields are assigned here.
func (s *ProductStore) CreateProduct(ctx context.Context, p *Product) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC().Truncate(time.Second)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO product (
			id, product_url, name_url, back_picture, colors,
			description_html, description_text, front_picture,
			manufacturer, name, price_cleaned, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = tx.ExecContext(ctx, s.db.Rebind(query),
		p.ID.String(),
		p.ProductURL,
		p.NameURL,
		p.BackPicture,
		p.Colors,
		p.DescriptionHTML,
		p.DescriptionText,
		p.FrontPicture,
		p.Manufacturer,
		p.Name,
		p.PriceCleaned.StringFixed(2),
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		// Check for duplicate URL constraint violation
		if strings.Contains(err.Error(), "UNIQUE constraint") ||
			strings.Contains(err.Error(), "unique constraint") {
			return ErrDuplicateURL
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}

	sizeQuery := s.db.Rebind("INSERT INTO size (product_id, available, value) VALUES (?, ?, ?)")
	for _, size := range p.Sizes {
		if _, err := tx.ExecContext(ctx, sizeQuery, p.ID.String(), size.Available, size.Value); err != nil {
			return fmt.Errorf("failed to insert size %q: %w", size.Value, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product: %w", err)
	}

	return nil
}

// Exists reports whether a product with the given URL is stored.
func (s *ProductStore) Exists(ctx context.Context, productURL string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind("SELECT COUNT(*) FROM product WHERE product_url = ?"), productURL,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query product: %w", err)
	}
	return n > 0, nil
}

// GetProduct retrieves a product with its sizes by ID.
func (s *ProductStore) GetProduct(ctx context.Context, id uuid.UUID) (*Product, error) {
	p, err := scanProduct(s.db.QueryRowContext(ctx, s.db.Rebind(selectColumns+" WHERE id = ?"), id.String()))
	if err == sql.ErrNoRows {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	if err := s.loadSizes(ctx, p); err != nil {
		return nil, err
	}

	return p, nil
}

// ListProducts returns every product with its sizes. Products are ordered by
// name then URL; sizes are sorted by value.
func (s *ProductStore) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+" ORDER BY name, product_url")
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to read products: %w", err)
	}
	// Close before issuing size queries; SQLite runs on a single connection.
	rows.Close()

	for i := range products {
		if err := s.loadSizes(ctx, &products[i]); err != nil {
			return nil, err
		}
	}

	return products, nil
}

// Count returns the number of stored products.
func (s *ProductStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM product").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

func (s *ProductStore) loadSizes(ctx context.Context, p *Product) error {
	rows, err := s.db.QueryContext(ctx,
		s.db.Rebind("SELECT value, available FROM size WHERE product_id = ? ORDER BY value"),
		p.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to query sizes: %w", err)
	}
	defer rows.Close()

	p.Sizes = []Size{}
	for rows.Next() {
		var size Size
		if err := rows.Scan(&size.Value, &size.Available); err != nil {
			return fmt.Errorf("failed to scan size: %w", err)
		}
		p.Sizes = append(p.Sizes, size)
	}

	// Collation differs between drivers; sort here so the order is stable.
	sort.SliceStable(p.Sizes, func(i, j int) bool {
		return p.Sizes[i].Value < p.Sizes[j].Value
	})

	return rows.Err()
}

const selectColumns = `
	SELECT id, product_url, name_url, back_picture, colors,
	       description_html, description_text, front_picture,
	       manufacturer, name, price_cleaned, created_at
	FROM product
`

type scanner interface {
	Scan(dest ...any) error
}

func scanProduct(row scanner) (*Product, error) {
	var p Product
	var idStr, price, createdAt string

	err := row.Scan(
		&idStr, &p.ProductURL, &p.NameURL, &p.BackPicture, &p.Colors,
		&p.DescriptionHTML, &p.DescriptionText, &p.FrontPicture,
		&p.Manufacturer, &p.Name, &price, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	if p.ID, err = uuid.Parse(idStr); err != nil {
		return nil, fmt.Errorf("failed to parse product ID: %w", err)
	}
	if p.PriceCleaned, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("failed to parse price %q: %w", price, err)
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return &p, nil
}
