package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrUnsupportedDriver is returned for drivers other than sqlite3 and
// postgres.
var ErrUnsupportedDriver = errors.New("driver must be sqlite3 or postgres")

// Driver names accepted by Open.
const (
	SQLite   = "sqlite3"
	Postgres = "postgres"
)

// DB wraps a database handle together with the placeholder dialect of its
// driver. Queries are written with ? placeholders and rebound for Postgres.
type DB struct {
	*sql.DB
	driver string
}

// Open opens the database and creates the exhibitor, product and size tables
// if they don't exist.
func Open(driver, dsn string) (*DB, error) {
	if driver != SQLite && driver != Postgres {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == SQLite {
		// One writer; also keeps foreign keys enabled on the single
		// connection.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{DB: conn, driver: driver}
	if err := db.initSchema(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

// Driver returns the driver name the database was opened with.
func (db *DB) Driver() string {
	return db.driver
}

// Rebind rewrites ? placeholders into $1, $2, ... for Postgres. Queries for
// SQLite are returned unchanged.
func (db *DB) Rebind(query string) string {
	if db.driver != Postgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// initSchema creates the tables if they don't exist.
func (db *DB) initSchema() error {
	var statements []string
	if db.driver == SQLite {
		statements = append(statements, "PRAGMA foreign_keys = ON")
	}
	statements = append(statements, exhibitorSchema, db.productSchema(), sizeSchema)

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

const exhibitorSchema = `
	CREATE TABLE IF NOT EXISTS exhibitor (
		url TEXT PRIMARY KEY,
		category_name TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		business_type TEXT NOT NULL DEFAULT '',
		city_province TEXT NOT NULL DEFAULT '',
		company_name TEXT NOT NULL DEFAULT '',
		exhibition_records TEXT NOT NULL DEFAULT '',
		international_commercial_terms TEXT NOT NULL DEFAULT '',
		main_products TEXT NOT NULL DEFAULT '',
		number_of_staff TEXT NOT NULL DEFAULT '',
		post_code TEXT NOT NULL DEFAULT '',
		registered_capital TEXT NOT NULL DEFAULT '',
		target_customer TEXT NOT NULL DEFAULT '',
		website TEXT NOT NULL DEFAULT '',
		is_done BOOLEAN NOT NULL DEFAULT FALSE
	)
`

// productSchema differs only in the price column type: SQLite has no fixed
// point type, so the decimal is stored as text.
func (db *DB) productSchema() string {
	priceType := "NUMERIC(12, 2)"
	if db.driver == SQLite {
		priceType = "TEXT"
	}

	return fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS product (
		id TEXT PRIMARY KEY,
		product_url TEXT NOT NULL UNIQUE,
		name_url TEXT NOT NULL DEFAULT '',
		back_picture TEXT NOT NULL DEFAULT '',
		colors TEXT NOT NULL DEFAULT '',
		description_html TEXT NOT NULL DEFAULT '',
		description_text TEXT NOT NULL DEFAULT '',
		front_picture TEXT NOT NULL DEFAULT '',
		manufacturer TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		price_cleaned %s NOT NULL,
		created_at TEXT NOT NULL
	)
`, priceType)
}

const sizeSchema = `
	CREATE TABLE IF NOT EXISTS size (
		product_id TEXT NOT NULL REFERENCES product(id) ON DELETE CASCADE,
		available BOOLEAN NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (product_id, value)
	)
`
