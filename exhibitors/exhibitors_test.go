package exhibitors

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pevans/fairscrape/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper: create a test exhibitor store
func createTestExhibitorStore(t *testing.T) *ExhibitorStore {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := storage.Open(storage.SQLite, dbPath)
	require.NoError(t, err, "should open database")
	t.Cleanup(func() { db.Close() })
	return NewExhibitorStore(db)
}

// Test helper: sample scraped details
func sampleDetails() Details {
	return Details{
		"address":                        "No. 1 Road",
		"business_type":                  "Manufacturer",
		"city_province":                  "Guangdong",
		"company_name":                   "Acme Co.",
		"exhibition_records":             "2019, 2020",
		"international_commercial_terms": "FOB",
		"main_products":                  "Widgets",
		"number_of_staff":                "100-200",
		"post_code":                      "510000",
		"registered_capital":             "1000000",
		"target_customer":                "Wholesalers",
		"website":                        "http://acme.example.com",
	}
}

// TestRegister_Insert verifies a new url becomes a pending row
func TestRegister_Insert(t *testing.T) {
	store := createTestExhibitorStore(t)
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, "http://example.com/a", "Tools"))

	e, err := store.GetExhibitor(ctx, "http://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "Tools", e.CategoryName)
	assert.False(t, e.IsDone)
	assert.Empty(t, e.CompanyName)
}

// TestRegister_Idempotent verifies registering twice keeps one row
func TestRegister_Idempotent(t *testing.T) {
	store := createTestExhibitorStore(t)
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, "http://example.com/a", "Tools"))
	require.NoError(t, store.Register(ctx, "http://example.com/a", "Tools"))

	all, err := store.ListExhibitors(ctx, ExhibitorFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.False(t, all[0].IsDone)
}

// TestRegister_KeepsDone verifies re-registration updates the category but
// never resets is_done or scraped fields
func TestRegister_KeepsDone(t *testing.T) {
	store := createTestExhibitorStore(t)
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, "http://example.com/a", "Tools"))
	require.NoError(t, store.Complete(ctx, "http://example.com/a", sampleDetails()))
	require.NoError(t, store.Register(ctx, "http://example.com/a", "Hardware"))

	e, err := store.GetExhibitor(ctx, "http://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "Hardware", e.CategoryName)
	assert.True(t, e.IsDone)
	assert.Equal(t, "Acme Co.", e.CompanyName)
}

func TestRegister_EmptyURL(t *testing.T) {
	store := createTestExhibitorStore(t)
	assert.ErrorIs(t, store.Register(context.Background(), "", "Tools"), ErrEmptyURL)
}

// TestComplete_FillsFields verifies all scraped columns are stored
func TestComplete_FillsFields(t *testing.T) {
	store := createTestExhibitorStore(t)
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, "http://example.com/a", "Tools"))
	require.NoError(t, store.Complete(ctx, "http://example.com/a", sampleDetails()))

	e, err := store.GetExhibitor(ctx, "http://example.com/a")
	require.NoError(t, err)
	assert.True(t, e.IsDone)
	for field, value := range sampleDetails() {
		assert.Equal(t, value, e.Field(field), field)
	}
}

// TestComplete_MissingKeysAreEmpty verifies partial details
func TestComplete_MissingKeysAreEmpty(t *testing.T) {
	store := createTestExhibitorStore(t)
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, "http://example.com/a", "Tools"))
	require.NoError(t, store.Complete(ctx, "http://example.com/a", Details{"company_name": "Acme"}))

	e, err := store.GetExhibitor(ctx, "http://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, "Acme", e.CompanyName)
	assert.Empty(t, e.Website)
	assert.True(t, e.IsDone)
}

// TestComplete_DoneRowUntouched verifies a done row is never rewritten
func TestComplete_DoneRowUntouched(t *testing.T) {
	store := createTestExhibitorStore(t)
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, "http://example.com/a", "Tools"))
	require.NoError(t, store.Complete(ctx, "http://example.com/a", sampleDetails()))

	before, err := store.GetExhibitor(ctx, "http://example.com/a")
	require.NoError(t, err)

	err = store.Complete(ctx, "http://example.com/a", Details{"company_name": "Other"})
	assert.ErrorIs(t, err, ErrAlreadyDone)

	after, err := store.GetExhibitor(ctx, "http://example.com/a")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestComplete_NotFound(t *testing.T) {
	store := createTestExhibitorStore(t)

	err := store.Complete(context.Background(), "http://example.com/missing", sampleDetails())
	assert.ErrorIs(t, err, ErrExhibitorNotFound)
}

func TestGetExhibitor_NotFound(t *testing.T) {
	store := createTestExhibitorStore(t)

	_, err := store.GetExhibitor(context.Background(), "http://example.com/missing")
	assert.ErrorIs(t, err, ErrExhibitorNotFound)
}

// TestListPending_OnlyPending verifies the work queue query
func TestListPending_OnlyPending(t *testing.T) {
	store := createTestExhibitorStore(t)
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, "http://example.com/a", "Tools"))
	require.NoError(t, store.Register(ctx, "http://example.com/b", "Tools"))
	require.NoError(t, store.Register(ctx, "http://example.com/c", "Hardware"))
	require.NoError(t, store.Complete(ctx, "http://example.com/b", sampleDetails()))

	pending, err := store.ListPending(ctx, 0)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, "http://example.com/c", pending[0].URL, "ordered by category then url")
	assert.Equal(t, "http://example.com/a", pending[1].URL)

	limited, err := store.ListPending(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	done, err := store.ListDone(ctx)
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "http://example.com/b", done[0].URL)
}

func TestListExhibitors_ByCategory(t *testing.T) {
	store := createTestExhibitorStore(t)
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, "http://example.com/a", "Tools"))
	require.NoError(t, store.Register(ctx, "http://example.com/b", "Hardware"))

	tools, err := store.ListExhibitors(ctx, ExhibitorFilter{Category: "Tools"})
	require.NoError(t, err)
	require.Len(t, tools, 1)
	assert.Equal(t, "http://example.com/a", tools[0].URL)
}

func TestCountByCategory(t *testing.T) {
	store := createTestExhibitorStore(t)
	ctx := context.Background()

	require.NoError(t, store.Register(ctx, "http://example.com/a", "Tools"))
	require.NoError(t, store.Register(ctx, "http://example.com/b", "Tools"))
	require.NoError(t, store.Register(ctx, "http://example.com/c", "Hardware"))
	require.NoError(t, store.Complete(ctx, "http://example.com/a", sampleDetails()))

	counts, err := store.CountByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Counts{
		{Category: "Hardware", Pending: 1, Done: 0},
		{Category: "Tools", Pending: 1, Done: 1},
	}, counts)
}
