package main

import (
	"context"
	"testing"

	"github.com/pevans/fairscrape/browser"
	"github.com/pevans/fairscrape/config"
	"github.com/pevans/fairscrape/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategoryArgs(t *testing.T) {
	cfg = &config.Config{Profile: scraper.CantonFair()}
	t.Cleanup(func() { cfg = nil })

	got, err := categoryArgs([]string{"http://fair.example.com/a"})
	require.NoError(t, err)
	assert.Equal(t, []string{"http://fair.example.com/a"}, got)

	got, err = categoryArgs(nil)
	require.NoError(t, err)
	assert.Len(t, got, 20)

	cfg.Profile = scraper.FCMoto()
	_, err = categoryArgs(nil)
	assert.ErrorContains(t, err, "profile fcmoto has no categories")
}

// TestNewBrowser_Static verifies the static fetcher needs no browser binary
func TestNewBrowser_Static(t *testing.T) {
	profile := scraper.CantonFair()
	profile.Fetcher = "static"
	cfg = &config.Config{Profile: profile}
	t.Cleanup(func() { cfg = nil })

	b, err := newBrowser(context.Background())
	require.NoError(t, err)
	defer b.Close()
	assert.IsType(t, &browser.Static{}, b)

	cfg.Profile.Fetcher = "lynx"
	_, err = newBrowser(context.Background())
	assert.ErrorContains(t, err, `unknown fetcher "lynx"`)
}
