package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// Test helper: create a Chrome whose tab never finishes an action
func newHangingChrome(opts ChromeOptions) *Chrome {
	return &Chrome{
		ctx:    context.Background(),
		opts:   opts,
		logger: zap.NewNop(),
		exec: func(ctx context.Context, _ ...chromedp.Action) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}
}

func TestChromeNavigate_Timeout(t *testing.T) {
	opts := DefaultChromeOptions()
	opts.NavigateTimeout = 20 * time.Millisecond
	c := newHangingChrome(opts)

	start := time.Now()
	err := c.Navigate(context.Background(), "http://fair.example.com/slow")

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), time.Second)
	assert.Empty(t, c.URL(), "a page that never loaded is not the current page")
}

func TestChromeRun_TimeoutIsTerminal(t *testing.T) {
	c := newHangingChrome(DefaultChromeOptions())

	err := c.run(context.Background(), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.True(t, IsStall(err))
}

func TestChromeRun_CallerCancelled(t *testing.T) {
	c := newHangingChrome(DefaultChromeOptions())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	err := c.run(ctx, time.Minute)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, errors.Is(err, ErrTimeout), "cancellation is not a page timeout")
}

func TestChromeClick_MissingElement(t *testing.T) {
	c := newHangingChrome(DefaultChromeOptions())
	// The existence check evaluates to false without touching a browser
	c.exec = func(context.Context, ...chromedp.Action) error { return nil }

	err := c.Click(context.Background(), `.pagenumber > a[_pageindex="7"]`)
	assert.ErrorIs(t, err, ErrNotFound)
}
