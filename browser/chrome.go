package browser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ChromeOptions configures the headless Chrome session.
type ChromeOptions struct {
	Headless     bool
	UserAgent    string
	WindowWidth  int
	WindowHeight int
	// PollInterval is how often WaitText re-checks the page.
	PollInterval time.Duration
	// NavigateTimeout caps the wait for a page's load event.
	NavigateTimeout time.Duration
	// ClickTimeout caps the wait for a clicked element to become visible.
	ClickTimeout time.Duration
	// Limiter throttles navigations and clicks. Nil means unthrottled.
	Limiter *rate.Limiter
	Logger  *zap.Logger
}

// DefaultChromeOptions matches the virtual display size the directory pages
// were laid out for.
func DefaultChromeOptions() ChromeOptions {
	return ChromeOptions{
		Headless:     true,
		WindowWidth:  1024,
		WindowHeight: 800,
		PollInterval:    500 * time.Millisecond,
		NavigateTimeout: 5 * time.Minute,
		ClickTimeout:    5 * time.Minute,
		Logger:          zap.NewNop(),
	}
}

// Chrome drives a real browser through the DevTools protocol.
type Chrome struct {
	ctx           context.Context
	cancelAlloc   context.CancelFunc
	cancelBrowser context.CancelFunc
	opts          ChromeOptions
	logger        *zap.Logger
	url           string

	// exec runs actions against the tab; chromedp.Run outside of tests.
	exec func(context.Context, ...chromedp.Action) error
}

// NewChrome starts a browser. The session lives until Close is called or
// ctx is cancelled.
func NewChrome(ctx context.Context, opts ChromeOptions) (*Chrome, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	defaults := DefaultChromeOptions()
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaults.PollInterval
	}
	if opts.NavigateTimeout <= 0 {
		opts.NavigateTimeout = defaults.NavigateTimeout
	}
	if opts.ClickTimeout <= 0 {
		opts.ClickTimeout = defaults.ClickTimeout
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}

	logger := opts.Logger.Named("chrome")
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(logger.Sugar().Debugf),
		chromedp.WithErrorf(logger.Sugar().Warnf),
	)

	// Run with no actions to launch the browser now rather than on first use
	if err := chromedp.Run(browserCtx); err != nil {
		cancelBrowser()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start chrome: %w", err)
	}

	return &Chrome{
		ctx:           browserCtx,
		cancelAlloc:   cancelAlloc,
		cancelBrowser: cancelBrowser,
		opts:          opts,
		logger:        logger,
		exec:          chromedp.Run,
	}, nil
}

// Navigate loads url and waits for the load event, for at most
// NavigateTimeout.
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	if err := c.throttle(ctx); err != nil {
		return err
	}

	c.logger.Debug("navigate", zap.String("url", url))
	if err := c.run(ctx, c.opts.NavigateTimeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", url, err)
	}
	c.url = url

	return nil
}

// WaitPresent waits until selector matches an element in the DOM.
func (c *Chrome) WaitPresent(ctx context.Context, selector string, timeout time.Duration) error {
	if err := c.run(ctx, timeout, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("waiting for %q: %w", selector, err)
	}
	return nil
}

// WaitText polls until an element matching selector has the given text.
func (c *Chrome) WaitText(ctx context.Context, selector, text string, timeout time.Duration) error {
	js := fmt.Sprintf(
		`Array.from(document.querySelectorAll(%s)).some(e => e.textContent.trim() === %s)`,
		jsString(selector), jsString(text),
	)

	deadline := time.Now().Add(timeout)
	for {
		var ok bool
		if err := c.run(ctx, 0, chromedp.Evaluate(js, &ok)); err != nil {
			return fmt.Errorf("waiting for %q to show %q: %w", selector, text, err)
		}
		if ok {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: %q never showed %q", ErrTimeout, selector, text)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.opts.PollInterval):
		}
	}
}

// Click clicks the first element matching selector. It fails fast with
// ErrNotFound instead of waiting for the element to appear. An element that
// exists but never becomes visible fails with ErrTimeout after ClickTimeout.
func (c *Chrome) Click(ctx context.Context, selector string) error {
	var exists bool
	js := fmt.Sprintf(`document.querySelector(%s) !== null`, jsString(selector))
	if err := c.run(ctx, 0, chromedp.Evaluate(js, &exists)); err != nil {
		return fmt.Errorf("looking up %q: %w", selector, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s", ErrNotFound, selector)
	}

	if err := c.throttle(ctx); err != nil {
		return err
	}

	if err := c.run(ctx, c.opts.ClickTimeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible)); err != nil {
		return fmt.Errorf("failed to click %q: %w", selector, err)
	}

	return nil
}

// Document returns the current DOM parsed with goquery.
func (c *Chrome) Document(ctx context.Context) (*goquery.Document, error) {
	var html, location string
	err := c.run(ctx, 0,
		chromedp.Location(&location),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	c.url = location

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	setDocumentURL(doc, location)

	return doc, nil
}

// URL returns the last known page address.
func (c *Chrome) URL() string {
	return c.url
}

// Close shuts the browser down.
func (c *Chrome) Close() error {
	c.cancelBrowser()
	c.cancelAlloc()
	return nil
}

// run executes actions on the browser tab. The tab context is separate from
// ctx, so ctx cancellation and the timeout are both layered on top of it.
func (c *Chrome) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(c.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(c.ctx)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := c.exec(runCtx, actions...)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return err
}

func (c *Chrome) throttle(ctx context.Context) error {
	if c.opts.Limiter == nil {
		return nil
	}
	return c.opts.Limiter.Wait(ctx)
}

// jsString renders s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
