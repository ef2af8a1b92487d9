package scraper

import (
	"context"
	"fmt"

	"nepse-observer/src/logger"
	"nepse-observer/src/models"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// -----------------------------------------------------------------------------

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// -----------------------------------------------------------------------------

// Browser owns one chromium process shared by every page of a scrape run.
// Close must always be called, even when a scrape fails midway.
type Browser struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	browserCtx  context.Context
	cancel      context.CancelFunc
	blocked     map[network.ResourceType]bool
	logger      *logger.Logger
}

// -----------------------------------------------------------------------------

// NewBrowser launches chromium and verifies it is usable before returning.
func NewBrowser(cfg models.MBrowserConfig, log *logger.Logger) (*Browser, error) {
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if cfg.NoSandbox {
		opts = append(opts, chromedp.Flag("no-sandbox", true))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {
		// Suppress chromedp's own protocol chatter
	}))

	// Start the browser eagerly so a broken chromium install fails here and
	// not in the middle of the first scheduled job.
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	blocked := make(map[network.ResourceType]bool)
	for _, name := range cfg.BlockedResources {
		blocked[network.ResourceType(name)] = true
	}

	return &Browser{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		browserCtx:  browserCtx,
		cancel:      cancel,
		blocked:     blocked,
		logger:      log,
	}, nil
}

// -----------------------------------------------------------------------------

// NewPage opens a fresh tab with request interception installed. The returned
// cancel func closes the tab; the browser itself stays up.
func (b *Browser) NewPage(ctx context.Context) (context.Context, context.CancelFunc, error) {
	pageCtx, pageCancel := chromedp.NewContext(b.browserCtx)

	// Propagate caller cancellation into the tab.
	stop := context.AfterFunc(ctx, pageCancel)
	cancel := func() {
		stop()
		pageCancel()
	}

	b.installResourceBlocking(pageCtx)

	if err := chromedp.Run(pageCtx, fetch.Enable()); err != nil {
		cancel()
		return nil, nil, fmt.Errorf("failed to enable request interception: %w", err)
	}

	return pageCtx, cancel, nil
}

// -----------------------------------------------------------------------------

// installResourceBlocking fails any intercepted request whose resource type
// is on the block list and lets everything else through.
func (b *Browser) installResourceBlocking(pageCtx context.Context) {
	chromedp.ListenTarget(pageCtx, func(ev interface{}) {
		if e, ok := ev.(*fetch.EventRequestPaused); ok {
			go func() {
				c := chromedp.FromContext(pageCtx)
				ectx := cdp.WithExecutor(pageCtx, c.Target)
				if b.blocked[e.ResourceType] {
					if err := fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(ectx); err != nil {
						b.logger.Debug("failed to block %s request: %v", e.ResourceType, err)
					}
					return
				}
				if err := fetch.ContinueRequest(e.RequestID).Do(ectx); err != nil {
					b.logger.Debug("failed to continue request: %v", err)
				}
			}()
		}
	})
}

// -----------------------------------------------------------------------------

// Close tears down the chromium process. Safe to call more than once.
func (b *Browser) Close() error {
	b.cancel()
	b.allocCancel()
	return nil
}
