package scraper

import (
	"context"
	"time"

	"nepse-observer/src/helpers"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"
	"nepse-observer/src/utils"

	"github.com/chromedp/chromedp"
)

// -----------------------------------------------------------------------------

// NepseScraper bundles a browser with the extraction logic for one scrape
// run. Callers must Close it even when an operation fails.
type NepseScraper struct {
	browser   *Browser
	cfg       models.MScraperConfig
	imageDir  string
	utcOffset int
	logger    *logger.Logger
}

// -----------------------------------------------------------------------------

// NewNepseScraper launches a browser dedicated to this scraper instance.
// imageDir may be empty, which disables logo persistence.
func NewNepseScraper(browserCfg models.MBrowserConfig, scraperCfg models.MScraperConfig, imageDir string, utcOffsetMinutes int, log *logger.Logger) (*NepseScraper, error) {
	browser, err := NewBrowser(browserCfg, log)
	if err != nil {
		return nil, err
	}
	return &NepseScraper{
		browser:   browser,
		cfg:       scraperCfg,
		imageDir:  imageDir,
		utcOffset: utcOffsetMinutes,
		logger:    log,
	}, nil
}

// -----------------------------------------------------------------------------

// tradingDate is the exchange-local calendar date for the current instant.
func (s *NepseScraper) tradingDate() string {
	return utils.TradingDate(time.Now(), s.utcOffset)
}

// -----------------------------------------------------------------------------

// ScrapeMarketStatus classifies the exchange as open or closed from the
// landing page text. Every failure path, including an unrecognised page,
// classifies as closed; the caller always gets a boolean.
func (s *NepseScraper) ScrapeMarketStatus(ctx context.Context) bool {
	pageCtx, cancel, err := s.browser.NewPage(ctx)
	if err != nil {
		s.logger.Error("failed to open status page: %v", err)
		return false
	}
	defer cancel()

	navCtx, navCancel := context.WithTimeout(pageCtx, time.Duration(s.cfg.NavTimeoutSeconds)*time.Second)
	defer navCancel()

	var bodyText string
	err = chromedp.Run(navCtx,
		chromedp.Navigate(s.cfg.BaseURL),
		chromedp.WaitReady("body"),
		chromedp.Text("body", &bodyText, chromedp.ByQuery),
	)
	if err != nil {
		s.logger.Error("failed to check market status: %v", err)
		return false
	}

	isOpen, recognized := ExtractMarketStatus(bodyText)
	if !recognized {
		// Conservative default when the page shows neither marker.
		s.logger.Warning("market status ambiguous from page text, assuming closed")
		return false
	}
	return isOpen
}

// -----------------------------------------------------------------------------

// ScrapeMarketIndex reads the headline index figures from the landing page
// and stamps them with the exchange-local trading date.
func (s *NepseScraper) ScrapeMarketIndex(ctx context.Context) (*models.MMarketIndex, error) {
	pageCtx, cancel, err := s.browser.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	navCtx, navCancel := context.WithTimeout(pageCtx, time.Duration(s.cfg.NavTimeoutSeconds)*time.Second)
	defer navCancel()

	var html string
	err = chromedp.Run(navCtx,
		chromedp.Navigate(s.cfg.BaseURL),
		chromedp.WaitReady("body"),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return nil, helpers.NewNavigationError("failed to load landing page for index", err)
	}

	index, err := ExtractMarketIndex(html)
	if err != nil {
		return nil, helpers.NewExtractionError("failed to extract market index", err)
	}
	index.TradingDate = s.tradingDate()
	return &index, nil
}

// -----------------------------------------------------------------------------

// Close releases the underlying browser process.
func (s *NepseScraper) Close() error {
	return s.browser.Close()
}
