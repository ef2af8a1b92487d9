package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"nepse-observer/src/helpers"
	"nepse-observer/src/interfaces"
	"nepse-observer/src/models"
	"nepse-observer/src/utils"

	"github.com/chromedp/chromedp"
)

// -----------------------------------------------------------------------------

// batchCollector accumulates completed details and hands them to the sink
// when the batch fills. The sink persists each batch immediately, so a crash
// mid-sweep loses at most one unflushed batch.
type batchCollector struct {
	size int
	sink interfaces.IBatchSink
	buf  []models.MCompanyDetail
}

func newBatchCollector(size int, sink interfaces.IBatchSink) *batchCollector {
	return &batchCollector{size: size, sink: sink}
}

// -----------------------------------------------------------------------------

func (b *batchCollector) Add(detail models.MCompanyDetail) error {
	b.buf = append(b.buf, detail)
	if len(b.buf) >= b.size {
		return b.Flush()
	}
	return nil
}

// -----------------------------------------------------------------------------

// Flush hands the buffered batch to the sink and clears it. A nil sink or
// empty buffer is a no-op.
func (b *batchCollector) Flush() error {
	if b.sink == nil || len(b.buf) == 0 {
		return nil
	}
	batch := b.buf
	b.buf = nil
	return b.sink.SaveBatch(batch)
}

// -----------------------------------------------------------------------------

// ScrapeCompanyDetails visits each security's detail page in order, one at a
// time, extracting the full profile. Batches of completed entities are
// flushed through the sink every batch-size successes and once more at the
// end. One entity failing never aborts its siblings.
func (s *NepseScraper) ScrapeCompanyDetails(ctx context.Context, refs []models.MSecurityRef, sink interfaces.IBatchSink) error {
	if len(refs) == 0 {
		return nil
	}

	s.logger.Info("starting company details scrape for %d securities", len(refs))

	pageCtx, cancel, err := s.browser.NewPage(ctx)
	if err != nil {
		return err
	}
	defer cancel()

	collector := newBatchCollector(s.cfg.DetailBatchSize, sink)
	businessDate := s.tradingDate()

	for i, ref := range refs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Detail pages fail transiently under load; one retry before the
		// entity is skipped for this sweep.
		res, err := helpers.RetryWithBackoff(ref.Symbol+" detail page", 2, 2*time.Second, func() (interface{}, error) {
			return s.scrapeOneDetail(pageCtx, ref)
		})
		if err != nil {
			s.logger.Error("failed to scrape details for %s: %v", ref.Symbol, err)
			continue
		}
		detail := res.(models.MCompanyDetail)
		detail.BusinessDate = businessDate

		if err := collector.Add(detail); err != nil {
			return helpers.NewDatabaseError("detail batch flush failed", err)
		}

		if (i+1)%s.cfg.DetailBatchSize == 0 {
			s.logger.Info("progress: %d/%d", i+1, len(refs))
		}
	}

	if err := collector.Flush(); err != nil {
		return helpers.NewDatabaseError("final detail batch flush failed", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *NepseScraper) scrapeOneDetail(pageCtx context.Context, ref models.MSecurityRef) (models.MCompanyDetail, error) {
	var detail models.MCompanyDetail
	url := fmt.Sprintf("%s/company/detail/%d", s.cfg.BaseURL, ref.SecurityID)

	navCtx, navCancel := context.WithTimeout(pageCtx, time.Duration(s.cfg.NavTimeoutSeconds)*time.Second)
	defer navCancel()
	if err := chromedp.Run(navCtx, chromedp.Navigate(url)); err != nil {
		return detail, helpers.NewNavigationError("failed to load detail page", err)
	}

	// Best effort: extraction falls back to defaults when the title never
	// renders.
	titleCtx, titleCancel := context.WithTimeout(pageCtx, time.Duration(s.cfg.DetailTitleTimeoutSeconds)*time.Second)
	if err := chromedp.Run(titleCtx, chromedp.WaitVisible(".company__title--details", chromedp.ByQuery)); err != nil {
		s.logger.Debug("detail title never appeared for %s", ref.Symbol)
	}
	titleCancel()

	s.revealProfileSection(pageCtx, ref.Symbol)

	var html string
	if err := chromedp.Run(pageCtx, chromedp.OuterHTML("html", &html)); err != nil {
		return detail, helpers.NewExtractionError("failed to capture detail page", err)
	}

	detail, err := ExtractCompanyDetail(html, s.cfg.BaseURL)
	if err != nil {
		return detail, err
	}
	detail.SecurityID = ref.SecurityID
	detail.Symbol = ref.Symbol
	s.persistLogo(&detail)
	return detail, nil
}

// -----------------------------------------------------------------------------

// persistLogo writes an inline data-URL logo to the image directory and
// rewrites the URL to the locally served path. Remote URLs pass through.
func (s *NepseScraper) persistLogo(detail *models.MCompanyDetail) {
	if s.imageDir == "" || !strings.HasPrefix(detail.LogoURL, "data:image/") {
		return
	}
	path, err := utils.SaveBase64Image(s.imageDir, detail.Symbol, detail.LogoURL)
	if err != nil {
		s.logger.Warning("failed to persist logo for %s: %v", detail.Symbol, err)
		return
	}
	detail.LogoURL = path
}

// -----------------------------------------------------------------------------

// revealProfileSection clicks the profile tab when present so the logo
// section renders. Absence of the tab is not an error.
func (s *NepseScraper) revealProfileSection(pageCtx context.Context, symbol string) {
	clickCtx, cancel := context.WithTimeout(pageCtx, 5*time.Second)
	defer cancel()

	err := chromedp.Run(clickCtx,
		chromedp.Click("#profileTab", chromedp.ByID),
		chromedp.Sleep(time.Second),
	)
	if err != nil {
		s.logger.Debug("no profile tab for %s", symbol)
	}
}
