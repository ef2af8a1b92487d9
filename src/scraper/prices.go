package scraper

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"nepse-observer/src/helpers"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"

	"github.com/chromedp/chromedp"
)

// -----------------------------------------------------------------------------

const (
	rowSelector        = "table tbody tr"
	perPageSelector    = `select[name^="per_page"], select.items-per-page`
	nextButtonSelector = `li.pagination-next:not(.disabled) a, a[aria-label="Next"], button.next`
)

// -----------------------------------------------------------------------------

// pricePager abstracts one paginated price table: extract the current page's
// rows, then advance. NextPage reports false when no enabled next control
// exists, which ends the walk.
type pricePager interface {
	ExtractRecords() ([]models.MPriceRecord, error)
	NextPage() (bool, error)
}

// -----------------------------------------------------------------------------

// collectPriceRows walks the pager until the next control disappears or the
// page ceiling is hit. The ceiling guards against a pagination control that
// never disables itself.
func collectPriceRows(pager pricePager, pageLimit int, log *logger.Logger) ([]models.MPriceRecord, error) {
	var all []models.MPriceRecord

	for pageNum := 1; pageNum <= pageLimit; pageNum++ {
		records, err := pager.ExtractRecords()
		if err != nil {
			return all, helpers.NewExtractionError(fmt.Sprintf("page %d extraction failed", pageNum), err)
		}
		log.Debug("page %d yielded %d rows", pageNum, len(records))
		all = append(all, records...)

		advanced, err := pager.NextPage()
		if err != nil {
			return all, helpers.NewNavigationError(fmt.Sprintf("pagination failed after page %d", pageNum), err)
		}
		if !advanced {
			return all, nil
		}
	}

	log.Warning("pagination ceiling of %d pages reached, stopping walk", pageLimit)
	return all, nil
}

// -----------------------------------------------------------------------------

// chromePager drives a live price-table tab.
type chromePager struct {
	ctx          context.Context
	businessDate string
	settleDelay  time.Duration
}

func (p *chromePager) ExtractRecords() ([]models.MPriceRecord, error) {
	var html string
	if err := chromedp.Run(p.ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return nil, err
	}
	return ExtractPriceRows(html, p.businessDate)
}

func (p *chromePager) NextPage() (bool, error) {
	var html string
	if err := chromedp.Run(p.ctx, chromedp.OuterHTML("html", &html)); err != nil {
		return false, err
	}
	enabled, err := ExtractNextPageEnabled(html)
	if err != nil || !enabled {
		return false, err
	}

	// The table swaps rows in place without a navigation event to wait on:
	// wait for rows to be present again, then apply the settle delay as the
	// floor for the in-place swap to finish.
	err = chromedp.Run(p.ctx,
		chromedp.Click(nextButtonSelector, chromedp.ByQuery),
		chromedp.WaitVisible(rowSelector, chromedp.ByQuery),
		chromedp.Sleep(p.settleDelay),
	)
	if err != nil {
		return false, err
	}
	return true, nil
}

// -----------------------------------------------------------------------------

// ScrapeTodayPrices walks the paginated daily price table end to end and
// returns every usable row. An empty table is an empty result, not an error.
func (s *NepseScraper) ScrapeTodayPrices(ctx context.Context) ([]models.MPriceRecord, error) {
	pageCtx, cancel, err := s.browser.NewPage(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	navCtx, navCancel := context.WithTimeout(pageCtx, time.Duration(s.cfg.PriceNavTimeoutSeconds)*time.Second)
	defer navCancel()
	if err := chromedp.Run(navCtx, chromedp.Navigate(s.cfg.PriceURL)); err != nil {
		return nil, helpers.NewNavigationError("failed to load price page", err)
	}

	// If no row shows up within the wait, the day has no published prices.
	waitCtx, waitCancel := context.WithTimeout(pageCtx, time.Duration(s.cfg.PriceTableTimeoutSeconds)*time.Second)
	defer waitCancel()
	if err := chromedp.Run(waitCtx, chromedp.WaitVisible(rowSelector, chromedp.ByQuery)); err != nil {
		s.logger.Warning("no price table rows appeared, returning empty result")
		return nil, nil
	}

	s.selectLargestPageSize(pageCtx)

	pager := &chromePager{
		ctx:          pageCtx,
		businessDate: s.tradingDate(),
		settleDelay:  time.Duration(s.cfg.PageSettleDelaySeconds) * time.Second,
	}
	return collectPriceRows(pager, s.cfg.PageLimit, s.logger)
}

// -----------------------------------------------------------------------------

// selectLargestPageSize is best effort; the per-page control is absent on
// some renderings of the table.
func (s *NepseScraper) selectLargestPageSize(pageCtx context.Context) {
	var values []string
	err := chromedp.Run(pageCtx, chromedp.Evaluate(
		`Array.from(document.querySelectorAll('`+perPageSelector+` option')).map(o => o.value)`, &values))
	if err != nil || len(values) == 0 {
		return
	}

	max := ""
	maxVal := -1
	for _, v := range values {
		if n, err := strconv.Atoi(v); err == nil && n > maxVal {
			maxVal = n
			max = v
		}
	}
	if max == "" {
		return
	}

	s.logger.Debug("setting items per page to %s", max)
	err = chromedp.Run(pageCtx,
		chromedp.SetValue(perPageSelector, max, chromedp.ByQuery),
		chromedp.Sleep(time.Duration(s.cfg.PageSettleDelaySeconds)*time.Second),
	)
	if err != nil {
		s.logger.Debug("per-page selection failed: %v", err)
	}
}
