package interfaces

import (
	"context"

	"nepse-observer/src/models"
)

// -----------------------------------------------------------------------------
// IMarketScraper defines the contract for browser-backed market scraping.
// -----------------------------------------------------------------------------

type IMarketScraper interface {

	// -----------------------------------------------------------------------------

	// ScrapeMarketStatus classifies the exchange as open or closed. Any page
	// failure or unrecognised wording classifies as closed.
	ScrapeMarketStatus(ctx context.Context) bool

	// -----------------------------------------------------------------------------

	// ScrapeTodayPrices walks the paginated price table and returns every
	// usable row.
	ScrapeTodayPrices(ctx context.Context) ([]models.MPriceRecord, error)

	// -----------------------------------------------------------------------------

	// ScrapeMarketIndex reads the headline index figures from the landing page.
	ScrapeMarketIndex(ctx context.Context) (*models.MMarketIndex, error)

	// -----------------------------------------------------------------------------

	// ScrapeCompanyDetails visits each security page in order, handing
	// completed batches to the sink as it goes. A failing entity is skipped.
	ScrapeCompanyDetails(ctx context.Context, refs []models.MSecurityRef, sink IBatchSink) error

	// -----------------------------------------------------------------------------

	// Close releases the underlying browser.
	Close() error
}

// -----------------------------------------------------------------------------
// IBatchSink receives completed detail batches during a sweep.
// -----------------------------------------------------------------------------

type IBatchSink interface {
	SaveBatch(details []models.MCompanyDetail) error
}

// -----------------------------------------------------------------------------

// BatchSinkFunc adapts a plain function to IBatchSink.
type BatchSinkFunc func(details []models.MCompanyDetail) error

func (f BatchSinkFunc) SaveBatch(details []models.MCompanyDetail) error {
	return f(details)
}
