package scraper

import (
	"testing"

	"nepse-observer/src/logger"
	"nepse-observer/src/models"
)

// -----------------------------------------------------------------------------

// fakePager serves a fixed number of pages, two rows each.
type fakePager struct {
	pages     int
	served    int
	nextCalls int
}

func (p *fakePager) ExtractRecords() ([]models.MPriceRecord, error) {
	p.served++
	return []models.MPriceRecord{
		{Symbol: "AAA", ClosePrice: float64(p.served)},
		{Symbol: "BBB", ClosePrice: float64(p.served)},
	}, nil
}

func (p *fakePager) NextPage() (bool, error) {
	p.nextCalls++
	return p.nextCalls < p.pages, nil
}

// -----------------------------------------------------------------------------

func TestCollectPriceRowsWalksAllPages(t *testing.T) {
	log := logger.NewLogger("test", "error", "")

	pager := &fakePager{pages: 3}
	records, err := collectPriceRows(pager, 50, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pager.served != 3 {
		t.Errorf("expected 3 pages extracted, got %d", pager.served)
	}
	if len(records) != 6 {
		t.Errorf("expected 6 records across 3 pages, got %d", len(records))
	}
}

// -----------------------------------------------------------------------------

// endlessPager always reports another page, like a pagination control that
// never disables itself.
type endlessPager struct {
	served int
}

func (p *endlessPager) ExtractRecords() ([]models.MPriceRecord, error) {
	p.served++
	return []models.MPriceRecord{{Symbol: "AAA"}}, nil
}

func (p *endlessPager) NextPage() (bool, error) {
	return true, nil
}

// -----------------------------------------------------------------------------

func TestCollectPriceRowsHonorsCeiling(t *testing.T) {
	log := logger.NewLogger("test", "error", "")

	pager := &endlessPager{}
	records, err := collectPriceRows(pager, 50, log)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if pager.served != 50 {
		t.Errorf("expected exactly 50 pages extracted, got %d", pager.served)
	}
	if len(records) != 50 {
		t.Errorf("expected 50 records, got %d", len(records))
	}
}
