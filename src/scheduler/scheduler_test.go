package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"nepse-observer/src/interfaces"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"
)

// -----------------------------------------------------------------------------

// memDB records every write in memory.
type memDB struct {
	mu             sync.Mutex
	prices         [][]models.MPriceRecord
	details        [][]models.MCompanyDetail
	statusUpdates  []bool
	indexSnapshots []models.MMarketIndex
	missingRefs    []models.MSecurityRef
}

func (m *memDB) Initialize() error { return nil }

func (m *memDB) SavePrices(prices []models.MPriceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices = append(m.prices, prices)
	return nil
}

func (m *memDB) SaveCompanyDetails(details []models.MCompanyDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details = append(m.details, details)
	return nil
}

func (m *memDB) UpdateMarketStatus(isOpen bool, tradingDate string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusUpdates = append(m.statusUpdates, isOpen)
	return nil
}

func (m *memDB) SaveMarketIndex(index models.MMarketIndex) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexSnapshots = append(m.indexSnapshots, index)
	return nil
}

func (m *memDB) GetAllSecurityIds() ([]models.MSecurityRef, error) { return nil, nil }
func (m *memDB) GetSecurityIdsWithoutDetails() ([]models.MSecurityRef, error) {
	return m.missingRefs, nil
}
func (m *memDB) SearchStocks(query string) ([]models.MCompanyDetail, error) { return nil, nil }
func (m *memDB) GetLatestPrices() ([]models.MPriceRecord, error) { return nil, nil }
func (m *memDB) GetScriptDetails(symbol string) (*models.MCompanyDetail, error) {
	return nil, nil
}
func (m *memDB) GetAllCompanies() ([]models.MCompanyDetail, error) { return nil, nil }
func (m *memDB) GetCompaniesBySector(sector string) ([]models.MCompanyDetail, error) {
	return nil, nil
}
func (m *memDB) GetTopCompaniesByMarketCap(limit int) ([]models.MCompanyDetail, error) {
	return nil, nil
}
func (m *memDB) GetCompanyStats() (*models.MCompanyStats, error) { return nil, nil }
func (m *memDB) GetMarketStatus() (*models.MMarketStatus, error) { return nil, nil }
func (m *memDB) GetMarketIndex() (*models.MMarketIndex, error) { return nil, nil }
func (m *memDB) Close() error { return nil }

// -----------------------------------------------------------------------------

// stubScraper returns canned results; block makes the price scrape wait for
// release so overlap behaviour can be exercised.
type stubScraper struct {
	open    bool
	prices  []models.MPriceRecord
	index   *models.MMarketIndex
	block   chan struct{}
	details []models.MCompanyDetail
}

func (s *stubScraper) ScrapeMarketStatus(ctx context.Context) bool { return s.open }

func (s *stubScraper) ScrapeTodayPrices(ctx context.Context) ([]models.MPriceRecord, error) {
	if s.block != nil {
		<-s.block
	}
	return s.prices, nil
}

func (s *stubScraper) ScrapeMarketIndex(ctx context.Context) (*models.MMarketIndex, error) {
	if s.index == nil {
		return nil, context.DeadlineExceeded
	}
	return s.index, nil
}

func (s *stubScraper) ScrapeCompanyDetails(ctx context.Context, refs []models.MSecurityRef, sink interfaces.IBatchSink) error {
	return sink.SaveBatch(s.details)
}

func (s *stubScraper) Close() error { return nil }

// -----------------------------------------------------------------------------

func newTestScheduler(db *memDB, scr *stubScraper) *JobScheduler {
	factory := ScraperFactory(func() (interfaces.IMarketScraper, error) { return scr, nil })
	cfg := models.MScheduleConfig{
		Timezone:         "Asia/Kathmandu",
		UTCOffsetMinutes: 345,
	}
	return NewJobScheduler(db, factory, cfg, logger.NewLogger("test", "error", ""))
}

// -----------------------------------------------------------------------------

func TestTickPersistsStatusIndexAndPrices(t *testing.T) {
	db := &memDB{}
	scr := &stubScraper{
		open:   true,
		prices: []models.MPriceRecord{{Symbol: "NABIL", ClosePrice: 505}},
		index:  &models.MMarketIndex{NepseIndex: 2145.67, TradingDate: "2026-08-28"},
	}
	s := newTestScheduler(db, scr)

	s.UpdatePricesAndStatus(TickDuringHours)

	if len(db.statusUpdates) != 1 || !db.statusUpdates[0] {
		t.Fatalf("expected one open status update, got %v", db.statusUpdates)
	}
	if len(db.indexSnapshots) != 1 {
		t.Fatalf("expected one index snapshot, got %d", len(db.indexSnapshots))
	}
	if len(db.prices) != 1 || db.prices[0][0].Symbol != "NABIL" {
		t.Fatalf("expected prices persisted, got %v", db.prices)
	}

	stats := s.Stats()[JobPriceUpdate]
	if stats.SuccessCount != 1 || stats.FailCount != 0 {
		t.Errorf("expected 1 success, got %+v", stats)
	}
	if stats.Running {
		t.Errorf("guard must be released after the tick")
	}
}

// -----------------------------------------------------------------------------

func TestTickSkipsPricesWhenMarketClosed(t *testing.T) {
	db := &memDB{}
	scr := &stubScraper{
		open:   false,
		prices: []models.MPriceRecord{{Symbol: "NABIL"}},
		index:  &models.MMarketIndex{NepseIndex: 2145.67},
	}
	s := newTestScheduler(db, scr)

	s.UpdatePricesAndStatus(TickDuringHours)

	if len(db.statusUpdates) != 1 || db.statusUpdates[0] {
		t.Fatalf("expected one closed status update, got %v", db.statusUpdates)
	}
	if len(db.prices) != 0 {
		t.Errorf("prices must not be scraped while closed, got %d batches", len(db.prices))
	}
	// Skipping prices on a closed market is still a successful tick.
	if stats := s.Stats()[JobPriceUpdate]; stats.SuccessCount != 1 {
		t.Errorf("expected success, got %+v", stats)
	}
}

// -----------------------------------------------------------------------------

func TestCloseTickNeverScrapesPrices(t *testing.T) {
	db := &memDB{}
	scr := &stubScraper{
		open:   true,
		prices: []models.MPriceRecord{{Symbol: "NABIL"}},
		index:  &models.MMarketIndex{NepseIndex: 2145.67},
	}
	s := newTestScheduler(db, scr)

	s.UpdatePricesAndStatus(TickMarketClose)

	if len(db.statusUpdates) != 1 {
		t.Fatalf("expected status persisted, got %v", db.statusUpdates)
	}
	if len(db.prices) != 0 {
		t.Errorf("close tick must not scrape prices, got %d batches", len(db.prices))
	}
}

// -----------------------------------------------------------------------------

func TestIndexFailureDoesNotAbortTick(t *testing.T) {
	db := &memDB{}
	scr := &stubScraper{
		open:   true,
		prices: []models.MPriceRecord{{Symbol: "NABIL"}},
		index:  nil,
	}
	s := newTestScheduler(db, scr)

	s.UpdatePricesAndStatus(TickDuringHours)

	if len(db.indexSnapshots) != 0 {
		t.Errorf("expected no index snapshot on failure")
	}
	if len(db.prices) != 1 {
		t.Errorf("price scrape must still run after an index failure")
	}
	if stats := s.Stats()[JobPriceUpdate]; stats.SuccessCount != 1 {
		t.Errorf("expected tick to succeed, got %+v", stats)
	}
}

// -----------------------------------------------------------------------------

func TestOverlappingTriggerIsSkipped(t *testing.T) {
	db := &memDB{}
	block := make(chan struct{})
	scr := &stubScraper{
		open:   true,
		prices: []models.MPriceRecord{{Symbol: "NABIL"}},
		index:  &models.MMarketIndex{NepseIndex: 2145.67},
		block:  block,
	}
	s := newTestScheduler(db, scr)

	done := make(chan struct{})
	go func() {
		s.UpdatePricesAndStatus(TickDuringHours)
		close(done)
	}()

	// Wait for the first tick to reach the blocking price scrape.
	deadline := time.After(2 * time.Second)
	for !s.IsJobRunning(JobPriceUpdate) {
		select {
		case <-deadline:
			t.Fatal("first tick never started")
		case <-time.After(time.Millisecond):
		}
	}

	// Second trigger must return immediately without touching counters.
	s.UpdatePricesAndStatus(TickDuringHours)
	stats := s.Stats()[JobPriceUpdate]
	if stats.SuccessCount != 0 || stats.FailCount != 0 {
		t.Errorf("skipped trigger must not record an outcome, got %+v", stats)
	}

	close(block)
	<-done

	stats = s.Stats()[JobPriceUpdate]
	if stats.SuccessCount != 1 {
		t.Errorf("expected exactly one success after release, got %+v", stats)
	}
	if len(db.prices) != 1 {
		t.Errorf("expected one price batch, got %d", len(db.prices))
	}
}

// -----------------------------------------------------------------------------

func TestDetailSweepNoopWhenAllProfiled(t *testing.T) {
	db := &memDB{missingRefs: nil}
	scr := &stubScraper{details: []models.MCompanyDetail{{Symbol: "NABIL"}}}
	s := newTestScheduler(db, scr)

	s.UpdateCompanyDetails()

	if len(db.details) != 0 {
		t.Errorf("sweep must be a no-op when nothing is missing")
	}
	if stats := s.Stats()[JobCompanyDetailsUpdate]; stats.SuccessCount != 1 {
		t.Errorf("empty sweep still counts as success, got %+v", stats)
	}
}

// -----------------------------------------------------------------------------

func TestDetailBatchPersistsBothTables(t *testing.T) {
	db := &memDB{missingRefs: []models.MSecurityRef{{SecurityID: 131, Symbol: "NABIL"}}}
	scr := &stubScraper{
		details: []models.MCompanyDetail{{
			SecurityID:   131,
			Symbol:       "NABIL",
			CompanyName:  "Nabil Bank Limited",
			ClosePrice:   505,
			BusinessDate: "2026-08-28",
		}},
	}
	s := newTestScheduler(db, scr)

	s.UpdateCompanyDetails()

	if len(db.details) != 1 {
		t.Fatalf("expected one detail batch, got %d", len(db.details))
	}
	if len(db.prices) != 1 {
		t.Fatalf("detail batches must also refresh prices, got %d batches", len(db.prices))
	}
	price := db.prices[0][0]
	if price.Symbol != "NABIL" || price.ClosePrice != 505 || price.SecurityName != "Nabil Bank Limited" {
		t.Errorf("derived price row mismatch: %+v", price)
	}
	if price.BusinessDate != "2026-08-28" {
		t.Errorf("expected business date carried over, got %q", price.BusinessDate)
	}
}

// -----------------------------------------------------------------------------

func TestForcePriceUpdateIgnoresMarketState(t *testing.T) {
	db := &memDB{}
	scr := &stubScraper{
		open:   false,
		prices: []models.MPriceRecord{{Symbol: "NABIL"}},
	}
	s := newTestScheduler(db, scr)

	if err := s.ForcePriceUpdate(); err != nil {
		t.Fatalf("force update failed: %v", err)
	}
	if len(db.prices) != 1 {
		t.Errorf("expected prices persisted despite closed market")
	}
}
