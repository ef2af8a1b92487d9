package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"nepse-observer/src/interfaces"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"
	"nepse-observer/src/utils"

	"github.com/robfig/cron/v3"
)

// -----------------------------------------------------------------------------

const (
	JobPriceUpdate          = "priceUpdate"
	JobCloseUpdate          = "closeUpdate"
	JobCompanyDetailsUpdate = "companyDetailsUpdate"
)

// TickKind distinguishes the in-hours price tick from the end-of-day tick.
type TickKind string

const (
	TickDuringHours TickKind = "DURING_HOURS"
	TickMarketClose TickKind = "MARKET_CLOSE"
)

// -----------------------------------------------------------------------------

// ScraperFactory opens a fresh scraper for one tick. Each tick owns its
// scraper for its full duration; ticks of different job keys never share one.
type ScraperFactory func() (interfaces.IMarketScraper, error)

// -----------------------------------------------------------------------------

// jobState tracks single-flight execution and run statistics for one key.
type jobState struct {
	running      bool
	lastRun      time.Time
	lastSuccess  time.Time
	successCount int64
	failCount    int64
}

// -----------------------------------------------------------------------------

// JobScheduler owns every scheduled job: the cron timers, the per-key
// single-flight guards, and the run statistics. No package-level state.
type JobScheduler struct {
	db       interfaces.IDatabase
	factory  ScraperFactory
	cfg      models.MScheduleConfig
	calendar *utils.TradingCalendar
	logger   *logger.Logger

	cron *cron.Cron

	mu   sync.Mutex
	jobs map[string]*jobState

	rootCtx context.Context
	cancel  context.CancelFunc
}

// -----------------------------------------------------------------------------

func NewJobScheduler(db interfaces.IDatabase, factory ScraperFactory, cfg models.MScheduleConfig, log *logger.Logger) *JobScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &JobScheduler{
		db:       db,
		factory:  factory,
		cfg:      cfg,
		calendar: utils.GetTradingCalendar(cfg.Timezone),
		logger:   log,
		jobs: map[string]*jobState{
			JobPriceUpdate:          {},
			JobCloseUpdate:          {},
			JobCompanyDetailsUpdate: {},
		},
		rootCtx: ctx,
		cancel:  cancel,
	}
}

// -----------------------------------------------------------------------------

// Start registers the cron entries in the exchange's timezone and begins
// firing ticks.
func (s *JobScheduler) Start() error {
	loc := s.calendar.Timezone
	s.cron = cron.New(cron.WithLocation(loc))

	if _, err := s.cron.AddFunc(s.cfg.PriceCron, func() {
		s.UpdatePricesAndStatus(TickDuringHours)
	}); err != nil {
		return fmt.Errorf("invalid price cron expression '%s': %w", s.cfg.PriceCron, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.CloseCron, func() {
		s.UpdatePricesAndStatus(TickMarketClose)
	}); err != nil {
		return fmt.Errorf("invalid close cron expression '%s': %w", s.cfg.CloseCron, err)
	}

	if _, err := s.cron.AddFunc(s.cfg.DetailCron, func() {
		s.UpdateCompanyDetails()
	}); err != nil {
		return fmt.Errorf("invalid detail cron expression '%s': %w", s.cfg.DetailCron, err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started (price: '%s', close: '%s', details: '%s', tz: %s)",
		s.cfg.PriceCron, s.cfg.CloseCron, s.cfg.DetailCron, loc)
	return nil
}

// -----------------------------------------------------------------------------

// tryBegin flips the key's running flag if it is idle and stamps lastRun.
// Returns false when a run of the same key is already in flight.
func (s *JobScheduler) tryBegin(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.jobs[key]
	if st.running {
		return false
	}
	st.running = true
	st.lastRun = time.Now()
	return true
}

// -----------------------------------------------------------------------------

// finish releases the single-flight guard and records the outcome. Always
// called via defer so the guard is released on every exit path.
func (s *JobScheduler) finish(key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.jobs[key]
	st.running = false
	if err != nil {
		st.failCount++
		s.logger.Error("Job %s failed: %v", key, err)
		return
	}
	st.lastSuccess = time.Now()
	st.successCount++
}

// -----------------------------------------------------------------------------

// UpdatePricesAndStatus runs one status-and-prices tick. Within the tick the
// steps run strictly in order: probe status, persist status, attempt an
// index snapshot (soft failure), then scrape prices only when the tick is an
// in-hours tick and the market is open. An overlapping trigger for the same
// key is a logged skip, not an error.
func (s *JobScheduler) UpdatePricesAndStatus(kind TickKind) {
	key := JobPriceUpdate
	if kind == TickMarketClose {
		key = JobCloseUpdate
	}

	if !s.tryBegin(key) {
		s.logger.Info("Job %s already running, skipping trigger", key)
		return
	}

	var runErr error
	defer func() { s.finish(key, runErr) }()

	scraper, err := s.factory()
	if err != nil {
		runErr = err
		return
	}
	defer scraper.Close()

	isOpen := scraper.ScrapeMarketStatus(s.rootCtx)
	tradingDate := utils.TradingDate(time.Now(), s.cfg.UTCOffsetMinutes)
	if err := s.db.UpdateMarketStatus(isOpen, tradingDate); err != nil {
		runErr = err
		return
	}
	s.logger.Info("Market status: open=%v (%s)", isOpen, tradingDate)

	// Index snapshot failures are logged but never abort the tick.
	if index, err := scraper.ScrapeMarketIndex(s.rootCtx); err != nil {
		s.logger.Warning("Market index snapshot failed: %v", err)
	} else if err := s.db.SaveMarketIndex(*index); err != nil {
		s.logger.Warning("Market index persist failed: %v", err)
	}

	if kind != TickDuringHours {
		return
	}
	if !isOpen {
		s.logger.Info("Market closed, skipping price scrape")
		return
	}

	prices, err := scraper.ScrapeTodayPrices(s.rootCtx)
	if err != nil {
		runErr = err
		return
	}
	if len(prices) == 0 {
		s.logger.Warning("Price scrape yielded no rows")
		return
	}
	runErr = s.db.SavePrices(prices)
}

// -----------------------------------------------------------------------------

// ForcePriceUpdate scrapes and persists prices regardless of market state.
// Used by the startup --force path.
func (s *JobScheduler) ForcePriceUpdate() error {
	if !s.tryBegin(JobPriceUpdate) {
		return fmt.Errorf("price update already running")
	}

	var runErr error
	defer func() { s.finish(JobPriceUpdate, runErr) }()

	scraper, err := s.factory()
	if err != nil {
		runErr = err
		return runErr
	}
	defer scraper.Close()

	prices, err := scraper.ScrapeTodayPrices(s.rootCtx)
	if err != nil {
		runErr = err
		return runErr
	}
	runErr = s.db.SavePrices(prices)
	return runErr
}

// -----------------------------------------------------------------------------

// UpdateCompanyDetails sweeps every security still lacking a profile. Each
// completed batch is persisted immediately through the sink; batches also
// refresh the matching price rows so a first sweep seeds close figures.
func (s *JobScheduler) UpdateCompanyDetails() {
	if !s.tryBegin(JobCompanyDetailsUpdate) {
		s.logger.Info("Job %s already running, skipping trigger", JobCompanyDetailsUpdate)
		return
	}

	var runErr error
	defer func() { s.finish(JobCompanyDetailsUpdate, runErr) }()

	refs, err := s.db.GetSecurityIdsWithoutDetails()
	if err != nil {
		runErr = err
		return
	}
	if len(refs) == 0 {
		s.logger.Info("All securities already have details, nothing to do")
		return
	}

	scraper, err := s.factory()
	if err != nil {
		runErr = err
		return
	}
	defer scraper.Close()

	runErr = scraper.ScrapeCompanyDetails(s.rootCtx, refs, interfaces.BatchSinkFunc(s.persistDetailBatch))
}

// -----------------------------------------------------------------------------

// persistDetailBatch is the checkpoint callback for the detail sweep.
func (s *JobScheduler) persistDetailBatch(batch []models.MCompanyDetail) error {
	if err := s.db.SaveCompanyDetails(batch); err != nil {
		return err
	}

	prices := make([]models.MPriceRecord, 0, len(batch))
	for _, d := range batch {
		prices = append(prices, models.MPriceRecord{
			Symbol:              d.Symbol,
			SecurityID:          d.SecurityID,
			SecurityName:        d.CompanyName,
			BusinessDate:        d.BusinessDate,
			OpenPrice:           d.OpenPrice,
			HighPrice:           d.HighPrice,
			LowPrice:            d.LowPrice,
			ClosePrice:          d.ClosePrice,
			PreviousClose:       d.PreviousClose,
			TotalTradedQuantity: d.TotalTradedQuantity,
			FiftyTwoWeekHigh:    d.FiftyTwoWeekHigh,
			FiftyTwoWeekLow:     d.FiftyTwoWeekLow,
		})
	}
	if err := s.db.SavePrices(prices); err != nil {
		return err
	}
	s.logger.Info("Checkpointed batch of %d company details", len(batch))
	return nil
}

// -----------------------------------------------------------------------------

// IsJobRunning reports whether a tick of the given key is in flight.
func (s *JobScheduler) IsJobRunning(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.jobs[key]
	return ok && st.running
}

// -----------------------------------------------------------------------------

// Stats returns a snapshot of every job's run statistics.
func (s *JobScheduler) Stats() map[string]models.MJobRunStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]models.MJobRunStats, len(s.jobs))
	for key, st := range s.jobs {
		out[key] = models.MJobRunStats{
			JobKey:       key,
			Running:      st.running,
			LastRun:      st.lastRun,
			LastSuccess:  st.lastSuccess,
			SuccessCount: st.successCount,
			FailCount:    st.failCount,
		}
	}
	return out
}

// -----------------------------------------------------------------------------

// ActiveJobs lists the registered job keys.
func (s *JobScheduler) ActiveJobs() []string {
	return []string{JobPriceUpdate, JobCloseUpdate, JobCompanyDetailsUpdate}
}

// -----------------------------------------------------------------------------

// IsTradingDay exposes the holiday calendar for health reporting.
func (s *JobScheduler) IsTradingDay(t time.Time) bool {
	return s.calendar.IsTradingDay(t)
}

// -----------------------------------------------------------------------------

// StopAll cancels the timers and any in-flight tick contexts.
func (s *JobScheduler) StopAll() {
	if s.cron != nil {
		s.cron.Stop()
	}
	s.cancel()
	s.logger.Info("Scheduler stopped")
}
