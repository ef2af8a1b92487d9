package storage

import (
	"database/sql"
	"fmt"

	"nepse-observer/src/logger"
	"nepse-observer/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*SQLiteDB, error) {
	return &SQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

// createTables keeps existing data; scraped history must survive restarts.
func (d *SQLiteDB) createTables() error {
	schema := `
		CREATE TABLE IF NOT EXISTS stock_prices (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			business_date TEXT NOT NULL,
			security_id INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			security_name TEXT,
			open_price REAL,
			high_price REAL,
			low_price REAL,
			close_price REAL,
			total_traded_quantity REAL,
			total_traded_value REAL,
			previous_close REAL,
			change REAL,
			percentage_change REAL,
			fifty_two_week_high REAL,
			fifty_two_week_low REAL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(symbol)
		);
		CREATE INDEX IF NOT EXISTS idx_stock_prices_symbol ON stock_prices(symbol);

		CREATE TABLE IF NOT EXISTS company_details (
			security_id INTEGER PRIMARY KEY,
			symbol TEXT NOT NULL,
			company_name TEXT,
			sector_name TEXT,
			instrument_type TEXT,
			issue_manager TEXT,
			share_registrar TEXT,
			listing_date TEXT,
			total_listed_shares REAL,
			paid_up_capital REAL,
			total_paid_up_value REAL,
			email TEXT,
			website TEXT,
			status TEXT,
			permitted_to_trade TEXT,
			promoter_shares REAL,
			public_shares REAL,
			market_capitalization REAL,
			logo_url TEXT,
			is_logo_placeholder BOOLEAN DEFAULT 1,
			last_traded_price REAL,
			open_price REAL,
			close_price REAL,
			high_price REAL,
			low_price REAL,
			previous_close REAL,
			fifty_two_week_high REAL,
			fifty_two_week_low REAL,
			total_traded_quantity REAL,
			total_trades INTEGER,
			average_traded_price REAL,
			business_date TEXT,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_company_details_symbol ON company_details(symbol);

		CREATE TABLE IF NOT EXISTS market_status (
			id INTEGER PRIMARY KEY,
			is_open BOOLEAN DEFAULT 0,
			trading_date TEXT,
			last_updated DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_market_status_date ON market_status(trading_date);

		CREATE TABLE IF NOT EXISTS market_index (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trading_date TEXT NOT NULL,
			nepse_index REAL,
			index_change REAL,
			index_percentage_change REAL,
			total_turnover REAL,
			total_traded_shares REAL,
			advanced INTEGER,
			declined INTEGER,
			unchanged INTEGER,
			last_updated DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(trading_date)
		);
		CREATE INDEX IF NOT EXISTS idx_market_index_date ON market_index(trading_date);
	`
	if _, err := d.DB.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SavePrices(prices []models.MPriceRecord) error {
	if len(prices) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO stock_prices (
			business_date, security_id, symbol, security_name,
			open_price, high_price, low_price, close_price,
			total_traded_quantity, total_traded_value, previous_close,
			change, percentage_change, fifty_two_week_high, fifty_two_week_low,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, p := range prices {
		_, err := stmt.Exec(
			p.BusinessDate, p.SecurityID, p.Symbol, p.SecurityName,
			p.OpenPrice, p.HighPrice, p.LowPrice, p.ClosePrice,
			p.TotalTradedQuantity, p.TotalTradedValue, p.PreviousClose,
			p.Change, p.PercentageChange, p.FiftyTwoWeekHigh, p.FiftyTwoWeekLow,
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	d.Logger.Info("Saved %d price records", len(prices))
	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveCompanyDetails(details []models.MCompanyDetail) error {
	if len(details) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO company_details (
			security_id, symbol, company_name, sector_name,
			instrument_type, issue_manager, share_registrar,
			listing_date, total_listed_shares, paid_up_capital,
			total_paid_up_value, email, website, status, permitted_to_trade,
			promoter_shares, public_shares, market_capitalization,
			logo_url, is_logo_placeholder, last_traded_price,
			open_price, close_price, high_price, low_price, previous_close,
			fifty_two_week_high, fifty_two_week_low, total_traded_quantity,
			total_trades, average_traded_price, business_date, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, c := range details {
		_, err := stmt.Exec(
			c.SecurityID, c.Symbol, c.CompanyName, c.SectorName,
			c.InstrumentType, c.IssueManager, c.ShareRegistrar,
			c.ListingDate, c.TotalListedShares, c.PaidUpCapital,
			c.TotalPaidUpValue, c.Email, c.Website, c.Status, c.PermittedToTrade,
			c.PromoterShares, c.PublicShares, c.MarketCapitalization,
			c.LogoURL, c.IsLogoPlaceholder, c.LastTradedPrice,
			c.OpenPrice, c.ClosePrice, c.HighPrice, c.LowPrice, c.PreviousClose,
			c.FiftyTwoWeekHigh, c.FiftyTwoWeekLow, c.TotalTradedQuantity,
			c.TotalTrades, c.AverageTradedPrice, c.BusinessDate,
		)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	d.Logger.Info("Saved/updated %d company details", len(details))
	return nil
}

// -----------------------------------------------------------------------------

// UpdateMarketStatus keeps a single current row.
func (d *SQLiteDB) UpdateMarketStatus(isOpen bool, tradingDate string) error {
	_, err := d.DB.Exec(`
		INSERT OR REPLACE INTO market_status (id, is_open, trading_date, last_updated)
		VALUES (1, ?, ?, datetime('now'))
	`, isOpen, tradingDate)
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SaveMarketIndex(index models.MMarketIndex) error {
	_, err := d.DB.Exec(`
		INSERT INTO market_index (
			trading_date, nepse_index, index_change, index_percentage_change,
			total_turnover, total_traded_shares, advanced, declined, unchanged,
			last_updated
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT (trading_date) DO UPDATE SET
			nepse_index = excluded.nepse_index,
			index_change = excluded.index_change,
			index_percentage_change = excluded.index_percentage_change,
			total_turnover = excluded.total_turnover,
			total_traded_shares = excluded.total_traded_shares,
			advanced = excluded.advanced,
			declined = excluded.declined,
			unchanged = excluded.unchanged,
			last_updated = excluded.last_updated
	`, index.TradingDate, index.NepseIndex, index.IndexChange, index.IndexPercentageChange,
		index.TotalTurnover, index.TotalTradedShares, index.Advanced, index.Declined, index.Unchanged)
	return err
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) GetAllSecurityIds() ([]models.MSecurityRef, error) {
	rows, err := d.DB.Query("SELECT DISTINCT security_id, symbol FROM stock_prices WHERE security_id > 0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSecurityRefs(rows)
}

// -----------------------------------------------------------------------------

// GetSecurityIdsWithoutDetails lists identified securities not yet profiled.
// Rows with security_id 0 stay in the price table but are never sweepable.
func (d *SQLiteDB) GetSecurityIdsWithoutDetails() ([]models.MSecurityRef, error) {
	rows, err := d.DB.Query(`
		SELECT DISTINCT sp.security_id, sp.symbol
		FROM stock_prices sp
		LEFT JOIN company_details cd ON sp.security_id = cd.security_id
		WHERE sp.security_id > 0 AND cd.security_id IS NULL
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSecurityRefs(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) SearchStocks(query string) ([]models.MCompanyDetail, error) {
	pattern := "%" + query + "%"
	rows, err := d.DB.Query(`
		SELECT DISTINCT symbol, security_name, security_id FROM stock_prices
		WHERE symbol LIKE ? OR security_name LIKE ?
		ORDER BY symbol LIMIT 20
	`, pattern, pattern)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []models.MCompanyDetail
	for rows.Next() {
		var c models.MCompanyDetail
		var name sql.NullString
		if err := rows.Scan(&c.Symbol, &name, &c.SecurityID); err != nil {
			return nil, err
		}
		c.CompanyName = name.String
		results = append(results, c)
	}
	return results, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) GetLatestPrices() ([]models.MPriceRecord, error) {
	rows, err := d.DB.Query(`
		SELECT business_date, security_id, symbol, security_name,
			open_price, high_price, low_price, close_price,
			total_traded_quantity, total_traded_value, previous_close,
			change, percentage_change, fifty_two_week_high, fifty_two_week_low
		FROM stock_prices ORDER BY symbol
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prices []models.MPriceRecord
	for rows.Next() {
		var p models.MPriceRecord
		var name sql.NullString
		err := rows.Scan(
			&p.BusinessDate, &p.SecurityID, &p.Symbol, &name,
			&p.OpenPrice, &p.HighPrice, &p.LowPrice, &p.ClosePrice,
			&p.TotalTradedQuantity, &p.TotalTradedValue, &p.PreviousClose,
			&p.Change, &p.PercentageChange, &p.FiftyTwoWeekHigh, &p.FiftyTwoWeekLow,
		)
		if err != nil {
			return nil, err
		}
		p.SecurityName = name.String
		prices = append(prices, p)
	}
	return prices, rows.Err()
}

// -----------------------------------------------------------------------------

// GetScriptDetails prefers the full profile, falling back to the bare price
// row when a symbol has not been profiled yet.
func (d *SQLiteDB) GetScriptDetails(symbol string) (*models.MCompanyDetail, error) {
	row := d.DB.QueryRow(companyDetailSelect+" WHERE symbol = ?", symbol)
	detail, err := scanCompanyDetail(row)
	if err == nil {
		return detail, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	priceRow := d.DB.QueryRow(`
		SELECT business_date, security_id, symbol, security_name,
			open_price, high_price, low_price, close_price,
			total_traded_quantity, previous_close,
			fifty_two_week_high, fifty_two_week_low
		FROM stock_prices WHERE symbol = ?
	`, symbol)

	var c models.MCompanyDetail
	var name sql.NullString
	err = priceRow.Scan(
		&c.BusinessDate, &c.SecurityID, &c.Symbol, &name,
		&c.OpenPrice, &c.HighPrice, &c.LowPrice, &c.ClosePrice,
		&c.TotalTradedQuantity, &c.PreviousClose,
		&c.FiftyTwoWeekHigh, &c.FiftyTwoWeekLow,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.CompanyName = name.String
	return &c, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) GetAllCompanies() ([]models.MCompanyDetail, error) {
	rows, err := d.DB.Query(companyDetailSelect + " ORDER BY company_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCompanyDetails(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) GetCompaniesBySector(sector string) ([]models.MCompanyDetail, error) {
	rows, err := d.DB.Query(
		companyDetailSelect+` WHERE sector_name LIKE ?
		ORDER BY market_capitalization DESC, company_name LIMIT 50`,
		"%"+sector+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCompanyDetails(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) GetTopCompaniesByMarketCap(limit int) ([]models.MCompanyDetail, error) {
	rows, err := d.DB.Query(
		companyDetailSelect+` WHERE market_capitalization > 0
		ORDER BY market_capitalization DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCompanyDetails(rows)
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) GetCompanyStats() (*models.MCompanyStats, error) {
	row := d.DB.QueryRow(`
		SELECT COUNT(*),
			COUNT(DISTINCT sector_name),
			COALESCE(SUM(market_capitalization), 0),
			COALESCE(AVG(market_capitalization), 0)
		FROM company_details
	`)
	var stats models.MCompanyStats
	err := row.Scan(&stats.TotalCompanies, &stats.TotalSectors, &stats.TotalMarketCap, &stats.AvgMarketCap)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) GetMarketStatus() (*models.MMarketStatus, error) {
	row := d.DB.QueryRow("SELECT is_open, trading_date, last_updated FROM market_status WHERE id = 1")
	var status models.MMarketStatus
	var tradingDate, lastUpdated sql.NullString
	err := row.Scan(&status.IsOpen, &tradingDate, &lastUpdated)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	status.TradingDate = tradingDate.String
	status.LastUpdated = lastUpdated.String
	return &status, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) GetMarketIndex() (*models.MMarketIndex, error) {
	row := d.DB.QueryRow(`
		SELECT trading_date, nepse_index, index_change, index_percentage_change,
			total_turnover, total_traded_shares, advanced, declined, unchanged
		FROM market_index ORDER BY trading_date DESC LIMIT 1
	`)
	var idx models.MMarketIndex
	err := row.Scan(
		&idx.TradingDate, &idx.NepseIndex, &idx.IndexChange, &idx.IndexPercentageChange,
		&idx.TotalTurnover, &idx.TotalTradedShares, &idx.Advanced, &idx.Declined, &idx.Unchanged,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &idx, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------
// Row scanning helpers shared with the postgres backend. Placeholders differ
// between the two drivers but the column order is identical.
// -----------------------------------------------------------------------------

const companyDetailSelect = `
	SELECT security_id, symbol, company_name, sector_name,
		instrument_type, issue_manager, share_registrar,
		listing_date, total_listed_shares, paid_up_capital,
		total_paid_up_value, email, website, status, permitted_to_trade,
		promoter_shares, public_shares, market_capitalization,
		logo_url, is_logo_placeholder, last_traded_price,
		open_price, close_price, high_price, low_price, previous_close,
		fifty_two_week_high, fifty_two_week_low, total_traded_quantity,
		total_trades, average_traded_price, business_date
	FROM company_details`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCompanyDetail(row rowScanner) (*models.MCompanyDetail, error) {
	var c models.MCompanyDetail
	var strs [10]sql.NullString
	var businessDate sql.NullString
	err := row.Scan(
		&c.SecurityID, &c.Symbol, &strs[0], &strs[1],
		&strs[2], &strs[3], &strs[4],
		&strs[5], &c.TotalListedShares, &c.PaidUpCapital,
		&c.TotalPaidUpValue, &strs[6], &strs[7], &strs[8], &strs[9],
		&c.PromoterShares, &c.PublicShares, &c.MarketCapitalization,
		&c.LogoURL, &c.IsLogoPlaceholder, &c.LastTradedPrice,
		&c.OpenPrice, &c.ClosePrice, &c.HighPrice, &c.LowPrice, &c.PreviousClose,
		&c.FiftyTwoWeekHigh, &c.FiftyTwoWeekLow, &c.TotalTradedQuantity,
		&c.TotalTrades, &c.AverageTradedPrice, &businessDate,
	)
	if err != nil {
		return nil, err
	}
	c.CompanyName = strs[0].String
	c.SectorName = strs[1].String
	c.InstrumentType = strs[2].String
	c.IssueManager = strs[3].String
	c.ShareRegistrar = strs[4].String
	c.ListingDate = strs[5].String
	c.Email = strs[6].String
	c.Website = strs[7].String
	c.Status = strs[8].String
	c.PermittedToTrade = strs[9].String
	c.BusinessDate = businessDate.String
	return &c, nil
}

func scanCompanyDetails(rows *sql.Rows) ([]models.MCompanyDetail, error) {
	var details []models.MCompanyDetail
	for rows.Next() {
		c, err := scanCompanyDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, *c)
	}
	return details, rows.Err()
}

func scanSecurityRefs(rows *sql.Rows) ([]models.MSecurityRef, error) {
	var refs []models.MSecurityRef
	for rows.Next() {
		var ref models.MSecurityRef
		if err := rows.Scan(&ref.SecurityID, &ref.Symbol); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
