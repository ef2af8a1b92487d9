package storage

import (
	"database/sql"
	"fmt"

	"nepse-observer/src/logger"
	"nepse-observer/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	return &PostgresDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresDB initialized successfully")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	schema := `
		CREATE TABLE IF NOT EXISTS stock_prices (
			id SERIAL PRIMARY KEY,
			business_date TEXT NOT NULL,
			security_id BIGINT NOT NULL,
			symbol TEXT NOT NULL UNIQUE,
			security_name TEXT,
			open_price DOUBLE PRECISION,
			high_price DOUBLE PRECISION,
			low_price DOUBLE PRECISION,
			close_price DOUBLE PRECISION,
			total_traded_quantity DOUBLE PRECISION,
			total_traded_value DOUBLE PRECISION,
			previous_close DOUBLE PRECISION,
			change DOUBLE PRECISION,
			percentage_change DOUBLE PRECISION,
			fifty_two_week_high DOUBLE PRECISION,
			fifty_two_week_low DOUBLE PRECISION,
			created_at TIMESTAMPTZ DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_stock_prices_symbol ON stock_prices(symbol);

		CREATE TABLE IF NOT EXISTS company_details (
			security_id BIGINT PRIMARY KEY,
			symbol TEXT NOT NULL,
			company_name TEXT,
			sector_name TEXT,
			instrument_type TEXT,
			issue_manager TEXT,
			share_registrar TEXT,
			listing_date TEXT,
			total_listed_shares DOUBLE PRECISION,
			paid_up_capital DOUBLE PRECISION,
			total_paid_up_value DOUBLE PRECISION,
			email TEXT,
			website TEXT,
			status TEXT,
			permitted_to_trade TEXT,
			promoter_shares DOUBLE PRECISION,
			public_shares DOUBLE PRECISION,
			market_capitalization DOUBLE PRECISION,
			logo_url TEXT,
			is_logo_placeholder BOOLEAN DEFAULT TRUE,
			last_traded_price DOUBLE PRECISION,
			open_price DOUBLE PRECISION,
			close_price DOUBLE PRECISION,
			high_price DOUBLE PRECISION,
			low_price DOUBLE PRECISION,
			previous_close DOUBLE PRECISION,
			fifty_two_week_high DOUBLE PRECISION,
			fifty_two_week_low DOUBLE PRECISION,
			total_traded_quantity DOUBLE PRECISION,
			total_trades BIGINT,
			average_traded_price DOUBLE PRECISION,
			business_date TEXT,
			updated_at TIMESTAMPTZ DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_company_details_symbol ON company_details(symbol);

		CREATE TABLE IF NOT EXISTS market_status (
			id INTEGER PRIMARY KEY,
			is_open BOOLEAN DEFAULT FALSE,
			trading_date TEXT,
			last_updated TIMESTAMPTZ DEFAULT now()
		);

		CREATE TABLE IF NOT EXISTS market_index (
			id SERIAL PRIMARY KEY,
			trading_date TEXT NOT NULL UNIQUE,
			nepse_index DOUBLE PRECISION,
			index_change DOUBLE PRECISION,
			index_percentage_change DOUBLE PRECISION,
			total_turnover DOUBLE PRECISION,
			total_traded_shares DOUBLE PRECISION,
			advanced BIGINT,
			declined BIGINT,
			unchanged BIGINT,
			last_updated TIMESTAMPTZ DEFAULT now()
		);
	`
	if _, err := d.DB.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SavePrices(prices []models.MPriceRecord) error {
	if len(prices) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO stock_prices (
			business_date, security_id, symbol, security_name,
			open_price, high_price, low_price, close_price,
			total_traded_quantity, total_traded_value, previous_close,
			change, percentage_change, fifty_two_week_high, fifty_two_week_low,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now())
		ON CONFLICT (symbol) DO UPDATE SET
			business_date = excluded.business_date,
			security_id = excluded.security_id,
			security_name = excluded.security_name,
			open_price = excluded.open_price,
			high_price = excluded.high_price,
			low_price = excluded.low_price,
			close_price = excluded.close_price,
			total_traded_quantity = excluded.total_traded_quantity,
			total_traded_value = excluded.total_traded_value,
			previous_close = excluded.previous_close,
			change = excluded.change,
			percentage_change = excluded.percentage_change,
			fifty_two_week_high = excluded.fifty_two_week_high,
			fifty_two_week_low = excluded.fifty_two_week_low,
			created_at = excluded.created_at
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

func (d *PostgresDB) SaveCompanyDetails(details []models.MCompanyDetail) error {
	if len(details) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO company_details (
			security_id, symbol, company_name, sector_name,
			instrument_type, issue_manager, share_registrar,
			listing_date, total_listed_shares, paid_up_capital,
			total_paid_up_value, email, website, status, permitted_to_trade,
			promoter_shares, public_shares, market_capitalization,
			logo_url, is_logo_placeholder, last_traded_price,
			open_price, close_price, high_price, low_price, previous_close,
			fifty_two_week_high, fifty_two_week_low, total_traded_quantity,
			total_trades, average_traded_price, business_date, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, now())
		ON CONFLICT (security_id) DO UPDATE SET
			symbol = excluded.symbol,
			company_name = excluded.company_name,
			sector_name = excluded.sector_name,
			instrument_type = excluded.instrument_type,
			issue_manager = excluded.issue_manager,
			share_registrar = excluded.share_registrar,
			listing_date = excluded.listing_date,
			total_listed_shares = excluded.total_listed_shares,
			paid_up_capital = excluded.paid_up_capital,
			total_paid_up_value = excluded.total_paid_up_value,
			email = excluded.email,
			website = excluded.website,
			status = excluded.status,
			permitted_to_trade = excluded.permitted_to_trade,
			promoter_shares = excluded.promoter_shares,
			public_shares = excluded.public_shares,
			market_capitalization = excluded.market_capitalization,
			logo_url = excluded.logo_url,
			is_logo_placeholder = excluded.is_logo_placeholder,
			last_traded_price = excluded.last_traded_price,
			open_price = excluded.open_price,
			close_price = excluded.close_price,
			high_price = excluded.high_price,
			low_price = excluded.low_price,
			previous_close = excluded.previous_close,
			fifty_two_week_high = excluded.fifty_two_week_high,
			fifty_two_week_low = excluded.fifty_two_week_low,
			total_traded_quantity = excluded.total_traded_quantity,
			total_trades = excluded.total_trades,
			average_traded_price = excluded.average_traded_price,
			business_date = excluded.business_date,
			updated_at = excluded.updated_at
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

func (d *PostgresDB) UpdateMarketStatus(isOpen bool, tradingDate string) error {
	_, err := d.DB.Exec(`
		INSERT INTO market_status (id, is_open, trading_date, last_updated)
		VALUES (1, $1, $2, now())
		ON CONFLICT (id) DO UPDATE SET
			is_open = excluded.is_open,
			trading_date = excluded.trading_date,
			last_updated = excluded.last_updated
	`, isOpen, tradingDate)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveMarketIndex(index models.MMarketIndex) error {
	_, err := d.DB.Exec(`
		INSERT INTO market_index (
			trading_date, nepse_index, index_change, index_percentage_change,
			total_turnover, total_traded_shares, advanced, declined, unchanged,
			last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
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

func (d *PostgresDB) GetAllSecurityIds() ([]models.MSecurityRef, error) {
	rows, err := d.DB.Query("SELECT DISTINCT security_id, symbol FROM stock_prices WHERE security_id > 0")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSecurityRefs(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) GetSecurityIdsWithoutDetails() ([]models.MSecurityRef, error) {
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

func (d *PostgresDB) SearchStocks(query string) ([]models.MCompanyDetail, error) {
	pattern := "%" + query + "%"
	rows, err := d.DB.Query(`
		SELECT DISTINCT symbol, security_name, security_id FROM stock_prices
		WHERE symbol ILIKE $1 OR security_name ILIKE $2
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

func (d *PostgresDB) GetLatestPrices() ([]models.MPriceRecord, error) {
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

func (d *PostgresDB) GetScriptDetails(symbol string) (*models.MCompanyDetail, error) {
	row := d.DB.QueryRow(companyDetailSelect+" WHERE symbol = $1", symbol)
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
		FROM stock_prices WHERE symbol = $1
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

func (d *PostgresDB) GetAllCompanies() ([]models.MCompanyDetail, error) {
	rows, err := d.DB.Query(companyDetailSelect + " ORDER BY company_name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCompanyDetails(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) GetCompaniesBySector(sector string) ([]models.MCompanyDetail, error) {
	rows, err := d.DB.Query(
		companyDetailSelect+` WHERE sector_name ILIKE $1
		ORDER BY market_capitalization DESC, company_name LIMIT 50`,
		"%"+sector+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCompanyDetails(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) GetTopCompaniesByMarketCap(limit int) ([]models.MCompanyDetail, error) {
	rows, err := d.DB.Query(
		companyDetailSelect+` WHERE market_capitalization > 0
		ORDER BY market_capitalization DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCompanyDetails(rows)
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) GetCompanyStats() (*models.MCompanyStats, error) {
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

func (d *PostgresDB) GetMarketStatus() (*models.MMarketStatus, error) {
	row := d.DB.QueryRow("SELECT is_open, trading_date, last_updated::text FROM market_status WHERE id = 1")
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

func (d *PostgresDB) GetMarketIndex() (*models.MMarketIndex, error) {
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

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
