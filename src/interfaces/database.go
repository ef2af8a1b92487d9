package interfaces

import "nepse-observer/src/models"

// -----------------------------------------------------------------------------
// IDatabase defines the contract for storage operations.
// -----------------------------------------------------------------------------

type IDatabase interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// SavePrices upserts a batch of daily price rows keyed by symbol.
	SavePrices(prices []models.MPriceRecord) error

	// -----------------------------------------------------------------------------

	// SaveCompanyDetails upserts a batch of company profiles keyed by security id.
	SaveCompanyDetails(details []models.MCompanyDetail) error

	// -----------------------------------------------------------------------------

	// UpdateMarketStatus overwrites the single market status row.
	UpdateMarketStatus(isOpen bool, tradingDate string) error

	// -----------------------------------------------------------------------------

	// SaveMarketIndex upserts the index snapshot for its trading date.
	SaveMarketIndex(index models.MMarketIndex) error

	// -----------------------------------------------------------------------------

	// GetAllSecurityIds lists every identified security from the price table.
	GetAllSecurityIds() ([]models.MSecurityRef, error)

	// -----------------------------------------------------------------------------

	// GetSecurityIdsWithoutDetails lists identified securities missing a profile.
	GetSecurityIdsWithoutDetails() ([]models.MSecurityRef, error)

	// -----------------------------------------------------------------------------

	// SearchStocks matches symbol or security name against a partial query.
	SearchStocks(query string) ([]models.MCompanyDetail, error)

	// -----------------------------------------------------------------------------

	// GetLatestPrices returns every stored price row.
	GetLatestPrices() ([]models.MPriceRecord, error)

	// -----------------------------------------------------------------------------

	// GetScriptDetails returns the profile for one symbol, falling back to the
	// bare price row when no profile has been scraped yet.
	GetScriptDetails(symbol string) (*models.MCompanyDetail, error)

	// -----------------------------------------------------------------------------

	// GetAllCompanies returns every stored company profile.
	GetAllCompanies() ([]models.MCompanyDetail, error)

	// -----------------------------------------------------------------------------

	// GetCompaniesBySector returns the profiles in one sector.
	GetCompaniesBySector(sector string) ([]models.MCompanyDetail, error)

	// -----------------------------------------------------------------------------

	// GetTopCompaniesByMarketCap returns the largest companies by market cap.
	GetTopCompaniesByMarketCap(limit int) ([]models.MCompanyDetail, error)

	// -----------------------------------------------------------------------------

	// GetCompanyStats aggregates counts and capitalisation across companies.
	GetCompanyStats() (*models.MCompanyStats, error)

	// -----------------------------------------------------------------------------

	// GetMarketStatus returns the last persisted market status, if any.
	GetMarketStatus() (*models.MMarketStatus, error)

	// -----------------------------------------------------------------------------

	// GetMarketIndex returns the most recent index snapshot, if any.
	GetMarketIndex() (*models.MMarketIndex, error)

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
