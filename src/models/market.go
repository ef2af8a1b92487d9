package models

// MMarketStatus Structure
type MMarketStatus struct {
	IsOpen      bool   `json:"isOpen"`
	TradingDate string `json:"tradingDate"`
	LastUpdated string `json:"lastUpdated"`
}

// MMarketIndex holds the headline index figures for one trading date.
type MMarketIndex struct {
	NepseIndex            float64 `json:"nepseIndex"`
	IndexChange           float64 `json:"indexChange"`
	IndexPercentageChange float64 `json:"indexPercentageChange"`
	TotalTurnover         float64 `json:"totalTurnover"`
	TotalTradedShares     float64 `json:"totalTradedShares"`
	Advanced              int64   `json:"advanced"`
	Declined              int64   `json:"declined"`
	Unchanged             int64   `json:"unchanged"`
	TradingDate           string  `json:"tradingDate"`
}

// MCompanyStats Structure
type MCompanyStats struct {
	TotalCompanies int64   `json:"totalCompanies"`
	TotalSectors   int64   `json:"totalSectors"`
	TotalMarketCap float64 `json:"totalMarketCap"`
	AvgMarketCap   float64 `json:"avgMarketCap"`
}
