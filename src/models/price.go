package models

// MPriceRecord holds one row of the daily price table, keyed by symbol.
// Numeric fields that cannot be parsed from the page default to zero,
// never to a missing value.
type MPriceRecord struct {
	Symbol              string  `json:"symbol"`
	SecurityID          int64   `json:"securityId"`
	SecurityName        string  `json:"securityName"`
	BusinessDate        string  `json:"businessDate"`
	OpenPrice           float64 `json:"openPrice"`
	HighPrice           float64 `json:"highPrice"`
	LowPrice            float64 `json:"lowPrice"`
	ClosePrice          float64 `json:"closePrice"`
	PreviousClose       float64 `json:"previousClose"`
	TotalTradedQuantity float64 `json:"totalTradedQuantity"`
	TotalTradedValue    float64 `json:"totalTradedValue"`
	Change              float64 `json:"change"`
	PercentageChange    float64 `json:"percentageChange"`
	FiftyTwoWeekHigh    float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow     float64 `json:"fiftyTwoWeekLow"`
}
