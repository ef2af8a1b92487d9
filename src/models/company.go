package models

// MCompanyDetail is the full profile scraped from one company page, keyed
// by security id. Fields absent from the page keep their zero value.
type MCompanyDetail struct {
	SecurityID           int64   `json:"securityId"`
	Symbol               string  `json:"symbol"`
	CompanyName          string  `json:"companyName"`
	SectorName           string  `json:"sectorName"`
	InstrumentType       string  `json:"instrumentType"`
	Email                string  `json:"email"`
	Website              string  `json:"website"`
	Status               string  `json:"status"`
	PermittedToTrade     string  `json:"permittedToTrade"`
	ListingDate          string  `json:"listingDate"`
	IssueManager         string  `json:"issueManager"`
	ShareRegistrar       string  `json:"shareRegistrar"`
	LogoURL              string  `json:"logoUrl"`
	IsLogoPlaceholder    bool    `json:"isLogoPlaceholder"`
	LastTradedPrice      float64 `json:"lastTradedPrice"`
	OpenPrice            float64 `json:"openPrice"`
	HighPrice            float64 `json:"highPrice"`
	LowPrice             float64 `json:"lowPrice"`
	ClosePrice           float64 `json:"closePrice"`
	PreviousClose        float64 `json:"previousClose"`
	FiftyTwoWeekHigh     float64 `json:"fiftyTwoWeekHigh"`
	FiftyTwoWeekLow      float64 `json:"fiftyTwoWeekLow"`
	TotalTradedQuantity  float64 `json:"totalTradedQuantity"`
	TotalTrades          int64   `json:"totalTrades"`
	AverageTradedPrice   float64 `json:"averageTradedPrice"`
	TotalListedShares    float64 `json:"totalListedShares"`
	TotalPaidUpValue     float64 `json:"totalPaidUpValue"`
	PaidUpCapital        float64 `json:"paidUpCapital"`
	MarketCapitalization float64 `json:"marketCapitalization"`
	PromoterShares       float64 `json:"promoterShares"`
	PublicShares         float64 `json:"publicShares"`
	BusinessDate         string  `json:"businessDate"`
}

// MSecurityRef identifies one company to visit during a detail sweep.
type MSecurityRef struct {
	SecurityID int64  `json:"securityId"`
	Symbol     string `json:"symbol"`
}
