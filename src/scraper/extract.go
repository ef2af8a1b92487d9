package scraper

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"nepse-observer/src/models"

	"github.com/PuerkitoBio/goquery"
)

// -----------------------------------------------------------------------------
// Pure DOM extraction. Every function here takes rendered HTML or text and
// returns typed records; no network or browser concerns. Missing numeric
// fields always come back as 0 so consumers never see a null.
// -----------------------------------------------------------------------------

var (
	whitespaceRe  = regexp.MustCompile(`\s+`)
	digitsRe      = regexp.MustCompile(`(\d+)`)
	numericRe     = regexp.MustCompile(`[^0-9.\-]`)
	priceRe       = regexp.MustCompile(`([0-9,]+\.?[0-9]*)`)
	statusOpenRe  = regexp.MustCompile(`(?i)Market Status[:\s]*OPEN`)
	statusCloseRe = regexp.MustCompile(`(?i)Market Status[:\s]*CLOSED`)
)

// -----------------------------------------------------------------------------

// CleanText collapses runs of whitespace into single spaces.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// -----------------------------------------------------------------------------

// ParseNumber strips thousands separators and any stray characters before
// parsing. Anything unparseable, infinite or NaN yields 0.
func ParseNumber(s string) float64 {
	s = strings.ReplaceAll(s, ",", "")
	s = numericRe.ReplaceAllString(s, "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// -----------------------------------------------------------------------------

// SplitComposite splits a "high / low" style cell into its two numbers.
// An empty cell or a missing half yields 0 for that side.
func SplitComposite(s string) (float64, float64) {
	if s == "" {
		return 0, 0
	}
	parts := strings.SplitN(s, "/", 2)
	first := ParseNumber(parts[0])
	second := 0.0
	if len(parts) > 1 {
		second = ParseNumber(parts[1])
	}
	return first, second
}

// -----------------------------------------------------------------------------

// securityIDFromHref pulls the first run of digits out of a detail-page link.
func securityIDFromHref(href string) int64 {
	m := digitsRe.FindString(href)
	if m == "" {
		return 0
	}
	id, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

// -----------------------------------------------------------------------------

// ExtractMarketStatus classifies the rendered body text of the landing page.
// The second return reports whether either marker was recognised; callers
// treat an unrecognised page as closed.
func ExtractMarketStatus(bodyText string) (isOpen bool, recognized bool) {
	if strings.Contains(bodyText, "Market Open") || statusOpenRe.MatchString(bodyText) {
		return true, true
	}
	if strings.Contains(bodyText, "Market Closed") || statusCloseRe.MatchString(bodyText) {
		return false, true
	}
	return false, false
}

// -----------------------------------------------------------------------------

// ExtractPriceRows parses every data row of the daily price table. The table
// uses fixed column positions: cells[1] is the symbol, cells[3..9] are
// open, high, low, close, traded quantity, traded value and previous close.
// Rows with fewer than 5 cells are header or footer fragments and are
// dropped, as are rows without a symbol.
func ExtractPriceRows(html string, businessDate string) ([]models.MPriceRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var records []models.MPriceRecord
	doc.Find("table tbody tr").Each(func(_ int, tr *goquery.Selection) {
		tds := tr.Find("td")
		if tds.Length() < 5 {
			return
		}

		cells := make([]string, tds.Length())
		tds.Each(func(i int, td *goquery.Selection) {
			cells[i] = CleanText(td.Text())
		})

		symbol := cells[1]
		if symbol == "" {
			return
		}

		var securityID int64
		symbolCell := tds.Eq(1)
		if link := symbolCell.Find("a").First(); link.Length() > 0 {
			securityID = securityIDFromHref(link.AttrOr("href", ""))
		}

		rec := models.MPriceRecord{
			Symbol:       symbol,
			SecurityID:   securityID,
			SecurityName: symbol,
			BusinessDate: businessDate,
		}
		if len(cells) > 3 {
			rec.OpenPrice = ParseNumber(cells[3])
		}
		if len(cells) > 4 {
			rec.HighPrice = ParseNumber(cells[4])
		}
		if len(cells) > 5 {
			rec.LowPrice = ParseNumber(cells[5])
		}
		if len(cells) > 6 {
			rec.ClosePrice = ParseNumber(cells[6])
		}
		if len(cells) > 7 {
			rec.TotalTradedQuantity = ParseNumber(cells[7])
		}
		if len(cells) > 8 {
			rec.TotalTradedValue = ParseNumber(cells[8])
		}
		if len(cells) > 9 {
			rec.PreviousClose = ParseNumber(cells[9])
		}
		if rec.PreviousClose != 0 {
			rec.Change = rec.ClosePrice - rec.PreviousClose
			rec.PercentageChange = rec.Change / rec.PreviousClose * 100
		}

		records = append(records, rec)
	})

	return records, nil
}

// -----------------------------------------------------------------------------

// ExtractNextPageEnabled reports whether the price table exposes an enabled
// "next page" control.
func ExtractNextPageEnabled(html string) (bool, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false, err
	}
	return doc.Find(nextButtonSelector).Length() > 0, nil
}

// -----------------------------------------------------------------------------
// Company detail extraction. The detail table's row order varies across
// instrument types, so fields are matched by header label rather than by
// position. The labels below scan rows in document order and take the
// first match.
// -----------------------------------------------------------------------------

// tableLookup scans all table rows for a header cell containing label and
// returns the cleaned value cell text of the first match.
func tableLookup(doc *goquery.Document, label string) (string, bool) {
	value := ""
	found := false
	doc.Find("table tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		th := tr.Find("th").First()
		td := tr.Find("td").First()
		if th.Length() == 0 || td.Length() == 0 {
			return true
		}
		if strings.Contains(strings.TrimSpace(th.Text()), label) {
			value = CleanText(td.Text())
			found = true
			return false
		}
		return true
	})
	return value, found
}

// -----------------------------------------------------------------------------

// detailFields is the declarative label table for the company detail page.
type detailField struct {
	label  string
	assign func(*models.MCompanyDetail, string)
}

var detailFields = []detailField{
	{"Instrument Type", func(d *models.MCompanyDetail, v string) { d.InstrumentType = v }},
	{"Listing Date", func(d *models.MCompanyDetail, v string) { d.ListingDate = v }},
	{"Last Traded Price", func(d *models.MCompanyDetail, v string) {
		if m := priceRe.FindString(v); m != "" {
			d.LastTradedPrice = ParseNumber(m)
		}
	}},
	{"Total Traded Quantity", func(d *models.MCompanyDetail, v string) { d.TotalTradedQuantity = ParseNumber(v) }},
	{"Total Trades", func(d *models.MCompanyDetail, v string) { d.TotalTrades = int64(ParseNumber(v)) }},
	{"Previous Day Close Price", func(d *models.MCompanyDetail, v string) { d.PreviousClose = ParseNumber(v) }},
	{"High Price / Low Price", func(d *models.MCompanyDetail, v string) {
		d.HighPrice, d.LowPrice = SplitComposite(v)
	}},
	{"52 Week High / 52 Week Low", func(d *models.MCompanyDetail, v string) {
		d.FiftyTwoWeekHigh, d.FiftyTwoWeekLow = SplitComposite(v)
	}},
	{"Open Price", func(d *models.MCompanyDetail, v string) { d.OpenPrice = ParseNumber(v) }},
	{"Close Price", func(d *models.MCompanyDetail, v string) {
		// The close cell may carry a trailing asterisk marking adjusted values.
		d.ClosePrice = ParseNumber(strings.ReplaceAll(v, "*", ""))
	}},
	{"Total Listed Shares", func(d *models.MCompanyDetail, v string) { d.TotalListedShares = ParseNumber(v) }},
	{"Total Paid up Value", func(d *models.MCompanyDetail, v string) { d.TotalPaidUpValue = ParseNumber(v) }},
	{"Market Capitalization", func(d *models.MCompanyDetail, v string) { d.MarketCapitalization = ParseNumber(v) }},
	{"Issue Manager", func(d *models.MCompanyDetail, v string) { d.IssueManager = v }},
	{"Share Registrar", func(d *models.MCompanyDetail, v string) { d.ShareRegistrar = v }},
	{"Website", func(d *models.MCompanyDetail, v string) { d.Website = v }},
	{"Promoter Shares", func(d *models.MCompanyDetail, v string) { d.PromoterShares = ParseNumber(v) }},
	{"Public Shares", func(d *models.MCompanyDetail, v string) { d.PublicShares = ParseNumber(v) }},
	{"Average Traded Price", func(d *models.MCompanyDetail, v string) { d.AverageTradedPrice = ParseNumber(v) }},
}

// metaFields maps the literal label prefixes of the title metadata list.
type metaField struct {
	prefix string
	assign func(*models.MCompanyDetail, string)
}

var metaFields = []metaField{
	{"Sector:", func(d *models.MCompanyDetail, v string) { d.SectorName = v }},
	{"Email Address:", func(d *models.MCompanyDetail, v string) { d.Email = v }},
	{"Status:", func(d *models.MCompanyDetail, v string) { d.Status = v }},
	{"Permitted to Trade:", func(d *models.MCompanyDetail, v string) { d.PermittedToTrade = v }},
}

// -----------------------------------------------------------------------------

// ExtractCompanyDetail pulls the full profile out of a rendered detail page.
// Absent fields keep their zero values; the function never fails on a page
// that merely lacks elements.
func ExtractCompanyDetail(html string, baseURL string) (models.MCompanyDetail, error) {
	var detail models.MCompanyDetail

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return detail, err
	}

	// Logo: prefer the profile section image, fall back to the title logo
	// when it is missing or a placeholder.
	logo := doc.Find("#profile_section .team-member img").First()
	if logo.Length() == 0 || strings.Contains(logo.AttrOr("src", ""), "placeholder") {
		logo = doc.Find(".company__title--logo img").First()
	}
	detail.LogoURL = logo.AttrOr("src", "")
	if strings.HasPrefix(detail.LogoURL, "assets/") {
		detail.LogoURL = strings.TrimSuffix(baseURL, "/") + "/" + detail.LogoURL
	}
	detail.IsLogoPlaceholder = strings.Contains(detail.LogoURL, "placeholder")

	detail.CompanyName = CleanText(doc.Find(".company__title--details h1").First().Text())

	doc.Find(".company__title--metas li").Each(func(_ int, li *goquery.Selection) {
		text := li.Text()
		for _, mf := range metaFields {
			if idx := strings.Index(text, mf.prefix); idx >= 0 {
				mf.assign(&detail, CleanText(text[idx+len(mf.prefix):]))
				break
			}
		}
	})

	for _, f := range detailFields {
		if v, ok := tableLookup(doc, f.label); ok {
			f.assign(&detail, v)
		}
	}

	// Some instrument types report capital only under a separate label.
	detail.PaidUpCapital = detail.TotalPaidUpValue
	if detail.PaidUpCapital == 0 {
		if v, ok := tableLookup(doc, "Paid Up Capital"); ok {
			detail.PaidUpCapital = ParseNumber(v)
		}
	}

	return detail, nil
}

// -----------------------------------------------------------------------------
// Market index extraction. The landing page publishes the headline figures
// in a summary table; the same label-scan approach applies.
// -----------------------------------------------------------------------------

type indexField struct {
	label  string
	assign func(*models.MMarketIndex, string)
}

var indexFields = []indexField{
	{"NEPSE Index", func(m *models.MMarketIndex, v string) { m.NepseIndex = ParseNumber(v) }},
	{"Total Turnover", func(m *models.MMarketIndex, v string) { m.TotalTurnover = ParseNumber(v) }},
	{"Total Traded Shares", func(m *models.MMarketIndex, v string) { m.TotalTradedShares = ParseNumber(v) }},
	{"Advanced", func(m *models.MMarketIndex, v string) { m.Advanced = int64(ParseNumber(v)) }},
	{"Declined", func(m *models.MMarketIndex, v string) { m.Declined = int64(ParseNumber(v)) }},
	{"Unchanged", func(m *models.MMarketIndex, v string) { m.Unchanged = int64(ParseNumber(v)) }},
}

// -----------------------------------------------------------------------------

// ExtractMarketIndex reads the headline index figures from the landing page.
func ExtractMarketIndex(html string) (models.MMarketIndex, error) {
	var index models.MMarketIndex

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return index, err
	}

	for _, f := range indexFields {
		if v, ok := tableLookup(doc, f.label); ok {
			f.assign(&index, v)
		}
	}

	// The index widget carries the current value and its change outside the
	// summary table on most renderings.
	if index.NepseIndex == 0 {
		index.NepseIndex = ParseNumber(doc.Find(".current-index, .nepse-index__value").First().Text())
	}
	change := CleanText(doc.Find(".index-change, .nepse-index__change").First().Text())
	if change != "" {
		// Rendered as "12.34 (0.56%)" or "-12.34 -0.56%".
		parts := strings.Fields(change)
		if len(parts) > 0 {
			index.IndexChange = ParseNumber(parts[0])
		}
		if len(parts) > 1 {
			index.IndexPercentageChange = ParseNumber(parts[1])
		}
	}

	return index, nil
}
