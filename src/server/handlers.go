package server

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	now := time.Now()
	respondOK(c, gin.H{
		"name":       s.Config.Name,
		"time":       now.Format(time.RFC3339),
		"tradingDay": s.Jobs.IsTradingDay(now),
		"activeJobs": s.Jobs.ActiveJobs(),
	}, "OK")
}

// -----------------------------------------------------------------------------

func (s *APIServer) getJobs(c *gin.Context) {
	respondOK(c, s.Jobs.Stats(), "Job statistics")
}

// -----------------------------------------------------------------------------

func (s *APIServer) searchStocks(c *gin.Context) {
	query := c.Query("q")
	if len(query) < 2 {
		respondError(c, 400, "query must be at least 2 characters")
		return
	}

	results, err := s.DB.SearchStocks(query)
	if err != nil {
		s.Logger.Error("search failed: %v", err)
		respondError(c, 500, "search failed")
		return
	}
	respondOK(c, results, "Search results")
}

// -----------------------------------------------------------------------------

func (s *APIServer) getAllScripts(c *gin.Context) {
	refs, err := s.DB.GetAllSecurityIds()
	if err != nil {
		s.Logger.Error("failed to list scripts: %v", err)
		respondError(c, 500, "failed to list scripts")
		return
	}
	respondOK(c, refs, "All scripts")
}

// -----------------------------------------------------------------------------

func (s *APIServer) getScriptDetails(c *gin.Context) {
	symbol := strings.ToUpper(c.Param("symbol"))
	detail, err := s.DB.GetScriptDetails(symbol)
	if err != nil {
		s.Logger.Error("failed to get details for %s: %v", symbol, err)
		respondError(c, 500, "failed to get script details")
		return
	}
	if detail == nil {
		respondError(c, 404, "symbol not found")
		return
	}
	respondOK(c, detail, "Script details")
}

// -----------------------------------------------------------------------------

func (s *APIServer) getLatestPrices(c *gin.Context) {
	prices, err := s.DB.GetLatestPrices()
	if err != nil {
		s.Logger.Error("failed to get prices: %v", err)
		respondError(c, 500, "failed to get prices")
		return
	}
	respondOK(c, prices, "Latest prices")
}

// -----------------------------------------------------------------------------

func (s *APIServer) getAllCompanies(c *gin.Context) {
	companies, err := s.DB.GetAllCompanies()
	if err != nil {
		s.Logger.Error("failed to list companies: %v", err)
		respondError(c, 500, "failed to list companies")
		return
	}
	respondOK(c, companies, "All companies")
}

// -----------------------------------------------------------------------------

func (s *APIServer) getCompaniesBySector(c *gin.Context) {
	sector := c.Param("sector")
	companies, err := s.DB.GetCompaniesBySector(sector)
	if err != nil {
		s.Logger.Error("failed to list companies for sector %s: %v", sector, err)
		respondError(c, 500, "failed to list companies")
		return
	}
	respondOK(c, companies, "Companies in sector")
}

// -----------------------------------------------------------------------------

func (s *APIServer) getTopCompanies(c *gin.Context) {
	limit, err := strconv.Atoi(c.Param("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		respondError(c, 400, "limit must be between 1 and 100")
		return
	}

	companies, err := s.DB.GetTopCompaniesByMarketCap(limit)
	if err != nil {
		s.Logger.Error("failed to list top companies: %v", err)
		respondError(c, 500, "failed to list top companies")
		return
	}
	respondOK(c, companies, "Top companies by market cap")
}

// -----------------------------------------------------------------------------

func (s *APIServer) getMarketStats(c *gin.Context) {
	stats, err := s.DB.GetCompanyStats()
	if err != nil {
		s.Logger.Error("failed to get market stats: %v", err)
		respondError(c, 500, "failed to get market stats")
		return
	}
	respondOK(c, stats, "Market statistics")
}

// -----------------------------------------------------------------------------

func (s *APIServer) getMarketStatus(c *gin.Context) {
	status, err := s.DB.GetMarketStatus()
	if err != nil {
		s.Logger.Error("failed to get market status: %v", err)
		respondError(c, 500, "failed to get market status")
		return
	}
	if status == nil {
		respondError(c, 404, "no market status recorded yet")
		return
	}
	respondOK(c, status, "Market status")
}

// -----------------------------------------------------------------------------

func (s *APIServer) getMarketIndex(c *gin.Context) {
	index, err := s.DB.GetMarketIndex()
	if err != nil {
		s.Logger.Error("failed to get market index: %v", err)
		respondError(c, 500, "failed to get market index")
		return
	}
	if index == nil {
		respondError(c, 404, "no market index recorded yet")
		return
	}
	respondOK(c, index, "Market index")
}
