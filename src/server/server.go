package server

import (
	"fmt"
	"strings"
	"time"

	"nepse-observer/src/interfaces"
	"nepse-observer/src/logger"
	"nepse-observer/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// APIServer serves the scraped store read-only. It never calls into the
// scrapers; the scheduler produces, this layer consumes.
// -----------------------------------------------------------------------------

// JobHealth is what the health endpoints need from the scheduler.
type JobHealth interface {
	Stats() map[string]models.MJobRunStats
	IsJobRunning(key string) bool
	ActiveJobs() []string
	IsTradingDay(t time.Time) bool
}

// -----------------------------------------------------------------------------

type APIServer struct {
	Config *models.MConfig
	Logger *logger.Logger
	DB     interfaces.IDatabase
	Jobs   JobHealth
	engine *gin.Engine
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, db interfaces.IDatabase, jobs JobHealth, log *logger.Logger) *APIServer {
	// Set Gin mode
	if strings.ToLower(cfg.LogLevel) != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config: cfg,
		Logger: log,
		DB:     db,
		Jobs:   jobs,
		engine: gin.Default(),
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/health", s.getHealth)
		api.GET("/jobs", s.getJobs)
		api.GET("/search", s.searchStocks)
		api.GET("/scripts", s.getAllScripts)
		api.GET("/scripts/:symbol", s.getScriptDetails)
		api.GET("/prices", s.getLatestPrices)
		api.GET("/companies", s.getAllCompanies)
		api.GET("/companies/sector/:sector", s.getCompaniesBySector)
		api.GET("/companies/top/:limit", s.getTopCompanies)
		api.GET("/market/stats", s.getMarketStats)
		api.GET("/market/status", s.getMarketStatus)
		api.GET("/market/index", s.getMarketIndex)
	}

	// Scraped company logos
	if s.Config.ImageDir != "" {
		s.engine.Static("/images", s.Config.ImageDir)
	}
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)
	return s.engine.Run(addr)
}
