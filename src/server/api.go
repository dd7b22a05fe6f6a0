package server

import (
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"

	"stock-watcher/src/interfaces"
	"stock-watcher/src/logger"
	"stock-watcher/src/models"
	"stock-watcher/src/signal"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

type APIServer struct {
	Config    *models.MConfig
	Logger    *logger.Logger
	Facade    *signal.SignalFacade
	DB        interfaces.IDatabase
	Positions interfaces.IPositionRepository
	engine    *gin.Engine

	// WebSocket clients. Only the hub goroutine mutates the map; the mutex
	// makes the count readable from request handlers.
	clients      map[*Client]struct{}
	clientsMutex sync.RWMutex
	broadcast    chan *models.MLatestData // Strongly typed and Buffered Queue
	register     chan *Client
	unregister   chan *Client

	// Local cache
	latestState *models.MLatestData
	stateMutex  sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, facade *signal.SignalFacade, db interfaces.IDatabase, positions interfaces.IPositionRepository, logger *logger.Logger) *APIServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:    cfg,
		Logger:    logger,
		Facade:    facade,
		DB:        db,
		Positions: positions,
		engine:    gin.Default(),
		clients:   make(map[*Client]struct{}),
		// Buffered channel so pipeline passes never block on slow clients
		broadcast:  make(chan *models.MLatestData, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		latestState: &models.MLatestData{
			Type:      "INITIAL",
			Bars:      make(map[string]models.MBar),
			Signals:   make(map[string]models.MSignal),
			Backtests: make(map[string]models.MBacktestSummary),
		},
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/metrics", s.getMetrics)

	s.engine.GET("/api/signals/:symbol", s.getSignal)
	s.engine.GET("/api/backtests/:symbol", s.getBacktest)
	s.engine.POST("/api/backtest", s.runBacktest)

	s.engine.GET("/api/positions", s.getPositions)
	s.engine.POST("/api/positions", s.savePosition)
	s.engine.DELETE("/api/positions", s.clearPositions)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *APIServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

func (s *APIServer) Stop() error {
	// Clean shutdown
	close(s.broadcast)
	close(s.register)
	close(s.unregister)
	return nil
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	timestamp := s.latestState.Timestamp
	s.stateMutex.RUnlock()

	c.JSON(200, gin.H{
		"status":        "ok",
		"connections":   s.ClientCount(),
		"latest_update": timestamp,
	})
}

// -----------------------------------------------------------------------------

// ClientCount returns the number of connected websocket clients.
func (s *APIServer) ClientCount() int {
	s.clientsMutex.RLock()
	defer s.clientsMutex.RUnlock()
	return len(s.clients)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getConfig(c *gin.Context) {
	c.JSON(200, gin.H{
		"period_minutes":   s.Config.Pipeline.PeriodMinutes,
		"benchmark_symbol": s.Config.Pipeline.BenchmarkSymbol,
		"long_threshold":   s.Config.Pipeline.Backtest.LongThreshold,
		"entry_cost_bps":   s.Config.Pipeline.Backtest.EntryCostBps,
		"exit_cost_bps":    s.Config.Pipeline.Backtest.ExitCostBps,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getMetrics(c *gin.Context) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	c.JSON(200, s.latestState.ProcessingMetrics)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getSignal(c *gin.Context) {
	symbol := c.Param("symbol")

	s.stateMutex.RLock()
	sig, sigOK := s.latestState.Signals[symbol]
	bar, barOK := s.latestState.Bars[symbol]
	s.stateMutex.RUnlock()

	if !sigOK && !barOK {
		c.JSON(404, gin.H{"error": fmt.Sprintf("no data for symbol %s", symbol)})
		return
	}

	c.JSON(200, gin.H{
		"signal": sig,
		"bar":    bar,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getBacktest(c *gin.Context) {
	symbol := c.Param("symbol")

	s.stateMutex.RLock()
	summary, ok := s.latestState.Backtests[symbol]
	s.stateMutex.RUnlock()

	if !ok {
		c.JSON(404, gin.H{"error": fmt.Sprintf("no backtest for symbol %s", symbol)})
		return
	}

	c.JSON(200, summary)
}

// -----------------------------------------------------------------------------

type backtestRequest struct {
	Symbol        string   `json:"symbol" binding:"required"`
	LongThreshold *float64 `json:"long_threshold"`
	EntryCostBps  *float64 `json:"entry_cost_bps"`
	ExitCostBps   *float64 `json:"exit_cost_bps"`
	BarLimit      int      `json:"bar_limit"`
}

// runBacktest replays the pipeline for one symbol over stored bars, with
// optional per-request threshold and cost overrides.
func (s *APIServer) runBacktest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}

	limit := req.BarLimit
	if limit <= 0 {
		limit = 10000
	}

	bars, err := s.DB.LoadBars(req.Symbol, limit)
	if err != nil {
		c.JSON(500, gin.H{"error": fmt.Sprintf("failed to load bars: %v", err)})
		return
	}
	if len(bars) == 0 {
		c.JSON(404, gin.H{"error": fmt.Sprintf("no stored bars for symbol %s", req.Symbol)})
		return
	}

	facade := *s.Facade
	if req.LongThreshold != nil {
		facade.Config.Backtest.LongThreshold = *req.LongThreshold
	}
	if req.EntryCostBps != nil {
		facade.Config.Backtest.EntryCostBps = *req.EntryCostBps
	}
	if req.ExitCostBps != nil {
		facade.Config.Backtest.ExitCostBps = *req.ExitCostBps
	}

	var marketContext map[int64]float64
	if bench := s.Config.Pipeline.BenchmarkSymbol; bench != "" && bench != req.Symbol {
		if benchBars, err := s.DB.LoadBars(bench, limit); err == nil && len(benchBars) > 0 {
			marketContext = signal.ContextFromBars(signal.Aggregate(benchBars, facade.Config.PeriodMinutes))
		}
	}

	report, err := facade.RunSymbol(req.Symbol, bars, marketContext)
	if err != nil {
		c.JSON(422, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"symbol":  report.Symbol,
		"summary": report.Summary,
		"signals": len(report.Signals),
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getPositions(c *gin.Context) {
	positions, err := s.Positions.Load()
	if err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	if positions == nil {
		positions = []models.MPosition{}
	}
	c.JSON(200, positions)
}

// -----------------------------------------------------------------------------

func (s *APIServer) savePosition(c *gin.Context) {
	var position models.MPosition
	if err := c.ShouldBindJSON(&position); err != nil {
		c.JSON(400, gin.H{"error": err.Error()})
		return
	}
	if position.Symbol == "" {
		c.JSON(400, gin.H{"error": "symbol is required"})
		return
	}

	if err := s.Positions.Save(position); err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"status": "saved", "symbol": position.Symbol})
}

// -----------------------------------------------------------------------------

func (s *APIServer) clearPositions(c *gin.Context) {
	if err := s.Positions.Clear(); err != nil {
		c.JSON(500, gin.H{"error": err.Error()})
		return
	}
	c.JSON(200, gin.H{"status": "cleared"})
}
