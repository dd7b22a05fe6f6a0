package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stock-watcher/src/config"
	datasource "stock-watcher/src/data_source"
	"stock-watcher/src/data_source/polygon"
	"stock-watcher/src/data_source/yahoo"
	"stock-watcher/src/helpers"
	"stock-watcher/src/interfaces"
	"stock-watcher/src/logger"
	"stock-watcher/src/models"
	"stock-watcher/src/network"
	"stock-watcher/src/server"
	"stock-watcher/src/signal"
	"stock-watcher/src/storage"
	"stock-watcher/src/utils"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "../../config/default.yaml", "path to config file")
	flag.Parse()

	// API keys may live in a .env next to the binary
	_ = godotenv.Load()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// 2. Setup Storage
	var db interfaces.IDatabase
	var positions interfaces.IPositionRepository

	switch cfg.Storage.DBType {
	case "postgres":
		pg, pgErr := storage.NewPostgresDB(cfg.MConfig, appLogger)
		if pgErr != nil {
			appLogger.Critical("Failed to init db: %v", pgErr)
		}
		db = pg
		positions = pg
	default:
		// Default to SQLite
		lite, liteErr := storage.NewAsyncSQLiteDB(cfg.MConfig, appLogger)
		if liteErr != nil {
			appLogger.Critical("Failed to init db: %v", liteErr)
		}
		db = lite
		positions = lite
	}

	if err := db.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate db: %v", err)
	}

	// 3. Network and Data Sources
	var networkManager interfaces.INetworkManager = network.NewAsyncNetworkManager(cfg.MConfig, appLogger)

	var sources []interfaces.IDataSource
	for _, srcCfg := range cfg.DataSource.Sources {
		switch srcCfg.Type {
		case "polygon":
			src, srcErr := polygon.NewPolygonSource(cfg.MConfig, srcCfg)
			if srcErr != nil {
				appLogger.Critical("Failed to init polygon source %s: %v", srcCfg.Name, srcErr)
			}
			sources = append(sources, src)
		default:
			// Default to Yahoo
			sources = append(sources, yahoo.NewYahooFinanceSource(cfg.MConfig, srcCfg, networkManager))
		}
	}

	manager := datasource.NewMultiSourceManager(sources, logger.NewLogger(cfg.LogLevel, "MultiSourceManager"))

	// 4. Signal Pipeline
	scorer := signal.NewLinearScorer()
	if cfg.Pipeline.Weights != nil {
		scorer = signal.NewLinearScorerWith(*cfg.Pipeline.Weights)
	}
	facade := signal.NewSignalFacade(cfg.Pipeline, scorer, logger.NewLogger(cfg.LogLevel, "SignalPipeline"))

	// 5. Server
	srv := server.NewAPIServer(cfg.MConfig, facade, db, positions, appLogger)
	srv.RegisterControl(server.NewControlService(cfg, manager, *configPath, appLogger, networkManager))

	// 6. In-memory bar history, bounded by the retention window
	maxPoints := utils.CalculateMaxDataPoints(cfg.DataSource.DataRetentionDays)
	buffers := make(map[string]*utils.RingBuffer)

	appendBars := func(symbol string, bars []models.MBar) {
		buf, ok := buffers[symbol]
		if !ok {
			buf = utils.NewRingBuffer(symbol, maxPoints)
			buffers[symbol] = buf
		}
		for _, b := range bars {
			buf.Append(b)
		}
	}

	// 7. Initial Data Load
	appLogger.Info("Fetching initial data...")
	errHandler := helpers.NewErrorHandler()

	fetched, err := errHandler.ExecuteWithRetry("initial fetch", func() (interface{}, error) {
		return manager.FetchInitialData()
	}, cfg.Network.MaxRetries)
	if err != nil {
		appLogger.Warning("Initial fetch failed: %v", err)
	}

	var allBars []models.MBar
	if initialData, ok := fetched.(map[string][]models.MBar); ok {
		for sym, bars := range initialData {
			appendBars(sym, bars)
			allBars = append(allBars, bars...)
		}
	}
	if err := db.SaveBarsBulk(allBars); err != nil {
		appLogger.Error("Failed to save initial bars: %v", err)
	}

	// 8. Initial Pipeline Pass
	initialState := runPipeline(facade, buffers, db, appLogger, time.Now())
	initialState.Type = "INITIAL"
	srv.UpdateAllDatas(initialState)

	appLogger.Info("Initialization complete.")

	// 9. Start Server
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Error("Server failed: %v", err)
		}
	}()

	// 10. Main Loop (Push Model)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wrapWg := &sync.WaitGroup{}
	updatesChan := make(chan map[string][]models.MBar, 100)

	if err := manager.Start(ctx, updatesChan, wrapWg); err != nil {
		appLogger.Critical("Failed to start sources: %v", err)
		return
	}

	quit := make(chan os.Signal, 1)
	ossignal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	appLogger.Info("Starting data loop (Push Model)...")

	for {
		select {
		case updates, ok := <-updatesChan:
			if !ok {
				appLogger.Info("Data sources closed channel.")
				return
			}

			startProcess := time.Now()
			appLogger.Info("Received update for %d symbols", len(updates))

			var newBars []models.MBar
			for sym, bars := range updates {
				appendBars(sym, bars)
				newBars = append(newBars, bars...)
			}
			errHandler.Handle(db.SaveBarsBulk(newBars), "bar persistence")

			payload := runPipeline(facade, buffers, db, appLogger, startProcess)
			srv.UpdateAllDatas(snapshot(payload))
			srv.Broadcast(payload)

			errHandler.Handle(db.CleanupOldData(), "retention cleanup")

		case <-quit:
			appLogger.Info("Shutting down...")
			cancel()      // Signal sources to stop
			wrapWg.Wait() // Wait for sources to close
			db.Close()
			return
		}
	}
}

// -----------------------------------------------------------------------------

// runPipeline runs the full signal pipeline over every buffered symbol and
// persists the resulting signals and backtests.
func runPipeline(facade *signal.SignalFacade, buffers map[string]*utils.RingBuffer, db interfaces.IDatabase, log *logger.Logger, started time.Time) *models.MLatestData {
	data := make(map[string][]models.MBar, len(buffers))
	for sym, buf := range buffers {
		bars := buf.GetAll()
		if len(bars) > 0 {
			data[sym] = bars
		}
	}

	reports := facade.RunAll(data)

	state := &models.MLatestData{
		Type:      "UPDATE",
		Bars:      make(map[string]models.MBar),
		Signals:   make(map[string]models.MSignal),
		Backtests: make(map[string]models.MBacktestSummary),
		Timestamp: time.Now().Unix(),
	}

	signalsGenerated := 0
	for sym, report := range reports {
		if len(report.Bars) > 0 {
			state.Bars[sym] = report.Bars[len(report.Bars)-1]
		}
		if len(report.Signals) > 0 {
			state.Signals[sym] = report.Signals[len(report.Signals)-1]
			signalsGenerated += len(report.Signals)

			if err := db.SaveSignals(report.Signals); err != nil {
				log.Error("Failed to save signals for %s: %v", sym, err)
			}
		}
		state.Backtests[sym] = report.Summary
		if err := db.SaveBacktestSummary(report.Summary); err != nil {
			log.Error("Failed to save backtest for %s: %v", sym, err)
		}
	}

	state.ProcessingMetrics = models.MProcessingMetrics{
		PipelineTimeSeconds: time.Since(started).Seconds(),
		ValidSymbols:        len(reports),
		SignalsGenerated:    signalsGenerated,
	}

	return state
}

// -----------------------------------------------------------------------------

// snapshot copies a state payload so the merge cache and the broadcast queue
// never share one instance.
func snapshot(state *models.MLatestData) *models.MLatestData {
	copied := &models.MLatestData{
		Type:              state.Type,
		Bars:              make(map[string]models.MBar, len(state.Bars)),
		Signals:           make(map[string]models.MSignal, len(state.Signals)),
		Backtests:         make(map[string]models.MBacktestSummary, len(state.Backtests)),
		Timestamp:         state.Timestamp,
		ProcessingMetrics: state.ProcessingMetrics,
	}
	for k, v := range state.Bars {
		copied.Bars[k] = v
	}
	for k, v := range state.Signals {
		copied.Signals[k] = v
	}
	for k, v := range state.Backtests {
		copied.Backtests[k] = v
	}
	return copied
}
