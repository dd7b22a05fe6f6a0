package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"stock-watcher/src/interfaces"
	"stock-watcher/src/logger"
	"stock-watcher/src/models"
	"stock-watcher/src/utils"
)

type YahooFinanceSource struct {
	Config           *models.MConfig
	SourceConfig     models.MSourceConfig
	symbols          atomic.Value // Stores []string safely
	Network          interfaces.INetworkManager
	Logger           *logger.Logger
	MarketScheduler  *utils.MarketScheduler
	LastTimestamps   map[string]int64
	lastTimestampsMu sync.RWMutex
	cancelFunc       context.CancelFunc
	ctx              context.Context
	outputChan       chan<- map[string][]models.MBar
	isRunning        atomic.Bool
	mu               sync.Mutex
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

// IsRealTime returns false because Yahoo Finance matches the polling interval model
func (s *YahooFinanceSource) IsRealTime() bool {
	return false
}

// -----------------------------------------------------------------------------

func NewYahooFinanceSource(cfg *models.MConfig, sourceCfg models.MSourceConfig, netMgr interfaces.INetworkManager) *YahooFinanceSource {
	s := &YahooFinanceSource{
		Config:          cfg,
		SourceConfig:    sourceCfg,
		Network:         netMgr,
		Logger:          logger.NewLogger(cfg.LogLevel, "YahooFinanceSource-"+sourceCfg.Name),
		LastTimestamps:  make(map[string]int64),
		MarketScheduler: utils.NewMarketScheduler(sourceCfg.Symbols, logger.NewLogger(cfg.LogLevel, "MarketScheduler-"+sourceCfg.Name)),
	}
	s.symbols.Store(sourceCfg.Symbols)
	return s
}

// -----------------------------------------------------------------------------

// FetchInitialData fetches historical minute bars
func (s *YahooFinanceSource) FetchInitialData() (map[string][]models.MBar, error) {
	rangeStr := fmt.Sprintf("%dd", s.Config.DataSource.DataRetentionDays)
	data, err := s.fetchBatch(s.getSymbols(), func(symbol string) ([]models.MBar, error) {
		return s.fetchSymbolData(symbol, rangeStr)
	})

	if err != nil {
		return nil, err
	}

	// Update last timestamps
	for symbol, bars := range data {
		if len(bars) > 0 {
			lastBar := bars[len(bars)-1]
			s.lastTimestampsMu.Lock()
			s.LastTimestamps[symbol] = lastBar.WindowClose
			s.lastTimestampsMu.Unlock()
		}
	}

	return data, nil
}

// -----------------------------------------------------------------------------

// FetchUpdateData fetches latest updates
func (s *YahooFinanceSource) FetchUpdateData() (map[string][]models.MBar, error) {
	return s.fetchBatch(s.getSymbols(), func(symbol string) ([]models.MBar, error) {
		return s.fetchSymbolData(symbol, "1d")
	})
}

// -----------------------------------------------------------------------------

// fetchBatch processes symbols concurrently
func (s *YahooFinanceSource) fetchBatch(
	symbols []string,
	fetchFunc func(string) ([]models.MBar, error),
) (map[string][]models.MBar, error) {
	if len(symbols) == 0 {
		return make(map[string][]models.MBar), nil
	}

	results := make(map[string][]models.MBar)
	var mu sync.Mutex
	var wg sync.WaitGroup
	errors := make([]error, 0, len(symbols))
	var errorsMu sync.Mutex

	// Semaphore for concurrency limit
	sem := make(chan struct{}, s.Config.Network.ConcurrentRequests)

	for _, symbol := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			// Small delay to avoid rate limiting
			time.Sleep(10 * time.Millisecond)

			data, err := fetchFunc(sym)
			if err != nil {
				s.Logger.Info("Error fetching symbol %s: %v", sym, err)
				errorsMu.Lock()
				errors = append(errors, err)
				errorsMu.Unlock()
				return
			}

			if data != nil {
				mu.Lock()
				results[sym] = data
				mu.Unlock()
			}
		}(symbol)
	}

	wg.Wait()

	s.Logger.Info("YahooFinance: Fetched %d/%d symbols successfully", len(results), len(symbols))

	// Return errors if all failed, otherwise return results
	if len(results) == 0 && len(errors) > 0 {
		return nil, fmt.Errorf("all fetches failed: %v", errors[0])
	}

	return results, nil
}

// -----------------------------------------------------------------------------

// fetchSymbolData fetches and parses minute bars for a symbol
func (s *YahooFinanceSource) fetchSymbolData(symbol, rangeStr string) ([]models.MBar, error) {
	params := map[string]string{
		"interval":       "1m",
		"range":          rangeStr,
		"includePrePost": "false",
	}

	url := fmt.Sprintf("https://query1.finance.yahoo.com/v8/finance/chart/%s", symbol)

	respBytes, err := s.Network.Get(url, params)
	if err != nil {
		return nil, fmt.Errorf("network error for %s: %w", symbol, err)
	}

	return s.parseChartResponse(symbol, respBytes)
}

// -----------------------------------------------------------------------------

type YahooChartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Currency           string  `json:"currency"`
				Symbol             string  `json:"symbol"`
				ExchangeName       string  `json:"exchangeName"`
				RegularMarketTime  int64   `json:"regularMarketTime"`
				Timezone           string  `json:"timezone"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				ChartPreviousClose float64 `json:"chartPreviousClose"`
				DataGranularity    string  `json:"dataGranularity"`
				Range              string  `json:"range"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					High   []*float64 `json:"high"`   // Use pointers to handle null
					Low    []*float64 `json:"low"`    // Use pointers to handle null
					Open   []*float64 `json:"open"`   // Use pointers to handle null
					Close  []*float64 `json:"close"`  // Use pointers to handle null
					Volume []*float64 `json:"volume"` // Use pointers to handle null
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) parseChartResponse(symbol string, data []byte) ([]models.MBar, error) {
	var resp YahooChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("json unmarshal failed: %w", err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo api error: %s - %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}

	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no result in response for %s", symbol)
	}

	result := resp.Chart.Result[0]
	if len(result.Timestamp) == 0 {
		return nil, fmt.Errorf("no timestamps in response for %s", symbol)
	}

	indicators := result.Indicators.Quote
	if len(indicators) == 0 {
		return nil, fmt.Errorf("no quote data in response for %s", symbol)
	}

	quote := indicators[0]

	// Alignment check
	if len(result.Timestamp) != len(quote.Close) ||
		len(result.Timestamp) != len(quote.Open) ||
		len(result.Timestamp) != len(quote.High) ||
		len(result.Timestamp) != len(quote.Low) ||
		len(result.Timestamp) != len(quote.Volume) {
		s.Logger.Info("Data alignment error for %s: Mismatched array lengths", symbol)
		return nil, fmt.Errorf("data alignment error for %s", symbol)
	}

	var bars []models.MBar

	for i := 0; i < len(result.Timestamp); i++ {
		// Null entries mean no trade in that minute, drop the point
		if quote.Open[i] == nil || quote.High[i] == nil || quote.Low[i] == nil ||
			quote.Close[i] == nil || quote.Volume[i] == nil {
			continue
		}

		closeVal := *quote.Close[i]
		volume := *quote.Volume[i]

		if closeVal <= 0 || volume < 0 {
			s.Logger.Info("Skipping invalid point for %s: close=%f, volume=%f", symbol, closeVal, volume)
			continue
		}

		bars = append(bars, models.MBar{
			Symbol:      symbol,
			WindowClose: result.Timestamp[i],
			Open:        *quote.Open[i],
			High:        *quote.High[i],
			Low:         *quote.Low[i],
			Close:       closeVal,
			Volume:      volume,
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no valid data points for %s", symbol)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].WindowClose < bars[j].WindowClose
	})

	s.Logger.Info("Fetched %s: %d valid bars [%d -> %d]",
		symbol, len(bars), bars[0].WindowClose, bars[len(bars)-1].WindowClose)

	return bars, nil
}

// -----------------------------------------------------------------------------

// Start begins the data fetching loop
func (s *YahooFinanceSource) Start(parentCtx context.Context, outputChan chan<- map[string][]models.MBar, wg *sync.WaitGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning.Load() {
		return fmt.Errorf("source %s is already running", s.Name())
	}

	// Derive a context so we can stop just this source via Stop()
	ctx, cancel := context.WithCancel(parentCtx)
	s.cancelFunc = cancel
	s.ctx = ctx
	s.outputChan = outputChan
	s.isRunning.Store(true)

	wg.Add(1)
	go s.runLoop(ctx, outputChan, wg)
	s.Logger.Info("Started YahooFinanceSource: %s", s.Name())
	return nil
}

// -----------------------------------------------------------------------------

// Stop signals the run loop to exit
func (s *YahooFinanceSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning.Load() {
		return fmt.Errorf("source %s is not running", s.Name())
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning.Store(false)
	s.Logger.Info("Stopped YahooFinanceSource: %s", s.Name())
	return nil
}

// -----------------------------------------------------------------------------

// PushToDataSourceManager sends data to the manager's channel safely
func (s *YahooFinanceSource) PushToDataSourceManager(data map[string][]models.MBar) error {
	if s.outputChan == nil {
		return fmt.Errorf("output channel is nil")
	}

	select {
	case s.outputChan <- data:
		return nil
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// -----------------------------------------------------------------------------

// runLoop is the main loop that fetches data periodically
func (s *YahooFinanceSource) runLoop(ctx context.Context, outputChan chan<- map[string][]models.MBar, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(time.Duration(s.Config.DataSource.UpdateIntervalSeconds) * time.Second)
	defer ticker.Stop()

	// This goroutine is the only writer to LastTimestamps while running, so a
	// local copy keeps the hot path lock-free.
	localTimestamps := make(map[string]int64)

	s.lastTimestampsMu.RLock()
	for k, v := range s.LastTimestamps {
		localTimestamps[k] = v
	}
	s.lastTimestampsMu.RUnlock()

	// Sync back on exit so a restart resumes where we left off
	defer func() {
		s.lastTimestampsMu.Lock()
		for k, v := range localTimestamps {
			if v > s.LastTimestamps[k] {
				s.LastTimestamps[k] = v
			}
		}
		s.lastTimestampsMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Market status check
			if !s.MarketScheduler.AnyMarketOpen() {
				s.Logger.Info("All markets are closed. Pausing for 60 minutes...")
				// Interruptible Sleep
				select {
				case <-time.After(60 * time.Minute):
				case <-ctx.Done():
					return
				}
				continue
			}

			data, err := s.FetchUpdateData()
			if err != nil {
				s.Logger.Info("Error fetching updates: %v", err)
				continue
			}

			// Keep only bars newer than the last seen window (Dedup)
			validData := make(map[string][]models.MBar)
			for symbol, bars := range data {
				var newBars []models.MBar

				lastTs := localTimestamps[symbol]

				for _, b := range bars {
					if lastTs == 0 || b.WindowClose > lastTs {
						newBars = append(newBars, b)
					}
				}

				if len(newBars) > 0 {
					validData[symbol] = newBars

					lastB := newBars[len(newBars)-1]
					if lastB.WindowClose > localTimestamps[symbol] {
						localTimestamps[symbol] = lastB.WindowClose
					}
				}
			}

			if len(validData) > 0 {
				if err := s.PushToDataSourceManager(validData); err != nil {
					return // Stop if push failed (e.g. context cancelled)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) UpdateSymbols(symbols []string) error {
	// Atomic swap
	s.symbols.Store(symbols)
	s.Logger.Info("Updated symbol list. New count: %d", len(symbols))

	s.MarketScheduler.UpdateSymbols(symbols)

	return nil
}

// -----------------------------------------------------------------------------

func (s *YahooFinanceSource) getSymbols() []string {
	return s.symbols.Load().([]string)
}
