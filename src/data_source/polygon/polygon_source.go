package polygon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	polygonrest "github.com/polygon-io/client-go/rest"
	rmodels "github.com/polygon-io/client-go/rest/models"

	"stock-watcher/src/logger"
	"stock-watcher/src/models"
	"stock-watcher/src/utils"
)

// -----------------------------------------------------------------------------

const fetchTimeout = 60 * time.Second

// -----------------------------------------------------------------------------

type PolygonSource struct {
	Config           *models.MConfig
	SourceConfig     models.MSourceConfig
	symbols          atomic.Value // Stores []string safely
	Rest             *polygonrest.Client
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

func NewPolygonSource(cfg *models.MConfig, sourceCfg models.MSourceConfig) (*PolygonSource, error) {
	apiKey := sourceCfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("POLYGON_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("polygon source %s: no API key in config or POLYGON_API_KEY", sourceCfg.Name)
	}

	timeout := cfg.Network.RequestTimeout
	if timeout <= 0 {
		timeout = 15
	}

	s := &PolygonSource{
		Config:          cfg,
		SourceConfig:    sourceCfg,
		Rest:            polygonrest.NewWithClient(apiKey, &http.Client{Timeout: time.Duration(timeout) * time.Second}),
		Logger:          logger.NewLogger(cfg.LogLevel, "PolygonSource-"+sourceCfg.Name),
		LastTimestamps:  make(map[string]int64),
		MarketScheduler: utils.NewMarketScheduler(sourceCfg.Symbols, logger.NewLogger(cfg.LogLevel, "MarketScheduler-"+sourceCfg.Name)),
	}
	s.symbols.Store(sourceCfg.Symbols)
	return s, nil
}

// -----------------------------------------------------------------------------

func (s *PolygonSource) Name() string {
	return s.SourceConfig.Name
}

// -----------------------------------------------------------------------------

// IsRealTime returns false; the REST aggregates API is polled, not streamed.
func (s *PolygonSource) IsRealTime() bool {
	return false
}

// -----------------------------------------------------------------------------

// FetchInitialData retrieves minute bars covering the retention window.
func (s *PolygonSource) FetchInitialData() (map[string][]models.MBar, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -s.Config.DataSource.DataRetentionDays)

	data, err := s.fetchBatch(s.getSymbols(), from, now)
	if err != nil {
		return nil, err
	}

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

// FetchUpdateData retrieves minute bars for the current day.
func (s *PolygonSource) FetchUpdateData() (map[string][]models.MBar, error) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -1)
	return s.fetchBatch(s.getSymbols(), from, now)
}

// -----------------------------------------------------------------------------

// fetchBatch fans out over symbols with a bounded worker pool.
func (s *PolygonSource) fetchBatch(symbols []string, from, to time.Time) (map[string][]models.MBar, error) {
	if len(symbols) == 0 {
		return make(map[string][]models.MBar), nil
	}

	results := make(map[string][]models.MBar)
	var mu sync.Mutex
	var wg sync.WaitGroup
	errors := make([]error, 0, len(symbols))
	var errorsMu sync.Mutex

	concurrent := s.Config.Network.ConcurrentRequests
	if concurrent <= 0 {
		concurrent = 5
	}
	sem := make(chan struct{}, concurrent)

	for _, symbol := range symbols {
		wg.Add(1)
		go func(sym string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			bars, err := s.fetchSymbolAggs(sym, from, to)
			if err != nil {
				s.Logger.Info("Error fetching symbol %s: %v", sym, err)
				errorsMu.Lock()
				errors = append(errors, err)
				errorsMu.Unlock()
				return
			}

			if len(bars) > 0 {
				mu.Lock()
				results[sym] = bars
				mu.Unlock()
			}
		}(symbol)
	}

	wg.Wait()

	s.Logger.Info("Polygon: Fetched %d/%d symbols successfully", len(results), len(symbols))

	if len(results) == 0 && len(errors) > 0 {
		return nil, fmt.Errorf("all fetches failed: %v", errors[0])
	}

	return results, nil
}

// -----------------------------------------------------------------------------

// fetchSymbolAggs walks the aggregates iterator for one symbol.
func (s *PolygonSource) fetchSymbolAggs(symbol string, from, to time.Time) ([]models.MBar, error) {
	params := &rmodels.ListAggsParams{
		Ticker:     symbol,
		Timespan:   rmodels.Minute,
		Multiplier: 1,
		From:       rmodels.Millis(from),
		// Polygon's REST uses an exclusive upper bound; add 1 minute to
		// include the current minute bar if present.
		To: rmodels.Millis(to.Add(1 * time.Minute)),
	}
	lim := 50000
	asc := rmodels.Asc
	adj := true
	params.Limit = &lim
	params.Order = &asc
	params.Adjusted = &adj

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	iter := s.Rest.ListAggs(ctx, params)

	var bars []models.MBar
	for iter.Next() {
		a := iter.Item() // models.Agg

		if a.Close <= 0 || a.Volume < 0 {
			continue
		}

		bars = append(bars, models.MBar{
			Symbol:      symbol,
			WindowClose: time.Time(a.Timestamp).Unix(),
			Open:        a.Open,
			High:        a.High,
			Low:         a.Low,
			Close:       a.Close,
			Volume:      a.Volume,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("aggs iterator for %s: %w", symbol, err)
	}

	sort.Slice(bars, func(i, j int) bool {
		return bars[i].WindowClose < bars[j].WindowClose
	})

	return bars, nil
}

// -----------------------------------------------------------------------------

// Start begins the polling loop
func (s *PolygonSource) Start(parentCtx context.Context, outputChan chan<- map[string][]models.MBar, wg *sync.WaitGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning.Load() {
		return fmt.Errorf("source %s is already running", s.Name())
	}

	ctx, cancel := context.WithCancel(parentCtx)
	s.cancelFunc = cancel
	s.ctx = ctx
	s.outputChan = outputChan
	s.isRunning.Store(true)

	wg.Add(1)
	go s.runLoop(ctx, outputChan, wg)
	s.Logger.Info("Started PolygonSource: %s", s.Name())
	return nil
}

// -----------------------------------------------------------------------------

// Stop signals the run loop to exit
func (s *PolygonSource) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning.Load() {
		return fmt.Errorf("source %s is not running", s.Name())
	}

	if s.cancelFunc != nil {
		s.cancelFunc()
	}
	s.isRunning.Store(false)
	s.Logger.Info("Stopped PolygonSource: %s", s.Name())
	return nil
}

// -----------------------------------------------------------------------------

func (s *PolygonSource) runLoop(ctx context.Context, outputChan chan<- map[string][]models.MBar, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(time.Duration(s.Config.DataSource.UpdateIntervalSeconds) * time.Second)
	defer ticker.Stop()

	localTimestamps := make(map[string]int64)

	s.lastTimestampsMu.RLock()
	for k, v := range s.LastTimestamps {
		localTimestamps[k] = v
	}
	s.lastTimestampsMu.RUnlock()

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
			if !s.MarketScheduler.AnyMarketOpen() {
				s.Logger.Info("All markets are closed. Pausing for 60 minutes...")
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
				select {
				case outputChan <- validData:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------

func (s *PolygonSource) UpdateSymbols(symbols []string) error {
	s.symbols.Store(symbols)
	s.Logger.Info("Updated symbol list. New count: %d", len(symbols))

	s.MarketScheduler.UpdateSymbols(symbols)
	return nil
}

// -----------------------------------------------------------------------------

func (s *PolygonSource) getSymbols() []string {
	return s.symbols.Load().([]string)
}
