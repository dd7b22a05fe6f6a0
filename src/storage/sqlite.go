package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"stock-watcher/src/logger"
	"stock-watcher/src/models"
)

// SQLite batch constants
const (
	sqliteMaxVars   = 32000
	paramsPerBar    = 7
	sqliteBatchSize = sqliteMaxVars / paramsPerBar // ~4571 rows
)

// -----------------------------------------------------------------------------

type AsyncSQLiteDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncSQLiteDB(cfg *models.MConfig, log *logger.Logger) (*AsyncSQLiteDB, error) {
	return &AsyncSQLiteDB{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Initialize() error {
	dsn := d.Config.Storage.DBPath

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) createTables() error {
	// Raw minute bars keyed by (symbol, window close). Replaced on conflict so
	// re-fetched windows stay idempotent.
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bars (
			symbol TEXT,
			window_close INTEGER,
			open REAL,
			high REAL,
			low REAL,
			close REAL,
			volume REAL,
			PRIMARY KEY (symbol, window_close)
		);`,
		`CREATE TABLE IF NOT EXISTS signals (
			symbol TEXT,
			window_close INTEGER,
			close REAL,
			probability REAL,
			PRIMARY KEY (symbol, window_close)
		);`,
		`CREATE TABLE IF NOT EXISTS backtests (
			symbol TEXT,
			run_at INTEGER,
			trades INTEGER,
			wins INTEGER,
			win_rate REAL,
			pnl_pct REAL,
			cagr REAL,
			sharpe REAL,
			max_drawdown REAL,
			hit_rate REAL,
			turnover REAL,
			bar_count INTEGER,
			PRIMARY KEY (symbol, run_at)
		);`,
		`CREATE TABLE IF NOT EXISTS positions (
			symbol TEXT PRIMARY KEY,
			quantity REAL,
			entry_price REAL,
			opened_at INTEGER,
			note TEXT,
			updated_at TIMESTAMP
		);`,
	}

	for _, q := range queries {
		if _, err := d.DB.Exec(q); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveBarsBulk(bars []models.MBar) error {
	if len(bars) == 0 {
		return nil
	}

	for start := 0; start < len(bars); start += sqliteBatchSize {
		end := start + sqliteBatchSize
		if end > len(bars) {
			end = len(bars)
		}
		if err := d.saveBarsChunk(bars[start:end]); err != nil {
			return err
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) saveBarsChunk(bars []models.MBar) error {
	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO bars (symbol, window_close, open, high, low, close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, window_close) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			volume = excluded.volume
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, b := range bars {
		if _, err := stmt.Exec(b.Symbol, b.WindowClose, b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveSignals(signals []models.MSignal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO signals (symbol, window_close, close, probability)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (symbol, window_close) DO UPDATE SET
			close = excluded.close,
			probability = excluded.probability
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range signals {
		if _, err := stmt.Exec(s.Symbol, s.WindowClose, s.Close, s.Probability); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) SaveBacktestSummary(summary models.MBacktestSummary) error {
	_, err := d.DB.Exec(`
		INSERT INTO backtests (symbol, run_at, trades, wins, win_rate, pnl_pct, cagr, sharpe, max_drawdown, hit_rate, turnover, bar_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol, run_at) DO UPDATE SET
			trades = excluded.trades,
			wins = excluded.wins,
			win_rate = excluded.win_rate,
			pnl_pct = excluded.pnl_pct,
			cagr = excluded.cagr,
			sharpe = excluded.sharpe,
			max_drawdown = excluded.max_drawdown,
			hit_rate = excluded.hit_rate,
			turnover = excluded.turnover,
			bar_count = excluded.bar_count
	`, summary.Symbol, time.Now().UTC().Unix(), summary.Trades, summary.Wins, summary.WinRate,
		summary.PnlPct, summary.Metrics.CAGR, summary.Metrics.Sharpe, summary.Metrics.MaxDrawdown,
		summary.Metrics.HitRate, summary.Metrics.Turnover, summary.BarCount)
	return err
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) LoadBars(symbol string, limit int) ([]models.MBar, error) {
	query := `
		SELECT symbol, window_close, open, high, low, close, volume
		FROM bars
		WHERE symbol = ?
		ORDER BY window_close DESC
		LIMIT ?
	`

	rows, err := d.DB.Query(query, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []models.MBar
	for rows.Next() {
		var b models.MBar
		if err := rows.Scan(&b.Symbol, &b.WindowClose, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query returns newest first; callers expect ascending window close
	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	return bars, nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) CleanupOldData() error {
	retentionDays := d.Config.DataSource.DataRetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	d.Logger.Info("Cleaning up data older than %d days (window_close < %d)...", retentionDays, cutoff)

	if _, err := d.DB.Exec("DELETE FROM bars WHERE window_close < ?", cutoff); err != nil {
		d.Logger.Error("Cleanup bars error: %v", err)
	}
	if _, err := d.DB.Exec("DELETE FROM signals WHERE window_close < ?", cutoff); err != nil {
		d.Logger.Error("Cleanup signals error: %v", err)
	}
	if _, err := d.DB.Exec("DELETE FROM backtests WHERE run_at < ?", cutoff); err != nil {
		d.Logger.Error("Cleanup backtests error: %v", err)
	}

	d.Logger.Info("Cleanup completed")
	return nil
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------
// Position tracker
// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Save(position models.MPosition) error {
	_, err := d.DB.Exec(`
		INSERT INTO positions (symbol, quantity, entry_price, opened_at, note, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (symbol) DO UPDATE SET
			quantity = excluded.quantity,
			entry_price = excluded.entry_price,
			opened_at = excluded.opened_at,
			note = excluded.note,
			updated_at = excluded.updated_at
	`, position.Symbol, position.Quantity, position.EntryPrice, position.OpenedAt, position.Note, time.Now().UTC())
	return err
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Load() ([]models.MPosition, error) {
	rows, err := d.DB.Query(`
		SELECT symbol, quantity, entry_price, opened_at, note, updated_at
		FROM positions
		ORDER BY symbol
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []models.MPosition
	for rows.Next() {
		var p models.MPosition
		if err := rows.Scan(&p.Symbol, &p.Quantity, &p.EntryPrice, &p.OpenedAt, &p.Note, &p.UpdatedAt); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}

	return positions, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *AsyncSQLiteDB) Clear() error {
	_, err := d.DB.Exec("DELETE FROM positions")
	return err
}
