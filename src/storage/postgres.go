package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"stock-watcher/src/logger"
	"stock-watcher/src/models"
)

// -----------------------------------------------------------------------------

type PostgresDB struct {
	Config *models.MConfig
	DB     *sql.DB
	Schema string
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresDB(cfg *models.MConfig, log *logger.Logger) (*PostgresDB, error) {
	// Schema named after the executable so several deployments can share
	// one database
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable name: %w", err)
	}
	name := filepath.Base(exe)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	return &PostgresDB{
		Config: cfg,
		Schema: name,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	if _, err := d.DB.Exec(fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS "%s"`, d.Schema)); err != nil {
		return fmt.Errorf("failed to create schema %s: %w", d.Schema, err)
	}

	if err := d.createTables(); err != nil {
		return err
	}

	// Register the configured symbols so external consumers can discover
	// what this instance tracks
	for _, srcCfg := range d.Config.DataSource.Sources {
		if err := d.RegisterSymbols(srcCfg.Name, srcCfg.Symbols); err != nil {
			d.Logger.Error("PostgresDB: Failed to register symbols for source %s: %v", srcCfg.Name, err)
		}
	}

	d.Logger.Info("PostgresDB initialized successfully (Schema: %s)", d.Schema)
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) createTables() error {
	queries := []string{
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS "%s"."bars" (
				symbol TEXT,
				window_close BIGINT,
				open DOUBLE PRECISION,
				high DOUBLE PRECISION,
				low DOUBLE PRECISION,
				close DOUBLE PRECISION,
				volume DOUBLE PRECISION,
				PRIMARY KEY (symbol, window_close)
			);
		`, d.Schema),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS "%s"."signals" (
				symbol TEXT,
				window_close BIGINT,
				close DOUBLE PRECISION,
				probability DOUBLE PRECISION,
				PRIMARY KEY (symbol, window_close)
			);
		`, d.Schema),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS "%s"."backtests" (
				symbol TEXT,
				run_at BIGINT,
				trades INTEGER,
				wins INTEGER,
				win_rate DOUBLE PRECISION,
				pnl_pct DOUBLE PRECISION,
				cagr DOUBLE PRECISION,
				sharpe DOUBLE PRECISION,
				max_drawdown DOUBLE PRECISION,
				hit_rate DOUBLE PRECISION,
				turnover DOUBLE PRECISION,
				bar_count INTEGER,
				PRIMARY KEY (symbol, run_at)
			);
		`, d.Schema),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS "%s"."symbols" (
				symbol TEXT PRIMARY KEY,
				source_name TEXT,
				updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
			);
		`, d.Schema),
		fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS "%s"."positions" (
				symbol TEXT PRIMARY KEY,
				quantity DOUBLE PRECISION,
				entry_price DOUBLE PRECISION,
				opened_at BIGINT,
				note TEXT,
				updated_at TIMESTAMP
			);
		`, d.Schema),
	}

	for _, q := range queries {
		if _, err := d.DB.Exec(q); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

// RegisterSymbols upserts the watched symbols of a source into the symbols
// metadata table.
func (d *PostgresDB) RegisterSymbols(sourceName string, symbols []string) error {
	if len(symbols) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."symbols" (symbol, source_name, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol) DO UPDATE SET
			source_name = EXCLUDED.source_name,
			updated_at = EXCLUDED.updated_at
	`, d.Schema)

	stmt, err := tx.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, s := range symbols {
		if _, err := stmt.Exec(s, sourceName, now); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) SaveBarsBulk(bars []models.MBar) error {
	if len(bars) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."bars" (symbol, window_close, open, high, low, close, volume)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (symbol, window_close) DO UPDATE SET
			open = EXCLUDED.open,
			high = EXCLUDED.high,
			low = EXCLUDED.low,
			close = EXCLUDED.close,
			volume = EXCLUDED.volume
	`, d.Schema)
	stmt, err := tx.Prepare(query)
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

func (d *PostgresDB) SaveSignals(signals []models.MSignal) error {
	if len(signals) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO "%s"."signals" (symbol, window_close, close, probability)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol, window_close) DO UPDATE SET
			close = EXCLUDED.close,
			probability = EXCLUDED.probability
	`, d.Schema)
	stmt, err := tx.Prepare(query)
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

func (d *PostgresDB) SaveBacktestSummary(summary models.MBacktestSummary) error {
	query := fmt.Sprintf(`
		INSERT INTO "%s"."backtests" (symbol, run_at, trades, wins, win_rate, pnl_pct, cagr, sharpe, max_drawdown, hit_rate, turnover, bar_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (symbol, run_at) DO UPDATE SET
			trades = EXCLUDED.trades,
			wins = EXCLUDED.wins,
			win_rate = EXCLUDED.win_rate,
			pnl_pct = EXCLUDED.pnl_pct,
			cagr = EXCLUDED.cagr,
			sharpe = EXCLUDED.sharpe,
			max_drawdown = EXCLUDED.max_drawdown,
			hit_rate = EXCLUDED.hit_rate,
			turnover = EXCLUDED.turnover,
			bar_count = EXCLUDED.bar_count
	`, d.Schema)

	_, err := d.DB.Exec(query, summary.Symbol, time.Now().UTC().Unix(), summary.Trades, summary.Wins,
		summary.WinRate, summary.PnlPct, summary.Metrics.CAGR, summary.Metrics.Sharpe,
		summary.Metrics.MaxDrawdown, summary.Metrics.HitRate, summary.Metrics.Turnover, summary.BarCount)
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) LoadBars(symbol string, limit int) ([]models.MBar, error) {
	query := fmt.Sprintf(`
		SELECT symbol, window_close, open, high, low, close, volume
		FROM "%s"."bars"
		WHERE symbol = $1
		ORDER BY window_close DESC
		LIMIT $2
	`, d.Schema)

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

	for i, j := 0, len(bars)-1; i < j; i, j = i+1, j-1 {
		bars[i], bars[j] = bars[j], bars[i]
	}

	return bars, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) CleanupOldData() error {
	retentionDays := d.Config.DataSource.DataRetentionDays
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays).Unix()

	d.Logger.Info("Cleaning up data older than %d days (window_close < %d)...", retentionDays, cutoff)

	if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM "%s"."bars" WHERE window_close < $1`, d.Schema), cutoff); err != nil {
		d.Logger.Error("Cleanup bars error: %v", err)
	}
	if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM "%s"."signals" WHERE window_close < $1`, d.Schema), cutoff); err != nil {
		d.Logger.Error("Cleanup signals error: %v", err)
	}
	if _, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM "%s"."backtests" WHERE run_at < $1`, d.Schema), cutoff); err != nil {
		d.Logger.Error("Cleanup backtests error: %v", err)
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}

// -----------------------------------------------------------------------------
// Position tracker
// -----------------------------------------------------------------------------

func (d *PostgresDB) Save(position models.MPosition) error {
	query := fmt.Sprintf(`
		INSERT INTO "%s"."positions" (symbol, quantity, entry_price, opened_at, note, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (symbol) DO UPDATE SET
			quantity = EXCLUDED.quantity,
			entry_price = EXCLUDED.entry_price,
			opened_at = EXCLUDED.opened_at,
			note = EXCLUDED.note,
			updated_at = EXCLUDED.updated_at
	`, d.Schema)

	_, err := d.DB.Exec(query, position.Symbol, position.Quantity, position.EntryPrice,
		position.OpenedAt, position.Note, time.Now().UTC())
	return err
}

// -----------------------------------------------------------------------------

func (d *PostgresDB) Load() ([]models.MPosition, error) {
	query := fmt.Sprintf(`
		SELECT symbol, quantity, entry_price, opened_at, note, updated_at
		FROM "%s"."positions"
		ORDER BY symbol
	`, d.Schema)

	rows, err := d.DB.Query(query)
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

func (d *PostgresDB) Clear() error {
	_, err := d.DB.Exec(fmt.Sprintf(`DELETE FROM "%s"."positions"`, d.Schema))
	return err
}
