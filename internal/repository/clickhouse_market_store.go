package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"PairStream/internal/domain/models"
	domrepo "PairStream/internal/domain/repository"
	pkgch "PairStream/pkg/clickhouse"
	applogger "PairStream/pkg/logger"
)

// schema statements, idempotent
var marketSchema = []string{
	`CREATE DATABASE IF NOT EXISTS pairstream`,
	`CREATE TABLE IF NOT EXISTS pairstream.ticks (
        ts DateTime64(3, 'UTC'),
        symbol LowCardinality(String),
        price Float64,
        size Float64
    ) ENGINE = MergeTree
    ORDER BY (symbol, ts)
    TTL toDateTime(ts) + INTERVAL 7 DAY`,
	`CREATE TABLE IF NOT EXISTS pairstream.candles (
        bucket DateTime64(3, 'UTC'),
        symbol LowCardinality(String),
        timeframe LowCardinality(String),
        open Float64,
        high Float64,
        low Float64,
        close Float64,
        volume Float64,
        trade_count UInt32
    ) ENGINE = ReplacingMergeTree
    ORDER BY (symbol, timeframe, bucket)
    TTL toDateTime(bucket) + INTERVAL 30 DAY`,
}

// CHMarketStore implements MarketStore backed by ClickHouse.
type CHMarketStore struct {
	ch *pkgch.Client
	db *sql.DB
	l  *applogger.Logger
}

func NewCHMarketStore(ch *pkgch.Client) *CHMarketStore {
	return &CHMarketStore{ch: ch, db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHMarketStore) SetLogger(l *applogger.Logger) { s.l = l }

// Init creates the database and tables if missing.
func (s *CHMarketStore) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, marketSchema)
}

// AppendTicks inserts a batch of ticks, chunked to bound statement size.
func (s *CHMarketStore) AppendTicks(ctx context.Context, ticks []*models.Tick) error {
	if len(ticks) == 0 {
		return nil
	}
	const chunkSize = 2000
	for start := 0; start < len(ticks); start += chunkSize {
		end := start + chunkSize
		if end > len(ticks) {
			end = len(ticks)
		}

		values := make([]string, 0, end-start)
		args := make([]interface{}, 0, (end-start)*4)
		for _, t := range ticks[start:end] {
			if t == nil || t.Symbol == "" {
				continue
			}
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, t.Timestamp, t.Symbol, t.Price, t.Size)
		}
		if len(values) == 0 {
			continue
		}
		q := "INSERT INTO pairstream.ticks (ts, symbol, price, size) VALUES " + strings.Join(values, ",")
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			if s.l != nil {
				s.l.Error("clickhouse tick insert error",
					applogger.Int("rows", len(values)),
					applogger.Error(err),
				)
			}
			return fmt.Errorf("insert ticks: %w", err)
		}
	}
	return nil
}

// RecentTicks returns the newest limit ticks for a symbol, oldest first.
func (s *CHMarketStore) RecentTicks(ctx context.Context, symbol string, limit int) ([]*models.Tick, error) {
	const q = `
        SELECT ts, symbol, price, size
        FROM pairstream.ticks
        WHERE symbol = ?
        ORDER BY ts DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse recent_ticks query error",
				applogger.String("symbol", symbol),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("recent ticks: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Tick, 0, limit)
	for rows.Next() {
		var t models.Tick
		if err := rows.Scan(&t.Timestamp, &t.Symbol, &t.Price, &t.Size); err != nil {
			return nil, fmt.Errorf("scan tick: %w", err)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

// AppendCandle inserts one closed candle.
func (s *CHMarketStore) AppendCandle(ctx context.Context, c *models.Candle) error {
	const q = `
        INSERT INTO pairstream.candles
            (bucket, symbol, timeframe, open, high, low, close, volume, trade_count)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		c.BucketStart, c.Symbol, c.Timeframe,
		c.Open, c.High, c.Low, c.Close, c.Volume, uint32(c.TradeCount),
	)
	if err != nil {
		return fmt.Errorf("insert candle: %w", err)
	}
	return nil
}

// RecentCandles returns the newest limit closed candles, oldest first.
func (s *CHMarketStore) RecentCandles(ctx context.Context, symbol string, tf domrepo.Timeframe, limit int) ([]models.Candle, error) {
	start := time.Now()
	const q = `
        SELECT bucket, symbol, timeframe, open, high, low, close, volume, trade_count
        FROM pairstream.candles
        WHERE symbol = ? AND timeframe = ?
        ORDER BY bucket DESC
        LIMIT ?
    `
	rows, err := s.db.QueryContext(ctx, q, symbol, string(tf), limit)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse recent_candles query error",
				applogger.String("symbol", symbol),
				applogger.String("tf", string(tf)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("recent candles: %w", err)
	}
	defer rows.Close()

	tmp := make([]models.Candle, 0, limit)
	for rows.Next() {
		var c models.Candle
		var tc uint32
		if err := rows.Scan(&c.BucketStart, &c.Symbol, &c.Timeframe,
			&c.Open, &c.High, &c.Low, &c.Close, &c.Volume, &tc); err != nil {
			return nil, fmt.Errorf("scan candle: %w", err)
		}
		c.TradeCount = int64(tc)
		tmp = append(tmp, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	// reverse to ASC
	for i, j := 0, len(tmp)-1; i < j; i, j = i+1, j-1 {
		tmp[i], tmp[j] = tmp[j], tmp[i]
	}
	if s.l != nil {
		s.l.Debug("clickhouse recent_candles ok",
			applogger.String("symbol", symbol),
			applogger.String("tf", string(tf)),
			applogger.Int("rows", len(tmp)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return tmp, nil
}

// TickCount reports the total stored tick count.
func (s *CHMarketStore) TickCount(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, "SELECT count() FROM pairstream.ticks").Scan(&n); err != nil {
		return 0, fmt.Errorf("tick count: %w", err)
	}
	return n, nil
}

// Health pings the pool.
func (s *CHMarketStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close is a no-op; the pool is owned by pkg/clickhouse.
func (s *CHMarketStore) Close() error { return nil }
