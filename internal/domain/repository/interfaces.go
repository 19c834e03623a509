package repository

import (
	"context"

	"PairStream/internal/domain/models"
)

// MarketStream is a live venue connection producing normalized ticks.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	AddSymbol(ctx context.Context, symbol string) error
	Symbols() []string
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// MarketStore is the durable tick/candle store. All operations are fallible
// and must be retried or reported, never assumed to succeed.
type MarketStore interface {
	Init(ctx context.Context) error
	AppendTicks(ctx context.Context, ticks []*models.Tick) error
	RecentTicks(ctx context.Context, symbol string, limit int) ([]*models.Tick, error)
	AppendCandle(ctx context.Context, c *models.Candle) error
	RecentCandles(ctx context.Context, symbol string, tf Timeframe, limit int) ([]models.Candle, error)
	TickCount(ctx context.Context) (int64, error)
	Health(ctx context.Context) error
	Close() error
}

// AlertStore persists alert rules and the trigger log.
type AlertStore interface {
	InsertRule(ctx context.Context, r *models.AlertRule) (int64, error)
	ListRules(ctx context.Context, activeOnly bool) ([]models.AlertRule, error)
	DeleteRule(ctx context.Context, id int64) error
	InsertTrigger(ctx context.Context, t *models.AlertTrigger) error
	RecentTriggers(ctx context.Context, limit int) ([]models.AlertTrigger, error)
}

// LiveCache is the hot cache of recent market data per symbol.
type LiveCache interface {
	SetLatestPrice(ctx context.Context, symbol string, price float64) error
	LatestPrice(ctx context.Context, symbol string) (float64, error)
	PushTick(ctx context.Context, t *models.Tick) error
	RecentTicks(ctx context.Context, symbol string, count int) ([]*models.Tick, error)
	Close() error
}

// Broadcaster fans live data out to external subscribers.
type Broadcaster interface {
	BroadcastTick(ctx context.Context, t *models.Tick) error
	BroadcastTicks(ctx context.Context, ticks []*models.Tick) error
	BroadcastTrigger(ctx context.Context, tr *models.AlertTrigger) error
	Close() error
}

// Metrics records operational counters and gauges.
type Metrics interface {
	RecordTickIngested(symbol string)
	RecordTickDropped(reason string)
	RecordCandleClosed(symbol string, tf string)
	RecordAlertTriggered(rule string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
