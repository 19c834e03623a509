package usecase

import (
	"context"
	"fmt"

	"PairStream/internal/domain/models"
	domrepo "PairStream/internal/domain/repository"
)

// MarketQuery serves read requests for ticks and candles. Candles come from
// the in-memory resampler first; the durable store backfills when the ring
// has less history than asked for. Ticks come from the hot cache when
// available, then the in-memory recent ring, finally the durable store.
type MarketQuery struct {
	resampler *Resampler
	buf       *IngestBuffer
	store     domrepo.MarketStore
	live      domrepo.LiveCache
}

// NewMarketQuery creates the query usecase. store and live may be nil.
func NewMarketQuery(resampler *Resampler, buf *IngestBuffer, store domrepo.MarketStore, live domrepo.LiveCache) *MarketQuery {
	return &MarketQuery{resampler: resampler, buf: buf, store: store, live: live}
}

// CandlesResult is the payload for a candle query.
type CandlesResult struct {
	Symbol    string          `json:"symbol"`
	Timeframe string          `json:"timeframe"`
	Count     int             `json:"count"`
	Candles   []models.Candle `json:"candles"`
}

// Candles returns up to limit candles oldest-first, including the open one.
func (q *MarketQuery) Candles(ctx context.Context, req *models.CandlesRequest) (*CandlesResult, error) {
	tf := domrepo.Timeframe(req.Timeframe)
	if !tf.IsValid() {
		return nil, fmt.Errorf("unknown timeframe: %q", req.Timeframe)
	}

	cs := q.resampler.Candles(req.Symbol, tf, req.Limit)
	if len(cs) < req.Limit && q.store != nil {
		stored, err := q.store.RecentCandles(ctx, req.Symbol, tf, req.Limit)
		if err == nil && len(stored) > len(cs) {
			cs = stored
		}
	}
	if len(cs) > req.Limit {
		cs = cs[len(cs)-req.Limit:]
	}

	return &CandlesResult{
		Symbol:    req.Symbol,
		Timeframe: string(tf),
		Count:     len(cs),
		Candles:   cs,
	}, nil
}

// TicksResult is the payload for a recent-ticks query.
type TicksResult struct {
	Symbol string         `json:"symbol"`
	Count  int            `json:"count"`
	Ticks  []*models.Tick `json:"ticks"`
}

// RecentTicks returns the newest ticks oldest-first.
func (q *MarketQuery) RecentTicks(ctx context.Context, req *models.TicksRequest) (*TicksResult, error) {
	var ticks []*models.Tick
	if q.live != nil {
		cached, err := q.live.RecentTicks(ctx, req.Symbol, req.Limit)
		if err == nil && len(cached) > 0 {
			ticks = cached
		}
	}
	if len(ticks) == 0 {
		ticks = q.buf.RecentTicks(req.Symbol, req.Limit)
	}
	if len(ticks) == 0 && q.store != nil {
		stored, err := q.store.RecentTicks(ctx, req.Symbol, req.Limit)
		if err == nil {
			ticks = stored
		}
	}
	return &TicksResult{Symbol: req.Symbol, Count: len(ticks), Ticks: ticks}, nil
}

// LatestPrice resolves the freshest known price for a symbol.
func (q *MarketQuery) LatestPrice(ctx context.Context, symbol string) (float64, error) {
	if p, ok := q.buf.LatestPrice(symbol); ok {
		return p, nil
	}
	if q.live != nil {
		if p, err := q.live.LatestPrice(ctx, symbol); err == nil {
			return p, nil
		}
	}
	return 0, fmt.Errorf("no price for %s", symbol)
}

// TickCount reports the durable tick count, for status reporting.
func (q *MarketQuery) TickCount(ctx context.Context) (int64, error) {
	if q.store == nil {
		return 0, nil
	}
	return q.store.TickCount(ctx)
}
