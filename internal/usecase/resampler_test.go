package usecase

import (
	"context"
	"testing"
	"time"

	"PairStream/internal/domain/models"
	domrepo "PairStream/internal/domain/repository"
)

type noopMetrics struct{}

func (noopMetrics) RecordTickIngested(string)         {}
func (noopMetrics) RecordTickDropped(string)          {}
func (noopMetrics) RecordCandleClosed(string, string) {}
func (noopMetrics) RecordAlertTriggered(string)       {}
func (noopMetrics) RecordError(string)                {}
func (noopMetrics) RecordLastPrice(string, float64)   {}
func (noopMetrics) RecordLatency(string, float64)     {}

func tick(symbol string, ts time.Time, price, size float64) *models.Tick {
	return &models.Tick{Symbol: symbol, Timestamp: ts, Price: price, Size: size}
}

func TestResamplerCandleInvariants(t *testing.T) {
	r := NewResampler([]domrepo.Timeframe{domrepo.TF1m}, 10, nil, noopMetrics{})
	ctx := context.Background()
	base := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)

	prices := []float64{100, 103, 98, 101}
	sizes := []float64{1, 2, 0.5, 1.5}
	for i := range prices {
		r.OnTick(ctx, tick("btcusdt", base.Add(time.Duration(i)*10*time.Second), prices[i], sizes[i]))
	}

	cs := r.Candles("btcusdt", domrepo.TF1m, 10)
	if len(cs) != 1 {
		t.Fatalf("expected 1 open candle, got %d", len(cs))
	}
	c := cs[0]
	if c.Open != 100 || c.High != 103 || c.Low != 98 || c.Close != 101 {
		t.Fatalf("unexpected ohlc %+v", c)
	}
	if !(c.Low <= c.Open && c.Open <= c.High && c.Low <= c.Close && c.Close <= c.High) {
		t.Fatalf("ohlc invariant violated: %+v", c)
	}
	if c.Volume != 5 {
		t.Fatalf("expected volume 5, got %v", c.Volume)
	}
	if c.TradeCount != 4 {
		t.Fatalf("expected trade_count 4, got %d", c.TradeCount)
	}
	if !c.BucketStart.Equal(base) {
		t.Fatalf("expected bucket %v, got %v", base, c.BucketStart)
	}
}

func TestResamplerClosesOnNewBucket(t *testing.T) {
	r := NewResampler([]domrepo.Timeframe{domrepo.TF1m}, 10, nil, noopMetrics{})
	ctx := context.Background()
	base := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)

	r.OnTick(ctx, tick("btcusdt", base.Add(5*time.Second), 100, 1))
	r.OnTick(ctx, tick("btcusdt", base.Add(70*time.Second), 105, 2))

	cs := r.Candles("btcusdt", domrepo.TF1m, 10)
	if len(cs) != 2 {
		t.Fatalf("expected 1 closed + 1 open, got %d", len(cs))
	}
	if cs[0].Close != 100 || cs[1].Open != 105 {
		t.Fatalf("unexpected candles %+v", cs)
	}
	if !cs[1].BucketStart.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected new bucket %v", cs[1].BucketStart)
	}
}

func TestResamplerDropsOutOfOrder(t *testing.T) {
	r := NewResampler([]domrepo.Timeframe{domrepo.TF1m}, 10, nil, noopMetrics{})
	ctx := context.Background()
	base := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)

	r.OnTick(ctx, tick("btcusdt", base.Add(2*time.Minute), 100, 1))
	r.OnTick(ctx, tick("btcusdt", base, 90, 1)) // older bucket

	if r.OutOfOrderDropped() != 1 {
		t.Fatalf("expected 1 out-of-order drop, got %d", r.OutOfOrderDropped())
	}
	cs := r.Candles("btcusdt", domrepo.TF1m, 10)
	if len(cs) != 1 || cs[0].Low != 100 {
		t.Fatalf("stale tick must not touch candles: %+v", cs)
	}
}

func TestResamplerReplayIdempotent(t *testing.T) {
	base := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)
	ticks := make([]*models.Tick, 0, 120)
	for i := 0; i < 120; i++ {
		ticks = append(ticks, tick("ethusdt", base.Add(time.Duration(i)*time.Second), 2000+float64(i%7), 0.1))
	}

	run := func() []models.Candle {
		r := NewResampler([]domrepo.Timeframe{domrepo.TF1m}, 10, nil, noopMetrics{})
		ctx := context.Background()
		for _, tk := range ticks {
			r.OnTick(ctx, tk)
		}
		return r.ClosedCandles("ethusdt", domrepo.TF1m, 10)
	}

	a, b := run(), run()
	if len(a) != len(b) || len(a) != 2 {
		t.Fatalf("expected 2 identical closed candles, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("replay mismatch at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestResamplerEvictsAtCapacity(t *testing.T) {
	r := NewResampler([]domrepo.Timeframe{domrepo.TF1s}, 3, nil, noopMetrics{})
	ctx := context.Background()
	base := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		r.OnTick(ctx, tick("btcusdt", base.Add(time.Duration(i)*time.Second), 100+float64(i), 1))
	}

	closed := r.ClosedCandles("btcusdt", domrepo.TF1s, 10)
	if len(closed) != 3 {
		t.Fatalf("expected history capped at 3, got %d", len(closed))
	}
	if !closed[0].BucketStart.Equal(base.Add(2 * time.Second)) {
		t.Fatalf("expected oldest evicted, first bucket %v", closed[0].BucketStart)
	}
}

func TestResamplerMultiTimeframe(t *testing.T) {
	r := NewResampler([]domrepo.Timeframe{domrepo.TF1s, domrepo.TF1m}, 100, nil, noopMetrics{})
	ctx := context.Background()
	base := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 90; i++ {
		r.OnTick(ctx, tick("btcusdt", base.Add(time.Duration(i)*time.Second), 100, 1))
	}

	if got := len(r.ClosedCandles("btcusdt", domrepo.TF1s, 0)); got != 89 {
		t.Fatalf("expected 89 closed 1s candles, got %d", got)
	}
	if got := len(r.ClosedCandles("btcusdt", domrepo.TF1m, 0)); got != 1 {
		t.Fatalf("expected 1 closed 1m candle, got %d", got)
	}
}
