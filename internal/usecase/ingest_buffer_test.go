package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"PairStream/internal/domain/models"
	domrepo "PairStream/internal/domain/repository"
)

type fakeStore struct {
	mu      sync.Mutex
	ticks   []*models.Tick
	candles []models.Candle
	failing bool
}

func (s *fakeStore) Init(context.Context) error { return nil }

func (s *fakeStore) AppendTicks(_ context.Context, ticks []*models.Tick) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return errors.New("store down")
	}
	s.ticks = append(s.ticks, ticks...)
	return nil
}

func (s *fakeStore) RecentTicks(context.Context, string, int) ([]*models.Tick, error) {
	return nil, nil
}

func (s *fakeStore) AppendCandle(_ context.Context, c *models.Candle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.candles = append(s.candles, *c)
	return nil
}

func (s *fakeStore) RecentCandles(context.Context, string, domrepo.Timeframe, int) ([]models.Candle, error) {
	return nil, nil
}

func (s *fakeStore) TickCount(context.Context) (int64, error) { return int64(len(s.ticks)), nil }
func (s *fakeStore) Health(context.Context) error             { return nil }
func (s *fakeStore) Close() error                             { return nil }

func (s *fakeStore) setFailing(v bool) {
	s.mu.Lock()
	s.failing = v
	s.mu.Unlock()
}

func (s *fakeStore) stored() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.ticks)
}

func TestIngestBufferFlushPersistsAndForwards(t *testing.T) {
	store := &fakeStore{}
	res := NewResampler([]domrepo.Timeframe{domrepo.TF1m}, 10, nil, noopMetrics{})
	buf := NewIngestBuffer(store, nil, nil, res, noopMetrics{})
	base := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		buf.Accept(tick("btcusdt", base.Add(time.Duration(i)*time.Second), 100+float64(i), 1))
	}
	if buf.Buffered() != 5 {
		t.Fatalf("expected 5 buffered, got %d", buf.Buffered())
	}

	buf.Flush(context.Background())

	if store.stored() != 5 {
		t.Fatalf("expected 5 stored ticks, got %d", store.stored())
	}
	if buf.Buffered() != 0 {
		t.Fatalf("expected empty buffer after flush, got %d", buf.Buffered())
	}
	cs := res.Candles("btcusdt", domrepo.TF1m, 10)
	if len(cs) != 1 || cs[0].TradeCount != 5 {
		t.Fatalf("resampler did not receive flushed ticks: %+v", cs)
	}
}

func TestIngestBufferRejectsInvalidTick(t *testing.T) {
	buf := NewIngestBuffer(&fakeStore{}, nil, nil, nil, noopMetrics{})
	buf.Accept(tick("btcusdt", time.Now(), -1, 1))
	if buf.Buffered() != 0 {
		t.Fatalf("invalid tick must not be buffered")
	}
}

func TestIngestBufferOverflowDropsOldest(t *testing.T) {
	buf := NewIngestBuffer(&fakeStore{}, nil, nil, nil, noopMetrics{}, WithQueueCap(3))
	base := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		buf.Accept(tick("btcusdt", base.Add(time.Duration(i)*time.Second), 100+float64(i), 1))
	}

	if buf.Buffered() != 3 {
		t.Fatalf("expected queue capped at 3, got %d", buf.Buffered())
	}
	if buf.Dropped() != 2 {
		t.Fatalf("expected 2 drops, got %d", buf.Dropped())
	}
	recent := buf.RecentTicks("btcusdt", 10)
	if len(recent) != 5 {
		t.Fatalf("recent ring must keep all 5 accepted ticks, got %d", len(recent))
	}
}

func TestIngestBufferRetriesFailedStorage(t *testing.T) {
	store := &fakeStore{}
	store.setFailing(true)
	buf := NewIngestBuffer(store, nil, nil, nil, noopMetrics{})
	base := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)

	buf.Accept(tick("btcusdt", base, 100, 1))
	buf.Flush(context.Background())
	if store.stored() != 0 {
		t.Fatalf("failing store must not record ticks")
	}
	if buf.Buffered() != 1 {
		t.Fatalf("failed batch must stay pending, got %d", buf.Buffered())
	}

	store.setFailing(false)
	buf.Accept(tick("btcusdt", base.Add(time.Second), 101, 1))
	buf.Flush(context.Background())
	if store.stored() != 2 {
		t.Fatalf("expected pending + new tick stored, got %d", store.stored())
	}
	if buf.Buffered() != 0 {
		t.Fatalf("expected empty buffer after recovery, got %d", buf.Buffered())
	}
}

func TestIngestBufferLatestPrice(t *testing.T) {
	buf := NewIngestBuffer(&fakeStore{}, nil, nil, nil, noopMetrics{})
	base := time.Date(2024, 10, 10, 12, 0, 0, 0, time.UTC)

	if _, ok := buf.LatestPrice("btcusdt"); ok {
		t.Fatalf("no price expected before any tick")
	}
	buf.Accept(tick("btcusdt", base, 100, 1))
	buf.Accept(tick("btcusdt", base.Add(time.Second), 105, 1))
	p, ok := buf.LatestPrice("btcusdt")
	if !ok || p != 105 {
		t.Fatalf("expected latest price 105, got %v ok=%v", p, ok)
	}
}
