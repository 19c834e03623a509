package usecase

import (
	"context"
	"testing"
	"time"

	"PairStream/internal/domain/models"
	domrepo "PairStream/internal/domain/repository"
)

func TestBasicStatsUsesIntrabarHighLow(t *testing.T) {
	res := NewResampler([]domrepo.Timeframe{domrepo.TF1s}, 100, nil, noopMetrics{})
	buf := NewIngestBuffer(&fakeStore{}, nil, nil, nil, noopMetrics{})
	a := NewAnalytics(res, buf, nil, nil, noopMetrics{})
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second).Add(-time.Minute)
	res.OnTick(ctx, tick("btcusdt", base, 100, 1))
	res.OnTick(ctx, tick("btcusdt", base.Add(200*time.Millisecond), 200, 1))
	res.OnTick(ctx, tick("btcusdt", base.Add(400*time.Millisecond), 100, 1))
	for i := 1; i <= 8; i++ {
		res.OnTick(ctx, tick("btcusdt", base.Add(time.Duration(i)*time.Second), 100, 1))
	}

	stats, err := a.BasicStats(ctx, &models.BasicStatsRequest{Symbol: "btcusdt", Timeframe: "1s", Window: 5})
	if err != nil {
		t.Fatalf("basic stats: %v", err)
	}
	if stats.Source != "candles" {
		t.Fatalf("expected candle source, got %q", stats.Source)
	}
	if stats.High24h != 200 {
		t.Fatalf("expected intrabar high 200, got %v", stats.High24h)
	}
	if stats.Low24h != 100 {
		t.Fatalf("expected low 100, got %v", stats.Low24h)
	}
}

func TestBasicStatsExcludesStaleCandlesFromRange(t *testing.T) {
	res := NewResampler([]domrepo.Timeframe{domrepo.TF1m}, 5000, nil, noopMetrics{})
	buf := NewIngestBuffer(&fakeStore{}, nil, nil, nil, noopMetrics{})
	a := NewAnalytics(res, buf, nil, nil, noopMetrics{})
	ctx := context.Background()

	// a two-day-old spike must not count toward the 24h range
	old := time.Now().UTC().Truncate(time.Minute).Add(-48 * time.Hour)
	res.OnTick(ctx, tick("btcusdt", old, 900, 1))
	recent := time.Now().UTC().Truncate(time.Minute).Add(-30 * time.Minute)
	for i := 0; i <= 10; i++ {
		res.OnTick(ctx, tick("btcusdt", recent.Add(time.Duration(i)*time.Minute), 100+float64(i), 1))
	}

	stats, err := a.BasicStats(ctx, &models.BasicStatsRequest{Symbol: "btcusdt", Timeframe: "1m", Window: 5})
	if err != nil {
		t.Fatalf("basic stats: %v", err)
	}
	if stats.High24h != 109 {
		t.Fatalf("stale spike leaked into 24h high: %v", stats.High24h)
	}
	if stats.Low24h != 100 {
		t.Fatalf("unexpected 24h low %v", stats.Low24h)
	}
}

func TestBasicStatsTickFallbackVolumes(t *testing.T) {
	res := NewResampler([]domrepo.Timeframe{domrepo.TF1m}, 10, nil, noopMetrics{})
	buf := NewIngestBuffer(&fakeStore{}, nil, nil, nil, noopMetrics{})
	a := NewAnalytics(res, buf, nil, nil, noopMetrics{})
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Minute)
	sizes := []float64{1, 2, 3, 4, 5, 3, 2, 1, 4, 3}
	for i, s := range sizes {
		buf.Accept(tick("ethusdt", base.Add(time.Duration(i)*time.Second), 2000+float64(i%3), s))
	}

	stats, err := a.BasicStats(ctx, &models.BasicStatsRequest{Symbol: "ethusdt", Timeframe: "1m", Window: 5})
	if err != nil {
		t.Fatalf("basic stats: %v", err)
	}
	if stats.Source != "ticks" {
		t.Fatalf("expected tick fallback, got %q", stats.Source)
	}
	if stats.AvgVolume != 2.8 {
		t.Fatalf("expected avg volume 2.8 from tick sizes, got %v", stats.AvgVolume)
	}
	if stats.CurrentVolume != 3 {
		t.Fatalf("expected current volume 3, got %v", stats.CurrentVolume)
	}
	if stats.High24h != 2002 || stats.Low24h != 2000 {
		t.Fatalf("unexpected tick range %v/%v", stats.High24h, stats.Low24h)
	}
}
