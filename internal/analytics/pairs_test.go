package analytics

import (
	"errors"
	"math"
	"testing"
	"time"
)

func pointsFrom(base time.Time, step time.Duration, vals []float64) []Point {
	out := make([]Point, len(vals))
	for i, v := range vals {
		out[i] = Point{Timestamp: base.Add(time.Duration(i) * step), Value: v}
	}
	return out
}

func TestAlignSeriesInnerJoin(t *testing.T) {
	base := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	a := pointsFrom(base, time.Minute, []float64{1, 2, 3, 4})
	b := []Point{
		{Timestamp: base.Add(time.Minute), Value: 20},
		{Timestamp: base.Add(3 * time.Minute), Value: 40},
		{Timestamp: base.Add(4 * time.Minute), Value: 50},
	}
	pair := AlignSeries(a, b)
	if pair.Len() != 2 {
		t.Fatalf("expected 2 aligned samples, got %d", pair.Len())
	}
	if pair.P1[0] != 2 || pair.P2[0] != 20 || pair.P1[1] != 4 || pair.P2[1] != 40 {
		t.Fatalf("unexpected aligned values %v %v", pair.P1, pair.P2)
	}
}

func TestZScoreOscillationPeaksAtThree(t *testing.T) {
	// spread oscillating between mean-3s and mean+3s
	const mean, sigma = 10.0, 2.0
	spread := make([]float64, 40)
	for i := range spread {
		if i%2 == 0 {
			spread[i] = mean - 3*sigma
		} else {
			spread[i] = mean + 3*sigma
		}
	}
	z, _, _, err := ZScore(spread, len(spread))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(math.Abs(z)-3.0) > 0.05 {
		t.Fatalf("expected |z| ~3.0, got %v", z)
	}
}

func TestZScoreZeroStd(t *testing.T) {
	spread := []float64{5, 5, 5, 5, 5}
	_, _, _, err := ZScore(spread, 5)
	if !errors.Is(err, ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput, got %v", err)
	}
}

func TestZScoreTooShort(t *testing.T) {
	_, _, _, err := ZScore([]float64{1}, 20)
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCorrelationIdenticalSeries(t *testing.T) {
	base := time.Now()
	vals := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	pair := AlignSeries(pointsFrom(base, time.Second, vals), pointsFrom(base, time.Second, vals))
	c, err := Correlation(pair)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(c-1.0) > 1e-12 {
		t.Fatalf("expected correlation 1.0, got %v", c)
	}
}

func TestCorrelationInverseSeries(t *testing.T) {
	base := time.Now()
	up := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	down := []float64{8, 7, 6, 5, 4, 3, 2, 1}
	pair := AlignSeries(pointsFrom(base, time.Second, up), pointsFrom(base, time.Second, down))
	c, err := Correlation(pair)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(c+1.0) > 1e-12 {
		t.Fatalf("expected correlation -1.0, got %v", c)
	}
}

func TestRollingCorrelationWindows(t *testing.T) {
	base := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	n := 30
	up := make([]float64, n)
	for i := range up {
		up[i] = float64(i) + 0.1*math.Sin(float64(i))
	}
	pair := AlignSeries(pointsFrom(base, time.Minute, up), pointsFrom(base, time.Minute, up))
	windows, err := RollingCorrelation(pair, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(windows) != n-10+1 {
		t.Fatalf("expected %d windows, got %d", n-10+1, len(windows))
	}
	for _, w := range windows {
		if math.Abs(w.Correlation-1.0) > 1e-9 {
			t.Fatalf("expected each window ~1.0, got %v at %v", w.Correlation, w.Timestamp)
		}
	}
	// last window stamped with the final bucket
	if !windows[len(windows)-1].Timestamp.Equal(base.Add(time.Duration(n-1) * time.Minute)) {
		t.Fatalf("unexpected last window timestamp %v", windows[len(windows)-1].Timestamp)
	}
}

func TestRollingCorrelationInsufficient(t *testing.T) {
	base := time.Now()
	pair := AlignSeries(pointsFrom(base, time.Second, []float64{1, 2}), pointsFrom(base, time.Second, []float64{1, 2}))
	if _, err := RollingCorrelation(pair, 10); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}
