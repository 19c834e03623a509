package analytics

import (
	"errors"
	"math/rand"
	"testing"
)

func TestADFRandomWalkNotStationary(t *testing.T) {
	// driftful random walk: clearly unit-root
	rng := rand.New(rand.NewSource(42))
	n := 300
	y := make([]float64, n)
	y[0] = 100
	for i := 1; i < n; i++ {
		y[i] = y[i-1] + 0.5 + (rng.Float64()-0.5)*2
	}

	res, err := ADFTest(y, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PValue < 0.05 {
		t.Fatalf("random walk should not look stationary, p=%v stat=%v", res.PValue, res.Statistic)
	}
	if res.IsStationary {
		t.Fatalf("random walk flagged stationary")
	}
}

func TestADFMeanRevertingStationary(t *testing.T) {
	// Ornstein-Uhlenbeck-like: strong pull back to zero
	rng := rand.New(rand.NewSource(7))
	n := 300
	y := make([]float64, n)
	y[0] = 1
	for i := 1; i < n; i++ {
		y[i] = 0.5*y[i-1] + (rng.Float64()-0.5)*0.2
	}

	res, err := ADFTest(y, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.PValue >= 0.05 {
		t.Fatalf("mean-reverting series should look stationary, p=%v stat=%v", res.PValue, res.Statistic)
	}
	if !res.IsStationary {
		t.Fatalf("mean-reverting series not flagged stationary")
	}
	if res.Statistic >= res.CriticalValues["5%"] {
		t.Fatalf("statistic %v should be below the 5%% critical value %v", res.Statistic, res.CriticalValues["5%"])
	}
}

func TestADFTooShort(t *testing.T) {
	y := make([]float64, 10)
	if _, err := ADFTest(y, 5); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestADFCriticalValuesOrdered(t *testing.T) {
	crit := mackinnonCrit(100)
	if !(crit["1%"] < crit["5%"] && crit["5%"] < crit["10%"]) {
		t.Fatalf("critical values out of order: %v", crit)
	}
}

func TestADFDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	y := make([]float64, 100)
	for i := range y {
		y[i] = 50 + (rng.Float64()-0.5)*4
	}
	a, err := ADFTest(y, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := ADFTest(y, 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Statistic != b.Statistic || a.PValue != b.PValue || a.UsedLag != b.UsedLag {
		t.Fatalf("adf not deterministic: %+v vs %+v", a, b)
	}
}
