package analytics

import (
	"errors"
	"math"
	"testing"
)

func TestRollingMeanStd(t *testing.T) {
	xs := []float64{1, 1, 1, 2, 4, 6}
	mean, std, err := RollingMeanStd(xs, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mean != 4 {
		t.Fatalf("expected mean 4, got %v", mean)
	}
	if math.Abs(std-2) > 1e-12 {
		t.Fatalf("expected sample std 2, got %v", std)
	}
}

func TestRollingMeanStdTooShort(t *testing.T) {
	if _, _, err := RollingMeanStd([]float64{1, 2}, 5); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestRollingMeanStdRejectsNaN(t *testing.T) {
	if _, _, err := RollingMeanStd([]float64{1, math.NaN(), 3}, 3); !errors.Is(err, ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput, got %v", err)
	}
}

func TestHighLow(t *testing.T) {
	high, low := HighLow([]float64{3, 9, 1, 7})
	if high != 9 || low != 1 {
		t.Fatalf("unexpected high/low %v/%v", high, low)
	}
}

func TestSimpleReturns(t *testing.T) {
	rets := SimpleReturns([]float64{100, 110, 99})
	if len(rets) != 2 {
		t.Fatalf("expected 2 returns, got %d", len(rets))
	}
	if math.Abs(rets[0]-0.1) > 1e-12 || math.Abs(rets[1]+0.1) > 1e-12 {
		t.Fatalf("unexpected returns %v", rets)
	}
}

func TestVolatilityRejectsNonPositivePrice(t *testing.T) {
	prices := []float64{100, 0, 101, 102, 103}
	if _, _, err := Volatility(prices, 3, "1m"); !errors.Is(err, ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput, got %v", err)
	}
}

func TestVolatilityConstantPricesIsZero(t *testing.T) {
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 50
	}
	hist, roll, err := Volatility(prices, 10, "1m")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hist != 0 || roll != 0 {
		t.Fatalf("expected zero volatility, got %v/%v", hist, roll)
	}
}
