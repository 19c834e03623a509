package analytics

import (
	"errors"
	"math"
	"testing"
)

// synthetic pair: price1 = 2 + 3*price2 + small deterministic noise
func syntheticPair(n int) (x, y []float64) {
	x = make([]float64, n)
	y = make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = 100 + float64(i)*0.5
		noise := 0.01 * math.Sin(float64(i)*1.3)
		y[i] = 2 + 3*x[i] + noise
	}
	return x, y
}

func TestOLSRecoversKnownCoefficients(t *testing.T) {
	x, y := syntheticPair(200)
	fit, err := OLS(x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(fit.Beta-3) > 0.01 {
		t.Fatalf("expected beta ~3, got %v", fit.Beta)
	}
	if math.Abs(fit.Alpha-2) > 0.5 {
		t.Fatalf("expected alpha ~2, got %v", fit.Alpha)
	}
	if fit.RSquared < 0.999 {
		t.Fatalf("expected near-perfect fit, got r2=%v", fit.RSquared)
	}
}

func TestHuberDownweightsOutliers(t *testing.T) {
	x, y := syntheticPair(200)
	// corrupt a few points badly
	y[10] += 500
	y[50] -= 500
	y[120] += 800

	fit, err := Huber(x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(fit.Beta-3) > 0.05 {
		t.Fatalf("expected robust beta ~3, got %v", fit.Beta)
	}

	ols, err := OLS(x, y)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(ols.Beta-3) < math.Abs(fit.Beta-3) {
		t.Fatalf("expected huber closer to truth than ols: huber=%v ols=%v", fit.Beta, ols.Beta)
	}
}

func TestOLSInsufficientData(t *testing.T) {
	_, err := OLS([]float64{1}, []float64{2})
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestOLSZeroVariance(t *testing.T) {
	_, err := OLS([]float64{5, 5, 5, 5}, []float64{1, 2, 3, 4})
	if !errors.Is(err, ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput, got %v", err)
	}
}

func TestOLSRejectsNaN(t *testing.T) {
	_, err := OLS([]float64{1, 2, math.NaN()}, []float64{1, 2, 3})
	if !errors.Is(err, ErrDegenerateInput) {
		t.Fatalf("expected ErrDegenerateInput, got %v", err)
	}
}
