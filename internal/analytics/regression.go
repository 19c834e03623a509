package analytics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	huberK       = 1.345
	huberTol     = 1e-6
	huberMaxIter = 50
)

// Fit is a fitted simple linear regression y = Alpha + Beta*x.
type Fit struct {
	Alpha    float64
	Beta     float64
	RSquared float64
}

// OLS fits y = alpha + beta*x by closed-form least squares.
// Requires at least 2 aligned samples and non-zero variance in x.
func OLS(x, y []float64) (Fit, error) {
	if err := checkXY(x, y); err != nil {
		return Fit{}, err
	}
	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return Fit{}, fmt.Errorf("%w: regression did not resolve", ErrDegenerateInput)
	}
	return Fit{Alpha: alpha, Beta: beta, RSquared: rSquared(x, y, alpha, beta)}, nil
}

// Huber fits y = alpha + beta*x by iteratively re-weighted least squares
// with Huber weights (k = 1.345 on the MAD-based residual scale). On
// non-convergence the last iterate is returned rather than an error.
func Huber(x, y []float64) (Fit, error) {
	if err := checkXY(x, y); err != nil {
		return Fit{}, err
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return Fit{}, fmt.Errorf("%w: regression did not resolve", ErrDegenerateInput)
	}

	n := len(x)
	resid := make([]float64, n)
	weights := make([]float64, n)

	for iter := 0; iter < huberMaxIter; iter++ {
		for i := range x {
			resid[i] = y[i] - alpha - beta*x[i]
		}
		scale := madScale(resid)
		if scale == 0 {
			// perfect fit
			break
		}
		for i, r := range resid {
			a := math.Abs(r) / scale
			if a <= huberK {
				weights[i] = 1
			} else {
				weights[i] = huberK / a
			}
		}

		na, nb, ok := weightedLinFit(x, y, weights)
		if !ok {
			break
		}
		if math.Abs(na-alpha) < huberTol && math.Abs(nb-beta) < huberTol {
			alpha, beta = na, nb
			break
		}
		alpha, beta = na, nb
	}

	return Fit{Alpha: alpha, Beta: beta, RSquared: rSquared(x, y, alpha, beta)}, nil
}

func checkXY(x, y []float64) error {
	if len(x) != len(y) {
		return fmt.Errorf("%w: length mismatch %d vs %d", ErrDegenerateInput, len(x), len(y))
	}
	if len(x) < 2 {
		return fmt.Errorf("%w: need at least 2 samples, have %d", ErrInsufficientData, len(x))
	}
	if err := checkSeries(x, false); err != nil {
		return err
	}
	if err := checkSeries(y, false); err != nil {
		return err
	}
	if stat.Variance(x, nil) == 0 {
		return fmt.Errorf("%w: zero variance in regressor", ErrDegenerateInput)
	}
	return nil
}

func rSquared(x, y []float64, alpha, beta float64) float64 {
	my := stat.Mean(y, nil)
	var ssRes, ssTot float64
	for i := range x {
		d := y[i] - alpha - beta*x[i]
		ssRes += d * d
		t := y[i] - my
		ssTot += t * t
	}
	if ssTot == 0 {
		return 0
	}
	return 1 - ssRes/ssTot
}

// madScale is the robust residual scale 1.4826 * median(|r - median(r)|).
func madScale(resid []float64) float64 {
	tmp := make([]float64, len(resid))
	copy(tmp, resid)
	med := median(tmp)
	for i, r := range resid {
		tmp[i] = math.Abs(r - med)
	}
	return 1.4826 * median(tmp)
}

func median(xs []float64) float64 {
	sort.Float64s(xs)
	n := len(xs)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}

// weightedLinFit solves the weighted normal equations for y = a + b*x.
func weightedLinFit(x, y, w []float64) (a, b float64, ok bool) {
	var sw, swx, swy, swxx, swxy float64
	for i := range x {
		sw += w[i]
		swx += w[i] * x[i]
		swy += w[i] * y[i]
		swxx += w[i] * x[i] * x[i]
		swxy += w[i] * x[i] * y[i]
	}
	den := sw*swxx - swx*swx
	if den == 0 || sw == 0 {
		return 0, 0, false
	}
	b = (sw*swxy - swx*swy) / den
	a = (swy - b*swx) / sw
	return a, b, true
}
