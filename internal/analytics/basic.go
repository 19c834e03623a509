package analytics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// checkSeries rejects NaN/Inf and non-positive values before any computation.
func checkSeries(xs []float64, requirePositive bool) error {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: NaN/Inf in series", ErrDegenerateInput)
		}
		if requirePositive && x <= 0 {
			return fmt.Errorf("%w: non-positive price", ErrDegenerateInput)
		}
	}
	return nil
}

// Mean is the arithmetic mean of xs.
func Mean(xs []float64) float64 { return stat.Mean(xs, nil) }

// Std is the sample standard deviation of xs (n-1 denominator).
// Sample variance is used everywhere in this package.
func Std(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// RollingMeanStd computes mean and sample std over the trailing window of xs.
func RollingMeanStd(xs []float64, window int) (mean, std float64, err error) {
	if window < 2 || len(xs) < window {
		return 0, 0, fmt.Errorf("%w: need %d samples, have %d", ErrInsufficientData, window, len(xs))
	}
	if err := checkSeries(xs, false); err != nil {
		return 0, 0, err
	}
	w := xs[len(xs)-window:]
	return stat.Mean(w, nil), stat.StdDev(w, nil), nil
}

// HighLow returns the max and min of xs.
func HighLow(xs []float64) (high, low float64) {
	high, low = math.Inf(-1), math.Inf(1)
	for _, x := range xs {
		if x > high {
			high = x
		}
		if x < low {
			low = x
		}
	}
	return high, low
}

// SimpleReturns computes r_t = p_t/p_{t-1} - 1. Returns nil when len < 2.
func SimpleReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev := prices[i-1]
		if prev <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, prices[i]/prev-1)
	}
	return out
}

// LogReturns computes r_t = ln(p_t / p_{t-1}). Returns nil when len < 2.
func LogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// BarsPerYear returns the approximate number of bars per year for a
// timeframe, assuming a 24/7 venue.
func BarsPerYear(tf string) float64 {
	switch tf {
	case "1s":
		return 365 * 24 * 60 * 60
	case "1m":
		return 365 * 24 * 60
	case "5m":
		return 365 * 24 * 12
	default:
		return 365 * 24 * 60
	}
}

// Volatility computes annualized volatility (percent) of simple returns:
// the full-sample figure and the trailing-window figure.
func Volatility(prices []float64, window int, tf string) (historical, rolling float64, err error) {
	if len(prices) < window || window < 2 {
		return 0, 0, fmt.Errorf("%w: need %d prices, have %d", ErrInsufficientData, window, len(prices))
	}
	if err := checkSeries(prices, true); err != nil {
		return 0, 0, err
	}
	rets := SimpleReturns(prices)
	if len(rets) < 2 {
		return 0, 0, fmt.Errorf("%w: too few returns", ErrInsufficientData)
	}
	ann := math.Sqrt(BarsPerYear(tf)) * 100
	historical = stat.StdDev(rets, nil) * ann
	w := window
	if w > len(rets) {
		w = len(rets)
	}
	rolling = stat.StdDev(rets[len(rets)-w:], nil) * ann
	return historical, rolling, nil
}
