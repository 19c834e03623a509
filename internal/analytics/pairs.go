package analytics

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// AlignedPair holds two price series joined on their bucket timestamps.
type AlignedPair struct {
	Timestamps []time.Time
	P1         []float64
	P2         []float64
}

// Len returns the number of aligned samples.
func (p *AlignedPair) Len() int { return len(p.Timestamps) }

// AlignSeries inner-joins two (timestamp, value) series on timestamp.
// Both inputs must be ordered oldest to newest.
func AlignSeries(a, b []Point) *AlignedPair {
	out := &AlignedPair{}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		ta, tb := a[i].Timestamp, b[j].Timestamp
		switch {
		case ta.Equal(tb):
			out.Timestamps = append(out.Timestamps, ta)
			out.P1 = append(out.P1, a[i].Value)
			out.P2 = append(out.P2, b[j].Value)
			i++
			j++
		case ta.Before(tb):
			i++
		default:
			j++
		}
	}
	return out
}

// Spread computes spread_t = p1_t - beta*p2_t for every aligned sample.
func Spread(pair *AlignedPair, beta float64) []float64 {
	out := make([]float64, pair.Len())
	for i := range out {
		out[i] = pair.P1[i] - beta*pair.P2[i]
	}
	return out
}

// ZScore standardizes the last value of spread against the mean and sample
// std of its trailing window. Invalid when std is zero or window < 2.
func ZScore(spread []float64, window int) (z, mean, std float64, err error) {
	if len(spread) < 2 || window < 2 {
		return 0, 0, 0, fmt.Errorf("%w: need at least 2 spread samples", ErrInsufficientData)
	}
	if window > len(spread) {
		window = len(spread)
	}
	w := spread[len(spread)-window:]
	mean = stat.Mean(w, nil)
	std = stat.StdDev(w, nil)
	if std == 0 {
		return 0, mean, 0, fmt.Errorf("%w: zero spread variance", ErrDegenerateInput)
	}
	return (spread[len(spread)-1] - mean) / std, mean, std, nil
}

// Correlation is the Pearson correlation over the full aligned series.
func Correlation(pair *AlignedPair) (float64, error) {
	if pair.Len() < 2 {
		return 0, fmt.Errorf("%w: need at least 2 aligned samples", ErrInsufficientData)
	}
	if err := checkSeries(pair.P1, false); err != nil {
		return 0, err
	}
	if err := checkSeries(pair.P2, false); err != nil {
		return 0, err
	}
	if stat.Variance(pair.P1, nil) == 0 || stat.Variance(pair.P2, nil) == 0 {
		return 0, fmt.Errorf("%w: zero variance", ErrDegenerateInput)
	}
	return stat.Correlation(pair.P1, pair.P2, nil), nil
}

// CorrelationWindow holds one sliding-subwindow correlation, stamped with
// the window's last bucket.
type CorrelationWindow struct {
	Timestamp   time.Time
	Correlation float64
}

// RollingCorrelation computes the Pearson correlation on every sliding
// subwindow of fixed size. Subwindows with zero variance on either side are
// skipped. The result is a finite slice, oldest window first.
func RollingCorrelation(pair *AlignedPair, window int) ([]CorrelationWindow, error) {
	if window < 2 {
		return nil, fmt.Errorf("%w: window must be >= 2", ErrInsufficientData)
	}
	if pair.Len() < window {
		return nil, fmt.Errorf("%w: need %d aligned samples, have %d", ErrInsufficientData, window, pair.Len())
	}
	out := make([]CorrelationWindow, 0, pair.Len()-window+1)
	for end := window; end <= pair.Len(); end++ {
		w1 := pair.P1[end-window : end]
		w2 := pair.P2[end-window : end]
		if stat.Variance(w1, nil) == 0 || stat.Variance(w2, nil) == 0 {
			continue
		}
		out = append(out, CorrelationWindow{
			Timestamp:   pair.Timestamps[end-1],
			Correlation: stat.Correlation(w1, w2, nil),
		})
	}
	return out, nil
}
