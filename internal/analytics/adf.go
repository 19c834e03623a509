package analytics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// minADFObservations is the smallest series the test will accept; shorter
// series produce spurious statistics.
const minADFObservations = 20

// ADF is the outcome of an Augmented Dickey-Fuller unit-root test with a
// constant term.
type ADF struct {
	Statistic      float64
	PValue         float64
	UsedLag        int
	NObs           int
	CriticalValues map[string]float64
	IsStationary   bool
}

// ADFTest regresses dy_t on y_{t-1}, a constant, and p lagged differences,
// with p chosen by AIC search over 0..maxLag. The test statistic is the
// t-ratio of the y_{t-1} coefficient, compared against MacKinnon
// response-surface critical values; the p-value is interpolated from the
// asymptotic tau table. is_stationary means p < 0.05.
func ADFTest(y []float64, maxLag int) (ADF, error) {
	if len(y) < minADFObservations {
		return ADF{}, fmt.Errorf("%w: adf needs >= %d observations, have %d", ErrInsufficientData, minADFObservations, len(y))
	}
	if err := checkSeries(y, false); err != nil {
		return ADF{}, err
	}
	if maxLag < 0 {
		maxLag = 0
	}
	// keep enough degrees of freedom for the largest candidate regression
	if lagCap := (len(y) - 5) / 3; maxLag > lagCap {
		maxLag = lagCap
	}
	if maxLag < 0 {
		maxLag = 0
	}

	dy := make([]float64, len(y)-1)
	for i := 1; i < len(y); i++ {
		dy[i-1] = y[i] - y[i-1]
	}

	// AIC selection on the common sample (rows available at maxLag), then a
	// final fit with the chosen lag over its full sample.
	bestLag, bestAIC := 0, math.Inf(1)
	for p := 0; p <= maxLag; p++ {
		_, _, rss, n, ok := adfRegression(y, dy, p, maxLag)
		if !ok || n <= p+2 {
			continue
		}
		k := float64(p + 2)
		aic := float64(n)*math.Log(rss/float64(n)) + 2*k
		if aic < bestAIC {
			bestAIC, bestLag = aic, p
		}
	}

	gamma, se, _, nobs, ok := adfRegression(y, dy, bestLag, bestLag)
	if !ok || se == 0 {
		return ADF{}, fmt.Errorf("%w: adf regression did not resolve", ErrDegenerateInput)
	}

	tstat := gamma / se
	crit := mackinnonCrit(nobs)
	p := mackinnonPValue(tstat)

	return ADF{
		Statistic:      tstat,
		PValue:         p,
		UsedLag:        bestLag,
		NObs:           nobs,
		CriticalValues: crit,
		IsStationary:   p < 0.05,
	}, nil
}

// adfRegression fits dy_t = c + gamma*y_{t-1} + sum phi_i*dy_{t-i} using
// rows t >= startLag+1 so candidate lags share a sample when startLag is
// held at maxLag. Returns gamma, its standard error, the residual sum of
// squares, and the row count.
func adfRegression(y, dy []float64, lag, startLag int) (gamma, se, rss float64, n int, ok bool) {
	rows := len(dy) - startLag
	cols := lag + 2 // constant, y_{t-1}, lagged diffs
	if rows <= cols {
		return 0, 0, 0, 0, false
	}

	X := mat.NewDense(rows, cols, nil)
	b := mat.NewVecDense(rows, nil)
	for r := 0; r < rows; r++ {
		t := startLag + r // index into dy; dy[t] corresponds to y[t+1]-y[t]
		X.Set(r, 0, 1)
		X.Set(r, 1, y[t])
		for i := 1; i <= lag; i++ {
			X.Set(r, 1+i, dy[t-i])
		}
		b.SetVec(r, dy[t])
	}

	var beta mat.VecDense
	if err := beta.SolveVec(X, b); err != nil {
		return 0, 0, 0, 0, false
	}

	var fitted mat.VecDense
	fitted.MulVec(X, &beta)
	for r := 0; r < rows; r++ {
		d := b.AtVec(r) - fitted.AtVec(r)
		rss += d * d
	}

	dof := rows - cols
	if dof <= 0 {
		return 0, 0, 0, 0, false
	}
	sigma2 := rss / float64(dof)

	var xtx, inv mat.Dense
	xtx.Mul(X.T(), X)
	if err := inv.Inverse(&xtx); err != nil {
		return 0, 0, 0, 0, false
	}

	gamma = beta.AtVec(1)
	se = math.Sqrt(sigma2 * inv.At(1, 1))
	return gamma, se, rss, rows, true
}

// mackinnonCrit evaluates the MacKinnon (2010) response surface for the
// constant-only case at sample size n.
func mackinnonCrit(n int) map[string]float64 {
	t := float64(n)
	eval := func(b0, b1, b2, b3 float64) float64 {
		return b0 + b1/t + b2/(t*t) + b3/(t*t*t)
	}
	return map[string]float64{
		"1%":  eval(-3.43035, -6.5393, -16.786, -79.433),
		"5%":  eval(-2.86154, -2.8903, -4.234, -40.04),
		"10%": eval(-2.56677, -1.5384, -2.809, 0),
	}
}

// tauTable holds asymptotic quantiles of the Dickey-Fuller tau distribution
// for the constant-only regression, used for p-value interpolation.
var tauTable = []struct {
	tau float64
	p   float64
}{
	{-3.43, 0.01},
	{-3.12, 0.025},
	{-2.86, 0.05},
	{-2.57, 0.10},
	{-1.57, 0.50},
	{-0.44, 0.90},
	{-0.07, 0.95},
	{0.60, 0.99},
}

// mackinnonPValue linearly interpolates the tau table, clamped to
// [0.001, 0.999] outside its range.
func mackinnonPValue(tstat float64) float64 {
	if tstat <= tauTable[0].tau {
		return 0.001
	}
	last := tauTable[len(tauTable)-1]
	if tstat >= last.tau {
		return 0.999
	}
	for i := 1; i < len(tauTable); i++ {
		lo, hi := tauTable[i-1], tauTable[i]
		if tstat <= hi.tau {
			frac := (tstat - lo.tau) / (hi.tau - lo.tau)
			return lo.p + frac*(hi.p-lo.p)
		}
	}
	return 0.999
}
