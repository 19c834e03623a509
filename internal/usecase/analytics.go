package usecase

import (
	"context"
	"fmt"
	"time"

	"PairStream/internal/analytics"
	"PairStream/internal/domain/models"
	domrepo "PairStream/internal/domain/repository"
	"PairStream/pkg/cache"
)

const statsTTL = 2 * time.Second

// Analytics computes per-symbol and pairs statistics over resampled candles.
// Results are derived on demand from in-memory candle history, falling back
// to the durable store and finally to raw ticks when history is short.
// Computed payloads are cached briefly to absorb request bursts.
type Analytics struct {
	resampler *Resampler
	buf       *IngestBuffer
	store     domrepo.MarketStore
	cache     cache.Service
	metrics   domrepo.Metrics
}

// NewAnalytics creates the analytics usecase. store and c may be nil.
func NewAnalytics(resampler *Resampler, buf *IngestBuffer, store domrepo.MarketStore, c cache.Service, metrics domrepo.Metrics) *Analytics {
	return &Analytics{resampler: resampler, buf: buf, store: store, cache: c, metrics: metrics}
}

// closedCandles fetches up to n closed candles oldest-first, preferring the
// in-memory ring and falling back to the durable store. n <= 0 fetches the
// full in-memory history.
func (a *Analytics) closedCandles(ctx context.Context, symbol string, tf domrepo.Timeframe, n int) []models.Candle {
	if n <= 0 {
		n = 500
	}
	cs := a.resampler.ClosedCandles(symbol, tf, n)
	if len(cs) >= n || a.store == nil {
		return cs
	}
	fromStore, err := a.store.RecentCandles(ctx, symbol, tf, n)
	if err != nil {
		if a.metrics != nil {
			a.metrics.RecordError("candle_fetch")
		}
		return cs
	}
	if len(fromStore) > len(cs) {
		return fromStore
	}
	return cs
}

func closes(cs []models.Candle) []float64 {
	out := make([]float64, len(cs))
	for i := range cs {
		out[i] = cs[i].Close
	}
	return out
}

// candleRange returns the highest high and lowest low among candles whose
// bucket starts inside the trailing window.
func candleRange(cs []models.Candle, cutoff time.Time) (float64, float64) {
	var high, low float64
	seen := false
	for _, c := range cs {
		if c.BucketStart.Before(cutoff) {
			continue
		}
		if !seen || c.High > high {
			high = c.High
		}
		if !seen || c.Low < low {
			low = c.Low
		}
		seen = true
	}
	return high, low
}

// tickRange returns the highest and lowest trade price inside the trailing
// window.
func tickRange(ticks []*models.Tick, cutoff time.Time) (float64, float64) {
	var high, low float64
	seen := false
	for _, t := range ticks {
		if t.Timestamp.Before(cutoff) {
			continue
		}
		if !seen || t.Price > high {
			high = t.Price
		}
		if !seen || t.Price < low {
			low = t.Price
		}
		seen = true
	}
	return high, low
}

func closePoints(cs []models.Candle) []analytics.Point {
	out := make([]analytics.Point, len(cs))
	for i := range cs {
		out[i] = analytics.Point{Timestamp: cs[i].BucketStart, Value: cs[i].Close}
	}
	return out
}

// alignedCloses joins the close series of two symbols on bucket start.
func (a *Analytics) alignedCloses(ctx context.Context, s1, s2 string, tf domrepo.Timeframe, lookback int) (*analytics.AlignedPair, error) {
	c1 := a.closedCandles(ctx, s1, tf, lookback)
	c2 := a.closedCandles(ctx, s2, tf, lookback)
	pair := analytics.AlignSeries(closePoints(c1), closePoints(c2))
	if pair.Len() < 2 {
		return nil, fmt.Errorf("%w: %d aligned candles for %s/%s", analytics.ErrInsufficientData, pair.Len(), s1, s2)
	}
	return pair, nil
}

func (a *Analytics) getCached(ctx context.Context, key string, dest interface{}) bool {
	if a.cache == nil {
		return false
	}
	return a.cache.Get(ctx, key, dest) == nil
}

func (a *Analytics) putCached(ctx context.Context, key string, value interface{}) {
	if a.cache != nil {
		_ = a.cache.Set(ctx, key, value, statsTTL)
	}
}

// BasicStats summarizes one symbol over a rolling window. Uses candle closes
// when enough history exists, otherwise falls back to raw tick prices.
func (a *Analytics) BasicStats(ctx context.Context, req *models.BasicStatsRequest) (*models.BasicStats, error) {
	tf := domrepo.Timeframe(req.Timeframe).Normalize()
	key := cache.GenerateKeyWithParams("pairstream:stats:basic", req.Symbol, tf, req.Window)
	var hit models.BasicStats
	if a.getCached(ctx, key, &hit) {
		return &hit, nil
	}

	cs := a.closedCandles(ctx, req.Symbol, tf, 0)
	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	var (
		series         []float64
		source         string
		high, low      float64
		avgVol, curVol float64
	)
	if len(cs) >= req.Window {
		series = closes(cs)
		source = "candles"
		high, low = candleRange(cs, cutoff)
		w := req.Window
		if w > len(cs) {
			w = len(cs)
		}
		for _, c := range cs[len(cs)-w:] {
			avgVol += c.Volume
		}
		avgVol /= float64(w)
		curVol = cs[len(cs)-1].Volume
	} else {
		ticks := a.buf.RecentTicks(req.Symbol, 0)
		if len(ticks) < req.Window {
			return nil, fmt.Errorf("%w: %d candles and %d ticks for %s, need %d",
				analytics.ErrInsufficientData, len(cs), len(ticks), req.Symbol, req.Window)
		}
		series = make([]float64, len(ticks))
		var sizeSum float64
		for i, t := range ticks {
			series[i] = t.Price
			sizeSum += t.Size
		}
		source = "ticks"
		high, low = tickRange(ticks, cutoff)
		avgVol = sizeSum / float64(len(ticks))
		curVol = ticks[len(ticks)-1].Size
	}

	mean, std, err := analytics.RollingMeanStd(series, req.Window)
	if err != nil {
		return nil, err
	}

	current := series[len(series)-1]
	if p, ok := a.buf.LatestPrice(req.Symbol); ok {
		current = p
	}
	first := series[0]

	res := &models.BasicStats{
		Symbol:        req.Symbol,
		Timeframe:     string(tf),
		Timestamp:     time.Now().UTC(),
		CurrentPrice:  current,
		PriceChange:   current - first,
		RollingMean:   mean,
		RollingStd:    std,
		High24h:       high,
		Low24h:        low,
		AvgVolume:     avgVol,
		CurrentVolume: curVol,
		DataPoints:    len(series),
		Source:        source,
	}
	if first != 0 {
		res.PriceChangePct = (current - first) / first * 100
	}
	a.putCached(ctx, key, res)
	return res, nil
}

// Volatility computes annualized volatility of simple returns on closes.
func (a *Analytics) Volatility(ctx context.Context, req *models.VolatilityRequest) (*models.VolatilityStats, error) {
	tf := domrepo.Timeframe(req.Timeframe).Normalize()
	key := cache.GenerateKeyWithParams("pairstream:stats:vol", req.Symbol, tf, req.Window)
	var hit models.VolatilityStats
	if a.getCached(ctx, key, &hit) {
		return &hit, nil
	}

	cs := a.closedCandles(ctx, req.Symbol, tf, 0)
	hist, roll, err := analytics.Volatility(closes(cs), req.Window, string(tf))
	if err != nil {
		return nil, err
	}
	res := &models.VolatilityStats{
		Symbol:        req.Symbol,
		Timeframe:     string(tf),
		HistoricalVol: hist,
		RollingVol:    roll,
		Window:        req.Window,
	}
	a.putCached(ctx, key, res)
	return res, nil
}

// HedgeRatio fits price1 = alpha + beta*price2 over aligned closes.
func (a *Analytics) HedgeRatio(ctx context.Context, req *models.HedgeRatioRequest) (*models.HedgeRatioResult, error) {
	tf := domrepo.Timeframe(req.Timeframe).Normalize()
	key := cache.GenerateKeyWithParams("pairstream:stats:hedge", req.Symbol1, req.Symbol2, tf, req.Lookback, req.Method)
	var hit models.HedgeRatioResult
	if a.getCached(ctx, key, &hit) {
		return &hit, nil
	}

	pair, err := a.alignedCloses(ctx, req.Symbol1, req.Symbol2, tf, req.Lookback)
	if err != nil {
		return nil, err
	}

	method := models.RegressionMethod(req.Method)
	var fit analytics.Fit
	switch method {
	case models.MethodHuber:
		fit, err = analytics.Huber(pair.P2, pair.P1)
	default:
		method = models.MethodOLS
		fit, err = analytics.OLS(pair.P2, pair.P1)
	}
	if err != nil {
		return nil, err
	}

	res := &models.HedgeRatioResult{
		Symbol1:    req.Symbol1,
		Symbol2:    req.Symbol2,
		Beta:       fit.Beta,
		Alpha:      fit.Alpha,
		RSquared:   fit.RSquared,
		Method:     method,
		DataPoints: pair.Len(),
		Timeframe:  string(tf),
	}
	a.putCached(ctx, key, res)
	return res, nil
}

// Spread computes the current pairs spread and its z-score against the
// trailing window, refitting the hedge ratio by OLS over the lookback.
func (a *Analytics) Spread(ctx context.Context, req *models.SpreadRequest) (*models.SpreadSample, error) {
	tf := domrepo.Timeframe(req.Timeframe).Normalize()
	key := cache.GenerateKeyWithParams("pairstream:stats:spread", req.Symbol1, req.Symbol2, tf, req.Lookback, req.Window)
	var hit models.SpreadSample
	if a.getCached(ctx, key, &hit) {
		return &hit, nil
	}

	pair, err := a.alignedCloses(ctx, req.Symbol1, req.Symbol2, tf, req.Lookback)
	if err != nil {
		return nil, err
	}
	fit, err := analytics.OLS(pair.P2, pair.P1)
	if err != nil {
		return nil, err
	}
	spread := analytics.Spread(pair, fit.Beta)
	z, mean, std, err := analytics.ZScore(spread, req.Window)
	if err != nil {
		return nil, err
	}

	last := pair.Len() - 1
	res := &models.SpreadSample{
		Symbol1:       req.Symbol1,
		Symbol2:       req.Symbol2,
		HedgeRatio:    fit.Beta,
		CurrentSpread: spread[last],
		SpreadMean:    mean,
		SpreadStd:     std,
		CurrentZScore: z,
		Price1:        pair.P1[last],
		Price2:        pair.P2[last],
		Timestamp:     pair.Timestamps[last],
		Window:        req.Window,
		Timeframe:     string(tf),
	}
	a.putCached(ctx, key, res)
	return res, nil
}

// Correlation computes the full-lookback Pearson correlation plus a
// sliding-window trail.
func (a *Analytics) Correlation(ctx context.Context, req *models.CorrelationRequest) (*models.CorrelationResult, error) {
	tf := domrepo.Timeframe(req.Timeframe).Normalize()
	key := cache.GenerateKeyWithParams("pairstream:stats:corr", req.Symbol1, req.Symbol2, tf, req.Window)
	var hit models.CorrelationResult
	if a.getCached(ctx, key, &hit) {
		return &hit, nil
	}

	pair, err := a.alignedCloses(ctx, req.Symbol1, req.Symbol2, tf, 0)
	if err != nil {
		return nil, err
	}
	current, err := analytics.Correlation(pair)
	if err != nil {
		return nil, err
	}
	windows, err := analytics.RollingCorrelation(pair, req.Window)
	if err != nil {
		return nil, err
	}

	series := make([]models.CorrelationPoint, len(windows))
	var sum float64
	for i, w := range windows {
		series[i] = models.CorrelationPoint{Timestamp: w.Timestamp, Correlation: w.Correlation}
		sum += w.Correlation
	}
	var mean float64
	if len(windows) > 0 {
		mean = sum / float64(len(windows))
	}

	res := &models.CorrelationResult{
		Symbol1:   req.Symbol1,
		Symbol2:   req.Symbol2,
		Current:   current,
		Mean:      mean,
		Window:    req.Window,
		Timeframe: string(tf),
		Series:    series,
	}
	a.putCached(ctx, key, res)
	return res, nil
}

// PriceADF runs the Augmented Dickey-Fuller test on one symbol's closes.
func (a *Analytics) PriceADF(ctx context.Context, req *models.ADFRequest) (*models.ADFResult, error) {
	tf := domrepo.Timeframe(req.Timeframe).Normalize()
	cs := a.closedCandles(ctx, req.Symbol, tf, 0)
	adf, err := analytics.ADFTest(closes(cs), req.MaxLag)
	if err != nil {
		return nil, err
	}
	return &models.ADFResult{
		Symbol:         req.Symbol,
		Statistic:      adf.Statistic,
		PValue:         adf.PValue,
		UsedLag:        adf.UsedLag,
		NObs:           adf.NObs,
		CriticalValues: adf.CriticalValues,
		IsStationary:   adf.IsStationary,
		Timeframe:      string(tf),
	}, nil
}

// SpreadADF runs the ADF test on the OLS spread of a pair. A stationary
// spread is the cointegration signal pairs trades lean on.
func (a *Analytics) SpreadADF(ctx context.Context, req *models.SpreadADFRequest) (*models.ADFResult, error) {
	tf := domrepo.Timeframe(req.Timeframe).Normalize()
	pair, err := a.alignedCloses(ctx, req.Symbol1, req.Symbol2, tf, req.Lookback)
	if err != nil {
		return nil, err
	}
	fit, err := analytics.OLS(pair.P2, pair.P1)
	if err != nil {
		return nil, err
	}
	spread := analytics.Spread(pair, fit.Beta)
	adf, err := analytics.ADFTest(spread, 10)
	if err != nil {
		return nil, err
	}
	return &models.ADFResult{
		Symbol1:        req.Symbol1,
		Symbol2:        req.Symbol2,
		HedgeRatio:     fit.Beta,
		Statistic:      adf.Statistic,
		PValue:         adf.PValue,
		UsedLag:        adf.UsedLag,
		NObs:           adf.NObs,
		CriticalValues: adf.CriticalValues,
		IsStationary:   adf.IsStationary,
		Timeframe:      string(tf),
	}, nil
}
