package models

import "time"

// BasicStats summarizes a single symbol over a rolling window of closes
// (or tick prices when candle history is too short).
type BasicStats struct {
	Symbol         string    `json:"symbol"`
	Timeframe      string    `json:"timeframe"`
	Timestamp      time.Time `json:"timestamp"`
	CurrentPrice   float64   `json:"current_price"`
	PriceChange    float64   `json:"price_change"`
	PriceChangePct float64   `json:"price_change_pct"`
	RollingMean    float64   `json:"rolling_mean"`
	RollingStd     float64   `json:"rolling_std"`
	High24h        float64   `json:"high_24h"`
	Low24h         float64   `json:"low_24h"`
	AvgVolume      float64   `json:"avg_volume"`
	CurrentVolume  float64   `json:"current_volume"`
	DataPoints     int       `json:"data_points"`
	Source         string    `json:"source"` // "candles" or "ticks"
}

// VolatilityStats carries annualized volatility of simple returns.
type VolatilityStats struct {
	Symbol        string  `json:"symbol"`
	Timeframe     string  `json:"timeframe"`
	HistoricalVol float64 `json:"historical_volatility"`
	RollingVol    float64 `json:"rolling_volatility"`
	Window        int     `json:"window"`
}

// RegressionMethod selects the hedge-ratio estimator.
type RegressionMethod string

const (
	MethodOLS   RegressionMethod = "ols"
	MethodHuber RegressionMethod = "huber"
)

// HedgeRatioResult is the fitted regression price1 = alpha + beta*price2.
// Derived per request, never persisted.
type HedgeRatioResult struct {
	Symbol1    string           `json:"symbol1"`
	Symbol2    string           `json:"symbol2"`
	Beta       float64          `json:"hedge_ratio"`
	Alpha      float64          `json:"intercept"`
	RSquared   float64          `json:"r_squared"`
	Method     RegressionMethod `json:"method"`
	DataPoints int              `json:"data_points"`
	Timeframe  string           `json:"timeframe"`
}

// SpreadSample is the current pairs-trading residual and its z-score.
type SpreadSample struct {
	Symbol1       string    `json:"symbol1"`
	Symbol2       string    `json:"symbol2"`
	HedgeRatio    float64   `json:"hedge_ratio"`
	CurrentSpread float64   `json:"current_spread"`
	SpreadMean    float64   `json:"spread_mean"`
	SpreadStd     float64   `json:"spread_std"`
	CurrentZScore float64   `json:"current_zscore"`
	Price1        float64   `json:"price1"`
	Price2        float64   `json:"price2"`
	Timestamp     time.Time `json:"timestamp"`
	Window        int       `json:"window"`
	Timeframe     string    `json:"timeframe"`
}

// CorrelationPoint is one sliding-subwindow Pearson correlation.
type CorrelationPoint struct {
	Timestamp   time.Time `json:"timestamp"`
	Correlation float64   `json:"correlation"`
}

// CorrelationResult is the full-lookback correlation plus the per-window trail.
type CorrelationResult struct {
	Symbol1     string             `json:"symbol1"`
	Symbol2     string             `json:"symbol2"`
	Current     float64            `json:"current_correlation"`
	Mean        float64            `json:"mean_correlation"`
	Window      int                `json:"window"`
	Timeframe   string             `json:"timeframe"`
	Series      []CorrelationPoint `json:"correlation_series"`
}

// ADFResult is the outcome of an Augmented Dickey-Fuller unit-root test.
type ADFResult struct {
	Symbol         string             `json:"symbol,omitempty"`
	Symbol1        string             `json:"symbol1,omitempty"`
	Symbol2        string             `json:"symbol2,omitempty"`
	HedgeRatio     float64            `json:"hedge_ratio,omitempty"`
	Statistic      float64            `json:"adf_statistic"`
	PValue         float64            `json:"p_value"`
	UsedLag        int                `json:"used_lag"`
	NObs           int                `json:"n_observations"`
	CriticalValues map[string]float64 `json:"critical_values"`
	IsStationary   bool               `json:"is_stationary"`
	Timeframe      string             `json:"timeframe"`
}
