package models

// Requests for the HTTP query surface. Defined in domain for consistency and reuse.

type TicksRequest struct {
	Symbol string `param:"symbol" json:"symbol" validate:"required"`
	Limit  int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type CandlesRequest struct {
	Symbol    string `param:"symbol" json:"symbol" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"1m" validate:"oneof=1s 1m 5m"`
	Limit     int    `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=500"`
}

type BasicStatsRequest struct {
	Symbol    string `param:"symbol" json:"symbol" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"1m" validate:"oneof=1s 1m 5m"`
	Window    int    `query:"window" json:"window" default:"20" validate:"gte=5,lte=100"`
}

type VolatilityRequest struct {
	Symbol    string `param:"symbol" json:"symbol" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"1m" validate:"oneof=1s 1m 5m"`
	Window    int    `query:"window" json:"window" default:"20" validate:"gte=5,lte=100"`
}

type HedgeRatioRequest struct {
	Symbol1   string `query:"symbol1" json:"symbol1" validate:"required"`
	Symbol2   string `query:"symbol2" json:"symbol2" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"1m" validate:"oneof=1s 1m 5m"`
	Lookback  int    `query:"lookback" json:"lookback" default:"100" validate:"gte=20,lte=500"`
	Method    string `query:"method" json:"method" default:"ols" validate:"oneof=ols huber"`
}

type SpreadRequest struct {
	Symbol1   string `query:"symbol1" json:"symbol1" validate:"required"`
	Symbol2   string `query:"symbol2" json:"symbol2" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"1m" validate:"oneof=1s 1m 5m"`
	Lookback  int    `query:"lookback" json:"lookback" default:"100" validate:"gte=20,lte=500"`
	Window    int    `query:"window" json:"window" default:"20" validate:"gte=2,lte=100"`
}

type CorrelationRequest struct {
	Symbol1   string `query:"symbol1" json:"symbol1" validate:"required"`
	Symbol2   string `query:"symbol2" json:"symbol2" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"1m" validate:"oneof=1s 1m 5m"`
	Window    int    `query:"window" json:"window" default:"20" validate:"gte=5,lte=100"`
}

type ADFRequest struct {
	Symbol    string `param:"symbol" json:"symbol" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"1m" validate:"oneof=1s 1m 5m"`
	MaxLag    int    `query:"maxlag" json:"maxlag" default:"10" validate:"gte=0,lte=20"`
}

type SpreadADFRequest struct {
	Symbol1   string `query:"symbol1" json:"symbol1" validate:"required"`
	Symbol2   string `query:"symbol2" json:"symbol2" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"1m" validate:"oneof=1s 1m 5m"`
	Lookback  int    `query:"lookback" json:"lookback" default:"100" validate:"gte=50,lte=500"`
}

type CreateAlertRequest struct {
	Name      string  `json:"name" validate:"required,max=100"`
	Symbol    string  `json:"symbol" validate:"required,max=20"`
	Metric    string  `json:"metric" validate:"oneof=price z_score volume volatility"`
	Condition string  `json:"condition" validate:"oneof=> < >= <="`
	Threshold float64 `json:"threshold"`
}

// ActiveOnly is a pointer so an explicit false survives the defaults pass.
type ListAlertsRequest struct {
	ActiveOnly *bool `query:"active_only" json:"active_only" default:"true"`
}

type AddSymbolRequest struct {
	Symbol string `json:"symbol" validate:"required,max=20"`
}

type TriggersRequest struct {
	Limit int `query:"limit" json:"limit" default:"20" validate:"gte=1,lte=200"`
}

type ExportRequest struct {
	Symbol    string `param:"symbol" json:"symbol" validate:"required"`
	Timeframe string `query:"timeframe" json:"timeframe" default:"1m" validate:"oneof=1s 1m 5m"`
	Limit     int    `query:"limit" json:"limit" default:"1000" validate:"gte=1,lte=10000"`
}
