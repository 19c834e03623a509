package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"PairStream/internal/service/ratelimit"
	"PairStream/internal/usecase"
	xhttp "PairStream/pkg/http"
	xlogger "PairStream/pkg/logger"
)

// Handler wires every HTTP route of the service.
type Handler struct {
	logger    *xlogger.Logger
	query     *usecase.MarketQuery
	stats     *usecase.Analytics
	alerts    *usecase.AlertEngine
	collector *usecase.TickCollector
	buf       *usecase.IngestBuffer
	resampler *usecase.Resampler
	rl        *ratelimit.Limiter
	started   time.Time
}

func New(
	logger *xlogger.Logger,
	query *usecase.MarketQuery,
	stats *usecase.Analytics,
	alerts *usecase.AlertEngine,
	collector *usecase.TickCollector,
	buf *usecase.IngestBuffer,
	resampler *usecase.Resampler,
) *Handler {
	return &Handler{
		logger:    logger,
		query:     query,
		stats:     stats,
		alerts:    alerts,
		collector: collector,
		buf:       buf,
		resampler: resampler,
		rl:        ratelimit.New(),
		started:   time.Now(),
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/status", h.Status)

	g.GET("/symbols", h.Symbols)
	g.POST("/symbols", h.AddSymbol)

	g.GET("/ticks/:symbol", h.Ticks)
	g.GET("/candles/:symbol", h.Candles)
	g.GET("/export/ticks/:symbol", h.ExportTicks)
	g.GET("/export/candles/:symbol", h.ExportCandles)

	s := g.Group("/stats", h.rateLimited("stats", 10, 5))
	s.GET("/basic/:symbol", h.BasicStats)
	s.GET("/volatility/:symbol", h.Volatility)
	s.GET("/adf/:symbol", h.PriceADF)
	s.GET("/hedge-ratio", h.HedgeRatio)
	s.GET("/spread", h.Spread)
	s.GET("/correlation", h.Correlation)
	s.GET("/spread-adf", h.SpreadADF)

	g.POST("/alerts", h.CreateAlert)
	g.GET("/alerts", h.ListAlerts)
	g.DELETE("/alerts/:id", h.DeleteAlert)
	g.GET("/alerts/triggers", h.Triggers)
}

// rateLimited is a per-client token bucket on a route group.
func (h *Handler) rateLimited(name string, capacity, refillPerSec float64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := c.RealIP() + ":" + name
			if !h.rl.Allow(key, capacity, refillPerSec) {
				h.logger.Warn("rate limited",
					xlogger.String("remote", c.RealIP()),
					xlogger.String("group", name),
				)
				return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
			}
			return next(c)
		}
	}
}
