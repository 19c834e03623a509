package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"PairStream/internal/domain/models"
	xhttp "PairStream/pkg/http"
	xlogger "PairStream/pkg/logger"
	xutil "PairStream/pkg/util"
)

// Health reports liveness.
func (h *Handler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status": "ok",
		"time":   time.Now().UTC(),
	})
}

// statusPayload is the operational snapshot for /api/status.
type statusPayload struct {
	Status             string  `json:"status"`
	UptimeSeconds      float64 `json:"uptime_seconds"`
	StreamConnected    bool    `json:"stream_connected"`
	BufferedTicks      int     `json:"buffered_ticks"`
	DroppedTicks       int64   `json:"dropped_ticks"`
	OutOfOrderDropped  int64   `json:"out_of_order_dropped"`
	StoredTicks        int64   `json:"stored_ticks"`
	StoredTicksUnknown bool    `json:"stored_ticks_unknown,omitempty"`
}

// Status reports the pipeline state.
func (h *Handler) Status(c echo.Context) error {
	p := statusPayload{
		Status:            "ok",
		UptimeSeconds:     time.Since(h.started).Seconds(),
		BufferedTicks:     h.buf.Buffered(),
		DroppedTicks:      h.buf.Dropped(),
		OutOfOrderDropped: h.resampler.OutOfOrderDropped(),
	}
	if h.collector != nil {
		p.StreamConnected = h.collector.IsConnected()
		if !p.StreamConnected {
			p.Status = "degraded"
		}
	}
	count, err := h.query.TickCount(c.Request().Context())
	if err != nil {
		p.StoredTicksUnknown = true
		p.Status = "degraded"
	} else {
		p.StoredTicks = count
	}
	return xhttp.SuccessResponse(c, p)
}

// Symbols lists the live subscription set.
func (h *Handler) Symbols(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbols": h.collector.Symbols(),
	})
}

// AddSymbol subscribes one more trade stream at runtime. The grown set
// survives reconnects.
func (h *Handler) AddSymbol(c echo.Context) error {
	req := &models.AddSymbolRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.collector.AddSymbol(c.Request().Context(), req.Symbol); err != nil {
		h.logger.Error("add symbol error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	return xhttp.CreatedResponse(c, map[string]interface{}{
		"symbols": h.collector.Symbols(),
	})
}

// Ticks returns recent ticks for one symbol.
func (h *Handler) Ticks(c echo.Context) error {
	req := &models.TicksRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.query.RecentTicks(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("ticks query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Candles returns recent candles for one symbol, open candle included.
func (h *Handler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.query.Candles(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("candles query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// ExportTicks streams recent ticks as CSV.
func (h *Handler) ExportTicks(c echo.Context) error {
	req := &models.TicksRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.query.RecentTicks(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("tick export error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	var b strings.Builder
	b.WriteString("timestamp,symbol,price,size\n")
	for _, t := range res.Ticks {
		fmt.Fprintf(&b, "%s,%s,%g,%g\n",
			t.Timestamp.UTC().Format(time.RFC3339Nano), t.Symbol, t.Price, t.Size)
	}

	filename := fmt.Sprintf("ticks_%s.csv", req.Symbol)
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(b.String()))
}

// ExportCandles streams candle history as CSV.
func (h *Handler) ExportCandles(c echo.Context) error {
	req := &models.ExportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.query.Candles(c.Request().Context(), &models.CandlesRequest{
		Symbol:    req.Symbol,
		Timeframe: req.Timeframe,
		Limit:     req.Limit,
	})
	if err != nil {
		h.logger.Error("candle export error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}

	candles := res.Candles
	if fromRaw, toRaw := c.QueryParam("from"), c.QueryParam("to"); fromRaw != "" || toRaw != "" {
		from := xhttp.ParseTimeDefault(fromRaw, time.Time{})
		to := xhttp.ParseTimeDefault(toRaw, time.Now().UTC())
		from, to = xutil.AlignFromTo(from, to, req.Timeframe)
		filtered := candles[:0:0]
		for _, cd := range candles {
			if cd.BucketStart.Before(from) || cd.BucketStart.After(to) {
				continue
			}
			filtered = append(filtered, cd)
		}
		candles = filtered
	}

	var b strings.Builder
	b.WriteString("bucket_start,symbol,timeframe,open,high,low,close,volume,trade_count\n")
	for _, cd := range candles {
		fmt.Fprintf(&b, "%s,%s,%s,%g,%g,%g,%g,%g,%d\n",
			cd.BucketStart.UTC().Format(time.RFC3339Nano),
			cd.Symbol, cd.Timeframe,
			cd.Open, cd.High, cd.Low, cd.Close, cd.Volume, cd.TradeCount,
		)
	}

	filename := fmt.Sprintf("candles_%s_%s.csv", req.Symbol, req.Timeframe)
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Blob(http.StatusOK, "text/csv", []byte(b.String()))
}
