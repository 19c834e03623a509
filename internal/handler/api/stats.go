package api

import (
	"errors"

	"github.com/labstack/echo/v4"

	"PairStream/internal/analytics"
	"PairStream/internal/domain/models"
	xhttp "PairStream/pkg/http"
	xlogger "PairStream/pkg/logger"
)

// statsError maps analytics failures: bad or thin input is the caller's
// problem, anything else is ours.
func (h *Handler) statsError(c echo.Context, op string, err error) error {
	if errors.Is(err, analytics.ErrInsufficientData) || errors.Is(err, analytics.ErrDegenerateInput) {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	h.logger.Error(op+" error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}

// BasicStats returns the rolling summary for one symbol.
func (h *Handler) BasicStats(c echo.Context) error {
	req := &models.BasicStatsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.stats.BasicStats(c.Request().Context(), req)
	if err != nil {
		return h.statsError(c, "basic stats", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Volatility returns annualized volatility for one symbol.
func (h *Handler) Volatility(c echo.Context) error {
	req := &models.VolatilityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.stats.Volatility(c.Request().Context(), req)
	if err != nil {
		return h.statsError(c, "volatility", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// HedgeRatio returns the fitted pair regression.
func (h *Handler) HedgeRatio(c echo.Context) error {
	req := &models.HedgeRatioRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.stats.HedgeRatio(c.Request().Context(), req)
	if err != nil {
		return h.statsError(c, "hedge ratio", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Spread returns the current spread and z-score of a pair.
func (h *Handler) Spread(c echo.Context) error {
	req := &models.SpreadRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.stats.Spread(c.Request().Context(), req)
	if err != nil {
		return h.statsError(c, "spread", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Correlation returns full-lookback and rolling pair correlation.
func (h *Handler) Correlation(c echo.Context) error {
	req := &models.CorrelationRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.stats.Correlation(c.Request().Context(), req)
	if err != nil {
		return h.statsError(c, "correlation", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// PriceADF runs the unit-root test on one symbol's closes.
func (h *Handler) PriceADF(c echo.Context) error {
	req := &models.ADFRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.stats.PriceADF(c.Request().Context(), req)
	if err != nil {
		return h.statsError(c, "price adf", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// SpreadADF runs the unit-root test on a pair's spread.
func (h *Handler) SpreadADF(c echo.Context) error {
	req := &models.SpreadADFRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.stats.SpreadADF(c.Request().Context(), req)
	if err != nil {
		return h.statsError(c, "spread adf", err)
	}
	return xhttp.SuccessResponse(c, res)
}
