package api

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"PairStream/internal/domain/models"
	xhttp "PairStream/pkg/http"
	xlogger "PairStream/pkg/logger"
)

// CreateAlert registers a new alert rule.
func (h *Handler) CreateAlert(c echo.Context) error {
	req := &models.CreateAlertRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rule, err := h.alerts.CreateRule(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("create alert error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError(err.Error()))
	}
	return xhttp.CreatedResponse(c, rule)
}

// ListAlerts returns persisted rules.
func (h *Handler) ListAlerts(c echo.Context) error {
	req := &models.ListAlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	activeOnly := req.ActiveOnly == nil || *req.ActiveOnly
	rules, err := h.alerts.ListRules(c.Request().Context(), activeOnly)
	if err != nil {
		h.logger.Error("list alerts error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rules, int64(len(rules)))
}

// DeleteAlert removes a rule by id.
func (h *Handler) DeleteAlert(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("id must be an integer"))
	}
	if err := h.alerts.DeleteRule(c.Request().Context(), id); err != nil {
		h.logger.Error("delete alert error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.NoContentResponse(c)
}

// Triggers returns the newest trigger log entries.
func (h *Handler) Triggers(c echo.Context) error {
	req := &models.TriggersRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	triggers, err := h.alerts.RecentTriggers(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("triggers query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, triggers, int64(len(triggers)))
}
