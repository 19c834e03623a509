package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"PairStream/internal/domain/models"
	xhttp "PairStream/pkg/http"
)

func jsonContext(body string) echo.Context {
	e := echo.New()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return e.NewContext(r, httptest.NewRecorder())
}

func queryContext(target string) echo.Context {
	e := echo.New()
	r := httptest.NewRequest(http.MethodGet, target, nil)
	return e.NewContext(r, httptest.NewRecorder())
}

func TestCreateAlertAcceptsZeroThreshold(t *testing.T) {
	req := &models.CreateAlertRequest{}
	c := jsonContext(`{"name":"spread flip","symbol":"btcusdt_ethusdt","metric":"z_score","condition":">","threshold":0}`)
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		t.Fatalf("zero threshold rejected: %v", verr)
	}
	if req.Threshold != 0 {
		t.Fatalf("unexpected threshold %v", req.Threshold)
	}
}

func TestCreateAlertStillRejectsMissingName(t *testing.T) {
	req := &models.CreateAlertRequest{}
	c := jsonContext(`{"symbol":"btcusdt","metric":"price","condition":">","threshold":100}`)
	if verr := xhttp.ReadAndValidateRequest(c, req); verr == nil {
		t.Fatalf("missing name must fail validation")
	}
}

func TestListAlertsActiveOnlyFalseSurvivesDefaults(t *testing.T) {
	req := &models.ListAlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(queryContext("/api/alerts?active_only=false"), req); verr != nil {
		t.Fatalf("bind failed: %v", verr)
	}
	if req.ActiveOnly == nil || *req.ActiveOnly {
		t.Fatalf("explicit active_only=false was overwritten")
	}
}

func TestListAlertsActiveOnlyDefaultsTrue(t *testing.T) {
	req := &models.ListAlertsRequest{}
	if verr := xhttp.ReadAndValidateRequest(queryContext("/api/alerts"), req); verr != nil {
		t.Fatalf("bind failed: %v", verr)
	}
	if req.ActiveOnly == nil || !*req.ActiveOnly {
		t.Fatalf("active_only must default to true")
	}
}
