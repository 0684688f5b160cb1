package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/banshee-data/depthframe.report/internal/testutil"
)

func TestChartsDashboard(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(s, http.MethodGet, "/debug/charts")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	body := rec.Body.String()
	for _, frag := range []string{"/debug/charts/coverage", "/debug/charts/histogram"} {
		if !strings.Contains(body, frag) {
			t.Errorf("dashboard missing iframe for %s", frag)
		}
	}
}

func TestCoverageChart(t *testing.T) {
	s, db := newTestServer(t)
	seedScanRows(t, db)

	rec := doRequest(s, http.MethodGet, "/debug/charts/coverage")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q, want text/html", ct)
	}
	if !strings.Contains(rec.Body.String(), "Mean Intensity by Depth") {
		t.Error("coverage chart missing title")
	}
}

func TestHistogramChart(t *testing.T) {
	s, db := newTestServer(t)
	seedScanRows(t, db)

	rec := doRequest(s, http.MethodGet, "/debug/charts/histogram")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "Grayscale Value Distribution") {
		t.Error("histogram chart missing title")
	}
}

func TestChartsEmptyStore(t *testing.T) {
	s, _ := newTestServer(t)

	for _, target := range []string{"/debug/charts/coverage", "/debug/charts/histogram"} {
		rec := doRequest(s, http.MethodGet, target)
		testutil.AssertStatusCode(t, rec.Code, http.StatusServiceUnavailable)
	}
}
