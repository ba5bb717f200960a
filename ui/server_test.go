package ui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"scoregaps/app"
	"scoregaps/domain/facts"
	"scoregaps/internal/metrics"
	"scoregaps/internal/session"
	"scoregaps/internal/testkit"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T, src *testkit.StaticSource, opts ...Option) *Server {
	t.Helper()
	svc := app.NewDashboardService(src, nil)
	_ = svc.Load(context.Background())
	srv, err := NewServer(svc, session.NewStore(time.Hour), opts...)
	require.NoError(t, err)
	return srv
}

func do(srv *Server, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie")
	return nil
}

func TestDashboardDefaults(t *testing.T) {
	srv := newTestServer(t, testkit.NewStaticSource(testkit.DashboardRows()))

	w := do(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, `id="race-ethnicity"`)
	assert.Contains(t, body, `id="gender"`)
	assert.Contains(t, body, "background-color: #F9DFCC")
	assert.Contains(t, body, "<strong>White</strong>")
	assert.Contains(t, body, "-0.95")
	assert.NotEmpty(t, sessionCookie(t, w).Value)
}

func TestSelectionIsPerSession(t *testing.T) {
	srv := newTestServer(t, testkit.NewStaticSource(testkit.DashboardRows()))

	first := do(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	cookie := sessionCookie(t, first)

	form := url.Values{"variable": {"Gender"}, "all": {"true"}}
	req := httptest.NewRequest(http.MethodPost, "/selection", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	w := do(srv, req)
	require.Equal(t, http.StatusSeeOther, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	body := do(srv, req).Body.String()
	assert.Contains(t, body, `id="gender"`)
	assert.NotContains(t, body, `id="race-ethnicity"`)

	// a different browser still sees the defaults
	other := do(srv, httptest.NewRequest(http.MethodGet, "/", nil)).Body.String()
	assert.Contains(t, other, `id="race-ethnicity"`)

	req = httptest.NewRequest(http.MethodPost, "/selection/reset", nil)
	req.AddCookie(cookie)
	require.Equal(t, http.StatusSeeOther, do(srv, req).Code)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	assert.Contains(t, do(srv, req).Body.String(), `id="race-ethnicity"`)
}

func TestEmptySelectionPage(t *testing.T) {
	srv := newTestServer(t, testkit.NewStaticSource(testkit.DashboardRows()))
	cookie := sessionCookie(t, do(srv, httptest.NewRequest(http.MethodGet, "/", nil)))

	form := url.Values{"variable": {"Gender"}}
	req := httptest.NewRequest(http.MethodPost, "/selection", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(cookie)
	do(srv, req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	w := do(srv, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "No data matches the current selection")
}

func TestGridWithoutColumnsKeepsAssessmentColumn(t *testing.T) {
	src := testkit.NewStaticSource([]facts.FactRow{
		testkit.Row("Gender", "SAT - Total", "US", 2023, "Male", 0),
		testkit.Row("Gender", "SAT - Total", "US", 2023, "Female", 0),
	})
	srv := newTestServer(t, src)

	w := do(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, "<caption>No subgroup in this selection differs from the comparison group.</caption>")
	assert.Contains(t, body, "<tr><th>Assessment</th></tr>")
	assert.Contains(t, body, `<th scope="row">SAT - Total - US - 2023</th>`)
}

func TestDataUnavailablePage(t *testing.T) {
	srv := newTestServer(t, testkit.NewStaticSource(testkit.DashboardRows()).FailTimes(1))

	w := do(srv, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "Data unavailable")

	w = do(srv, httptest.NewRequest(http.MethodGet, "/export.csv", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestExports(t *testing.T) {
	srv := newTestServer(t, testkit.NewStaticSource(testkit.DashboardRows()))

	w := do(srv, httptest.NewRequest(http.MethodGet, "/export.csv", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "score_gaps.csv")
	assert.True(t, strings.HasPrefix(w.Body.String(), "Variable,Subject,Jurisdiction,Year,Grouping,Mean,SD,N,Cohen's d"))

	w = do(srv, httptest.NewRequest(http.MethodGet, "/export.xlsx", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "PK"))
}

func TestHealthAndMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := app.NewDashboardService(testkit.NewStaticSource(testkit.DashboardRows()), nil, app.WithMetrics(m))
	require.NoError(t, svc.Load(context.Background()))
	srv, err := NewServer(svc, session.NewStore(time.Hour), WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	require.NoError(t, err)

	w := do(srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","facts":13}`, w.Body.String())

	w = do(srv, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "scoregaps_fact_loads_total")
}

func TestAnchor(t *testing.T) {
	tests := map[string]string{
		"Race/Ethnicity":   "race-ethnicity",
		"Gender":           "gender",
		"Family Income":    "family-income",
		"National  Lunch!": "national-lunch",
	}
	for in, want := range tests {
		assert.Equal(t, want, anchor(in), in)
	}
}
