package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"scoregaps/domain/facts"
	"scoregaps/internal"
	"scoregaps/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	log.SetOutput(&buf)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })
	return &buf
}

func sessionRouter(store *session.Store, logger *internal.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Session(store, func() string { return "fresh-id" }, logger))
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, SessionID(c)) })
	return r
}

func TestSessionIssuesIDAndRespectsLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		level   internal.LogLevel
		wantLog bool
	}{
		{name: "warn hides issue notice", level: internal.LogLevelWarn},
		{name: "debug shows issue notice", level: internal.LogLevelDebug, wantLog: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)
			router := sessionRouter(session.NewStore(time.Hour), internal.NewLogger(tt.level))

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, "fresh-id", rec.Body.String())
			cookies := rec.Result().Cookies()
			require.Len(t, cookies, 1)
			assert.Equal(t, session.CookieName, cookies[0].Name)
			assert.Equal(t, tt.wantLog, bytes.Contains(buf.Bytes(), []byte("[Session] Issued new session fresh-id")))
		})
	}
}

func TestSessionKeepsLiveID(t *testing.T) {
	store := session.NewStore(time.Hour)
	id := store.Save("", facts.Selection{})
	router := sessionRouter(store, internal.NewLogger(internal.LogLevelError))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: id})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, id, rec.Body.String())
}
