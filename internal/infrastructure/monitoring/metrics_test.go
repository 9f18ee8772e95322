package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsTwice(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}

func TestObserveWrite(t *testing.T) {
	m := NewMetrics()

	m.ObserveWrite(time.Millisecond, nil)
	m.ObserveWrite(time.Millisecond, errors.New("disk full"))
	m.ObserveWrite(time.Millisecond, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PersistWrites.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistWrites.WithLabelValues("failure")))
	assert.Equal(t, int64(1), m.Snapshot().PersistFailures)
}

func TestTabCounters(t *testing.T) {
	m := NewMetrics()

	m.SetTabsOpen(3)
	m.RecordTabOperation("remove")
	m.RecordTabOperation("remove")
	m.RecordNotification("tabRemoved")
	m.IncDropped()

	assert.Equal(t, 3.0, testutil.ToFloat64(m.TabsOpen))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TabOperations.WithLabelValues("remove")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Notifications.WithLabelValues("tabRemoved")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Dropped))
}

func TestTimer(t *testing.T) {
	m := NewMetrics()

	NewTimer(m, "sqlite", "get").Stop(nil)
	NewTimer(m, "sqlite", "get").Stop(errors.New("locked"))
	assert.NotPanics(t, func() { NewTimer(nil, "memory", "get").Stop(nil) })

	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreCalls.WithLabelValues("sqlite", "get", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StoreCalls.WithLabelValues("sqlite", "get", "error")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/tabs/:id", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	for _, path := range []string{"/tabs/a", "/tabs/b", "/missing"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/tabs/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "unmatched", "404")))

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "tabs_http_requests_total"))
	assert.True(t, strings.Contains(body, "tabs_uptime_seconds"))
}
