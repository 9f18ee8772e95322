package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved(t *testing.T) (*Tracer, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return New("tabs", zap.New(core)), logs
}

func TestStartSpanContinuesTrace(t *testing.T) {
	tracer, _ := newObserved(t)
	defer tracer.Close()

	parent, ctx := tracer.StartSpan(context.Background(), "parent")
	require.NotEmpty(t, parent.TraceID)
	assert.Empty(t, parent.ParentID)
	assert.Equal(t, parent.TraceID, GetTraceID(ctx))
	assert.Equal(t, parent.SpanID, GetSpanID(ctx))

	child, _ := tracer.StartSpan(ctx, "child")
	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.NotEqual(t, parent.SpanID, child.SpanID)
}

func TestSubmitLogsSpans(t *testing.T) {
	tracer, logs := newObserved(t)

	ok, _ := tracer.StartSpan(context.Background(), "ws.ping")
	ok.SetTag("direction", "inbound")
	ok.Finish()
	tracer.Submit(ok)

	failed, _ := tracer.StartSpan(context.Background(), "ws.tabReorder")
	failed.SetError(errors.New("bad order"))
	failed.Finish()
	tracer.Submit(failed)

	tracer.Close()

	require.Equal(t, 2, logs.Len())
	entries := logs.All()
	assert.Equal(t, "span completed", entries[0].Message)
	assert.Equal(t, "inbound", entries[0].ContextMap()["direction"])
	assert.Equal(t, "span completed with error", entries[1].Message)
	assert.Equal(t, "ws.tabReorder", entries[1].ContextMap()["operation"])
}

func TestSubmitAfterClose(t *testing.T) {
	tracer, logs := newObserved(t)
	tracer.Close()
	tracer.Close()

	span, _ := tracer.StartSpan(context.Background(), "late")
	tracer.Submit(span)
	assert.Zero(t, logs.Len())
}

func TestFields(t *testing.T) {
	assert.Nil(t, Fields(context.Background()))

	ctx := WithTrace(context.Background(), "req_1", "req_2")
	fields := Fields(ctx)
	require.Len(t, fields, 2)
	assert.Equal(t, "req_1", fields[0].String)
	assert.Equal(t, "req_2", fields[1].String)
	assert.Equal(t, "[trace:req_1 span:req_2]", FormatTrace("req_1", "req_2"))
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := newObserved(t)

	var seen TraceID
	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	router.GET("/tabs", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/tabs", nil)
	req.Header.Set(TraceHeader, "req_frontend")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, TraceID("req_frontend"), seen)
	assert.Equal(t, "req_frontend", w.Header().Get(TraceHeader))
	assert.NotEmpty(t, w.Header().Get(SpanHeader))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/missing", nil))
	assert.NotEmpty(t, w.Header().Get(TraceHeader), "fresh trace when none is sent")

	tracer.Close()
	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "GET /tabs", logs.All()[0].ContextMap()["operation"])
	assert.Equal(t, "GET unmatched", logs.All()[1].ContextMap()["operation"])
}
