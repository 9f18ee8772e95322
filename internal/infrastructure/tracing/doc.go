/*
Package tracing provides lightweight request tracing.

Every HTTP request and inbound WebSocket message gets a span. Spans carry a
trace id that is continued from the X-Trace-ID header when a caller sends
one, so a front end can correlate its own logs with the service's. Finished
spans are queued to a background collector that logs them through zap.

# Usage

	tracer := tracing.New("tabs", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "ws.tabReorder")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()

	logger.Info("Reordered", tracing.Fields(ctx)...)
*/
package tracing
