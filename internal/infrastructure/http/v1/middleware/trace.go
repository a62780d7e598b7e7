package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appctx "sorvetao/internal/core/context"
	"sorvetao/internal/core/id"
)

const (
	HeaderRequestID   = "X-Request-ID"
	HeaderTraceID     = "X-Trace-ID"
	HeaderTraceParent = "traceparent"
)

// Trace middleware puts request and trace ids on the request context and
// echoes them back. A W3C traceparent header wins over X-Trace-ID.
func Trace() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(HeaderRequestID)
		if requestID == "" {
			requestID = id.New().String()
		}

		traceID, spanID := parseTraceParent(c.GetHeader(HeaderTraceParent))
		if traceID == "" {
			traceID = c.GetHeader(HeaderTraceID)
		}
		if traceID == "" {
			traceID = strings.ReplaceAll(id.New().String(), "-", "")
		}
		if spanID == "" {
			spanID = strings.ReplaceAll(id.New().String(), "-", "")[16:]
		}

		ctx := appctx.WithTrace(c.Request.Context(), &appctx.TraceContext{
			TraceID:   traceID,
			SpanID:    spanID,
			RequestID: requestID,
		})
		c.Request = c.Request.WithContext(ctx)

		c.Set("trace_id", traceID)
		c.Set("request_id", requestID)

		c.Header(HeaderRequestID, requestID)
		c.Header(HeaderTraceID, traceID)

		c.Next()
	}
}

// parseTraceParent extracts ids from "00-<32 hex>-<16 hex>-<2 hex>".
func parseTraceParent(h string) (traceID, spanID string) {
	parts := strings.Split(strings.TrimSpace(h), "-")
	if len(parts) != 4 || len(parts[1]) != 32 || len(parts[2]) != 16 {
		return "", ""
	}
	return parts[1], parts[2]
}
