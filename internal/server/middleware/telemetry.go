package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	oteltrace "go.opentelemetry.io/otel/trace"

	"fulqrun/backend/internal/event"
)

// httpRequestMetadata is the JSON shape stored in Event.Metadata for http_request events.
type httpRequestMetadata struct {
	Method     string `json:"method"`
	Route      string `json:"route"`
	StatusCode int    `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	ClientIP   string `json:"client_ip"`
}

// statusRecorder captures the response status code for telemetry.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Telemetry returns middleware that records an OTel span and request metrics per
// request and async-publishes an http_request event. Best-effort: publish failures
// are logged and do not fail the request. publisher may be nil (events skipped).
// skipPaths is the set of route patterns to not record (e.g. /healthz).
func Telemetry(tracer oteltrace.Tracer, meter otelmetric.Meter, publisher event.Publisher, skipPaths map[string]bool) func(http.Handler) http.Handler {
	var requests otelmetric.Int64Counter
	var latency otelmetric.Float64Histogram
	if meter != nil {
		requests, _ = meter.Int64Counter("http.server.requests")
		latency, _ = meter.Float64Histogram("http.server.duration_ms")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skipPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			if tracer != nil {
				var span oteltrace.Span
				ctx, span = tracer.Start(ctx, r.Method+" "+r.URL.Path)
				defer span.End()
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))
			elapsed := time.Since(start)

			route := routePattern(r)
			attrs := []attribute.KeyValue{
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.Int("http.status_code", rec.status),
			}
			if requests != nil {
				requests.Add(ctx, 1, otelmetric.WithAttributes(attrs...))
			}
			if latency != nil {
				latency.Record(ctx, float64(elapsed.Milliseconds()), otelmetric.WithAttributes(attrs...))
			}

			if publisher == nil {
				return
			}
			meta := httpRequestMetadata{
				Method:     r.Method,
				Route:      route,
				StatusCode: rec.status,
				DurationMs: elapsed.Milliseconds(),
				ClientIP:   ClientIP(r),
			}
			metaJSON, _ := json.Marshal(meta)
			orgID, _ := GetOrgID(r.Context())
			userID, _ := GetUserID(r.Context())
			sessionID, _ := GetSessionID(r.Context())
			event.PublishAsync(publisher, &event.Event{
				OrgID:     orgID,
				UserID:    userID,
				SessionID: sessionID,
				Type:      event.TypeHTTPRequest,
				Source:    "http_middleware",
				Metadata:  metaJSON,
				CreatedAt: time.Now().UTC(),
			})
		})
	}
}
