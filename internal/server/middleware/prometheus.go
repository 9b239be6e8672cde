package middleware

import (
	"net/http"

	metricsprom "github.com/slok/go-http-metrics/metrics/prometheus"
	httpmetrics "github.com/slok/go-http-metrics/middleware"
	"github.com/slok/go-http-metrics/middleware/std"
)

// Prometheus instruments requests with duration/size/in-flight metrics,
// exposed on the /metrics endpoint.
func Prometheus(next http.Handler) http.Handler {
	mdlw := httpmetrics.New(httpmetrics.Config{
		Recorder: metricsprom.NewRecorder(metricsprom.Config{}),
	})

	return std.Handler("", mdlw, next)
}
