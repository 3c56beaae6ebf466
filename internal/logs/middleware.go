package logs

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request with its status, size and duration.
func RequestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			entry := log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"uri":        r.RequestURI,
				"status":     status,
				"bytes":      ww.BytesWritten(),
				"duration":   time.Since(start).String(),
				"remote":     r.RemoteAddr,
			})
			switch {
			case status >= 500:
				entry.Error("request completed")
			case status >= 400:
				entry.Warn("request completed")
			default:
				entry.Info("request completed")
			}
		})
	}
}
