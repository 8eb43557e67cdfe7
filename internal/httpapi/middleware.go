package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/atdtech/dcdash"
)

// RequestIDHeader carries the correlation id on every response.
const RequestIDHeader = "X-Request-ID"

// RequestID assigns each request a short correlation id, stores it on the
// request context and echoes it in the response header.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()[:8]
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(dcdash.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		log := s.logger.With("request_id", dcdash.RequestID(r.Context()))

		log.Info("request started", "method", r.Method, "path", r.URL.Path)
		defer func() {
			log.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"elapsed", time.Since(start),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
