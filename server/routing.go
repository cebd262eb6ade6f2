package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/teranos/classdb/logger"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /classification/query", s.HandleQuery)
	s.mux.HandleFunc("GET /classification/classify/{classifier}/{criterion}", s.HandleClassify)
	s.mux.HandleFunc("POST /classification/index", s.HandleIndex)
	s.mux.HandleFunc("DELETE /classification/index", s.HandleUnindex)
	s.mux.HandleFunc("GET /health", s.HandleHealth)
	s.mux.Handle("GET /metrics", promhttp.Handler())
}

// statusRecorder remembers the status code written through it
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// instrument tags each request with an id, logs it and counts it.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		r = r.WithContext(logger.WithRequestID(r.Context(), id))

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		requestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())

		logger.FromContext(r.Context(), s.logger).Debugw("HTTP request",
			logger.FieldMethod, r.Method,
			logger.FieldPath, r.URL.Path,
			"status", rec.status,
			logger.FieldDurationMS, time.Since(start).Milliseconds())
	})
}
