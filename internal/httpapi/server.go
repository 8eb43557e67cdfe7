// Package httpapi serves the reports over HTTP.
//
// Every report in the catalog is mounted under /api/v1 at the path its
// dashboard page has always used. Query parameters are converted to the
// filter kinds the report declares and handed to the reports service
// unchanged, so validation lives in one place.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/atdtech/dcdash/pkg/query"
	"github.com/atdtech/dcdash/pkg/reports"
)

// APIPrefix is the mount point of the report routes.
const APIPrefix = "/api/v1"

// Routes maps report routes, relative to APIPrefix, to report names.
var Routes = map[string]string{
	"/dc-locations":          "dc-locations",
	"/inventory/dc-onhand":   "onhand",
	"/dc-order-lines/open":   "order-lines",
	"/invoice-lines":         "invoice-lines",
	"/route-plans":           "route-plans",
	"/order-holds/history":   "hold-history",
	"/exceptions/open-trips": "trip-exceptions",
	"/network-inventory":     "network-inventory",
	"/descartes/info":        "descartes",
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithIdentity sets the service name and version reported by /health.
func WithIdentity(name, version string) Option {
	return func(s *Server) {
		s.name = name
		s.version = version
	}
}

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	svc     *reports.Service
	logger  *slog.Logger
	metrics http.Handler
	name    string
	version string
}

// New returns the routed handler.
func New(svc *reports.Service, opts ...Option) http.Handler {
	s := &Server{
		svc:    svc,
		logger: slog.New(slog.DiscardHandler),
		name:   "dcdash",
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/health", s.health)
	r.Get("/dbhealth", s.dbHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route(APIPrefix, func(r chi.Router) {
		for path, name := range Routes {
			r.Get(path, s.report(name))
		}
	})
	return r
}

type healthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Service:   s.name,
		Version:   s.version,
		Timestamp: time.Now().UTC(),
	})
}

func (s *Server) dbHealth(w http.ResponseWriter, r *http.Request) {
	h, err := s.svc.DBHealth(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// report serves the named report. The entry must exist in the catalog.
func (s *Server) report(name string) http.HandlerFunc {
	entry, ok := reports.Lookup(name)
	if !ok {
		panic("httpapi: unknown report " + name)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		fs, err := filtersFromQuery(entry.Template, r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		res, err := s.svc.Run(r.Context(), name, fs)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// filtersFromQuery converts the query parameters the template declares.
// Parameters it does not declare are ignored, as are empty values.
func filtersFromQuery(t query.Template, r *http.Request) (query.FilterSet, error) {
	q := r.URL.Query()
	values := make(map[string]string, len(t.Filters))
	for _, f := range t.Filters {
		values[f.Name] = q.Get(f.Name)
	}
	return query.Parse(t, values)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
