// Package http serves the dashboard's JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"tiledash/internal/log"
	"tiledash/internal/middleware/ratelimit"
	"tiledash/internal/middleware/security"
	"tiledash/internal/middleware/trace"
	"tiledash/internal/quotes"
	"tiledash/internal/store"
)

// QuoteSource exposes the cached quote views.
type QuoteSource interface {
	Views() []quotes.View
}

// Deps are the collaborators the server needs. Store is required.
type Deps struct {
	Store              *store.Store
	Quotes             QuoteSource
	Logger             *log.Logger
	RateLimitPerMinute int
	RequestTimeout     time.Duration
	DueSoonDays        int
	Now                func() time.Time
}

type Server struct {
	http.Server
	store    *store.Store
	quotes   QuoteSource
	logger   *log.Logger
	events   *log.StructuredLogger
	validate *validator.Validate
	now      func() time.Time
	started  time.Time

	defaultDueSoonDays int

	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig())
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	logger := deps.Logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		store:       deps.Store,
		quotes:      deps.Quotes,
		logger:      logger,
		events:      log.NewStructuredLogger(logger),
		validate:    newValidator(),
		now:         deps.Now,
		started:     deps.Now(),
		detector:    security.NewDetector(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
	}
	s.defaultDueSoonDays = deps.DueSoonDays
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	r := withErrorHandlers(mux.NewRouter())
	s.routes(r)

	var handler http.Handler = r
	handler = s.rateLimiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusTooManyRequests, "rate limit exceeded")
	})(handler)
	handler = s.detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = trace.LoggerMiddleware(logger)(handler)
	handler = s.tracer.Middleware(handler)
	if deps.RequestTimeout > 0 {
		handler = http.TimeoutHandler(handler, deps.RequestTimeout, `{"error":"request timed out"}`)
	}

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) routes(r *mux.Router) {
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")
	r.HandleFunc("/readyz", s.handleReady).Methods("GET")

	api := withErrorHandlers(r.PathPrefix("/api").Subrouter())

	api.HandleFunc("/tiles", s.handleListTiles).Methods("GET")
	api.HandleFunc("/tiles", s.handleCreateTile).Methods("POST")
	api.HandleFunc("/tiles/{id:[0-9]+}", s.handleGetTile).Methods("GET")
	api.HandleFunc("/tiles/{id:[0-9]+}", s.handleUpdateTile).Methods("PUT")
	api.HandleFunc("/tiles/{id:[0-9]+}", s.handleDeleteTile).Methods("DELETE")
	api.HandleFunc("/tiles/{id:[0-9]+}/move", s.handleMoveTile).Methods("POST")
	api.HandleFunc("/tiles/{id:[0-9]+}/history/{month}", s.handleRecordActual).Methods("PUT")

	api.HandleFunc("/categories", s.handleListCategories).Methods("GET")
	api.HandleFunc("/categories", s.handleCreateCategory).Methods("POST")
	api.HandleFunc("/categories/reset", s.handleResetCategories).Methods("POST")
	api.HandleFunc("/categories/{id}", s.handleUpdateCategory).Methods("PUT")
	api.HandleFunc("/categories/{id}", s.handleDeleteCategory).Methods("DELETE")

	api.HandleFunc("/payment-methods", s.handleListPaymentMethods).Methods("GET")
	api.HandleFunc("/payment-methods", s.handleCreatePaymentMethod).Methods("POST")
	api.HandleFunc("/payment-methods/{id:[0-9]+}", s.handleUpdatePaymentMethod).Methods("PUT")
	api.HandleFunc("/payment-methods/{id:[0-9]+}", s.handleDeletePaymentMethod).Methods("DELETE")

	api.HandleFunc("/tabs", s.handleListTabs).Methods("GET")
	api.HandleFunc("/tabs", s.handleSaveTab).Methods("POST")
	api.HandleFunc("/tabs/{id:[0-9]+}", s.handleSaveTab).Methods("PUT")
	api.HandleFunc("/tabs/{id:[0-9]+}", s.handleDeleteTab).Methods("DELETE")
	api.HandleFunc("/home-tabs", s.handleListHomePageTabs).Methods("GET")
	api.HandleFunc("/home-tabs", s.handleSaveHomePageTab).Methods("POST")
	api.HandleFunc("/home-tabs/{id:[0-9]+}", s.handleSaveHomePageTab).Methods("PUT")
	api.HandleFunc("/home-tabs/{id:[0-9]+}", s.handleDeleteHomePageTab).Methods("DELETE")

	api.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	api.HandleFunc("/settings", s.handleUpdateSettings).Methods("PUT")

	api.HandleFunc("/upcoming", s.handleUpcoming).Methods("GET")
	api.HandleFunc("/due-soon", s.handleDueSoon).Methods("GET")
	api.HandleFunc("/spend", s.handleSpend).Methods("GET")
	api.HandleFunc("/reconcile", s.handleReconcile).Methods("GET")

	reports := withErrorHandlers(api.PathPrefix("/reports").Subrouter())
	reports.Use(log.ComponentMiddleware(log.ComponentExport))
	reports.HandleFunc("/{report}.xlsx", s.handleReportXLSX).Methods("GET")

	api.HandleFunc("/backup", s.handleExportBackup).Methods("GET")
	api.HandleFunc("/backup", s.handleImportBackup).Methods("POST")

	api.HandleFunc("/quotes", s.handleQuotes).Methods("GET")
}

// withErrorHandlers gives router JSON 404 and 405 responses. Subrouters need their
// own: one without them reports a method mismatch as a plain 404.
func withErrorHandlers(router *mux.Router) *mux.Router {
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
	})
	return router
}

// Shutdown stops the background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
