// Package server is the HTTP shell around the dashboard: an HTML page that
// draws charts in the browser, a JSON API, and PNG chart rendering.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/spektr-org/catalogdash/catalog"
	"github.com/spektr-org/catalogdash/validation"
)

// Options configures the HTTP layer.
type Options struct {
	AllowedOrigins []string
	Version        string

	// PNGRate is the sustained PNG renders per second allowed per client,
	// with bursts up to PNGBurst. Zero disables the limit.
	PNGRate  float64
	PNGBurst int
}

// Server routes requests to the dashboard.
type Server struct {
	source   catalog.Source
	opts     Options
	validate *validation.Validator
	pngLimit *clientLimiter
	router   *chi.Mux
	logger   zerolog.Logger
}

// New creates a server reading catalogs from source.
func New(source catalog.Source, opts Options, logger zerolog.Logger) *Server {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		source:   source,
		opts:     opts,
		validate: validation.New(),
		router:   chi.NewRouter(),
		logger:   logger,
	}
	if opts.PNGRate > 0 {
		s.pngLimit = newClientLimiter(opts.PNGRate, opts.PNGBurst)
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleIndex)
	s.router.Get("/health", s.handleHealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/views", s.handleViews)
		r.Get("/render", s.handleRender)
		r.Get("/render.png", s.limited(s.pngLimit, s.handleRenderPNG))
		r.Get("/data", s.handleData)
		r.Get("/diagnostics", s.handleDiagnostics)
	})
}

// requestLogger logs one line per request at info level, or warn/error for
// 4xx/5xx responses.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			event := s.logger.Info()
			switch {
			case status >= 500:
				event = s.logger.Error()
			case status >= 400:
				event = s.logger.Warn()
			}
			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("took", time.Since(started)).
				Msg("http request")
		}()

		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	success(w, map[string]string{
		"status":  "healthy",
		"version": s.opts.Version,
	}, s.logger)
}
