package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/domain/interfaces"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/usecase"
	"github.com/Sabarish-29/phoenix-guardian-v4-sub007/pkg/utils/logging"
)

type Server struct {
	router        *chi.Mux
	uc            *usecase.UseCases
	pager         interfaces.Pager
	enableMetrics bool
}

type Options func(*Server)

// WithPager exposes acknowledge/escalate endpoints backed by the given pager
func WithPager(p interfaces.Pager) Options {
	return func(s *Server) {
		s.pager = p
	}
}

// WithMetrics exposes the Prometheus scrape endpoint at /metrics
func WithMetrics(enabled bool) Options {
	return func(s *Server) {
		s.enableMetrics = enabled
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK")) //nolint:errcheck // header already committed
	})

	if s.enableMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(tenantMiddleware)

		r.Route("/incidents", func(r chi.Router) {
			r.Post("/", s.createIncident)
			r.Get("/", s.listIncidents)
			r.Get("/stats", s.getStats)

			r.Route("/{incidentID}", func(r chi.Router) {
				r.Get("/", s.getIncident)
				r.Get("/timeline", s.getTimeline)
				r.Get("/alerts", s.listAlerts)
				r.Get("/alerts/active", s.getActiveAlert)
				r.Post("/ack", s.acknowledgeIncident)
				r.Post("/status", s.updateStatus)
				r.Post("/assign", s.assignIncident)
				r.Post("/comments", s.addComment)
				r.Post("/actions", s.addContainmentAction)
				r.Post("/escalate", s.escalateIncident)
				r.Post("/export", s.exportIncident)

				r.Route("/postmortem", func(r chi.Router) {
					r.Post("/", s.generatePostmortem)
					r.Get("/", s.getPostmortemByIncident)
				})
			})
		})

		r.Route("/postmortems/{postmortemID}", func(r chi.Router) {
			r.Get("/", s.getPostmortem)
			r.Patch("/items/{itemID}", s.updateActionItem)
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
