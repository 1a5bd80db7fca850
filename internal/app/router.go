package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/tpcbench/tpcbench/internal/auth"
	"github.com/tpcbench/tpcbench/internal/bench"
	"github.com/tpcbench/tpcbench/internal/observability"
	"github.com/tpcbench/tpcbench/internal/tpcc"
	"github.com/tpcbench/tpcbench/internal/tpch"
	"github.com/tpcbench/tpcbench/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger       *slog.Logger
	Config       *Config
	TPCCHandler  *tpcc.Handler
	BenchHandler *bench.Handler
	TPCHHandler  *tpch.Handler
	AuthHandler  *auth.Handler
	JobHandler   *jobs.Handler
	Metrics      *observability.Metrics
}

// NewRouter constructs the chi.Router for the benchmark gateway.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		if params.AuthHandler != nil {
			api.Route("/auth", params.AuthHandler.MountRoutes)
		}
		api.Route("/tpcc", func(sub chi.Router) {
			if params.TPCCHandler != nil {
				params.TPCCHandler.MountRoutes(sub)
			}
			if params.BenchHandler != nil {
				params.BenchHandler.MountRoutes(sub)
			}
		})
		if params.TPCHHandler != nil {
			api.Route("/tpch", params.TPCHHandler.MountRoutes)
		}
		if params.JobHandler != nil {
			api.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	return r
}
