package main

import (
	"net/http"
	"time"

	"github.com/benvon/sparkreply/api"
	"github.com/benvon/sparkreply/internal/config"
	"github.com/benvon/sparkreply/internal/database"
	"github.com/benvon/sparkreply/internal/handlers"
	"github.com/benvon/sparkreply/internal/metrics"
	"github.com/benvon/sparkreply/internal/middleware"
	"github.com/benvon/sparkreply/internal/telemetry"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const serviceName = "sparkreply-api"

// routerDeps carries everything the HTTP surface needs. Repositories are nil when
// persistence is not configured.
type routerDeps struct {
	cfg       *config.Config
	logger    *zap.Logger
	metrics   *metrics.Collector
	tracing   bool
	verifier  middleware.TokenVerifier
	users     middleware.UserStore
	rateLimit func(http.Handler) http.Handler
	generator handlers.Generator
	health    *handlers.HealthChecker

	// requestTimeout overrides cfg.RequestTimeout() when set
	requestTimeout time.Duration

	generations database.GenerationRepositoryInterface
	saved       database.SavedContentRepositoryInterface
	settings    database.UserSettingsRepositoryInterface
	stats       database.StatsRepositoryInterface
}

func newRouter(d routerDeps) *mux.Router {
	r := mux.NewRouter()

	requestTimeout := d.requestTimeout
	if requestTimeout <= 0 {
		requestTimeout = d.cfg.RequestTimeout()
	}

	// gorilla/mux runs middleware in registration order, outermost first
	r.Use(middleware.Metrics(d.metrics))
	if d.tracing {
		r.Use(telemetry.Middleware(serviceName))
	}
	r.Use(middleware.SecurityHeaders(d.cfg.EnableHSTS))
	r.Use(middleware.CORS(d.cfg.AllowedOrigins()))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize))
	r.Use(middleware.ContentType)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.ErrorHandler(d.logger))
	r.Use(middleware.Audit(d.logger))
	r.Use(middleware.Logging(d.logger))

	r.HandleFunc("/healthz", d.health.HealthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", d.metrics.Handler()).Methods(http.MethodGet)
	handlers.NewOpenAPIHandler(api.OpenAPI).RegisterRoutes(r)

	apiRouter := r.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.Auth(d.verifier, d.users, d.logger))

	handlers.NewAuthHandler().RegisterRoutes(apiRouter)

	generateRouter := apiRouter.PathPrefix("/generate").Subrouter()
	if d.rateLimit != nil {
		generateRouter.Use(d.rateLimit)
	}
	handlers.NewGenerateHandler(d.generator, d.logger).RegisterRoutes(generateRouter)

	handlers.NewHistoryHandler(d.generations, d.logger).RegisterRoutes(apiRouter.PathPrefix("/history").Subrouter())
	handlers.NewSavedContentHandler(d.saved, d.logger).RegisterRoutes(apiRouter.PathPrefix("/saved").Subrouter())
	handlers.NewSettingsHandler(d.settings, d.logger).RegisterRoutes(apiRouter.PathPrefix("/settings").Subrouter())
	handlers.NewStatsHandler(d.stats, d.logger).RegisterRoutes(apiRouter.PathPrefix("/stats").Subrouter())

	// preflight requests only reach the CORS middleware through a matching route
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}
