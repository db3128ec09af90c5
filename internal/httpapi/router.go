package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"agentops/internal/analytics"
	"agentops/internal/toolconfig"
	"agentops/internal/vectorindex"
)

type Deps struct {
	DB         *pgxpool.Pool
	Pepper     string
	JWTSecret  string
	AdminToken string

	RateLimitPerMinute int
	RequestTimeoutSecs int
}

func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(serverErrorLoggerMiddleware)
	r.Use(httpMetricsMiddleware)
	r.Use(corsMiddleware)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(newIPRateLimiter(d.RateLimitPerMinute, time.Minute).middleware)
	r.Use(middleware.Heartbeat("/healthz"))

	timeout := time.Duration(d.RequestTimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	s := server{
		db:         d.DB,
		pepper:     d.Pepper,
		jwtSecret:  d.JWTSecret,
		adminToken: d.AdminToken,

		requestTimeout: timeout,

		metrics:    analytics.NewHelper(d.DB),
		tkStore:    toolconfig.NewPGStore(d.DB),
		vecStore:   vectorindex.NewPGStore(d.DB),
		dimChecker: vectorindex.NewKnowledgeDimensionChecker(d.DB),
	}

	r.Get("/internal/metrics", promhttp.Handler().ServeHTTP)

	// Update-only config route; ships without an auth dependency to match the
	// platform's existing access policy (see DESIGN.md).
	r.Post("/add/{toolKitName}", s.handleUpdateToolConfigs)

	r.Group(func(r chi.Router) {
		r.Use(s.authMiddleware)

		r.Post("/auth/token", s.handleIssueSessionToken)

		r.Get("/metrics", s.handleGetMetrics)
		r.Get("/agents/all", s.handleGetAgents)
		r.Get("/agents/{agentID}", s.handleGetAgentRuns)
		r.Get("/runs/active", s.handleGetActiveRuns)
		r.Get("/tools/used", s.handleGetToolsUsed)

		r.Post("/create-or-update/{toolKitName}", s.handleCreateOrUpdateToolConfigs)
		r.Get("/get/toolkit/{toolKitName}", s.handleGetToolkitConfigs)
		r.Get("/get/toolkit/{toolKitName}/key/{key}", s.handleGetToolkitConfigByKey)

		r.Get("/get/marketplace/valid_indices/{knowledgeID}", s.handleGetMarketplaceValidIndices)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.adminTokenMiddleware)
		r.Post("/organisations", s.handleAdminCreateOrganisation)
		r.Post("/users/issue-key", s.handleAdminIssueUserKey)
	})

	return r
}
