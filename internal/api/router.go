package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gundersenerik/dice/internal/api/handlers"
	"github.com/gundersenerik/dice/internal/api/middleware"
	"github.com/gundersenerik/dice/internal/auth"
	"github.com/gundersenerik/dice/internal/cache"
	"github.com/gundersenerik/dice/internal/config"
	"github.com/gundersenerik/dice/internal/gateway"
	"github.com/gundersenerik/dice/internal/generation"
	"github.com/gundersenerik/dice/internal/langfuse"
	"github.com/gundersenerik/dice/internal/queue"
)

type Router struct {
	mux   *chi.Mux
	db    *pgxpool.Pool
	redis *redis.Client
	cfg   *config.Config
	jwt   *auth.JWTMiddleware
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config) *Router {
	return &Router{
		mux:   chi.NewRouter(),
		db:    db,
		redis: rdb,
		cfg:   cfg,
		jwt:   auth.NewJWTMiddleware(cfg.Auth.JWTSecret),
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))

	// Health endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)

	// Services
	lf := langfuse.Default()
	gw := gateway.NewClient(rt.cfg.Gateway)
	store := generation.NewStore(rt.db)
	queueClient := queue.NewClient(rt.cfg.Redis)
	svc := generation.NewService(store, gw, lf, lf, queueClient)

	var templateCache *cache.Cache
	if rt.redis != nil {
		templateCache = cache.NewCache(rt.redis)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.jwt.Authenticate)

		// After auth so buckets key on the user, not the client address.
		rl := middleware.NewRateLimiter(100, 200)
		r.Use(rl.Limit)

		generateH := handlers.NewGenerateHandler(svc)
		r.Post("/generate", generateH.Generate)

		rateH := handlers.NewRateHandler(svc)
		r.Post("/rate", rateH.Rate)

		templatesH := handlers.NewTemplatesHandler(lf, templateCache, rt.cfg.Cache.TemplateTTL)
		r.Get("/templates", templatesH.List)

		generationsH := handlers.NewGenerationsHandler(svc)
		r.Route("/generations", func(r chi.Router) {
			r.Get("/", generationsH.List)
			r.Get("/{id}", generationsH.Get)
		})

		modelsH := handlers.NewModelsHandler()
		r.Get("/models", modelsH.List)

		catalogH := handlers.NewCatalogHandler()
		r.Get("/brands", catalogH.Brands)
		r.Get("/communication-types", catalogH.CommunicationTypes)
	})

	return r
}
