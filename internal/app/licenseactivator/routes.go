// Package licenseactivator собирает HTTP-приложение активации лицензий.
package licenseactivator

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/license-activator/internal/http/handlers/account"
	"github.com/magabrotheeeer/license-activator/internal/http/handlers/health"
	"github.com/magabrotheeeer/license-activator/internal/http/handlers/license/activate"
	"github.com/magabrotheeeer/license-activator/internal/http/handlers/license/list"
	"github.com/magabrotheeeer/license-activator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-activator/internal/services/activation"
)

// Service объединяет операции сервиса сверки, доступные по HTTP.
type Service interface {
	activate.Service
	list.Service
	account.Service
}

// Routes - зависимости маршрутов приложения.
type Routes struct {
	Logger      *slog.Logger
	Service     Service
	TokenParser middlewarectx.TokenParser
	Limiter     *middlewarectx.RateLimiter
	Gatherer    prometheus.Gatherer
	Checks      map[string]health.Checker
}

var _ Service = (*activation.Service)(nil)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, deps Routes) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.JWTMiddleware(deps.TokenParser, deps.Logger))
		r.Use(deps.Limiter.Middleware(deps.Logger))

		r.Post("/licenses/activate", activate.New(deps.Logger, deps.Service).ServeHTTP)
		r.Get("/licenses", list.New(deps.Logger, deps.Service).ServeHTTP)
		r.Get("/account", account.New(deps.Logger, deps.Service).ServeHTTP)
	})

	r.Get("/health", health.New(deps.Logger, deps.Checks).ServeHTTP)
	r.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
