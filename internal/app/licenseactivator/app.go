package licenseactivator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/license-activator/internal/cache"
	"github.com/magabrotheeeer/license-activator/internal/config"
	"github.com/magabrotheeeer/license-activator/internal/http/handlers/health"
	"github.com/magabrotheeeer/license-activator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-activator/internal/lib/jwt"
	"github.com/magabrotheeeer/license-activator/internal/lib/sl"
	"github.com/magabrotheeeer/license-activator/internal/licenseprovider"
	"github.com/magabrotheeeer/license-activator/internal/migrations"
	"github.com/magabrotheeeer/license-activator/internal/rabbitmq"
	"github.com/magabrotheeeer/license-activator/internal/services/activation"
	"github.com/magabrotheeeer/license-activator/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App - HTTP-сервис активации лицензий.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *repository.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// New подключается к хранилищу, кешу и брокеру, применяет миграции и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "licenseactivator.New"
	app := &App{logger: logger}

	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.db = db

	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app.cache, err = cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app.conn, err = rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.ch, err = rabbitmq.SetupChannel(app.conn, rabbitmq.ExchangeLicenses, rabbitmq.LicenseQueues())
	if err != nil {
		app.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	provider := licenseprovider.NewClient(cfg.ProviderAPIURL, cfg.ProviderAPIKey, cfg.ProviderTimeout)
	service := activation.NewService(
		logger,
		provider,
		db,
		app.cache,
		rabbitmq.NewPublisher(app.ch, rabbitmq.ExchangeLicenses),
		activation.NewMetrics(registry),
		cfg.CatalogTTL,
	)

	router := chi.NewRouter()
	RegisterRoutes(router, Routes{
		Logger:      logger,
		Service:     service,
		TokenParser: jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL),
		Limiter:     middlewarectx.NewRateLimiter(cfg.RequestsPerSecond, cfg.Burst),
		Gatherer:    registry,
		Checks: map[string]health.Checker{
			"postgres": func(ctx context.Context) error {
				return repository.CheckDatabaseReady(ctx, db)
			},
			"redis": func(ctx context.Context) error {
				return app.cache.Db.Ping(ctx).Err()
			},
			"rabbitmq": func(_ context.Context) error {
				if app.conn.IsClosed() {
					return errors.New("connection closed")
				}
				return nil
			},
		},
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// Run запускает HTTP-сервер и останавливает его при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close storage", sl.Err(err))
		}
	}
}
