// Package reconciler собирает воркер повторной сверки активаций.
package reconciler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/license-activator/internal/config"
	"github.com/magabrotheeeer/license-activator/internal/lib/sl"
	"github.com/magabrotheeeer/license-activator/internal/migrations"
	"github.com/magabrotheeeer/license-activator/internal/rabbitmq"
	reconcilerservice "github.com/magabrotheeeer/license-activator/internal/services/reconciler"
	"github.com/magabrotheeeer/license-activator/internal/storage/repository"
)

// App - воркер очереди licenses.unreconciled.
type App struct {
	db         *repository.Storage
	conn       *amqp.Connection
	ch         *amqp.Channel
	reconciler *reconcilerservice.Reconciler
	logger     *slog.Logger
}

// New подключается к хранилищу и брокеру.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "reconciler.New"
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.ExchangeLicenses, rabbitmq.LicenseQueues())
	if err != nil {
		_ = conn.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &App{
		db:         db,
		conn:       conn,
		ch:         ch,
		reconciler: reconcilerservice.New(logger, db),
		logger:     logger,
	}, nil
}

// Run потребляет очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.QueueUnreconciled, a.reconciler.Handle)
	if err != nil {
		a.logger.Error("failed to start unreconciled consumer", sl.Err(err))
		return err
	}
	a.logger.Info("reconciler started", slog.String("queue", rabbitmq.QueueUnreconciled))

	<-ctx.Done()
	a.logger.Info("reconciler shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
	return nil
}
