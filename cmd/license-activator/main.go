// Package main License Activator API
//
// @title           License Activator API
// @version         1.0
// @description     API активации лицензионных ключей и начисления токенов

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/magabrotheeeer/license-activator/docs"
	"github.com/magabrotheeeer/license-activator/internal/app/licenseactivator"
	"github.com/magabrotheeeer/license-activator/internal/config"
	"github.com/magabrotheeeer/license-activator/internal/lib/logger"
	"github.com/magabrotheeeer/license-activator/internal/lib/sl"
)

func main() {
	cfg := config.MustLoad()
	log := logger.Setup(cfg.Env, os.Stdout)

	log.Info("starting license-activator", slog.String("env", cfg.Env))
	log.Debug("config loaded", slog.String("config", cfg.String()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := licenseactivator.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize app", sl.Err(err))
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("app stopped with error", sl.Err(err))
		os.Exit(1)
	}

	log.Info("license-activator stopped gracefully")
}
