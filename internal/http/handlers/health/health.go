// Package health реализует проверку готовности сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-activator/internal/http/response"
	"github.com/magabrotheeeer/license-activator/internal/lib/sl"
)

// Checker проверяет доступность зависимости.
type Checker func(ctx context.Context) error

// Handler отвечает 200, если все зависимости доступны, и 503 иначе.
type Handler struct {
	log    *slog.Logger
	checks map[string]Checker
}

// New создает новый Handler с набором именованных проверок.
func New(log *slog.Logger, checks map[string]Checker) *Handler {
	return &Handler{
		log:    log,
		checks: checks,
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{}
	healthy := true
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			h.log.Warn("dependency unhealthy", slog.String("op", op), slog.String("dependency", name), sl.Err(err))
			status[name] = "unavailable"
			healthy = false
			continue
		}
		status[name] = "ok"
	}

	if !healthy {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Response{
			Error: response.CodeInternal,
			Kind:  response.KindInternal,
			Msg:   "service unavailable",
			Data:  status,
		})
		return
	}
	status["status"] = "ok"
	render.JSON(w, r, response.OKWithData(status))
}
