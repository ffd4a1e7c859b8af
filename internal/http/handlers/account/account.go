// Package account реализует HTTP-обработчик получения текущих прав пользователя.
package account

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/license-activator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-activator/internal/http/response"
	"github.com/magabrotheeeer/license-activator/internal/models"
	"github.com/magabrotheeeer/license-activator/internal/services/activation"
)

// Handler возвращает тариф, баланс токенов и признак пробного периода.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс получения прав пользователя.
type Service interface {
	Account(ctx context.Context, userUID string) (*models.User, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Права пользователя
// @Description Возвращает тариф, баланс токенов и признак использованного пробного периода.
// @Tags Account
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Права пользователя"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/v1/account [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.account"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, _ := middlewarectx.UserUIDFrom(r.Context())
	user, err := h.service.Account(r.Context(), userUID)
	if err != nil {
		outcome := activation.Report(nil, err)
		log.Info("failed to load account", slog.String("kind", string(outcome.Kind)))
		render.Status(r, outcome.HTTPStatus())
		render.JSON(w, r, response.Error(outcome.Code, string(outcome.Kind), outcome.Message))
		return
	}

	render.JSON(w, r, response.OKWithData(user))
}
