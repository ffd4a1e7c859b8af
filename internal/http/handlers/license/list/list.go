// Package list реализует HTTP-обработчик получения журнала активаций пользователя.
package list

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

// Handler обрабатывает запросы на получение журнала активаций.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс получения журнала активаций.
type Service interface {
	ListLicenses(ctx context.Context, userUID string) ([]*models.License, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Журнал активаций
// @Description Возвращает активированные пользователем ключи, начиная с последних.
// @Tags Licenses
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response "Список лицензий"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /api/v1/licenses [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.license.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, _ := middlewarectx.UserUIDFrom(r.Context())
	licenses, err := h.service.ListLicenses(r.Context(), userUID)
	if err != nil {
		outcome := activation.Report(nil, err)
		log.Error("failed to list licenses", slog.String("kind", string(outcome.Kind)))
		render.Status(r, outcome.HTTPStatus())
		render.JSON(w, r, response.Error(outcome.Code, string(outcome.Kind), outcome.Message))
		return
	}
	if licenses == nil {
		licenses = []*models.License{}
	}

	log.Debug("licenses listed", slog.Int("count", len(licenses)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"licenses": licenses,
	}))
}
