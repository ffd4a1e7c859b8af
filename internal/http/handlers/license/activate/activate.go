// Package activate реализует HTTP-обработчик активации лицензионного ключа.
//
// Handler принимает JSON-запрос с ключом и именем экземпляра, валидирует его,
// извлекает UUID пользователя из контекста, выполняет сверку через сервис
// и возвращает тип начисленных прав либо ошибку с машиночитаемым видом.
package activate

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/license-activator/internal/http/middlewarectx"
	"github.com/magabrotheeeer/license-activator/internal/http/response"
	"github.com/magabrotheeeer/license-activator/internal/lib/sl"
	"github.com/magabrotheeeer/license-activator/internal/models"
	"github.com/magabrotheeeer/license-activator/internal/services/activation"
)

const maxBodyBytes = 1 << 14

// Handler управляет HTTP-запросами на активацию лицензии.
type Handler struct {
	log      *slog.Logger        // Логгер для записи информации и ошибок
	service  Service             // Сервис сверки лицензий
	validate *validator.Validate // Валидатор структуры входящих данных
}

// Service описывает интерфейс сверки лицензии.
type Service interface {
	Activate(ctx context.Context, userUID string, req models.ActivationRequest) (*activation.Result, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Активировать лицензионный ключ
// @Description Проверяет ключ у провайдера, применяет права пользователя и возвращает тип покупки: license, tokens или пустую строку.
// @Tags Licenses
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.ActivationRequest true "Ключ и имя экземпляра"
// @Success 200 {object} response.Response "Успешная активация"
// @Failure 400 {object} response.ErrorResponse "Ключ недействителен, план не распознан или отклонён политикой"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 409 {object} response.ErrorResponse "Ключ уже активирован"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 429 {object} response.ErrorResponse "Слишком много запросов"
// @Failure 500 {object} response.ErrorResponse "Ошибка сохранения"
// @Failure 502 {object} response.ErrorResponse "Провайдер недоступен"
// @Router /api/v1/licenses/activate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.license.activate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.ActivationRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.InvalidRequest("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		var vErrs validator.ValidationErrors
		if !errors.As(err, &vErrs) {
			log.Error("validation failed", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.InvalidRequest("invalid request body"))
			return
		}
		log.Info("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(vErrs))
		return
	}
	log.Debug("request validated", sl.Key(req.LicenseKey), slog.String("instance", req.InstanceName))

	userUID, _ := middlewarectx.UserUIDFrom(r.Context())
	res, err := h.service.Activate(r.Context(), userUID, req)

	outcome := activation.Report(res, err)
	render.Status(r, outcome.HTTPStatus())
	if !outcome.OK {
		log.Info("license activation failed",
			slog.String("kind", string(outcome.Kind)),
			slog.Int("code", outcome.Code),
		)
		render.JSON(w, r, response.Error(outcome.Code, string(outcome.Kind), outcome.Message))
		return
	}

	log.Info("license activated", slog.String("type", outcome.Type))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"type": outcome.Type,
	}))
}
