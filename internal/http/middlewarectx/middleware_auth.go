// Package middlewarectx содержит HTTP middleware для идентификации пользователя
// по JWT токену и ограничения частоты запросов.
//
// JWTMiddleware проверяет наличие и валидность JWT токена в заголовке Authorization
// и в случае успеха добавляет в контекст UUID пользователя.
// В случае ошибки проверки возвращает HTTP 401 Unauthorized.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/license-activator/internal/http/response"
	"github.com/magabrotheeeer/license-activator/internal/lib/jwt"
	"github.com/magabrotheeeer/license-activator/internal/lib/sl"
)

// Key тип для ключей контекста HTTP-запроса.
type Key string

// UserUID - ключ для UUID пользователя в контексте.
const UserUID Key = "user_uid"

// TokenParser проверяет JWT токен.
type TokenParser interface {
	ParseToken(tokenStr string) (*jwt.CustomClaims, error)
}

// UserUIDFrom возвращает UUID пользователя из контекста запроса.
func UserUIDFrom(ctx context.Context) (string, bool) {
	userUID, ok := ctx.Value(UserUID).(string)
	return userUID, ok && userUID != ""
}

// WithUserUID возвращает контекст с UUID пользователя.
func WithUserUID(ctx context.Context, userUID string) context.Context {
	return context.WithValue(ctx, UserUID, userUID)
}

// JWTMiddleware возвращает HTTP middleware, который проверяет JWT в заголовке Authorization.
func JWTMiddleware(parser TokenParser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"
			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				unauthorized(w, r, "missing or invalid authorization header")
				return
			}
			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			claims, err := parser.ParseToken(tokenStr)
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				unauthorized(w, r, "invalid or expired token")
				return
			}
			userUID, err := uuid.Parse(claims.UserUID())
			if err != nil {
				log.Warn("token subject is not a uuid", sl.Err(err))
				unauthorized(w, r, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserUID(r.Context(), userUID.String())))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, msg string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error(1, response.KindUnauthenticated, msg))
}
