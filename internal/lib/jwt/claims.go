package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSubject возвращается для токена без идентификатора пользователя.
var ErrNoSubject = errors.New("token has no subject")

// CustomClaims описывает данные, хранящиеся в JWT.
type CustomClaims struct {
	jwt.RegisteredClaims // Subject содержит UUID пользователя
}

// UserUID возвращает идентификатор пользователя из токена.
func (c *CustomClaims) UserUID() string {
	return c.Subject
}

// GenerateToken создает JWT токен для userUID, подписывая его секретным ключом.
func (j *MakerImpl) GenerateToken(userUID string) (string, error) {
	const op = "jwt.GenerateToken"
	if userUID == "" {
		return "", fmt.Errorf("%s: %w", op, ErrNoSubject)
	}
	now := time.Now()
	claims := CustomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userUID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(j.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ParseToken парсит JWT токен, проверяет подпись, срок действия и наличие sub.
func (j *MakerImpl) ParseToken(tokenStr string) (*CustomClaims, error) {
	const op = "jwt.ParseToken"
	token, err := jwt.ParseWithClaims(tokenStr, &CustomClaims{}, func(_ *jwt.Token) (any, error) {
		return []byte(j.secretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%s: invalid token", op)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNoSubject)
	}
	return claims, nil
}
