// Package jwt реализует выпуск и проверку JWT токенов, идентифицирующих пользователя.
//
// Идентификатор пользователя (UUID) хранится в стандартном поле sub.
package jwt

import (
	"time"
)

// Maker описывает интерфейс для генерации и парсинга JWT токенов.
type Maker interface {
	// GenerateToken выпускает токен для пользователя userUID.
	GenerateToken(userUID string) (string, error)
	// ParseToken проверяет подпись и срок действия токена.
	ParseToken(tokenStr string) (*CustomClaims, error)
}

// MakerImpl реализует Maker с использованием секретного ключа
// и времени жизни токена (TTL).
type MakerImpl struct {
	secretKey string        // Секретный ключ для подписи токенов.
	tokenTTL  time.Duration // Время жизни токена.
}

// NewJWTMaker создаёт новый экземпляр MakerImpl на основе секретного ключа и TTL.
func NewJWTMaker(secretKey string, ttl time.Duration) *MakerImpl {
	return &MakerImpl{
		secretKey: secretKey,
		tokenTTL:  ttl,
	}
}
