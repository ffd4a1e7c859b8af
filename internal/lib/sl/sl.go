// Package sl содержит вспомогательные функции для работы с логгером slog:
// единообразный вывод ошибок и маскирование лицензионных ключей.
package sl

import (
	"log/slog"
	"strings"
)

// Err возвращает slog.Attr с ключом "error" и значением текста ошибки.
//
// Пример:
//
//	log.Error("failed to activate license", sl.Err(err))
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}

// MaskKey скрывает лицензионный ключ, оставляя последние четыре символа.
func MaskKey(key string) string {
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}

// Key возвращает slog.Attr "license_key" с маскированным ключом.
func Key(key string) slog.Attr {
	return slog.String("license_key", MaskKey(key))
}
