// Package models содержит доменные структуры сервиса активации лицензий:
// пользователя с его правами (тариф, баланс токенов, признак пробного периода),
// запись об активированной лицензии и промежуточные типы сверки.
package models

// LicenseType описывает тариф пользователя.
type LicenseType string

const (
	// LicenseNone - у пользователя нет ни одной лицензии.
	LicenseNone LicenseType = "none"
	// LicenseFree - бесплатный (пробный) тариф.
	LicenseFree LicenseType = "free"
	// LicensePremium - платный тариф.
	LicensePremium LicenseType = "premium"
	// LicenseTeam - командный тариф, выдаётся вне этого сервиса.
	LicenseTeam LicenseType = "team"
)

// Paid сообщает, относится ли тариф к платным (premium или team).
// Платный тариф никогда не понижается до free.
func (t LicenseType) Paid() bool {
	return t == LicensePremium || t == LicenseTeam
}

// Valid проверяет, что значение входит в перечисление тарифов.
func (t LicenseType) Valid() bool {
	switch t {
	case LicenseNone, LicenseFree, LicensePremium, LicenseTeam:
		return true
	}
	return false
}

// User представляет состояние прав пользователя, которое изменяет сервис.
type User struct {
	UUID            string      `json:"uid"`              // Уникальный идентификатор пользователя
	LicenseType     LicenseType `json:"license_type"`     // Текущий тариф
	AvailableTokens int64       `json:"available_tokens"` // Баланс токенов, только растёт
	FreeTrialed     bool        `json:"free_trialed"`     // Пробный период уже использован
}
