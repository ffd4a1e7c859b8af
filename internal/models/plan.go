package models

// PlanCategory - категория тарифного плана провайдера.
type PlanCategory string

const (
	// CategorySubscription - лицензия (тариф free или premium).
	CategorySubscription PlanCategory = "subscription"
	// CategoryTokens - пакет токенов.
	CategoryTokens PlanCategory = "tokens"
	// CategoryNone - план не распознан, права не меняются.
	CategoryNone PlanCategory = "none"
)

// PlanTier - уровень лицензии внутри категории subscription.
type PlanTier string

const (
	TierNone    PlanTier = ""
	TierFree    PlanTier = "free"
	TierPremium PlanTier = "premium"
)

// PriceBucket - ценовая группа пакета токенов.
type PriceBucket string

const (
	PriceNone PriceBucket = ""
	PriceLow  PriceBucket = "low"
	PriceHigh PriceBucket = "high"
)

// ClassifiedPlan - нормализованное представление плана провайдера,
// не зависящее от его отображаемого имени.
type ClassifiedPlan struct {
	Category    PlanCategory `json:"category"`
	Tier        PlanTier     `json:"tier,omitempty"`
	PriceBucket PriceBucket  `json:"price_bucket,omitempty"`
}

// EntitlementDelta - изменение прав, вычисленное политикой.
// TokenDelta всегда неотрицателен.
type EntitlementDelta struct {
	NewLicenseType  *LicenseType `json:"new_license_type,omitempty"`
	TokenDelta      int64        `json:"token_delta"`
	MarkFreeTrialed bool         `json:"mark_free_trialed,omitempty"`
}

// IsZero сообщает, что дельта не меняет состояние пользователя.
func (d EntitlementDelta) IsZero() bool {
	return d.NewLicenseType == nil && d.TokenDelta == 0 && !d.MarkFreeTrialed
}

// UnreconciledActivation - запись об активации, которая прошла у провайдера,
// но не была зафиксирована локально. Публикуется в очередь для повторной сверки.
type UnreconciledActivation struct {
	EventID string         `json:"event_id"`
	UserUID string         `json:"user_uid"`
	License License        `json:"license"`
	Plan    ClassifiedPlan `json:"plan"`
	Reason  string         `json:"reason"`
}

// ActivationEvent - уведомление об успешной активации.
type ActivationEvent struct {
	EventID    string           `json:"event_id"`
	UserUID    string           `json:"user_uid"`
	LicenseKey string           `json:"license_key"` // Маскированный ключ
	PlanName   string           `json:"plan_name"`
	Category   PlanCategory     `json:"category"`
	Delta      EntitlementDelta `json:"delta"`
}
