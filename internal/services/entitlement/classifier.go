// Package entitlement содержит чистую бизнес-логику сверки прав:
// классификацию тарифного плана провайдера и политику изменения прав пользователя.
//
// Классификация опирается на ключевые слова в названии варианта у провайдера
// ("License", "Tokens", "Free", "Premium"). При переименовании планов
// у провайдера таблицы ниже нужно пересмотреть.
package entitlement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/magabrotheeeer/license-activator/internal/licenseprovider"
	"github.com/magabrotheeeer/license-activator/internal/models"
)

// ErrUnknownPlan возвращается, если план из проверки ключа отсутствует в каталоге.
var ErrUnknownPlan = errors.New("plan not found in catalog")

// Цены пакетов токенов у провайдера, в центах.
const (
	PriceLowCents  int64 = 500
	PriceHighCents int64 = 1000
)

type keywordRule[T any] struct {
	keyword string
	value   T
}

// categoryRules проверяются по порядку, первое совпадение выигрывает.
var categoryRules = []keywordRule[models.PlanCategory]{
	{keyword: "Tokens", value: models.CategoryTokens},
	{keyword: "License", value: models.CategorySubscription},
}

var tierRules = []keywordRule[models.PlanTier]{
	{keyword: "Premium", value: models.TierPremium},
	{keyword: "Free", value: models.TierFree},
}

var priceBuckets = map[int64]models.PriceBucket{
	PriceLowCents:  models.PriceLow,
	PriceHighCents: models.PriceHigh,
}

func match[T any](rules []keywordRule[T], name string, fallback T) T {
	for _, r := range rules {
		if strings.Contains(name, r.keyword) {
			return r.value
		}
	}
	return fallback
}

// Classify приводит название и цену плана к нормализованному виду.
func Classify(planName string, price int64) models.ClassifiedPlan {
	plan := models.ClassifiedPlan{
		Category: match(categoryRules, planName, models.CategoryNone),
	}
	switch plan.Category {
	case models.CategorySubscription:
		plan.Tier = match(tierRules, planName, models.TierNone)
	case models.CategoryTokens:
		plan.PriceBucket = priceBuckets[price]
	}
	return plan
}

// FindPlan ищет план по идентификатору в каталоге провайдера.
func FindPlan(catalog []licenseprovider.PlanRecord, planID string) (licenseprovider.PlanRecord, error) {
	for _, p := range catalog {
		if p.ID == planID {
			return p, nil
		}
	}
	return licenseprovider.PlanRecord{}, fmt.Errorf("%w: %q", ErrUnknownPlan, planID)
}
