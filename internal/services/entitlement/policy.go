package entitlement

import (
	"github.com/magabrotheeeer/license-activator/internal/models"
)

// Количество токенов, начисляемых по каждому правилу политики.
const (
	FreeTrialTokens        int64 = 10_000
	PremiumTokens          int64 = 500_000
	TokensLowAmount        int64 = 1_660_000
	TokensLowPremiumBonus  int64 = 330_000
	TokensHighAmount       int64 = 3_400_000
	TokensHighPremiumBonus int64 = 700_000
)

// Причины отказа политики.
const (
	ReasonTrialUsed      = "trial already used"
	ReasonAlreadyPremium = "already premium"
)

// RejectionError - отказ политики по бизнес-правилу.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return "entitlement rejected: " + e.Reason
}

type tokenPack struct {
	amount       int64
	premiumBonus int64
}

var tokenPacks = map[models.PriceBucket]tokenPack{
	models.PriceLow:  {amount: TokensLowAmount, premiumBonus: TokensLowPremiumBonus},
	models.PriceHigh: {amount: TokensHighAmount, premiumBonus: TokensHighPremiumBonus},
}

// Decide вычисляет следующее изменение прав пользователя для классифицированного плана
// либо возвращает *RejectionError. Для любого плана результат определён.
func Decide(user models.User, plan models.ClassifiedPlan) (models.EntitlementDelta, error) {
	switch plan.Category {
	case models.CategorySubscription:
		return decideSubscription(user, plan.Tier)
	case models.CategoryTokens:
		pack, ok := tokenPacks[plan.PriceBucket]
		if !ok {
			return models.EntitlementDelta{}, nil
		}
		delta := models.EntitlementDelta{TokenDelta: pack.amount}
		if user.LicenseType == models.LicensePremium {
			delta.TokenDelta += pack.premiumBonus
		}
		return delta, nil
	default:
		return models.EntitlementDelta{}, nil
	}
}

func decideSubscription(user models.User, tier models.PlanTier) (models.EntitlementDelta, error) {
	switch tier {
	case models.TierFree:
		if user.FreeTrialed {
			return models.EntitlementDelta{}, &RejectionError{Reason: ReasonTrialUsed}
		}
		delta := models.EntitlementDelta{
			TokenDelta:      FreeTrialTokens,
			MarkFreeTrialed: true,
		}
		if !user.LicenseType.Paid() {
			delta.NewLicenseType = licenseType(models.LicenseFree)
		}
		return delta, nil
	case models.TierPremium:
		if user.LicenseType == models.LicensePremium {
			return models.EntitlementDelta{}, &RejectionError{Reason: ReasonAlreadyPremium}
		}
		return models.EntitlementDelta{
			TokenDelta:     PremiumTokens,
			NewLicenseType: licenseType(models.LicensePremium),
		}, nil
	default:
		return models.EntitlementDelta{}, nil
	}
}

// Apply применяет изменение к снимку пользователя. Тариф premium/team
// не понижается до free, баланс токенов только растёт, признак пробного
// периода не сбрасывается.
func Apply(user models.User, delta models.EntitlementDelta) models.User {
	if delta.NewLicenseType != nil {
		next := *delta.NewLicenseType
		if !(user.LicenseType.Paid() && next == models.LicenseFree) {
			user.LicenseType = next
		}
	}
	if delta.TokenDelta > 0 {
		user.AvailableTokens += delta.TokenDelta
	}
	if delta.MarkFreeTrialed {
		user.FreeTrialed = true
	}
	return user
}

func licenseType(t models.LicenseType) *models.LicenseType {
	return &t
}
