// Package reconciler повторно фиксирует активации, которые прошли у провайдера,
// но не были записаны локально.
package reconciler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/license-activator/internal/lib/sl"
	"github.com/magabrotheeeer/license-activator/internal/models"
	"github.com/magabrotheeeer/license-activator/internal/services/entitlement"
	"github.com/magabrotheeeer/license-activator/internal/storage/repository"
)

// Repository фиксирует активацию в одной транзакции.
type Repository interface {
	ApplyActivation(ctx context.Context, userUID string, license models.License,
		decide repository.DecideFunc) (*models.User, models.EntitlementDelta, error)
}

// Reconciler обрабатывает сообщения очереди licenses.unreconciled.
type Reconciler struct {
	log  *slog.Logger
	repo Repository
}

// New создаёт Reconciler.
func New(log *slog.Logger, repo Repository) *Reconciler {
	return &Reconciler{log: log, repo: repo}
}

// Handle повторяет фиксацию записанной активации.
// nil означает, что сообщение можно подтвердить: активация применена,
// уже была применена или требует ручного разбора. Ошибка возвращает сообщение в очередь.
func (r *Reconciler) Handle(ctx context.Context, body []byte) error {
	const op = "reconciler.Handle"
	log := r.log.With(slog.String("op", op))

	var rec models.UnreconciledActivation
	if err := json.Unmarshal(body, &rec); err != nil {
		log.Error("malformed unreconciled record, dropped", sl.Err(err), slog.Int("size", len(body)))
		return nil
	}
	log = log.With(
		slog.String("event_id", rec.EventID),
		slog.String("user_uid", rec.UserUID),
		sl.Key(rec.License.LicenseKey),
	)
	if rec.UserUID == "" || rec.License.LicenseKey == "" {
		log.Error("incomplete unreconciled record, dropped")
		return nil
	}

	decide := func(user models.User) (models.EntitlementDelta, error) {
		return entitlement.Decide(user, rec.Plan)
	}
	user, delta, err := r.repo.ApplyActivation(ctx, rec.UserUID, rec.License, decide)
	if err == nil {
		log.Info("activation reconciled",
			slog.Int64("token_delta", delta.TokenDelta),
			slog.String("license_type", string(user.LicenseType)),
		)
		return nil
	}

	var rErr *entitlement.RejectionError
	switch {
	case errors.Is(err, repository.ErrLicenseExists):
		log.Info("activation already recorded")
		return nil
	case errors.As(err, &rErr):
		log.Error("activation rejected by policy, needs manual review",
			slog.String("reason", rErr.Reason),
			slog.String("plan_name", rec.License.PlanName),
			slog.String("original_reason", rec.Reason),
		)
		return nil
	case errors.Is(err, repository.ErrUserNotFound):
		log.Error("user no longer exists, needs manual review")
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
