// Package activation сверяет купленные у провайдера лицензии с правами пользователя:
// проверяет ключ, классифицирует план, принимает решение политикой,
// активирует ключ у провайдера и атомарно фиксирует результат в хранилище.
package activation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/license-activator/internal/lib/sl"
	"github.com/magabrotheeeer/license-activator/internal/licenseprovider"
	"github.com/magabrotheeeer/license-activator/internal/models"
	"github.com/magabrotheeeer/license-activator/internal/services/entitlement"
	"github.com/magabrotheeeer/license-activator/internal/storage/repository"
)

// Ключи маршрутизации публикуемых сообщений.
const (
	EventActivated    = "activated"
	EventUnreconciled = "unreconciled"
)

const catalogCacheKey = "license_provider:catalog"

// Gateway - клиент провайдера лицензий.
type Gateway interface {
	// FetchCatalog возвращает все тарифные планы провайдера.
	FetchCatalog(ctx context.Context) ([]licenseprovider.PlanRecord, error)
	// ValidateKey проверяет ключ без его активации.
	ValidateKey(ctx context.Context, key string) (*licenseprovider.ValidateResult, error)
	// ActivateKey активирует ключ на экземпляре instanceName.
	ActivateKey(ctx context.Context, key, instanceName string) (*licenseprovider.ActivateResult, error)
}

// Repository - хранилище пользователей и журнала лицензий.
type Repository interface {
	GetUser(ctx context.Context, userUID string) (*models.User, error)
	LicenseExists(ctx context.Context, licenseKey, userUID string) (bool, error)
	ListLicenses(ctx context.Context, userUID string) ([]*models.License, error)
	ApplyActivation(ctx context.Context, userUID string, license models.License,
		decide repository.DecideFunc) (*models.User, models.EntitlementDelta, error)
}

// Cache описывает методы для кэширования каталога.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Publisher отправляет сообщения в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, msg any) error
}

// Result - успешный итог сверки.
type Result struct {
	Category models.PlanCategory
	Type     string
	User     *models.User
	Delta    models.EntitlementDelta
}

// Service выполняет сверку лицензий.
type Service struct {
	log        *slog.Logger
	gateway    Gateway
	repo       Repository
	cache      Cache
	publisher  Publisher
	metrics    *Metrics
	catalogTTL time.Duration
	now        func() time.Time
}

// NewService создаёт сервис сверки. cache может быть nil, тогда каталог
// запрашивается у провайдера при каждой сверке.
func NewService(log *slog.Logger, gateway Gateway, repo Repository, cache Cache,
	publisher Publisher, metrics *Metrics, catalogTTL time.Duration) *Service {
	return &Service{
		log:        log,
		gateway:    gateway,
		repo:       repo,
		cache:      cache,
		publisher:  publisher,
		metrics:    metrics,
		catalogTTL: catalogTTL,
		now:        time.Now,
	}
}

// Activate выполняет одну попытку сверки ключа для пользователя.
// Все ошибки возвращаются как *Error.
func (s *Service) Activate(ctx context.Context, userUID string, req models.ActivationRequest) (res *Result, err error) {
	const op = "activation.Activate"
	log := s.log.With(
		slog.String("op", op),
		slog.String("user_uid", userUID),
		sl.Key(req.LicenseKey),
	)
	defer func() {
		s.metrics.RecordAttempt(Report(res, err))
	}()

	if userUID == "" {
		return nil, newError(KindUnauthenticated, "", nil)
	}

	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			log.Info("user not found")
			return nil, newError(KindUserNotFound, "", err)
		}
		log.Error("failed to load user", sl.Err(err))
		return nil, newError(KindPersistenceFailed, "", err)
	}

	catalog, cached, err := s.catalog(ctx, log, false)
	if err != nil {
		log.Error("failed to fetch catalog", sl.Err(err))
		return nil, newError(KindGatewayUnavailable, "", err)
	}

	validation, err := s.gateway.ValidateKey(ctx, req.LicenseKey)
	if err != nil {
		log.Error("failed to validate license key", sl.Err(err))
		return nil, newError(KindGatewayUnavailable, "", err)
	}
	if !validation.Valid {
		log.Info("license key is invalid", slog.String("reason", validation.Error))
		return nil, newError(KindInvalidLicense, validation.Error, nil)
	}
	// В журнал пишется ключ в том виде, в каком его вернул провайдер.
	licenseKey := req.LicenseKey
	if validation.KeyEcho != "" {
		licenseKey = validation.KeyEcho
	}

	record, err := entitlement.FindPlan(catalog, validation.PlanID)
	if err != nil && cached {
		// План мог появиться после заполнения кеша.
		catalog, _, err = s.catalog(ctx, log, true)
		if err != nil {
			log.Error("failed to refresh catalog", sl.Err(err))
			return nil, newError(KindGatewayUnavailable, "", err)
		}
		record, err = entitlement.FindPlan(catalog, validation.PlanID)
	}
	if err != nil {
		log.Warn("plan is missing from catalog", slog.String("plan_id", validation.PlanID))
		return nil, newError(KindUnknownPlan, "", err)
	}
	plan := entitlement.Classify(record.Name, record.Price)
	log = log.With(slog.String("plan", record.Name), slog.String("category", string(plan.Category)))

	if _, err = entitlement.Decide(*user, plan); err != nil {
		return nil, s.rejection(log, err)
	}

	exists, err := s.repo.LicenseExists(ctx, licenseKey, userUID)
	if err != nil {
		log.Error("failed to check license record", sl.Err(err))
		return nil, newError(KindPersistenceFailed, "", err)
	}
	if exists {
		log.Info("license already activated")
		return nil, newError(KindDuplicateActivation, "", nil)
	}

	activated, err := s.gateway.ActivateKey(ctx, req.LicenseKey, req.InstanceName)
	if err != nil {
		log.Error("failed to activate license key", sl.Err(err))
		return nil, newError(KindGatewayUnavailable, "", err)
	}
	if !activated.Activated {
		log.Info("license activation refused", slog.String("reason", activated.Error))
		return nil, newError(KindActivationFailed, activated.Error, nil)
	}

	license := models.License{
		LicenseKey:  licenseKey,
		CreatedAt:   orNow(validation.CreatedAt, s.now),
		ActivatedAt: orNow(activated.ActivatedAt, s.now),
		PlanName:    record.Name,
		Price:       record.Price,
		UserUID:     userUID,
	}

	// Ключ уже активирован у провайдера, отмена запроса не должна прервать фиксацию.
	commitCtx := context.WithoutCancel(ctx)
	updated, delta, err := s.repo.ApplyActivation(commitCtx, userUID, license, decideFor(plan))
	if err != nil {
		return nil, s.commitFailed(commitCtx, log, userUID, license, plan, err)
	}

	s.metrics.RecordTokens(plan.Category, delta.TokenDelta)
	s.publishActivated(commitCtx, log, userUID, license, plan, delta)

	log.Info("license activated",
		slog.Int64("token_delta", delta.TokenDelta),
		slog.String("license_type", string(updated.LicenseType)),
	)
	return &Result{
		Category: plan.Category,
		Type:     ResultType(plan.Category),
		User:     updated,
		Delta:    delta,
	}, nil
}

// Account возвращает текущие права пользователя.
func (s *Service) Account(ctx context.Context, userUID string) (*models.User, error) {
	const op = "activation.Account"
	if userUID == "" {
		return nil, newError(KindUnauthenticated, "", nil)
	}
	user, err := s.repo.GetUser(ctx, userUID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, newError(KindUserNotFound, "", err)
		}
		s.log.Error("failed to load user", slog.String("op", op), sl.Err(err))
		return nil, newError(KindPersistenceFailed, "", err)
	}
	return user, nil
}

// ListLicenses возвращает журнал активаций пользователя.
func (s *Service) ListLicenses(ctx context.Context, userUID string) ([]*models.License, error) {
	const op = "activation.ListLicenses"
	if userUID == "" {
		return nil, newError(KindUnauthenticated, "", nil)
	}
	licenses, err := s.repo.ListLicenses(ctx, userUID)
	if err != nil {
		s.log.Error("failed to list licenses", slog.String("op", op), sl.Err(err))
		return nil, newError(KindPersistenceFailed, "", err)
	}
	return licenses, nil
}

// catalog возвращает каталог из кеша или у провайдера. Второе значение
// сообщает, что каталог взят из кеша. Ошибки кеша не прерывают сверку.
func (s *Service) catalog(ctx context.Context, log *slog.Logger, refresh bool) ([]licenseprovider.PlanRecord, bool, error) {
	if s.cache != nil && !refresh {
		var cached []licenseprovider.PlanRecord
		found, err := s.cache.Get(ctx, catalogCacheKey, &cached)
		switch {
		case err != nil:
			log.Warn("catalog cache read failed", sl.Err(err))
		case found && len(cached) > 0:
			return cached, true, nil
		}
	}

	if s.cache != nil && refresh {
		if err := s.cache.Invalidate(ctx, catalogCacheKey); err != nil {
			log.Warn("catalog cache invalidation failed", sl.Err(err))
		}
	}

	catalog, err := s.gateway.FetchCatalog(ctx)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, catalogCacheKey, catalog, s.catalogTTL); err != nil {
			log.Warn("catalog cache write failed", sl.Err(err))
		}
	}
	return catalog, false, nil
}

func (s *Service) rejection(log *slog.Logger, err error) error {
	var rErr *entitlement.RejectionError
	if errors.As(err, &rErr) {
		log.Info("entitlement rejected", slog.String("reason", rErr.Reason))
		return newError(KindEntitlementRejected, rErr.Reason, err)
	}
	log.Error("entitlement decision failed", sl.Err(err))
	return newError(KindInternal, "", err)
}

// commitFailed переводит ошибку фиксации в *Error. Кроме дубликата, любая ошибка
// означает, что активация у провайдера прошла, а права не начислены:
// такая запись отправляется на повторную сверку.
func (s *Service) commitFailed(ctx context.Context, log *slog.Logger, userUID string,
	license models.License, plan models.ClassifiedPlan, err error) error {
	if errors.Is(err, repository.ErrLicenseExists) {
		log.Warn("license recorded concurrently", sl.Err(err))
		return newError(KindDuplicateActivation, "", err)
	}

	var result *Error
	var rErr *entitlement.RejectionError
	if errors.As(err, &rErr) {
		log.Warn("entitlement rejected on locked user", slog.String("reason", rErr.Reason))
		result = newError(KindEntitlementRejected, rErr.Reason, err)
	} else {
		log.Error("failed to commit activation", sl.Err(err))
		result = newError(KindPersistenceFailed, "", err)
	}

	record := models.UnreconciledActivation{
		EventID: uuid.NewString(),
		UserUID: userUID,
		License: license,
		Plan:    plan,
		Reason:  err.Error(),
	}
	if pubErr := s.publisher.Publish(ctx, EventUnreconciled, record); pubErr != nil {
		log.Error("failed to record unreconciled activation",
			sl.Err(pubErr),
			slog.String("event_id", record.EventID),
			slog.String("plan_name", license.PlanName),
			slog.Int64("price", license.Price),
			slog.String("category", string(plan.Category)),
			slog.String("tier", string(plan.Tier)),
			slog.String("price_bucket", string(plan.PriceBucket)),
			slog.Time("activated_at", license.ActivatedAt),
			slog.String("reason", record.Reason),
		)
		return result
	}
	log.Warn("unreconciled activation recorded", slog.String("event_id", record.EventID))
	return result
}

func (s *Service) publishActivated(ctx context.Context, log *slog.Logger, userUID string,
	license models.License, plan models.ClassifiedPlan, delta models.EntitlementDelta) {
	event := models.ActivationEvent{
		EventID:    uuid.NewString(),
		UserUID:    userUID,
		LicenseKey: sl.MaskKey(license.LicenseKey),
		PlanName:   license.PlanName,
		Category:   plan.Category,
		Delta:      delta,
	}
	if err := s.publisher.Publish(ctx, EventActivated, event); err != nil {
		log.Warn("failed to publish activation event", sl.Err(err))
	}
}

// decideFor связывает политику с классифицированным планом для повторного
// решения по заблокированной строке пользователя.
func decideFor(plan models.ClassifiedPlan) repository.DecideFunc {
	return func(user models.User) (models.EntitlementDelta, error) {
		return entitlement.Decide(user, plan)
	}
}

func orNow(t time.Time, now func() time.Time) time.Time {
	if t.IsZero() {
		return now().UTC()
	}
	return t
}
