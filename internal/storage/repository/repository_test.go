package repository

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/license-activator/internal/migrations"
	"github.com/magabrotheeeer/license-activator/internal/models"
	"github.com/magabrotheeeer/license-activator/internal/storage/pgtest"
)

// setupTestStorage создаёт хранилище поверх контейнера PostgreSQL с применёнными миграциями.
func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	dsn, db := pgtest.Start(t)

	path, err := filepath.Abs("../../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(db, path))

	storage, err := New(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })
	return storage
}

// createUser создаёт тестового пользователя с заданными правами.
func createUser(t *testing.T, s *Storage, u models.User) string {
	t.Helper()
	uid := uuid.New().String()
	_, err := s.DB.Exec(`INSERT INTO users (uid, license_type, available_tokens, free_trialed)
		VALUES ($1, $2, $3, $4)`, uid, string(u.LicenseType), u.AvailableTokens, u.FreeTrialed)
	require.NoError(t, err)
	return uid
}

func countLicenses(t *testing.T, s *Storage, userUID string) int {
	t.Helper()
	var count int
	require.NoError(t, s.DB.QueryRow(`SELECT COUNT(*) FROM licenses WHERE user_uid = $1`, userUID).Scan(&count))
	return count
}

func testLicense(key string) models.License {
	return models.License{
		LicenseKey:  key,
		CreatedAt:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ActivatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		PlanName:    "Tokens S",
		Price:       500,
	}
}

func addTokens(n int64) DecideFunc {
	return func(models.User) (models.EntitlementDelta, error) {
		return models.EntitlementDelta{TokenDelta: n}, nil
	}
}

func TestStorage_Integration(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	require.NoError(t, CheckDatabaseReady(ctx, storage))

	t.Run("get user", func(t *testing.T) {
		uid := createUser(t, storage, models.User{LicenseType: models.LicensePremium, AvailableTokens: 7, FreeTrialed: true})

		got, err := storage.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, models.User{UUID: uid, LicenseType: models.LicensePremium, AvailableTokens: 7, FreeTrialed: true}, *got)

		_, err = storage.GetUser(ctx, uuid.New().String())
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("apply activation commits license and entitlement", func(t *testing.T) {
		uid := createUser(t, storage, models.User{LicenseType: models.LicenseNone})
		free := models.LicenseFree

		var seen models.User
		updated, delta, err := storage.ApplyActivation(ctx, uid, testLicense("KEY-A"), func(u models.User) (models.EntitlementDelta, error) {
			seen = u
			return models.EntitlementDelta{NewLicenseType: &free, TokenDelta: 10_000, MarkFreeTrialed: true}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, uid, seen.UUID)
		assert.Equal(t, int64(10_000), delta.TokenDelta)
		assert.Equal(t, models.User{UUID: uid, LicenseType: models.LicenseFree, AvailableTokens: 10_000, FreeTrialed: true}, *updated)

		exists, err := storage.LicenseExists(ctx, "KEY-A", uid)
		require.NoError(t, err)
		assert.True(t, exists)

		list, err := storage.ListLicenses(ctx, uid)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "KEY-A", list[0].LicenseKey)
		assert.Equal(t, int64(500), list[0].Price)
		assert.Equal(t, uid, list[0].UserUID)
	})

	t.Run("paid tier is never lowered to free", func(t *testing.T) {
		uid := createUser(t, storage, models.User{LicenseType: models.LicenseTeam})
		free := models.LicenseFree

		updated, _, err := storage.ApplyActivation(ctx, uid, testLicense("KEY-T"), func(models.User) (models.EntitlementDelta, error) {
			return models.EntitlementDelta{NewLicenseType: &free, TokenDelta: 1}, nil
		})
		require.NoError(t, err)
		assert.Equal(t, models.LicenseTeam, updated.LicenseType)
	})

	t.Run("duplicate license rolls back entitlement", func(t *testing.T) {
		uid := createUser(t, storage, models.User{LicenseType: models.LicenseNone})

		_, _, err := storage.ApplyActivation(ctx, uid, testLicense("KEY-D"), addTokens(100))
		require.NoError(t, err)

		_, _, err = storage.ApplyActivation(ctx, uid, testLicense("KEY-D"), addTokens(100))
		require.ErrorIs(t, err, ErrLicenseExists)

		got, err := storage.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, int64(100), got.AvailableTokens)
		assert.Equal(t, 1, countLicenses(t, storage, uid))
	})

	t.Run("same key for another user is allowed", func(t *testing.T) {
		first := createUser(t, storage, models.User{LicenseType: models.LicenseNone})
		second := createUser(t, storage, models.User{LicenseType: models.LicenseNone})

		_, _, err := storage.ApplyActivation(ctx, first, testLicense("KEY-SHARED"), addTokens(1))
		require.NoError(t, err)
		_, _, err = storage.ApplyActivation(ctx, second, testLicense("KEY-SHARED"), addTokens(1))
		require.NoError(t, err)
	})

	t.Run("decide rejection leaves no trace", func(t *testing.T) {
		uid := createUser(t, storage, models.User{LicenseType: models.LicenseNone})
		rejected := errors.New("rejected")

		_, _, err := storage.ApplyActivation(ctx, uid, testLicense("KEY-R"), func(models.User) (models.EntitlementDelta, error) {
			return models.EntitlementDelta{}, rejected
		})
		require.ErrorIs(t, err, rejected)
		assert.Equal(t, 0, countLicenses(t, storage, uid))
	})

	t.Run("failed update rolls back license insert", func(t *testing.T) {
		uid := createUser(t, storage, models.User{LicenseType: models.LicenseNone})
		bogus := models.LicenseType("platinum")

		_, _, err := storage.ApplyActivation(ctx, uid, testLicense("KEY-F"), func(models.User) (models.EntitlementDelta, error) {
			return models.EntitlementDelta{NewLicenseType: &bogus, TokenDelta: 500}, nil
		})
		require.Error(t, err)

		got, err := storage.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, int64(0), got.AvailableTokens)
		assert.Equal(t, models.LicenseNone, got.LicenseType)
		assert.Equal(t, 0, countLicenses(t, storage, uid))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, _, err := storage.ApplyActivation(ctx, uuid.New().String(), testLicense("KEY-U"), addTokens(1))
		require.ErrorIs(t, err, ErrUserNotFound)
	})

	t.Run("concurrent top-ups are additive", func(t *testing.T) {
		uid := createUser(t, storage, models.User{LicenseType: models.LicenseNone})

		const workers = 8
		var wg sync.WaitGroup
		errs := make(chan error, workers)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, err := storage.ApplyActivation(ctx, uid, testLicense(uuid.New().String()), addTokens(1_000))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		got, err := storage.GetUser(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, int64(workers*1_000), got.AvailableTokens)
		assert.Equal(t, workers, countLicenses(t, storage, uid))
	})
}
