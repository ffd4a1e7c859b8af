package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/magabrotheeeer/license-activator/internal/models"
)

// DecideFunc вычисляет изменение прав по заблокированному снимку пользователя.
type DecideFunc func(user models.User) (models.EntitlementDelta, error)

// LicenseExists проверяет, записан ли уже ключ за пользователем.
func (s *Storage) LicenseExists(ctx context.Context, licenseKey, userUID string) (bool, error) {
	const op = "storage.LicenseExists"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT EXISTS (
				  SELECT 1 FROM licenses WHERE license_key = $1 AND user_uid = $2
			  )`
	var exists bool
	if err := s.DB.QueryRowContext(ctx, query, licenseKey, userUID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// ListLicenses возвращает журнал активаций пользователя, начиная с последних.
func (s *Storage) ListLicenses(ctx context.Context, userUID string) ([]*models.License, error) {
	const op = "storage.ListLicenses"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, license_key, license_created_at, license_activated_at,
			      plan_name, price, user_uid
			  FROM licenses
			  WHERE user_uid = $1
			  ORDER BY license_activated_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.License
	for rows.Next() {
		var l models.License
		if err := rows.Scan(&l.ID, &l.LicenseKey, &l.CreatedAt, &l.ActivatedAt,
			&l.PlanName, &l.Price, &l.UserUID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &l)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ApplyActivation атомарно записывает лицензию и применяет изменение прав.
//
// Строка пользователя блокируется (SELECT ... FOR UPDATE), решение decide
// принимается по заблокированному снимку, поэтому параллельные пополнения
// одного пользователя не теряются. Любая ошибка откатывает обе записи.
// Повторная запись пары (ключ, пользователь) возвращает ErrLicenseExists.
func (s *Storage) ApplyActivation(ctx context.Context, userUID string, license models.License,
	decide DecideFunc) (*models.User, models.EntitlementDelta, error) {
	const op = "storage.ApplyActivation"

	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, models.EntitlementDelta{}, fmt.Errorf("%s: begin: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	lockQuery := `SELECT uid, license_type, available_tokens, free_trialed
				  FROM users
				  WHERE uid = $1
				  FOR UPDATE`
	user, err := scanUser(tx.QueryRowContext(ctx, lockQuery, userUID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, models.EntitlementDelta{}, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, models.EntitlementDelta{}, fmt.Errorf("%s: lock user: %w", op, err)
	}

	delta, err := decide(*user)
	if err != nil {
		return nil, models.EntitlementDelta{}, fmt.Errorf("%s: %w", op, err)
	}

	insertQuery := `INSERT INTO licenses (license_key, license_created_at, license_activated_at,
					    plan_name, price, user_uid)
					VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err = tx.ExecContext(ctx, insertQuery, license.LicenseKey, license.CreatedAt,
		license.ActivatedAt, license.PlanName, license.Price, userUID); err != nil {
		if isUniqueViolation(err) {
			return nil, models.EntitlementDelta{}, fmt.Errorf("%s: %w", op, ErrLicenseExists)
		}
		return nil, models.EntitlementDelta{}, fmt.Errorf("%s: insert license: %w", op, err)
	}

	var newLicenseType *string
	if delta.NewLicenseType != nil {
		v := string(*delta.NewLicenseType)
		newLicenseType = &v
	}
	updateQuery := `UPDATE users
					SET license_type = CASE
					        WHEN $1::text IS NULL THEN license_type
					        WHEN license_type IN ('premium', 'team') AND $1::text = 'free' THEN license_type
					        ELSE $1::text
					    END,
					    available_tokens = available_tokens + $2,
					    free_trialed = free_trialed OR $3
					WHERE uid = $4
					RETURNING uid, license_type, available_tokens, free_trialed`
	updated, err := scanUser(tx.QueryRowContext(ctx, updateQuery,
		newLicenseType, delta.TokenDelta, delta.MarkFreeTrialed, userUID))
	if err != nil {
		return nil, models.EntitlementDelta{}, fmt.Errorf("%s: update user: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, models.EntitlementDelta{}, fmt.Errorf("%s: commit: %w", op, err)
	}
	return updated, delta, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
