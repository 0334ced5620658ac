package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/openkanban/kanband/internal/domain"
	internal_errors "github.com/openkanban/kanband/internal/errors"
)

// =========================================================================
// Public Methods (satisfy the service.AuthStorage interface)
// =========================================================================

// SaveUser wraps the insert in a transaction to keep the operation atomic.
func (s *Storage) SaveUser(user domain.User) (domain.UserId, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var id domain.UserId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		id, err = s.saveUser(tx, user)
		return err
	})
	return id, err
}

func (s *Storage) UserByUsername(username domain.Username) (domain.User, error) {
	return s.userBy(s.db, "username", username)
}

func (s *Storage) UserByEmail(email domain.Email) (domain.User, error) {
	return s.userBy(s.db, "email", email)
}

// ConfirmUser marks the account verified and discards the spent OTP.
func (s *Storage) ConfirmUser(id domain.UserId) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		return s.confirmUser(tx, id)
	})
}

// DeleteUser removes a user row. Only called for unverified signups whose
// verification code expired, freeing the username and email for reuse.
func (s *Storage) DeleteUser(id domain.UserId) error {
	result, err := s.db.Exec("DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for user deletion: %w", err)
	}
	if rowsAffected == 0 {
		return internal_errors.NotFound("User not found")
	}
	return nil
}

// SearchUsers backs the share dialog's autocomplete: case-insensitive
// substring match on username, excluding the requester.
func (s *Storage) SearchUsers(query string, exclude domain.UserId, limit int) ([]domain.User, error) {
	rows, err := s.db.Query(`
		SELECT id, username, email, password_hash, email_verified, COALESCE(otp_hash, ''), COALESCE(otp_expires, 'epoch')
		FROM users
		WHERE username ILIKE '%' || $1 || '%' AND id != $2
		ORDER BY username
		LIMIT $3`, query, exclude, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// UsersByIds resolves a board's shared_with ids into users.
func (s *Storage) UsersByIds(ids []domain.UserId) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := s.db.Query(`
		SELECT id, username, email, password_hash, email_verified, COALESCE(otp_hash, ''), COALESCE(otp_expires, 'epoch')
		FROM users
		WHERE id = ANY($1)
		ORDER BY username`, int64Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query users by ids: %w", err)
	}
	defer rows.Close()

	return scanUsers(rows)
}

// =========================================================================
// Internal Methods (Core Database Logic)
// =========================================================================

func (s *Storage) saveUser(q Querier, user domain.User) (domain.UserId, error) {
	var id int64
	err := q.QueryRow(`
		INSERT INTO users(username, email, password_hash, email_verified, otp_hash, otp_expires)
		VALUES($1, $2, $3, $4, NULLIF($5, ''), $6)
		RETURNING id`,
		user.Username, user.Email, user.PassHash, user.EmailVerified, user.OtpHash, nullableTime(user.OtpExpires)).Scan(&id)
	if err != nil {
		return -1, fmt.Errorf("failed to insert user: %w", err)
	}
	return id, nil
}

func (s *Storage) userBy(q Querier, column string, value string) (domain.User, error) {
	var user domain.User
	var otpExpires sql.NullTime
	err := q.QueryRow(fmt.Sprintf(`
		SELECT id, username, email, password_hash, email_verified, COALESCE(otp_hash, ''), otp_expires
		FROM users WHERE %s = $1`, column), value).
		Scan(&user.Id, &user.Username, &user.Email, &user.PassHash, &user.EmailVerified, &user.OtpHash, &otpExpires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, internal_errors.NotFound("User not found")
		}
		return domain.User{}, fmt.Errorf("failed to query user: %w", err)
	}
	if otpExpires.Valid {
		user.OtpExpires = otpExpires.Time
	}
	return user, nil
}

func (s *Storage) confirmUser(q Querier, id domain.UserId) error {
	result, err := q.Exec(`
		UPDATE users SET email_verified = TRUE, otp_hash = NULL, otp_expires = NULL
		WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to confirm user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows for user confirmation: %w", err)
	}
	if rowsAffected == 0 {
		return internal_errors.NotFound("User not found")
	}
	return nil
}

func scanUsers(rows *sql.Rows) ([]domain.User, error) {
	var users []domain.User
	for rows.Next() {
		var user domain.User
		if err := rows.Scan(&user.Id, &user.Username, &user.Email, &user.PassHash, &user.EmailVerified, &user.OtpHash, &user.OtpExpires); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
