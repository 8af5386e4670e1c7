package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type User struct {
	UserID       int64
	Username     string
	PasswordHash string
	FullName     string
	Email        string
	Role         string
	IsDisabled   bool
	CreatedAt    time.Time
}

type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u *User) (int64, error)
	Delete(ctx context.Context, username string) (int64, error)
	SetDisabled(ctx context.Context, username string, disabled bool) (int64, error)
	List(ctx context.Context) ([]User, error)
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) UserStore {
	return &Store{db: db}
}

func (s *Store) GetByUsername(ctx context.Context, username string) (*User, error) {
	const q = `
SELECT user_id, username, password_hash, full_name, email, role, is_disabled, created_at
FROM users
WHERE username = ?
LIMIT 1
`
	var u User
	var isDisabledInt int
	err := s.db.QueryRowContext(ctx, q, username).Scan(
		&u.UserID,
		&u.Username,
		&u.PasswordHash,
		&u.FullName,
		&u.Email,
		&u.Role,
		&isDisabledInt,
		&u.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.IsDisabled = isDisabledInt != 0
	return &u, nil
}

func (s *Store) Create(ctx context.Context, u *User) (int64, error) {
	const q = `
INSERT INTO users (username, password_hash, full_name, email, role, is_disabled, created_at)
VALUES (?, ?, ?, ?, ?, 0, NOW(6))
`
	res, err := s.db.ExecContext(ctx, q, u.Username, u.PasswordHash, u.FullName, u.Email, u.Role)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) Delete(ctx context.Context, username string) (int64, error) {
	const q = `DELETE FROM users WHERE username = ?`
	res, err := s.db.ExecContext(ctx, q, username)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) SetDisabled(ctx context.Context, username string, disabled bool) (int64, error) {
	const q = `UPDATE users SET is_disabled = ? WHERE username = ?`
	res, err := s.db.ExecContext(ctx, q, disabled, username)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Store) List(ctx context.Context) ([]User, error) {
	const q = `
SELECT user_id, username, password_hash, full_name, email, role, is_disabled, created_at
FROM users
ORDER BY username
`
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		var u User
		var isDisabledInt int
		if err := rows.Scan(
			&u.UserID, &u.Username, &u.PasswordHash, &u.FullName,
			&u.Email, &u.Role, &isDisabledInt, &u.CreatedAt,
		); err != nil {
			return nil, err
		}
		u.IsDisabled = isDisabledInt != 0
		out = append(out, u)
	}
	return out, rows.Err()
}
