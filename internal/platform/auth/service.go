package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	platformdb "SIGB-backend/internal/platform/db"
)

var (
	ErrAuthFailed    = errors.New("authentication failed")
	ErrAlreadyExists = errors.New("already exists")
	ErrNotFound      = errors.New("not found")
	ErrInvalidRole   = errors.New("invalid role")
	ErrSelfLockout   = errors.New("cannot delete own account")
	ErrSelfDisable   = errors.New("cannot disable own account")
	ErrMissingField  = errors.New("username and password are required")
)

type Service struct {
	store  UserStore
	secret []byte
	ttl    time.Duration
}

func NewService(db *sql.DB, cfg platformdb.AuthConfig) *Service {
	return &Service{
		store:  NewStore(db),
		secret: []byte(cfg.JWTSecret),
		ttl:    time.Duration(cfg.TokenTTLHours) * time.Hour,
	}
}

func (s *Service) Secret() []byte { return s.secret }

// Login verifies the password and issues an HS256 token with sub/role claims.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	u, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if u == nil || u.IsDisabled {
		// same answer as a wrong password, no account probing
		return "", ErrAuthFailed
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrAuthFailed
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  u.Username,
		"role": u.Role,
		"exp":  time.Now().Add(s.ttl).Unix(),
	})

	return token.SignedString(s.secret)
}

func (s *Service) Register(ctx context.Context, username, password, fullName, email, role string) (int64, error) {
	if username == "" || password == "" {
		return 0, ErrMissingField
	}
	if role == "" {
		role = RoleReader
	}
	if !ValidRole(role) {
		return 0, ErrInvalidRole
	}

	exists, err := s.store.GetByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	if exists != nil {
		return 0, ErrAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, err
	}

	return s.store.Create(ctx, &User{
		Username:     username,
		PasswordHash: string(hash),
		FullName:     fullName,
		Email:        email,
		Role:         role,
	})
}

// Delete removes a user account. An admin cannot delete the account it is
// acting as, so the last admin cannot lock everyone out by accident.
func (s *Service) Delete(ctx context.Context, actor, username string) error {
	if actor == username {
		return ErrSelfLockout
	}
	n, err := s.store.Delete(ctx, username)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) SetDisabled(ctx context.Context, actor, username string, disabled bool) error {
	if disabled && actor == username {
		return ErrSelfDisable
	}
	n, err := s.store.SetDisabled(ctx, username, disabled)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.store.List(ctx)
}
