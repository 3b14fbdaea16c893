// Package identity keeps the locally persisted user of the practice tool.
// Credentials are validated for shape only; nothing is checked against a
// remote account.
package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/rbright/rehearse/internal/kv"
	"github.com/rbright/rehearse/internal/logging"
)

// StorageKey is the fixed key the current user is stored under.
const StorageKey = "interview_platform_user"

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

var (
	ErrBlankCredentials = errors.New("email and password are required")
	ErrBlankName        = errors.New("name is required")
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrSignedOut        = errors.New("not signed in")
)

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type Service struct {
	store  kv.Store
	logger *slog.Logger
	newID  func() string
}

func NewService(store kv.Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logging.OrDiscard(logger),
		newID:  uuid.NewString,
	}
}

// Login accepts any well-formed credentials and persists a fresh user whose
// name is the local part of the email.
func (s *Service) Login(ctx context.Context, email string, password string) (User, error) {
	email = strings.TrimSpace(email)
	if err := checkCredentials(email, password); err != nil {
		return User{}, err
	}

	name := email
	if at := strings.Index(email, "@"); at >= 0 {
		name = email[:at]
	}
	return s.persist(ctx, User{ID: s.newID(), Email: email, Name: name})
}

// Signup is Login with an explicit display name.
func (s *Service) Signup(ctx context.Context, name string, email string, password string) (User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return User{}, ErrBlankName
	}
	if err := checkCredentials(email, password); err != nil {
		return User{}, err
	}
	return s.persist(ctx, User{ID: s.newID(), Email: email, Name: name})
}

func (s *Service) Logout(ctx context.Context) error {
	if err := s.store.Delete(ctx, StorageKey); err != nil {
		return fmt.Errorf("clear identity: %w", err)
	}
	s.logger.Info("identity cleared")
	return nil
}

// Current returns the persisted user, or ErrSignedOut when none is stored.
func (s *Service) Current(ctx context.Context) (User, error) {
	data, err := s.store.Get(ctx, StorageKey)
	if errors.Is(err, kv.ErrNotFound) {
		return User{}, ErrSignedOut
	}
	if err != nil {
		return User{}, fmt.Errorf("load identity: %w", err)
	}

	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return User{}, fmt.Errorf("decode identity: %w", err)
	}
	return user, nil
}

func (s *Service) persist(ctx context.Context, user User) (User, error) {
	data, err := json.Marshal(user)
	if err != nil {
		return User{}, fmt.Errorf("encode identity: %w", err)
	}
	if err := s.store.Set(ctx, StorageKey, data); err != nil {
		return User{}, fmt.Errorf("store identity: %w", err)
	}
	s.logger.Info("identity stored", "user_id", user.ID)
	return user, nil
}

func checkCredentials(email string, password string) error {
	if email == "" || password == "" {
		return ErrBlankCredentials
	}
	if len([]rune(password)) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}
