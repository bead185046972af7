package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"
)

// Service implements registration and login on top of the user store.
type Service struct {
	store  *UserStore
	tokens *TokenManager
	logger *slog.Logger
}

// ServiceOption configures the Service
type ServiceOption func(*Service)

// WithServiceLogger sets the logger
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService wires the account lifecycle.
func NewService(store *UserStore, tokens *TokenManager, options ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		tokens: tokens,
		logger: slog.Default(),
	}

	for _, opt := range options {
		opt(s)
	}

	return s
}

// Register creates an account with a bcrypt-hashed password.
func (s *Service) Register(ctx context.Context, userName, email, password string) (User, error) {
	if userName == "" || password == "" {
		return User{}, errors.New("auth: username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("auth: hash password: %w", err)
	}

	u, err := s.store.Insert(ctx, userName, email, string(hash))
	if err != nil {
		return User{}, err
	}

	s.logger.Info("registered user", "userId", u.ID, "userName", u.UserName)
	return u, nil
}

// Login verifies the credentials and issues a token. Unknown usernames
// and wrong passwords both come back as ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, userName, password string) (string, User, error) {
	u, err := s.store.GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", User{}, ErrInvalidCredentials
		}
		return "", User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", User{}, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", User{}, err
	}
	return token, u, nil
}
