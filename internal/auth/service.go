package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Service implements registration, login and token verification.
type Service struct {
	repo   Repository
	tokens *TokenStore
	logger *slog.Logger
}

func NewService(repo Repository, tokens *TokenStore, logger *slog.Logger) *Service {
	return &Service{repo: repo, tokens: tokens, logger: logger}
}

// Register creates an account with a bcrypt password hash.
func (s *Service) Register(ctx context.Context, email, name, password string) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("auth: hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, normalizeEmail(email), name, string(hash))
	if err != nil {
		return User{}, err
	}
	s.logger.Info("user registered", slog.Int64("user_id", user.ID))
	return user, nil
}

// Login verifies the credentials and issues a bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (User, string, error) {
	user, err := s.repo.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return User{}, "", ErrInvalidCredentials
		}
		return User{}, "", err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		return User{}, "", err
	}
	return user, token, nil
}

// Logout revokes the token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.tokens.Revoke(ctx, token)
}

// Authenticate resolves a bearer token to its account.
func (s *Service) Authenticate(ctx context.Context, token string) (User, error) {
	userID, err := s.tokens.Resolve(ctx, token)
	if err != nil {
		return User{}, err
	}
	user, err := s.repo.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			// The account vanished under a live token.
			return User{}, ErrUnauthorized
		}
		return User{}, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
