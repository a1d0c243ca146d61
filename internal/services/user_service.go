package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/isdelr/edgefit-be/internal/auth"
	"github.com/isdelr/edgefit-be/internal/metrics"
	"github.com/isdelr/edgefit-be/internal/models"
	"github.com/isdelr/edgefit-be/internal/repository"
	"github.com/rs/zerolog/log"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, username, password string) error
	Login(ctx context.Context, username, password string) (string, error)
	Authenticate(token string) (string, error)
}

// UserService provides registration, login and token authentication.
type UserService struct {
	users   repository.UserRepository
	hasher  auth.PasswordHasher
	tokens  TokenManager
	metrics metrics.Recorder

	// dummyHash is verified against when the username is unknown so both
	// failure paths cost one hash comparison.
	dummyHash string
}

// TokenManager issues and verifies access tokens.
type TokenManager interface {
	auth.TokenIssuer
	auth.TokenVerifier
}

var _ UserServiceProvider = (*UserService)(nil)

// NewUserService creates a new UserService.
func NewUserService(users repository.UserRepository, hasher auth.PasswordHasher, tokens TokenManager, rec metrics.Recorder) (*UserService, error) {
	dummy, err := hasher.Hash("edgefit-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &UserService{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		metrics:   rec,
		dummyHash: dummy,
	}, nil
}

// Register creates a new user with a hashed password.
func (s *UserService) Register(ctx context.Context, username, password string) error {
	_, err := s.users.GetUserByUsername(ctx, username)
	switch {
	case err == nil:
		s.metrics.RecordRegistration("username_taken")
		return models.ErrUsernameTaken
	case !errors.Is(err, models.ErrUserNotFound):
		s.metrics.RecordRegistration("store_unavailable")
		return fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.metrics.RecordRegistration("error")
		return err
	}

	// The store's unique key decides concurrent registrations of the same name.
	err = s.users.CreateUser(ctx, models.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		if errors.Is(err, models.ErrUsernameTaken) {
			s.metrics.RecordRegistration("username_taken")
			return models.ErrUsernameTaken
		}
		s.metrics.RecordRegistration("store_unavailable")
		return fmt.Errorf("create user: %w", err)
	}

	s.metrics.RecordRegistration("success")
	log.Info().Str("username", username).Msg("User registered")
	return nil
}

// Login verifies credentials and returns a signed access token.
// Unknown usernames and wrong passwords both yield models.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.hasher.Verify(password, s.dummyHash)
			s.metrics.RecordLogin("invalid_credentials")
			return "", models.ErrInvalidCredentials
		}
		s.metrics.RecordLogin("store_unavailable")
		return "", fmt.Errorf("lookup user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.RecordLogin("invalid_credentials")
		return "", models.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Username)
	if err != nil {
		s.metrics.RecordLogin("error")
		return "", fmt.Errorf("issue token: %w", err)
	}

	s.metrics.RecordLogin("success")
	return token, nil
}

// Authenticate verifies a bearer token and returns its subject.
func (s *UserService) Authenticate(token string) (string, error) {
	username, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) {
			s.metrics.RecordTokenRejection("expired")
		} else {
			s.metrics.RecordTokenRejection("invalid")
		}
		return "", err
	}
	return username, nil
}
