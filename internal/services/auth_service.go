package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yukikurage/task-manager-api/internal/auth"
	"github.com/yukikurage/task-manager-api/internal/models"
	"github.com/yukikurage/task-manager-api/internal/repository"
)

var (
	ErrIDTokenRequired = errors.New("ID token is required")
	ErrUserNotFound    = errors.New("user not found")
)

// AuthService handles login against the identity provider and user lookup.
type AuthService struct {
	userRepo repository.UserRepository
	provider auth.Verifier
	tokens   *auth.TokenManager
	now      func() time.Time
}

// NewAuthService creates a new AuthService. tokens may be nil, in which case
// login returns no session token and clients keep using the provider credential.
func NewAuthService(userRepo repository.UserRepository, provider auth.Verifier, tokens *auth.TokenManager) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		provider: provider,
		tokens:   tokens,
		now:      time.Now,
	}
}

// LoginResult is the outcome of a successful login.
type LoginResult struct {
	User  *models.User
	Token string
}

// Login verifies a provider ID token and records the user, creating it on
// first login and refreshing its profile claims on every later one.
func (s *AuthService) Login(ctx context.Context, idToken string) (*LoginResult, error) {
	if idToken == "" {
		return nil, ErrIDTokenRequired
	}

	identity, err := s.provider.Verify(ctx, idToken)
	if err != nil {
		return nil, err
	}

	now := models.Timestamp(s.now())
	if err := s.userRepo.Upsert(ctx, &models.User{
		ID:          identity.ID,
		Email:       identity.Email,
		DisplayName: identity.DisplayName,
		AvatarURL:   identity.AvatarURL,
		CreatedAt:   now,
		LastLoginAt: now,
	}); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, identity.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload user: %w", err)
	}

	result := &LoginResult{User: user}
	if s.tokens != nil {
		token, err := s.tokens.Issue(*identity)
		if err != nil {
			return nil, fmt.Errorf("failed to issue session token: %w", err)
		}
		result.Token = token
	}

	return result, nil
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	return user, nil
}
