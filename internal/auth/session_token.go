package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const sessionTokenType = "access"

// SessionTokenConfig holds settings for tokens minted by this service.
type SessionTokenConfig struct {
	SecretKey string
	TTL       time.Duration
	Issuer    string
}

// SessionClaims are the claims of a session token. The subject is the user id.
type SessionClaims struct {
	Email     string `json:"email,omitempty"`
	Name      string `json:"name,omitempty"`
	Picture   string `json:"picture,omitempty"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies HS256 session tokens.
type TokenManager struct {
	config SessionTokenConfig
	now    func() time.Time
}

// NewTokenManager creates a TokenManager with the given configuration.
func NewTokenManager(config SessionTokenConfig) *TokenManager {
	return &TokenManager{config: config, now: time.Now}
}

// Issue signs a session token for id.
func (m *TokenManager) Issue(id Identity) (string, error) {
	now := m.now()
	claims := SessionClaims{
		Email:     id.Email,
		Name:      id.DisplayName,
		Picture:   id.AvatarURL,
		TokenType: sessionTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   id.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// Verify implements Verifier for session tokens.
func (m *TokenManager) Verify(_ context.Context, tokenString string) (*Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.SecretKey), nil
	},
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.TokenType != sessionTokenType || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		ID:          claims.Subject,
		Email:       claims.Email,
		DisplayName: claims.Name,
		AvatarURL:   claims.Picture,
	}, nil
}
