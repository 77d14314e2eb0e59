package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	firebaseIssuerPrefix = "https://securetoken.google.com/"
	maxUIDLength         = 128
)

// FirebaseClaims are the claims carried by a Firebase ID token.
type FirebaseClaims struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Picture  string `json:"picture"`
	AuthTime int64  `json:"auth_time"`
	jwt.RegisteredClaims
}

// FirebaseVerifier validates ID tokens issued by Firebase Authentication for
// a single project.
type FirebaseVerifier struct {
	projectID string
	keys      KeySource
	now       func() time.Time
}

// NewFirebaseVerifier creates a verifier for projectID using keys to resolve
// signing keys by key id.
func NewFirebaseVerifier(projectID string, keys KeySource) *FirebaseVerifier {
	return &FirebaseVerifier{
		projectID: projectID,
		keys:      keys,
		now:       time.Now,
	}
}

// Verify implements Verifier.
func (v *FirebaseVerifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	claims := &FirebaseClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, ErrInvalidToken
		}
		return v.keys.PublicKey(ctx, kid)
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithAudience(v.projectID),
		jwt.WithIssuer(firebaseIssuerPrefix+v.projectID),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, ErrVerifierUnavailable):
			return nil, err
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		default:
			return nil, ErrInvalidToken
		}
	}

	if claims.Subject == "" || len(claims.Subject) > maxUIDLength {
		return nil, ErrInvalidToken
	}
	if claims.AuthTime > v.now().Unix() {
		return nil, ErrInvalidToken
	}

	name := claims.Name
	if name == "" && claims.Email != "" {
		name, _, _ = strings.Cut(claims.Email, "@")
	}

	return &Identity{
		ID:          claims.Subject,
		Email:       claims.Email,
		DisplayName: name,
		AvatarURL:   claims.Picture,
	}, nil
}
