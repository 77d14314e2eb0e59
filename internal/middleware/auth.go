package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager-api/internal/auth"
	"github.com/yukikurage/task-manager-api/internal/constants"
	apierrors "github.com/yukikurage/task-manager-api/internal/errors"
	"github.com/yukikurage/task-manager-api/internal/metrics"
)

// RequireAuth resolves the bearer credential into an identity via verifier.
// Requests without a valid credential never reach the handler.
func RequireAuth(verifier auth.Verifier, logger *slog.Logger, m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader(constants.AuthorizationHeader))
		if !ok {
			m.AuthFailure("missing")
			logger.Warn("rejected request", "reason", "missing", "path", c.Request.URL.Path)
			apierrors.Unauthorized(c, "No token provided")
			return
		}

		identity, err := verifier.Verify(c.Request.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				m.AuthFailure("expired")
				logger.Warn("rejected request", "reason", "expired", "path", c.Request.URL.Path)
				apierrors.TokenExpired(c)
			case errors.Is(err, auth.ErrVerifierUnavailable):
				m.AuthFailure("unavailable")
				logger.Error("rejected request", "reason", "unavailable", "path", c.Request.URL.Path, "error", err)
				apierrors.InternalError(c, "Authentication service unavailable")
			default:
				m.AuthFailure("invalid")
				logger.Warn("rejected request", "reason", "invalid", "path", c.Request.URL.Path)
				apierrors.Unauthorized(c, "Invalid token")
			}
			return
		}

		c.Set(constants.ContextKeyIdentity, *identity)
		c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), *identity))
		c.Next()
	}
}

// GetIdentity retrieves the identity set by RequireAuth
func GetIdentity(c *gin.Context) (auth.Identity, bool) {
	value, exists := c.Get(constants.ContextKeyIdentity)
	if !exists {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	return identity, ok && identity.ID != ""
}

func bearerToken(header string) (string, bool) {
	if len(header) < len(constants.BearerPrefix) ||
		!strings.EqualFold(header[:len(constants.BearerPrefix)], constants.BearerPrefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(constants.BearerPrefix):])
	return token, token != ""
}
