package http

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/cpatton716/collectors-catalog/internal/auth"
	apperrors "github.com/cpatton716/collectors-catalog/pkg/errors"
	"github.com/cpatton716/collectors-catalog/pkg/types"
)

const profileContextKey = "profile"

// ProfileStore resolves an authenticated identity to its internal profile.
type ProfileStore interface {
	EnsureProfile(ctx context.Context, externalID, email string) (types.Profile, error)
}

// RequestLogger logs each request with timing.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		log.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}

// AuthMiddleware validates the session cookie and loads the caller's profile,
// creating it on first authenticated access. Requests without a valid
// identity are rejected before any store access.
func AuthMiddleware(a *auth.Authenticator, store ProfileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, err := a.ValidateRequest(c.Request)
		if err != nil {
			abortError(c, err)
			return
		}

		profile, err := store.EnsureProfile(c.Request.Context(), identity.Subject, identity.Email)
		if err != nil {
			abortError(c, err)
			return
		}

		c.Set(profileContextKey, profile)
		c.Next()
	}
}

// RequireAdmin gates moderation routes behind the admin role.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentProfile(c).Role != types.RoleAdmin {
			abortError(c, apperrors.New(apperrors.ErrForbidden, "admin role required"))
			return
		}
		c.Next()
	}
}

func currentProfile(c *gin.Context) types.Profile {
	profile, _ := c.Get(profileContextKey)
	p, _ := profile.(types.Profile)
	return p
}

func abortError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	status := httpStatus(code)
	if status >= http.StatusInternalServerError {
		log.Error("Request failed", "path", c.Request.URL.Path, "error", err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal server error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": errorMessage(err), "code": code})
}
