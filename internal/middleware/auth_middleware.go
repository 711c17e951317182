package middleware

import (
	"context"
	"errors"
	"strings"

	"tasklist/internal/apperr"
	"tasklist/internal/i18n"
	"tasklist/internal/model"
	"tasklist/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserIDKey is the gin context key holding the authenticated uuid.UUID.
const UserIDKey = "user_id"

// ErrNotAuthorized is reported for anonymous requests to guarded routes.
// Its message is a catalog key, translated when the error page is rendered.
var ErrNotAuthorized = apperr.New(apperr.KindAccessDenied, i18n.KeyNotAuthorized)

type TokenParser interface {
	ParseToken(tokenString string) (uuid.UUID, error)
}

type SessionReader interface {
	Get(ctx context.Context, id string) (uuid.UUID, error)
}

type UserGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

// Identify resolves the caller from a Bearer token or the session cookie.
// It never aborts: bad or expired credentials leave the request anonymous.
func Identify(tokens TokenParser, sessions SessionReader, log *zap.Logger) gin.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok && tokens != nil {
			if userID, err := tokens.ParseToken(token); err == nil {
				c.Set(UserIDKey, userID)
			}
			c.Next()
			return
		}

		if sessions != nil {
			if sid, err := c.Cookie(session.CookieName); err == nil && sid != "" {
				userID, err := sessions.Get(c.Request.Context(), sid)
				switch {
				case err == nil:
					c.Set(UserIDKey, userID)
				case !errors.Is(err, session.ErrNotFound):
					log.Warn("⚠️ session lookup failed", zap.Error(err))
				}
			}
		}

		c.Next()
	}
}

// RequireUser aborts anonymous requests with ErrNotAuthorized (403).
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			_ = c.Error(ErrNotAuthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireStaff lets through only authenticated staff users.
func RequireStaff(users UserGetter) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			_ = c.Error(ErrNotAuthorized)
			c.Abort()
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			_ = c.Error(err)
			c.Abort()
			return
		}
		if user == nil || !user.IsStaff {
			_ = c.Error(apperr.ErrAccessDenied)
			c.Abort()
			return
		}
		c.Next()
	}
}

// UserID returns the identity stored by Identify.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(header), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}
