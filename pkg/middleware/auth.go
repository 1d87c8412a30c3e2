package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/taskpulse/taskpulse-go/internal/tokens"
)

// Context keys set by AuthMiddleware.
const (
	ClaimsKey  = "claims"
	SubjectKey = "subject"
)

// Verifier checks a raw bearer credential.
type Verifier interface {
	Verify(raw string) (*tokens.Claims, error)
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": msg})
}

// AuthMiddleware verifies the Bearer credential and stores its claims and
// subject on the context.
func AuthMiddleware(ver Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if auth == "" {
			unauthorized(c, "Missing Authorization header")
			return
		}
		scheme, raw, ok := strings.Cut(auth, " ")
		raw = strings.TrimSpace(raw)
		if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
			unauthorized(c, "Invalid Authorization header")
			return
		}

		claims, err := ver.Verify(raw)
		if err != nil {
			if errors.Is(err, tokens.ErrExpired) {
				unauthorized(c, "Token has expired")
				return
			}
			unauthorized(c, "Could not validate credentials")
			return
		}
		id, ok := claims.SubjectID()
		if !ok {
			unauthorized(c, "Token has no subject")
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(SubjectKey, id)
		c.Next()
	}
}

// Subject returns the verified subject stored by AuthMiddleware.
func Subject(c *gin.Context) (int64, bool) {
	v, ok := c.Get(SubjectKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

// RequireOwner rejects requests whose path parameter param differs from the
// verified subject.
func RequireOwner(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, ok := Subject(c)
		if !ok {
			unauthorized(c, "Not authenticated")
			return
		}
		id, err := strconv.ParseInt(c.Param(param), 10, 64)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "invalid user id"})
			return
		}
		if id != sub {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Access denied: user ID in URL does not match authenticated user"})
			return
		}
		c.Next()
	}
}
