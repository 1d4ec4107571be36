package middleware

import (
	"errors"
	"net/http"
	"strings"

	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/policy"
	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	ctxUser  = "user"
	ctxActor = "actor"
)

// Authenticate resolves an optional bearer token. Requests without an
// Authorization header continue anonymously; a malformed or invalid token is
// rejected with 401.
func Authenticate(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		// Extract token (format: "Bearer <token>")
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			return
		}

		user, err := authService.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			if !errors.Is(err, service.ErrUnauthenticated) {
				log.Error().Err(err).Msg("failed to resolve token")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ctxUser, user)
		c.Set(ctxActor, policy.FromUser(user))
		c.Next()
	}
}

// ActorFrom returns the authenticated actor, or nil for anonymous requests.
func ActorFrom(c *gin.Context) *policy.Actor {
	if v, ok := c.Get(ctxActor); ok {
		if actor, ok := v.(*policy.Actor); ok {
			return actor
		}
	}
	return nil
}

// UserFrom returns the stored user behind the request, or nil.
func UserFrom(c *gin.Context) *models.User {
	if v, ok := c.Get(ctxUser); ok {
		if user, ok := v.(*models.User); ok {
			return user
		}
	}
	return nil
}

// Permit enforces a request-level rule. Denied anonymous callers get 401,
// denied authenticated callers 403.
func Permit(rule policy.Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if rule(actor, c.Request.Method) {
			c.Next()
			return
		}
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": service.ErrUnauthenticated.Error()})
			return
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": service.ErrForbidden.Error()})
	}
}
