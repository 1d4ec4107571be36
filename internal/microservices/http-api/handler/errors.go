package handler

import (
	"errors"
	"net/http"

	"yamdb/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// respondError maps service errors onto HTTP responses.
func respondError(c *gin.Context, err error) {
	var validationErr *service.ValidationError
	var roleErr *service.RoleChangeError

	switch {
	case errors.As(err, &validationErr):
		details := make(map[string]string, len(validationErr.Fields))
		for field, fieldErr := range validationErr.Fields {
			details[field] = fieldErr.Error()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "details": details})
	case errors.As(err, &roleErr):
		c.JSON(http.StatusBadRequest, roleErr.Profile)
	case errors.Is(err, service.ErrInvalidConfirmation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
