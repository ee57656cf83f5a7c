package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"parkwatch/internal/infrastructure/auth"
	"parkwatch/internal/infrastructure/database"
	"parkwatch/internal/infrastructure/hub"
	"parkwatch/internal/infrastructure/logger"
	"parkwatch/internal/infrastructure/storage"
)

// requestError is a client mistake answered with its own status and message.
type requestError struct {
	status  int
	message string
}

func (e *requestError) Error() string { return e.message }

func badRequest(msg string) error {
	return &requestError{status: http.StatusBadRequest, message: msg}
}

func unauthorized(msg string) error {
	return &requestError{status: http.StatusUnauthorized, message: msg}
}

// writeError maps err onto a {"message": ...} response. Unexpected errors are
// logged and answered with a generic 500.
func writeError(c *gin.Context, log logger.Logger, err error) {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		c.JSON(reqErr.status, gin.H{"message": reqErr.message})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "not found"})
	case errors.Is(err, database.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"message": "already exists"})
	case errors.Is(err, auth.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "invalid token"})
	case errors.Is(err, hub.ErrHubNotRunning), errors.Is(err, storage.ErrNotConfigured):
		log.Warnf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"message": "service temporarily unavailable"})
	default:
		log.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "internal server error"})
	}
}

// positiveInt parses a positive integer query value, falling back to def.
func positiveInt(c *gin.Context, key string, def int64) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(c.Query(key)), 10, 64)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// optionalInt returns nil when key is absent or not a number.
func optionalInt(c *gin.Context, key string) *int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(c.Query(key)), 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func pathID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, badRequest("invalid id")
	}
	return id, nil
}
