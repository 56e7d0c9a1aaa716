package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"unidoc-hub/internal/model"
	"unidoc-hub/internal/transport/http/middleware"
)

func getUserIDFromContext(c *gin.Context) (uint, bool) {
	userIDAny, exists := c.Get(middleware.ContextUserIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := userIDAny.(uint)
	return userID, ok && userID != 0
}

func isAdmin(c *gin.Context) bool {
	return c.GetString(middleware.ContextRoleKey) == model.UserRoleAdmin
}

func parseUintParam(c *gin.Context, key string) (uint, error) {
	s := c.Param(key)
	u, err := strconv.ParseUint(s, 10, 64)
	return uint(u), err
}

func parseDocumentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	return id, err == nil && id != uuid.Nil
}

// parseUintForm returns nil for a missing or malformed value.
func parseUintForm(c *gin.Context, key string) *uint {
	s := c.PostForm(key)
	if s == "" {
		return nil
	}
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil || u == 0 {
		return nil
	}
	v := uint(u)
	return &v
}

func queryUint(c *gin.Context, key string) uint {
	u, _ := strconv.ParseUint(c.Query(key), 10, 64)
	return uint(u)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	s := c.Query(key)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
