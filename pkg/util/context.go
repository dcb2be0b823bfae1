package util

import (
	"github.com/gin-gonic/gin"
)

const (
	userIDKey    = "user_id"
	userRoleKey  = "user_role"
	requestIDKey = "request_id"
)

// SetIdentity stores the authenticated caller on the gin context.
func SetIdentity(c *gin.Context, userID uint, role string) {
	c.Set(userIDKey, userID)
	c.Set(userRoleKey, role)
}

// GetUserID extracts the authenticated user id set by the auth middleware.
func GetUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	uid, ok := v.(uint)
	if !ok || uid == 0 {
		return 0, false
	}
	return uid, true
}

func GetRole(c *gin.Context) string {
	return c.GetString(userRoleKey)
}

func SetRequestID(c *gin.Context, id string) {
	c.Set(requestIDKey, id)
}

func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
