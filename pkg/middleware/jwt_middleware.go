package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"seungpyo.lee/BlogPlatform/pkg/jwt"
	"seungpyo.lee/BlogPlatform/pkg/util"
)

// AuthMiddleware returns a Gin middleware that rejects requests without a
// valid bearer token and injects the caller identity into the context.
func AuthMiddleware(tokenManager jwt.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "not authorized to access this route")
			return
		}
		authenticate(c, tokenManager, tokenString)
	}
}

// OptionalAuthMiddleware resolves the caller when a token is present and lets
// anonymous requests through. A token that is present but invalid is still
// rejected.
func OptionalAuthMiddleware(tokenManager jwt.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		tokenString, ok := bearerToken(c)
		if !ok {
			abortUnauthorized(c, "invalid Authorization header")
			return
		}
		authenticate(c, tokenManager, tokenString)
	}
}

func authenticate(c *gin.Context, tokenManager jwt.TokenManager, tokenString string) {
	claims, err := tokenManager.ValidateAccessToken(c.Request.Context(), tokenString)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			abortUnauthorized(c, "access token expired")
		case errors.Is(err, jwt.ErrTokenRevoked):
			abortUnauthorized(c, "access token revoked")
		default:
			abortUnauthorized(c, "invalid access token")
		}
		return
	}
	util.SetIdentity(c, claims.UserID, claims.Role)
	c.Next()
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": msg})
}
