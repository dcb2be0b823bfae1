package jwt

import (
	"context"
	"errors"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

var (
	// ErrTokenExpired is returned when a token has expired.
	ErrTokenExpired = errors.New("token is expired")
	ErrTokenInvalid = errors.New("invalid token")
	ErrTokenRevoked = errors.New("token is revoked")
)

// Claims defines the custom JWT claims structure.
type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwtlib.RegisteredClaims
}

// TokenManager validates access tokens against the revocation list the auth
// service writes on logout.
type TokenManager interface {
	GenerateAccessToken(userID uint, username, role string, ttl time.Duration) (string, error)
	ValidateAccessToken(ctx context.Context, tokenString string) (*Claims, error)
	IsTokenRevoked(ctx context.Context, tokenString string) (bool, error)
}

// revocationList is the part of the Redis client the blacklist lookup needs.
type revocationList interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
}

// NewTokenManager creates a new TokenManager with the given secret key and Redis client.
func NewTokenManager(secretKey string, redisClient *redis.Client) TokenManager {
	tm := &tokenManager{secretKey: secretKey}
	if redisClient != nil {
		tm.redis = redisClient
	}
	return tm
}

// NewTokenManagerWithoutRedis creates a TokenManager with no revocation list.
func NewTokenManagerWithoutRedis(secretKey string) TokenManager {
	return &tokenManager{secretKey: secretKey}
}

type tokenManager struct {
	secretKey string
	redis     revocationList
}

// GenerateAccessToken signs an HS256 access token. The blog service only
// uses it for development tokens; end-user issuance lives in the auth service.
func (j *tokenManager) GenerateAccessToken(userID uint, username, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwtlib.RegisteredClaims{
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwtlib.NewNumericDate(now),
		},
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.secretKey))
}

// ValidateAccessToken parses the token, checks its signature and expiry and,
// when Redis is configured, the revocation list.
func (j *tokenManager) ValidateAccessToken(ctx context.Context, tokenString string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenString, &Claims{}, func(token *jwtlib.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(j.secretKey), nil
	})
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}
	revoked, err := j.IsTokenRevoked(ctx, tokenString)
	if err != nil {
		return nil, fmt.Errorf("failed to check revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	return claims, nil
}

// IsTokenRevoked checks if the token is blacklisted in Redis.
func (j *tokenManager) IsTokenRevoked(ctx context.Context, tokenString string) (bool, error) {
	if j.redis == nil {
		return false, nil
	}
	res, err := j.redis.Exists(ctx, j.redisKey(tokenString)).Result()
	if err != nil {
		return false, err
	}
	return res == 1, nil
}

// redisKey generates a Redis key for a JWT token.
func (j *tokenManager) redisKey(tokenString string) string {
	return "jwt:blacklist:" + tokenString
}
