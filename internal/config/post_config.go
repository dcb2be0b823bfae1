package config

import (
	"log"

	"github.com/joho/godotenv"
	"seungpyo.lee/BlogPlatform/pkg/config"
)

type PostConfig struct {
	config.GlobalConfig
	PostgreConnectionString string
	JWTSecretKey            string
	RedisDBURL              string // empty disables token revocation checks
	RedisDBPort             string
	RedisDBPassword         string
	RedisMaxRetries         int
	RedisPoolSize           int
	DefaultPageLimit        int
	MaxPageLimit            int
	MaxEmbeddedComments     int
	GinMode                 string
}

func LoadPostConfig() *PostConfig {
	// Load .env file for local development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}
	return &PostConfig{
		GlobalConfig:            *config.LoadGlobalConfig(),
		PostgreConnectionString: config.GetEnv("POSTGRE_CONNECTION_STRING"),
		JWTSecretKey:            config.GetEnv("JWT_SECRET_KEY"),
		RedisDBURL:              config.GetEnvOrDefault("REDIS_DB_URL", ""),
		RedisDBPort:             config.GetEnvOrDefault("REDIS_DB_PORT", "6379"),
		RedisDBPassword:         config.GetEnvOrDefault("REDIS_DB_PASSWORD", ""),
		RedisMaxRetries:         3,
		RedisPoolSize:           10,
		DefaultPageLimit:        config.GetEnvIntOrDefault("DEFAULT_PAGE_LIMIT", 10),
		MaxPageLimit:            config.GetEnvIntOrDefault("MAX_PAGE_LIMIT", 100),
		MaxEmbeddedComments:     config.GetEnvIntOrDefault("MAX_EMBEDDED_COMMENTS", 500),
		GinMode:                 config.GetEnvOrDefault("GIN_MODE", "release"),
	}
}

// RedisAddr returns host:port for the revocation store, or "" when Redis is
// not configured.
func (c *PostConfig) RedisAddr() string {
	if c.RedisDBURL == "" {
		return ""
	}
	return c.RedisDBURL + ":" + c.RedisDBPort
}
