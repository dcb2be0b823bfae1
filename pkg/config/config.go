package config

import (
	"os"
	"strconv"
)

// GlobalConfig holds settings shared by every service binary.
type GlobalConfig struct {
	AccessTokenTTL int // in minutes
	ServerPort     string
	LogLevel       string
}

func LoadGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		AccessTokenTTL: GetEnvIntOrDefault("ACCESS_TOKEN_TTL", 30),
		ServerPort:     GetEnv("SERVER_PORT"),
		LogLevel:       GetEnvOrDefault("LOG_LEVEL", "info"),
	}
}

// GetEnv retrieves the value of the environment variable named by the key.
func GetEnv(key string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	} else {
		panic("critical config missing: " + key)
	}
}

// GetEnvOrDefault retrieves the value or returns default if not set.
func GetEnvOrDefault(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return defaultValue
}

// GetEnvIntOrDefault parses an integer variable, falling back on absence or
// parse failure.
func GetEnvIntOrDefault(key string, defaultValue int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
