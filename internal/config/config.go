package config

import (
	"os"

	"github.com/google/uuid"
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port          string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	SessionSecret string
	AdminUsername string
	AdminPassword string
}

// Load reads configuration once at startup. If SESSION_SECRET is unset a
// fresh random secret is generated here and kept for the life of the
// process; it is never regenerated per request, so restarting the process
// invalidates outstanding session cookies.
func Load() *Config {
	return &Config{
		Port:          getenv("PORT", "8080"),
		PostgresDSN:   getenv("POSTGRES_DSN", ""),
		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		SessionSecret: getenv("SESSION_SECRET", uuid.NewString()),
		AdminUsername: getenv("ADMIN_USERNAME", ""),
		AdminPassword: getenv("ADMIN_PASSWORD", ""),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
