package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment.
type Config struct {
	Port      string
	DBURL     string
	RedisAddr string
	JWTSecret string
	LogLevel  string
	LogDev    bool
	AppURL    string
}

// Load reads .env if present, then assembles config from the environment.
// JWT_SECRET and the database settings are required.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getenv("PORT", "8080"),
		DBURL:     os.Getenv("DATABASE_URL"),
		RedisAddr: getenv("REDIS_ADDR", "127.0.0.1:6379"),
		JWTSecret: os.Getenv("JWT_SECRET"),
		LogLevel:  getenv("LOG_LEVEL", "info"),
		LogDev:    os.Getenv("LOG_DEV") == "1",
		AppURL:    getenv("APP_URL", "http://localhost:3000"),
	}

	if cfg.DBURL == "" {
		cfg.DBURL = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s",
			os.Getenv("DB_USER"),
			os.Getenv("DB_PASSWORD"),
			getenv("DB_HOST", "localhost"),
			getenv("DB_PORT", "5432"),
			os.Getenv("DB_NAME"),
		)
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET is required")
	}
	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
