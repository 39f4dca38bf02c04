package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string
	Env         string
	AuthKey     string
	Host        string

	// PresenceWindow is the staleness threshold after which an unconfirmed
	// presence is assumed offline.
	PresenceWindow time.Duration

	// PageSize caps a single pull-sync page.
	PageSize int

	// DBMaxConns and DBMinConns bound the pgx pool. Every websocket frame
	// can touch the store, so the ceiling matters more here than for a
	// request-per-query API.
	DBMaxConns int
	DBMinConns int
}

func Load() *Config {
	log.Println("[CONFIG] Attempting to load .env file...")

	err := godotenv.Load()
	if err != nil {
		log.Println("[CONFIG] No .env file found, relying on system environment variables")
	} else {
		log.Println("[CONFIG] Successfully loaded .env file")
	}

	cfg := &Config{
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("APP_ENV", "development"),
		AuthKey:        getEnv("AUTH_KEY", ""),
		Host:           getEnv("HOST", "localhost"),
		PresenceWindow: getEnvDuration("PRESENCE_WINDOW", 30*time.Second),
		PageSize:       getEnvInt("SYNC_PAGE_SIZE", 50),
		DBMaxConns:     getEnvInt("DB_MAX_CONNS", 10),
		DBMinConns:     getEnvInt("DB_MIN_CONNS", 2),
	}

	log.Printf("[CONFIG] Environment: %s", cfg.Env)
	log.Printf("[CONFIG] Target Port: %s", cfg.Port)
	log.Printf("[CONFIG] Presence staleness window: %s", cfg.PresenceWindow)

	if cfg.DatabaseURL == "" {
		log.Fatal("[CONFIG] CRITICAL: DATABASE_URL is missing. Server cannot start.")
	} else {
		maskedDB := maskDBSource(cfg.DatabaseURL)
		log.Printf("[CONFIG] Database URL detected: %s", maskedDB)
	}

	if cfg.AuthKey == "" {
		log.Fatal("[CONFIG] CRITICAL: AUTH_KEY (JWT Secret) is missing. Security cannot be initialized.")
	}

	log.Println("[CONFIG] All configuration variables successfully initialized")
	return cfg
}

func getEnv(key, defaultValue string) string {
	value, exists := os.LookupEnv(key)
	if !exists {
		log.Printf("[CONFIG] Variable %s not found, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("[CONFIG] Invalid duration for %s (%q), using default: %s", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		log.Printf("[CONFIG] Invalid value for %s (%q), using default: %d", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

func maskDBSource(dsn string) string {
	parts := strings.Split(dsn, "@")
	if len(parts) < 2 {
		return "invalid-dsn-format"
	}
	return "postgres://****:****@" + parts[1]
}
