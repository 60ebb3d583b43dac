package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	RedisAddr string

	DelayMinMs           int
	DelayMaxMs           int
	MaxResultsPerSource  int
	MaxConcurrentSources int
	SearchTimeoutSec     int
	DefaultRadiusKm      float64
	MaxRetries           int
	CacheTTLSec          int

	APIBindAddr   string
	CSVOutputPath string
	ChromeBin     string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "carscan"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "carscan"),
		PostgresDB:       getEnv("POSTGRES_DB", "carscan"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		RedisAddr: getEnv("REDIS_ADDR", ""),

		DelayMinMs:           getEnvInt("SCRAPE_DELAY_MIN_MS", 2000),
		DelayMaxMs:           getEnvInt("SCRAPE_DELAY_MAX_MS", 5000),
		MaxResultsPerSource:  getEnvInt("MAX_RESULTS_PER_SOURCE", 20),
		MaxConcurrentSources: getEnvInt("MAX_CONCURRENT_SCRAPERS", 2),
		SearchTimeoutSec:     getEnvInt("SEARCH_TIMEOUT_SEC", 120),
		DefaultRadiusKm:      getEnvFloat("DEFAULT_RADIUS_KM", 50),
		MaxRetries:           getEnvInt("MAX_RETRIES", 3),
		CacheTTLSec:          getEnvInt("CACHE_TTL_SEC", 300),

		APIBindAddr:   getEnv("API_BIND_ADDR", "0.0.0.0:8000"),
		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/raw_listings.csv"),
		ChromeBin:     getEnv("CHROME_BIN", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}
