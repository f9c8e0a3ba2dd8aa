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
	Environment string
	ServerPort  string
	LogLevel    string // empty keeps the environment default

	// Storage
	DatabaseDriver    string
	DatabasePath      string
	DatabaseURL       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	RedisURL  string
	JWTSecret string
	JWTExpiry time.Duration

	// File intake
	UploadRoot           string
	MaxUploadSize        int64
	ProfilePhotoSize     int
	ProfilePhotoTypes    []string
	ResourceAllowedTypes []string

	AuditLogPath string

	// Bootstrap admin, created only when the users table is empty
	AdminUsername string
	AdminEmail    string
	AdminPassword string

	// Rate limiting
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration

	CORSAllowedOrigins []string
}

func Load() *Config {
	// Try to load .env file, but don't fail if it doesn't exist
	// (Docker containers use environment variables directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	driver := getEnv("DB_DRIVER", "sqlite")
	// SQLite serialises writers; one open connection avoids "database is locked"
	defaultOpen := 1
	if driver == "postgres" {
		defaultOpen = 10
	}

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  getEnv("SERVER_PORT", ":8080"),
		LogLevel:    os.Getenv("LOG_LEVEL"),

		DatabaseDriver:    driver,
		DatabasePath:      getEnv("DB_PATH", "community.db"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		DBMaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", defaultOpen),
		DBMaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", defaultOpen),
		DBConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", "1h"),

		RedisURL:  os.Getenv("REDIS_URL"),
		JWTSecret: getEnv("JWT_SECRET", "change-me-in-production"),
		JWTExpiry: getEnvAsDuration("JWT_EXPIRY", "24h"),

		UploadRoot:        getEnv("UPLOAD_ROOT", "uploads"),
		MaxUploadSize:     int64(getEnvAsInt("MAX_UPLOAD_SIZE", 10<<20)),
		ProfilePhotoSize:  getEnvAsInt("PROFILE_PHOTO_SIZE", 300),
		ProfilePhotoTypes: getEnvAsList("PROFILE_PHOTO_TYPES", "jpeg,png"),
		ResourceAllowedTypes: getEnvAsList("RESOURCE_ALLOWED_TYPES",
			"pdf,plain,png,jpeg,gif,zip,msword,vnd.openxmlformats-officedocument.wordprocessingml.document"),

		AuditLogPath: getEnv("AUDIT_LOG_PATH", "data/audit.log"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@communityhub.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "ChangeMe123!"),

		RateLimitMaxRequests: getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 20),
		RateLimitWindow:      getEnvAsDuration("RATE_LIMIT_WINDOW", "1m"),

		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvAsInt retrieves environment variable as int with default value
func getEnvAsInt(key string, defaultVal int) int {
	valStr := os.Getenv(key)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %d", key, defaultVal)
		return defaultVal
	}
	return val
}

// getEnvAsDuration retrieves environment variable as duration with default value
func getEnvAsDuration(key string, defaultVal string) time.Duration {
	valStr := os.Getenv(key)
	if valStr == "" {
		valStr = defaultVal
	}
	duration, err := time.ParseDuration(valStr)
	if err != nil {
		log.Printf("Invalid %s value, using default: %s", key, defaultVal)
		duration, _ = time.ParseDuration(defaultVal)
	}
	return duration
}

// getEnvAsList splits a comma separated variable, dropping blanks
func getEnvAsList(key string, defaultVal string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultVal), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
