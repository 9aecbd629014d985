package config

import (
	"crypto/rand"
	"encoding/base64"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// MinJWTSecretLength is the minimum required length for the JWT signing secret in production
	MinJWTSecretLength = 32
)

type Config struct {
	ServerPort  string
	Environment string

	// Scrape endpoint of the worker process; the API serves /metrics on
	// its own port.
	MetricsPort string

	// Database. When DatabaseURL is empty the server falls back to a local
	// sqlite file (development only).
	DatabaseURL string
	DBPath      string

	// Redis broker for the task queue
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Auth
	JWTSecret          string
	TokenExpiryMinutes int

	// Gemini
	GeminiAPIKey         string
	GeminiModel          string
	GeminiEmbeddingModel string
	GeminiBaseURL        string

	// Email (Resend)
	ResendAPIKey  string
	EmailFrom     string
	EmailFromName string
	EmailTestMode bool // When true, emails are logged instead of sent

	// S3-compatible document storage (R2/S3)
	StorageAccountID       string
	StorageAccessKeyID     string
	StorageSecretAccessKey string
	StorageBucket          string
	StorageRegion          string
	UploadDir              string

	// Uploads
	MaxUploadSizeMB int

	AllowedOrigins []string
	AppURL         string
}

func Load() *Config {
	// Load .env file (ignore error if not present - use system env vars)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	environment := getEnv("ENVIRONMENT", "development")
	jwtSecret := getEnv("JWT_SECRET", "")

	// Validate signing secret - this will fatal in production if invalid
	ValidateJWTSecret(jwtSecret, environment)

	// In development, generate a secure secret if none provided
	if jwtSecret == "" && environment != "production" {
		jwtSecret = GenerateSecureSecret()
		log.Println("[INFO] Generated temporary JWT secret for development. Set JWT_SECRET env var for persistence.")
	}

	return &Config{
		ServerPort:             getEnv("SERVER_PORT", "8080"),
		MetricsPort:            getEnv("METRICS_PORT", "9090"),
		Environment:            environment,
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		DBPath:                 getEnv("DB_PATH", "db/app.db"),
		RedisAddr:              getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:                getEnvInt("REDIS_DB", 0),
		JWTSecret:              jwtSecret,
		TokenExpiryMinutes:     getEnvInt("TOKEN_EXPIRY_MINUTES", 60*24),
		GeminiAPIKey:           getEnv("GEMINI_API_KEY", ""),
		GeminiModel:            getEnv("GEMINI_MODEL", "gemini-1.5-pro"),
		GeminiEmbeddingModel:   getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		GeminiBaseURL:          getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		ResendAPIKey:           getEnv("RESEND_API_KEY", ""),
		EmailFrom:              getEnv("EMAIL_FROM", "noreply@crmprev.com.br"),
		EmailFromName:          getEnv("EMAIL_FROM_NAME", "CRM Previdenciário"),
		EmailTestMode:          getEnvBool("EMAIL_TEST_MODE", true), // Default true for safety
		StorageAccountID:       getEnv("STORAGE_ACCOUNT_ID", ""),
		StorageAccessKeyID:     getEnv("STORAGE_ACCESS_KEY_ID", ""),
		StorageSecretAccessKey: getEnv("STORAGE_SECRET_ACCESS_KEY", ""),
		StorageBucket:          getEnv("STORAGE_BUCKET", ""),
		StorageRegion:          getEnv("STORAGE_REGION", "auto"),
		UploadDir:              getEnv("UPLOAD_DIR", "static/uploads"),
		MaxUploadSizeMB:        getEnvInt("MAX_UPLOAD_SIZE_MB", 50),
		AllowedOrigins:         strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		AppURL:                 getEnv("APP_URL", "http://localhost:8080"),
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Invalid integer for %s: %q, using default %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	// Accept common boolean representations
	switch strings.ToLower(value) {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// ValidateJWTSecret validates the signing secret meets security requirements.
// In production, it must be at least 32 bytes and not a known insecure default.
func ValidateJWTSecret(secret string, environment string) {
	insecureDefaults := []string{
		"dev-secret-change-in-production",
		"change-me",
		"secret",
		"development",
		"test",
		"",
	}

	for _, insecure := range insecureDefaults {
		if strings.EqualFold(secret, insecure) {
			if environment == "production" {
				log.Fatal("[CRITICAL] JWT_SECRET is set to an insecure default value. Generate a secure random secret with: openssl rand -base64 32")
			}
			return
		}
	}

	if environment == "production" && len(secret) < MinJWTSecretLength {
		log.Fatalf("[CRITICAL] JWT_SECRET must be at least %d characters in production (current: %d). Generate with: openssl rand -base64 32", MinJWTSecretLength, len(secret))
	}
}

// GenerateSecureSecret generates a cryptographically secure random secret.
// This is used only for development when no secret is provided.
func GenerateSecureSecret() string {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		log.Printf("[WARNING] Failed to generate secure secret: %v", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(bytes)
}
