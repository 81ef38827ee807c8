package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// DefaultMaxResumeBytes is the upload ceiling for resumes (5 MiB)
const DefaultMaxResumeBytes = 5 * 1024 * 1024

type Config struct {
	Port     string
	LogLevel string
	// Resend Configuration
	ResendAPIKey   string
	MailFrom       string // Verified sender on the Resend account
	ContactEmailTo string
	CareerEmailTo  string
	// Upload Configuration
	UploadDir      string
	MaxResumeBytes int64
	// CORS Configuration
	AllowedOrigins []string
	// Redis/Upstash Configuration
	UpstashRedisURL      string
	UpstashRedisPassword string
	// Rate Limiting Configuration
	RateLimitWindowSeconds   int
	RateLimitSubmitThreshold int
	// Antivirus Configuration
	ClamAVAddress        string // clamd TCP host:port or unix socket path, empty disables scanning
	ClamAVTimeoutSeconds int
}

func LoadConfig() (*Config, error) {
	// Load .env file (local development only, ignored when the file is missing)
	_ = godotenv.Load()

	cfg := &Config{
		Port:     getEnv("PORT", "3000"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		// Resend Configuration
		ResendAPIKey:   getEnv("RESEND_API_KEY", ""),
		MailFrom:       getEnv("MAIL_FROM", "onboarding@resend.dev"),
		ContactEmailTo: getEnv("CONTACT_EMAIL_TO", "contact@example.com"),
		CareerEmailTo:  getEnv("CAREER_EMAIL_TO", "hr@example.com"),
		// Upload Configuration
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxResumeBytes: int64(getEnvInt("MAX_RESUME_BYTES", DefaultMaxResumeBytes)),
		// CORS Configuration
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		// Redis/Upstash Configuration
		UpstashRedisURL:      getEnv("UPSTASH_REDIS_URL", ""),
		UpstashRedisPassword: getEnv("UPSTASH_REDIS_PASSWORD", ""),
		// Rate Limiting Configuration
		RateLimitWindowSeconds:   getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60),   // 1 minute window
		RateLimitSubmitThreshold: getEnvInt("RATE_LIMIT_SUBMIT_THRESHOLD", 20), // 20 submissions per window
		// Antivirus Configuration
		ClamAVAddress:        getEnv("CLAMAV_ADDRESS", ""),
		ClamAVTimeoutSeconds: getEnvInt("CLAMAV_TIMEOUT_SECONDS", 30),
	}

	if cfg.ResendAPIKey == "" {
		log.Println("WARNING: RESEND_API_KEY is missing. Submissions will fail at dispatch.")
	}

	if cfg.UpstashRedisURL == "" {
		log.Println("WARNING: UPSTASH_REDIS_URL not configured. Rate limiting will use in-memory fallback.")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvList splits a comma separated environment variable, dropping empty items
func getEnvList(key string, fallback []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimRight(strings.TrimSpace(item), "/"); item != "" {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
