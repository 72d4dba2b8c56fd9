package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/KudzoNelsam/easycollis/internal/models"
)

type Config struct {
	Port      string
	DBUrl     string
	JWTSecret string
	AppEnv    string

	PassMode models.PassMode

	PaytechBaseURL    string
	PaytechAPIKey     string
	PaytechAPISecret  string
	PaytechEnv        string
	PaytechIPNURL     string
	PaytechSuccessURL string
	PaytechCancelURL  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	MailAPIURL string
	MailAPIKey string
	MailFrom   string
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	passMode, ok := models.ParsePassMode(getEnv("PASS_MODE", string(models.PassModeWindow)))
	if !ok {
		return nil, fmt.Errorf("PASS_MODE must be %q or %q", models.PassModeWindow, models.PassModeBalance)
	}

	return &Config{
		Port:      getEnv("PORT", "8080"),
		DBUrl:     getEnv("DB_URL", ""),
		JWTSecret: jwtSecret,
		AppEnv:    normalizeEnv(getEnv("APP_ENV", "production")),

		PassMode: passMode,

		PaytechBaseURL:    getEnv("PAYTECH_BASE_URL", "https://paytech.sn/api"),
		PaytechAPIKey:     getEnv("PAYTECH_API_KEY", ""),
		PaytechAPISecret:  getEnv("PAYTECH_API_SECRET", ""),
		PaytechEnv:        getEnv("PAYTECH_ENV", "test"),
		PaytechIPNURL:     getEnv("PAYTECH_IPN_URL", ""),
		PaytechSuccessURL: getEnv("PAYTECH_SUCCESS_URL", ""),
		PaytechCancelURL:  getEnv("PAYTECH_CANCEL_URL", ""),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		MailAPIURL: getEnv("MAIL_API_URL", ""),
		MailAPIKey: getEnv("MAIL_API_KEY", ""),
		MailFrom:   getEnv("MAIL_FROM", "no-reply@easycollis.com"),
	}, nil
}

// PaytechConfigured reports whether the gateway credentials are present.
// Without them checkout is disabled but the rest of the API still works.
func (c *Config) PaytechConfigured() bool {
	return c.PaytechAPIKey != "" && c.PaytechAPISecret != ""
}

func (c *Config) MailConfigured() bool {
	return c.MailAPIURL != "" && c.MailAPIKey != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
