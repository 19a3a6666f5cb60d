package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Managed auth provider (HS256 session tokens)
	AuthJWTSecret string

	// Razorpay
	RazorpayKeyID         string
	RazorpayKeySecret     string
	RazorpayWebhookSecret string
	RazorpayAPIBase       string
	// region:tier:cycle -> gateway plan id
	RazorpayPlanIDs map[string]string

	// Exchange rates
	ExchangeRateURL      string
	ExchangeRateTTL      time.Duration
	ExchangeFallbackRate float64
	RedisURL             string

	// AI provider
	OpenAIAPIKey string
	OpenAIAPIURL string
	OpenAIModel  string
	AITimeout    time.Duration

	// Server
	Port             string
	CORSOrigins      string
	AppBaseURL       string
	LogRetentionDays int
}

func Load() *Config {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	return &Config{
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "resume_billing"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		AuthJWTSecret: getEnv("AUTH_JWT_SECRET", ""),

		RazorpayKeyID:         getEnv("RAZORPAY_KEY_ID", ""),
		RazorpayKeySecret:     getEnv("RAZORPAY_KEY_SECRET", ""),
		RazorpayWebhookSecret: getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
		RazorpayAPIBase:       getEnv("RAZORPAY_API_BASE", "https://api.razorpay.com/v1"),
		RazorpayPlanIDs:       ParsePlanIDs(getEnv("RAZORPAY_PLAN_IDS", "")),

		ExchangeRateURL:      getEnv("EXCHANGE_RATE_URL", "https://open.er-api.com/v6/latest/USD"),
		ExchangeRateTTL:      parseDuration(getEnv("EXCHANGE_RATE_TTL", "1h"), time.Hour),
		ExchangeFallbackRate: parseFloat(getEnv("EXCHANGE_FALLBACK_RATE", "89"), 89),
		RedisURL:             getEnv("REDIS_URL", ""),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIAPIURL: getEnv("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AITimeout:    parseDuration(getEnv("AI_TIMEOUT", "60s"), 60*time.Second),

		Port:             getEnv("PORT", "8080"),
		CORSOrigins:      getEnv("CORS_ORIGINS", "*"),
		AppBaseURL:       getEnv("APP_BASE_URL", "http://localhost:3000"),
		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
	}
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// GatewayPlanID returns the Razorpay plan configured for a catalog entry.
func (c *Config) GatewayPlanID(region, tier, cycle string) (string, bool) {
	id, ok := c.RazorpayPlanIDs[PlanKey(region, tier, cycle)]
	return id, ok && id != ""
}

func PlanKey(region, tier, cycle string) string {
	return strings.ToLower(region + ":" + tier + ":" + cycle)
}

// ParsePlanIDs reads "india:premium:monthly=plan_abc,row:premium:annual=plan_def".
func ParsePlanIDs(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseFloat(s string, fallback float64) float64 {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return fallback
	}
	return f
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
