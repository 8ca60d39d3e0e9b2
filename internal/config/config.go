package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DBPath   string
	MediaDir string

	HTTPAddr    string
	VerifyToken string

	GraphAPIBaseURL       string
	WhatsAppAPIToken      string
	WhatsAppPhoneNumberID string
	SendRateLimitRPS      int
	HTTPTimeoutMs         int

	ClientMatchCutoff  float64
	ProductMatchCutoff float64
	TierMatchCutoff    float64

	WorkerCount int
	QueueSize   int
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:   getEnv("DB_PATH", filepath.Join(cwd, "data", "app.db")),
		MediaDir: getEnv("MEDIA_DIR", filepath.Join(cwd, "data", "media")),

		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		VerifyToken: getEnv("WEBHOOK_VERIFY_TOKEN", ""),

		GraphAPIBaseURL:       getEnv("GRAPH_API_BASE_URL", "https://graph.facebook.com/v21.0"),
		WhatsAppAPIToken:      getEnv("WHATSAPP_API_TOKEN", ""),
		WhatsAppPhoneNumberID: getEnv("WHATSAPP_PHONE_NUMBER_ID", ""),
		SendRateLimitRPS:      getEnvInt("SEND_RATE_LIMIT_RPS", 5),
		HTTPTimeoutMs:         getEnvInt("HTTP_TIMEOUT_MS", 30000),

		ClientMatchCutoff:  getEnvFloat("CLIENT_MATCH_CUTOFF", 70),
		ProductMatchCutoff: getEnvFloat("PRODUCT_MATCH_CUTOFF", 90),
		TierMatchCutoff:    getEnvFloat("TIER_MATCH_CUTOFF", 80),

		WorkerCount: getEnvInt("WORKER_COUNT", 4),
		QueueSize:   getEnvInt("QUEUE_SIZE", 64),
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
