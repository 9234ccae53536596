package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all process configuration. Values come from the environment,
// optionally seeded from a .env file.
type Config struct {
	Port         string
	LogLevel     string
	DatabasePath string

	// GeminiAPIKey enables the generative paths. Empty key means every
	// generative call falls back deterministically.
	GeminiAPIKey string
	GeminiModel  string

	// Banking sandbox.
	NessieAPIKey  string
	NessieBaseURL string

	// News headlines (optional enrichment).
	MediastackAPIKey string

	// WantsWarnRatio is the "wants exceed goal" threshold used by the
	// fallback recommendation. Historical values were 0.5 and 0.6.
	WantsWarnRatio float64

	// ReportInterval is how often the background report job fires.
	ReportInterval time.Duration
}

// Load reads configuration from the environment. A missing .env file is not
// an error; OS environment variables and defaults still apply.
func Load(log zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, relying on OS environment")
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		DatabasePath:     getEnv("DATABASE_PATH", "./coach.db"),
		GeminiAPIKey:     getEnv("GEMINI_API_KEY", ""),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		NessieAPIKey:     getEnv("NESSIE_API_KEY", ""),
		NessieBaseURL:    getEnv("NESSIE_BASE_URL", "http://api.nessieisreal.com"),
		MediastackAPIKey: getEnv("MEDIASTACK_API_KEY", ""),
	}

	ratio, err := getEnvAsFloat("WANTS_WARN_RATIO", 0.5)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if ratio <= 0 || ratio > 1 {
		return nil, fmt.Errorf("config.Load: WANTS_WARN_RATIO must be in (0, 1], got %g", ratio)
	}
	cfg.WantsWarnRatio = ratio

	interval, err := getEnvAsDuration("REPORT_INTERVAL", 168*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	cfg.ReportInterval = interval

	if cfg.GeminiAPIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set - generative features will use fallbacks")
	}
	if cfg.NessieAPIKey == "" {
		log.Warn().Msg("NESSIE_API_KEY not set - onboarding will use synthesized data")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q: %w", key, v, err)
	}
	return f, nil
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s=%q: %w", key, v, err)
	}
	return d, nil
}
