package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	MongoURI          string
	MongoDatabase     string
	PandascoreAPIKey  string
	PandascoreBaseURL string
	ServerPort        string
	LogLevel          string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		MongoURI:          getEnv("MONGODB_URI", ""),
		MongoDatabase:     getEnv("MONGODB_DATABASE", "vlrbuddy"),
		PandascoreAPIKey:  getEnv("PANDASCORE_API_KEY", ""),
		PandascoreBaseURL: getEnv("PANDASCORE_BASE_URL", "https://api.pandascore.co"),
		ServerPort:        getEnv("PORT", "3000"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.PandascoreAPIKey == "" {
		return nil, fmt.Errorf("PANDASCORE_API_KEY is required")
	}

	logger.Info().
		Str("mongo_database", cfg.MongoDatabase).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
