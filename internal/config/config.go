package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	// Web Server
	WebBind        string
	AllowedOrigins []string

	// Game tokens handed to the browser
	TokenSecret string
	TokenTTL    time.Duration

	// Discord Bot
	DiscordToken string

	// Games without activity for this long are closed; 0 keeps them forever.
	IdleTimeout time.Duration

	// Optional data overrides (YAML)
	PlacesFile string
	TierFile   string

	Log LogConfig
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	// Load environment variables from .env if present (non-fatal if missing)
	_ = godotenv.Load()

	ttl, err := time.ParseDuration(getEnvDefault("TOKEN_TTL", "12h"))
	if err != nil {
		return nil, eris.Wrap(err, "config: TOKEN_TTL")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive, got %s", ttl)
	}

	idle, err := time.ParseDuration(getEnvDefault("IDLE_TIMEOUT", "30m"))
	if err != nil {
		return nil, eris.Wrap(err, "config: IDLE_TIMEOUT")
	}
	if idle < 0 {
		return nil, fmt.Errorf("IDLE_TIMEOUT must not be negative, got %s", idle)
	}

	cfg := &Config{
		WebBind:        getEnvDefault("WEB_BIND", "127.0.0.1:3000"),
		AllowedOrigins: splitList(getEnvDefault("CORS_ORIGINS", "*")),
		TokenSecret:    getEnvDefault("TOKEN_SECRET", "dev-only-change-me"),
		TokenTTL:       ttl,
		DiscordToken:   os.Getenv("DISCORD_TOKEN"),
		IdleTimeout:    idle,
		PlacesFile:     os.Getenv("PLACES_FILE"),
		TierFile:       os.Getenv("TIER_FILE"),
		Log: LogConfig{
			Level:  getEnvDefault("LOG_LEVEL", "info"),
			Format: getEnvDefault("LOG_FORMAT", "json"),
		},
	}

	if cfg.TokenSecret == "" {
		return nil, fmt.Errorf("TOKEN_SECRET must not be empty")
	}

	return cfg, nil
}

// RequireDiscord checks the settings only the Discord front end needs.
func (c *Config) RequireDiscord() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("DISCORD_TOKEN is required")
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

func getEnvDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
