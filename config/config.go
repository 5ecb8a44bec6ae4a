package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds everything the bot needs from the environment.
type Config struct {
	Port               string        `env:"PORT" env-default:"8080"`
	DatabaseURL        string        `env:"DATABASE_URL" env-required:"true"`
	RedisURL           string        `env:"REDIS_URL"`
	SlackSigningSecret string        `env:"SLACK_SIGNING_SECRET" env-required:"true"`
	SlackBearerToken   string        `env:"SLACK_BEARER_TOKEN" env-required:"true"`
	ReconcileSchedule  string        `env:"RECONCILE_SCHEDULE" env-default:"@every 15m"`
	ReconcileLockTTL   time.Duration `env:"RECONCILE_LOCK_TTL" env-default:"5m"`
}

// Load reads a .env file if present and then the process environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("reading environment: %w", err)
	}
	return cfg, nil
}
