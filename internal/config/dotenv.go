package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from a .env file if present.
// Existing environment variables are not overwritten.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return godotenv.Load(path)
}

type Config struct {
	Port                     string `env:"PORT"`
	DatabaseURL              string `env:"DATABASE_URL"`
	AutoMigrate              bool   `env:"AUTO_MIGRATE"`
	LogSQL                   bool   `env:"LOG_SQL"`
	SongCatalogPath          string `env:"SONG_CATALOG_PATH"`
	DefaultRounds            int    `env:"DEFAULT_ROUNDS"`
	MaxRounds                int    `env:"MAX_ROUNDS"`
	MaxPlayers               int    `env:"MAX_PLAYERS"`
	RoundDurationSeconds     int    `env:"ROUND_SECONDS"`
	CatalogTimeoutSeconds    int    `env:"CATALOG_TIMEOUT_SECONDS"`
	DBMaxOpenConns           int    `env:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns           int    `env:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetimeSeconds int    `env:"DB_CONN_MAX_LIFETIME_SECONDS"`
	DBConnMaxIdleTimeSeconds int    `env:"DB_CONN_MAX_IDLE_SECONDS"`
}

func Default() Config {
	return Config{
		Port:                     "8080",
		AutoMigrate:              false,
		DefaultRounds:            3,
		MaxRounds:                20,
		MaxPlayers:               8,
		RoundDurationSeconds:     0,
		CatalogTimeoutSeconds:    5,
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
	}
}

// Load applies environment overrides on top of Default. Non-positive
// numeric overrides keep the default value.
func Load() (Config, error) {
	defaults := Default()
	cfg := defaults
	if err := env.Parse(&cfg); err != nil {
		return defaults, fmt.Errorf("parse env: %w", err)
	}
	keepPositive(&cfg.DefaultRounds, defaults.DefaultRounds)
	keepPositive(&cfg.MaxRounds, defaults.MaxRounds)
	keepPositive(&cfg.MaxPlayers, defaults.MaxPlayers)
	keepPositive(&cfg.CatalogTimeoutSeconds, defaults.CatalogTimeoutSeconds)
	keepPositive(&cfg.DBMaxOpenConns, defaults.DBMaxOpenConns)
	keepPositive(&cfg.DBMaxIdleConns, defaults.DBMaxIdleConns)
	keepPositive(&cfg.DBConnMaxLifetimeSeconds, defaults.DBConnMaxLifetimeSeconds)
	keepPositive(&cfg.DBConnMaxIdleTimeSeconds, defaults.DBConnMaxIdleTimeSeconds)
	if cfg.RoundDurationSeconds < 0 {
		cfg.RoundDurationSeconds = 0
	}
	if cfg.DefaultRounds > cfg.MaxRounds {
		cfg.DefaultRounds = cfg.MaxRounds
	}
	if cfg.Port == "" {
		cfg.Port = defaults.Port
	}
	return cfg, nil
}

func (c Config) Addr() string {
	return ":" + c.Port
}

func (c Config) RoundDuration() time.Duration {
	return time.Duration(c.RoundDurationSeconds) * time.Second
}

func (c Config) CatalogTimeout() time.Duration {
	return time.Duration(c.CatalogTimeoutSeconds) * time.Second
}

func keepPositive(value *int, fallback int) {
	if *value <= 0 {
		*value = fallback
	}
}
