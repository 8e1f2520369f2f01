package api

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config carries the server settings. Values come from the environment
// (optionally seeded from a .env file); command-line flags may override
// individual fields afterwards.
type Config struct {
	Addr        string        `env:"KEYWARDEN_ADDR" envDefault:":8465"`
	Backend     string        `env:"KEYWARDEN_BACKEND" envDefault:"bbolt"`
	DataDir     string        `env:"KEYWARDEN_DATA_DIR" envDefault:"./data"`
	PostgresDSN string        `env:"KEYWARDEN_POSTGRES_DSN"`
	JWTSecret   string        `env:"KEYWARDEN_JWT_SECRET"`
	TokenTTL    time.Duration `env:"KEYWARDEN_TOKEN_TTL" envDefault:"24h"`
}

var defaultEnvLoaded sync.Once

// LoadConfig populates a Config from the environment. A missing .env
// file is not an error.
func LoadConfig() (Config, error) {
	defaultEnvLoaded.Do(func() {
		_ = godotenv.Load()
	})
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
