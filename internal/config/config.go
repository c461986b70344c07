package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is populated from the environment; a .env file is loaded first when
// present.
type Config struct {
	Host       string `envconfig:"HTTP_HOST" default:"0.0.0.0"`
	Port       int    `envconfig:"HTTP_PORT" default:"8000"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"chat.db"`

	JWTSecret          string `envconfig:"JWT_SECRET" required:"true"`
	EncryptKey         string `envconfig:"ENCRYPTION_KEY" required:"true"`
	AccessTokenMinutes int    `envconfig:"ACCESS_TOKEN_EXPIRE_MINUTES" default:"1440"`

	CORSOrigins  []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	HistoryLimit int      `envconfig:"HISTORY_LIMIT" default:"50"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	return &cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
