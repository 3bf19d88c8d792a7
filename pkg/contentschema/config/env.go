package config

import (
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// envConfig is the environment surface of the server, read with cleanenv.
//
//	PORT         - server port (default: "8080")
//	ENVIRONMENT  - runtime environment (default: "development")
//	DATABASE_URL - connection string; a postgres:// or postgresql:// prefix
//	               selects the postgres repository, empty or "memory" selects
//	               the in-memory one
//	JWT_SECRET   - HMAC key for the tenant-claim middleware; empty disables
//	               token verification
type envConfig struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`
	DatabaseURL string `env:"DATABASE_URL" env-default:""`
	JWTSecret   string `env:"JWT_SECRET" env-default:""`
}

// WithEnv applies environment variable overrides.
func WithEnv() Option {
	return func(c *ServerConfig) error {
		var env envConfig
		if err := cleanenv.ReadEnv(&env); err != nil {
			return err
		}

		c.Port = env.Port
		c.Environment = env.Environment
		c.JWTSecret = env.JWTSecret

		switch {
		case env.DatabaseURL == "" || env.DatabaseURL == "memory":
			c.DatabaseType = "memory"
			c.DatabaseURL = ""
		case strings.HasPrefix(env.DatabaseURL, "postgres://"),
			strings.HasPrefix(env.DatabaseURL, "postgresql://"):
			c.DatabaseType = "postgres"
			c.DatabaseURL = env.DatabaseURL
		default:
			c.DatabaseType = "memory"
			c.DatabaseURL = ""
		}

		return nil
	}
}
