package config

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/flexcms/content-schema/pkg/contentschema"
	"github.com/flexcms/content-schema/pkg/contentschema/repo/memory"
	repopg "github.com/flexcms/content-schema/pkg/contentschema/repo/postgres"
)

// Option applies configuration to a ServerConfig instance.
type Option func(*ServerConfig) error

// Load constructs a ServerConfig by applying the supplied options on top of
// library defaults.
func Load(opts ...Option) (*ServerConfig, error) {
	cfg := defaults()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func defaults() ServerConfig {
	return ServerConfig{
		Port:               "8080",
		Environment:        "development",
		DatabaseType:       "memory",
		EnableEventLogging: true,
	}
}

// ServerConfig represents server configuration for the content-schema service
type ServerConfig struct {
	Port        string
	Environment string // development, production, testing

	// Database configuration
	DatabaseURL  string
	DatabaseType string // "memory", "postgres"

	// JWT verification key for the tenant middleware; empty disables it
	JWTSecret string

	// Server options
	EnableEventLogging bool
}

// Validate checks the configuration for inconsistencies.
func (c *ServerConfig) Validate() error {
	switch c.DatabaseType {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("database type postgres requires a database URL")
		}
	default:
		return fmt.Errorf("unsupported database type: %q", c.DatabaseType)
	}
	return nil
}

// BuildRepository constructs the repository the configuration selects.
func (c *ServerConfig) BuildRepository(ctx context.Context) (contentschema.Repository, error) {
	switch c.DatabaseType {
	case "postgres":
		pool, err := pgxpool.New(ctx, c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping postgres: %w", err)
		}
		return repopg.NewWithPool(pool), nil
	default:
		return memory.New(), nil
	}
}

// BuildService constructs a fully wired Service from the configuration.
func (c *ServerConfig) BuildService(ctx context.Context, log *zap.Logger) (contentschema.Service, error) {
	repo, err := c.BuildRepository(ctx)
	if err != nil {
		return nil, err
	}

	sink := contentschema.NewNoopEventSink()
	if c.EnableEventLogging && log != nil {
		sink = contentschema.NewLoggingEventSink(log)
	}

	return contentschema.New(
		contentschema.WithRepository(repo),
		contentschema.WithEventSink(sink),
		contentschema.WithLogger(log),
	)
}
