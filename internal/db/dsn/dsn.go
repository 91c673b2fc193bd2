// Package dsn provides Data Source Name construction utilities for database connections.
package dsn

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/sg-semilla/semilla-auth/internal/config"
)

// MySQL builds a go-sql-driver/mysql DSN from the configuration.
func MySQL(cfg *config.DB) string {
	out := fmt.Sprintf("%s:%s@tcp(%s)/%s",
		cfg.User,
		cfg.Password,
		net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		cfg.Name,
	)

	if cfg.Extras != "" {
		out += "?" + cfg.Extras
	}

	return out
}

// Postgres builds a postgres:// connection URL from the configuration.
func Postgres(cfg *config.DB) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Path:     "/" + cfg.Name,
		RawQuery: cfg.Extras,
	}

	return u.String()
}

// Create builds the DSN for the configured gorm engine.
func Create(cfg *config.DB) string {
	switch cfg.GormEngine {
	case config.EnginePostgres:
		return Postgres(cfg)
	case config.EngineMySQL:
		return MySQL(cfg)
	default:
		return cfg.Path
	}
}
