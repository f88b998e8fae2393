// Package dsn builds the data source names for the supported gorm engines.
package dsn

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/catalog-admin/catalog-admin/internal/config"
)

// Create builds the data source name for cfg.GormEngine.
func Create(cfg *config.DB) string {
	switch cfg.GormEngine {
	case config.EnginePostgres:
		return postgres(cfg)
	case config.EngineSQLite:
		return sqlite(cfg)
	default:
		return mysql(cfg)
	}
}

// mysql: user:pass@tcp(host:port)/name?extras
func mysql(cfg *config.DB) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
		cfg.Extras,
	)
}

// postgres: URL form so passwords with spaces survive.
func postgres(cfg *config.DB) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: cfg.Extras,
	}

	return u.String()
}

// sqlite: Name is the file, foreign keys are switched on for the cascades.
func sqlite(cfg *config.DB) string {
	name := cfg.Name
	if name == "" {
		name = ":memory:"
	}

	params := "_pragma=foreign_keys(1)"
	if cfg.Extras != "" {
		params = params + "&" + cfg.Extras
	}

	if strings.Contains(name, "?") {
		return name + "&" + params
	}

	return name + "?" + params
}
