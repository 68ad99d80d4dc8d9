package config

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if err := c.Database.validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if c.Persistence.QueryTimeout < 0 {
		return fmt.Errorf("persistence.query_timeout must be >= 0 (got %s)", c.Persistence.QueryTimeout)
	}
	if c.Persistence.LoaderBatch <= 0 {
		return fmt.Errorf("persistence.loader_batch must be > 0 (got %d)", c.Persistence.LoaderBatch)
	}

	cost := c.Security.PasswordHashCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return fmt.Errorf("security.password_hash_cost must be within [%d, %d] (got %d)", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	if c.Security.TwoFactorIssuer == "" {
		return fmt.Errorf("security.two_factor_issuer must not be empty")
	}

	if c.Comments.PurgeRetentionDays < 0 {
		return fmt.Errorf("comments.purge_retention_days must be >= 0 (got %d)", c.Comments.PurgeRetentionDays)
	}

	return nil
}

func (d *DatabaseConfig) validate() error {
	if d.MinConns > d.MaxConns {
		return fmt.Errorf("min_conns (%d) must not exceed max_conns (%d)", d.MinConns, d.MaxConns)
	}
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.Name == "" || d.User == "" {
		return fmt.Errorf("either dsn or host, name and user must be set")
	}
	if d.Port <= 0 || d.Port > 65535 {
		return fmt.Errorf("port must be within [1, 65535] (got %d)", d.Port)
	}
	return nil
}
