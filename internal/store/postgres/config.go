package postgres

import "errors"

// Config holds configuration for the PostgreSQL submission store.
type Config struct {
	// Pool configures the underlying pgx connection pool.
	Pool *PoolConfig

	// AutoMigrate runs pending schema migrations during construction.
	// Leave it off when the schema is managed out of band.
	AutoMigrate bool
}

func (c *Config) Validate() error {
	if c.Pool == nil {
		return errors.New("pool config is required")
	}
	return c.Pool.Validate()
}
