package bootstrap

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/config"
	"github.com/jonesrussell/north-cloud/site-renderer/internal/database"
)

// SetupDatabase opens the schema store connection pool.
func SetupDatabase(cfg *config.Config) (*sqlx.DB, error) {
	db, err := database.NewPostgresConnection(database.Config{
		DSN:             cfg.Database.DSN(),
		MaxConnections:  cfg.Database.MaxConnections,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnectionMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("database connection: %w", err)
	}
	return db, nil
}
