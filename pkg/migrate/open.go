package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// goose runs over database/sql; lib/pq registers the "postgres" driver.
	_ "github.com/lib/pq"

	"github.com/logiccrafts/connect-backend/pkg/config"
)

const driverName = "postgres"

// Open returns a database/sql pool for goose. It does not dial until first use.
func Open(cfg config.DBConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database DSN is required")
	}
	db, err := sql.Open(driverName, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driverName, err)
	}
	return db, nil
}

// OpenAndPing is Open followed by a connectivity check.
func OpenAndPing(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driverName, err)
	}
	return db, nil
}
