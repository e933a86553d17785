package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

//go:embed schema.sql
var schema string

var (
	Pool *pgxpool.Pool
	// DB is a database/sql handle sharing Pool's connections
	DB *sql.DB
)

func Connect(ctx context.Context, databaseURL string) error {
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	var err error
	Pool, err = pgxpool.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err = Pool.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = stdlib.OpenDBFromPool(Pool)

	log.Info().Msg("Database connected")
	return nil
}

// Migrate creates the tables used by the inbox if they do not exist
func Migrate(ctx context.Context) error {
	if Pool == nil {
		return fmt.Errorf("database is not connected")
	}
	if _, err := Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	log.Info().Msg("Database schema applied")
	return nil
}

func Close() {
	if DB != nil {
		DB.Close()
	}
	if Pool != nil {
		Pool.Close()
	}
}
