package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const ResearchTableSchema = `
	CREATE TABLE IF NOT EXISTS research_records (
		session_id        TEXT PRIMARY KEY,
		calculator_data   JSONB NOT NULL DEFAULT '{}'::jsonb,
		survey_data       JSONB NOT NULL DEFAULT '{}'::jsonb,
		metadata          JSONB NOT NULL DEFAULT '{}'::jsonb,
		completion_status JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at        TIMESTAMPTZ NOT NULL,
		updated_at        TIMESTAMPTZ NOT NULL
	);
`

var bootQueries = []string{
	ResearchTableSchema,
}

type Settings struct {
	DSN string
}

// NewDB opens the database, verifies connectivity and creates missing tables.
func NewDB(ctx context.Context, settings Settings) (*sql.DB, error) {
	if settings.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is empty")
	}

	db, err := sql.Open("postgres", settings.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := Boot(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func Boot(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	for _, query := range bootQueries {
		if _, err := db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("boot query: %w", err)
		}
	}
	return nil
}
