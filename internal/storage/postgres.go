package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
)

// PostgresBlob stores documents as jsonb rows in the documents table
// (see internal/database/migrations).
type PostgresBlob struct {
	db  *sql.DB
	log *slog.Logger
}

var _ Blob = (*PostgresBlob)(nil)

// NewPostgresBlob builds a Postgres-backed Blob.
func NewPostgresBlob(db *sql.DB, log *slog.Logger) *PostgresBlob {
	if log == nil {
		log = slog.Default()
	}
	return &PostgresBlob{db: db, log: log}
}

// Load selects the document body by name.
func (b *PostgresBlob) Load(ctx context.Context, name string) ([]byte, error) {
	const query = `SELECT body FROM documents WHERE name = $1`

	if err := validateName(name); err != nil {
		return nil, err
	}

	var body []byte
	if err := b.db.QueryRowContext(ctx, query, name).Scan(&body); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		b.log.Error("failed to load document from postgres", slog.String("name", name), slog.Any("error", err))
		return nil, fmt.Errorf("select document %s: %w", name, err)
	}

	return body, nil
}

// Save upserts the document body.
func (b *PostgresBlob) Save(ctx context.Context, name string, data []byte) error {
	const query = `
		INSERT INTO documents (name, body, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at
	`

	if err := validateName(name); err != nil {
		return err
	}

	if _, err := b.db.ExecContext(ctx, query, name, string(data)); err != nil {
		b.log.Error("failed to save document to postgres", slog.String("name", name), slog.Any("error", err))
		return fmt.Errorf("upsert document %s: %w", name, err)
	}

	return nil
}

// HealthCheck pings the database.
func (b *PostgresBlob) HealthCheck(ctx context.Context) error {
	if b.db == nil {
		return sql.ErrConnDone
	}
	return b.db.PingContext(ctx)
}
