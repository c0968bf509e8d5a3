package scripts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"scriptsmith/internal/script"
)

const scriptsTable = "scripts"

var scriptColumns = []string{"id", "title", "genre", "duration", "script", "score", "attempts", "validation", "created_at"}

type PostgresStore struct {
	db *sql.DB

	schemaMu    sync.Mutex
	schemaReady bool
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}
	// Setup outlives the request that triggers it; failures are retried on the next call.
	if _, err := s.db.ExecContext(context.WithoutCancel(ctx), `
CREATE TABLE IF NOT EXISTS scripts (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    genre TEXT NOT NULL DEFAULT '',
    duration TEXT NOT NULL,
    script TEXT NOT NULL,
    score DOUBLE PRECISION NOT NULL,
    attempts INTEGER NOT NULL,
    validation JSONB NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_scripts_created_at ON scripts(created_at DESC);
`); err != nil {
		return fmt.Errorf("ensure scripts schema: %w", err)
	}
	s.schemaReady = true
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	rec.ID = strings.TrimSpace(rec.ID)
	if rec.ID == "" {
		return fmt.Errorf("id is required")
	}
	if strings.TrimSpace(rec.Script) == "" {
		return fmt.Errorf("script is required")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	validation, err := json.Marshal(rec.Validation)
	if err != nil {
		return fmt.Errorf("encode validation: %w", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query, args := entsql.Dialect(dialect.Postgres).
		Insert(scriptsTable).
		Columns(scriptColumns...).
		Values(rec.ID, rec.Title, rec.Genre, string(rec.Duration), rec.Script, rec.Score, rec.Attempts, string(validation), rec.CreatedAt).
		OnConflict(
			entsql.ConflictColumns("id"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save script %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Record, error) {
	if s == nil {
		return Record{}, fmt.Errorf("store is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Record{}, fmt.Errorf("id is required")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return Record{}, err
	}
	b := entsql.Dialect(dialect.Postgres)
	query, args := b.Select(scriptColumns...).
		From(b.Table(scriptsTable)).
		Where(entsql.EQ("id", id)).
		Limit(1).
		Query()

	rec, err := scanRecord(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	return rec, err
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]Record, error) {
	if s == nil {
		return nil, fmt.Errorf("store is nil")
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	b := entsql.Dialect(dialect.Postgres)
	query, args := b.Select(scriptColumns...).
		From(b.Table(scriptsTable)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Limit(normalizeLimit(limit)).
		Query()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		rec        Record
		duration   string
		validation []byte
	)
	if err := row.Scan(&rec.ID, &rec.Title, &rec.Genre, &duration, &rec.Script, &rec.Score, &rec.Attempts, &validation, &rec.CreatedAt); err != nil {
		return Record{}, err
	}
	rec.Duration = script.Duration(duration)
	if len(validation) > 0 {
		if err := json.Unmarshal(validation, &rec.Validation); err != nil {
			return Record{}, fmt.Errorf("decode validation of %s: %w", rec.ID, err)
		}
	}
	return rec, nil
}
