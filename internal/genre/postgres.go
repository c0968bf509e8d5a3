package genre

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const patternsTable = "patterns"

// PostgresPatterns reads style patterns from the patterns(genre, data) table.
type PostgresPatterns struct {
	db *sql.DB

	schemaMu    sync.Mutex
	schemaReady bool
}

func NewPostgresPatterns(db *sql.DB) *PostgresPatterns {
	return &PostgresPatterns{db: db}
}

func (s *PostgresPatterns) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}
	if _, err := s.db.ExecContext(context.WithoutCancel(ctx), `
CREATE TABLE IF NOT EXISTS patterns (
    genre TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`); err != nil {
		return fmt.Errorf("ensure patterns schema: %w", err)
	}
	s.schemaReady = true
	return nil
}

func (s *PostgresPatterns) Lookup(ctx context.Context, genre string) (string, error) {
	genre = strings.TrimSpace(genre)
	if genre == "" {
		return "", nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return "", err
	}
	b := entsql.Dialect(dialect.Postgres)
	query, args := b.Select("data").
		From(b.Table(patternsTable)).
		Where(entsql.EQ("genre", genre)).
		Limit(1).
		Query()

	var data string
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("lookup pattern %q: %w", genre, err)
	}
	return data, nil
}

// Put inserts or replaces the pattern of a genre.
func (s *PostgresPatterns) Put(ctx context.Context, genre, data string) error {
	genre = strings.TrimSpace(genre)
	if !IsKnown(genre) {
		return fmt.Errorf("unknown genre %q", genre)
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	query, args := entsql.Dialect(dialect.Postgres).
		Insert(patternsTable).
		Columns("genre", "data").
		Values(genre, data).
		OnConflict(
			entsql.ConflictColumns("genre"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put pattern %q: %w", genre, err)
	}
	return nil
}

// Seed copies every pattern of src that the table does not have yet.
func (s *PostgresPatterns) Seed(ctx context.Context, src *StaticPatterns, overwrite bool) (int, error) {
	n := 0
	for _, g := range src.Genres() {
		if !overwrite {
			existing, err := s.Lookup(ctx, g)
			if err != nil {
				return n, err
			}
			if existing != "" {
				continue
			}
		}
		text, _ := src.Lookup(ctx, g)
		if err := s.Put(ctx, g, text); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
