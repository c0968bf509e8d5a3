package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"scriptsmith/internal/config"
	"scriptsmith/internal/genre"
	"scriptsmith/internal/repository/archive"
	"scriptsmith/internal/repository/scripts"
)

type stores struct {
	db       *sql.DB
	scripts  scripts.Store
	patterns *genre.CachedPatterns
	archive  archive.Store
}

func (s *stores) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func initStores(ctx context.Context, cfg *config.Config, logger *log.Logger) (*stores, error) {
	st := &stores{}
	var origin genre.PatternStore = genre.DefaultPatterns()

	if dsn := strings.TrimSpace(cfg.Database.URL); dsn != "" {
		db, err := openDB(ctx, dsn)
		if err != nil {
			return nil, err
		}
		st.db = db
		st.scripts = scripts.NewPostgresStore(db)
		origin = genre.Chain{genre.NewPostgresPatterns(db), genre.DefaultPatterns()}
		logger.Printf("script store: postgres")
	} else {
		st.scripts = scripts.NewMemoryStore()
		logger.Printf("script store: in-memory")
	}

	cached, err := genre.NewCachedPatterns(origin, cfg.Database.PatternCacheSize)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("init pattern cache: %w", err)
	}
	st.patterns = cached

	if cfg.Archive.Enabled() {
		s3Cfg := archive.S3Config{
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
		}
		s3Store, err := archive.NewS3Store(s3Cfg)
		if err != nil {
			_ = st.Close()
			return nil, fmt.Errorf("failed to initialize run archive: %w", err)
		}
		st.archive = s3Store
		logger.Printf("run archive: s3 bucket=%s endpoint=%s", s3Cfg.Bucket, s3Cfg.Endpoint)
	}
	return st, nil
}

func openDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach db: %w", err)
	}
	return db, nil
}

// SeedPatterns copies the bundled style patterns into the database named by
// cfg. Existing rows are kept unless overwrite is set.
func SeedPatterns(ctx context.Context, cfg *config.Config, overwrite bool) (int, error) {
	dsn := strings.TrimSpace(cfg.Database.URL)
	if dsn == "" {
		return 0, fmt.Errorf("DATABASE_URL is required to seed patterns")
	}
	db, err := openDB(ctx, dsn)
	if err != nil {
		return 0, err
	}
	defer db.Close()
	return genre.NewPostgresPatterns(db).Seed(ctx, genre.DefaultPatterns(), overwrite)
}
