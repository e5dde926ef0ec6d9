package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/JamilPr1/Haraj/config"
	"github.com/JamilPr1/Haraj/models"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// PostgresStore implements Store on PostgreSQL for hosts where the local
// filesystem is ephemeral. Listings are upserted by fingerprint inside one
// transaction per snapshot, so a failed write leaves the prior state intact.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(cfg config.Config) (*PostgresStore, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBUser,
		cfg.DBPassword,
		cfg.DBName,
		cfg.DBSSLMode,
	)

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres connection: %w", err)
	}

	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	schemaCtx, schemaCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer schemaCancel()
	if err := store.ensureSchema(schemaCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Snapshot(ctx context.Context, snap models.Snapshot) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %v", models.ErrPersistenceWrite, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO listings (fingerprint, fields, tags, images, first_seen, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (fingerprint) DO UPDATE
		SET
			fields = EXCLUDED.fields,
			tags = EXCLUDED.tags,
			images = EXCLUDED.images,
			last_seen = EXCLUDED.last_seen`)
	if err != nil {
		return fmt.Errorf("%w: prepare insert statement: %v", models.ErrPersistenceWrite, err)
	}
	defer stmt.Close()

	for _, l := range snap.Listings {
		fields, mErr := json.Marshal(l.Fields)
		if mErr != nil {
			err = fmt.Errorf("%w: encode fields for %s: %v", models.ErrPersistenceWrite, l.Fingerprint, mErr)
			return err
		}
		if _, err = stmt.ExecContext(
			ctx,
			l.Fingerprint,
			string(fields),
			strings.Join(l.Tags, "\n"),
			strings.Join(l.Images, "\n"),
			l.FirstSeen,
			l.LastSeen,
		); err != nil {
			err = fmt.Errorf("%w: upsert listing %s: %v", models.ErrPersistenceWrite, l.Fingerprint, err)
			return err
		}
	}

	if snap.LastJob != nil {
		j := snap.LastJob
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO scrape_jobs
				(id, status, started_at, finished_at, error_code, error_message,
				 pages_visited, listings_new, listings_updated, parse_errors)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE
			SET
				status = EXCLUDED.status,
				finished_at = EXCLUDED.finished_at,
				error_code = EXCLUDED.error_code,
				error_message = EXCLUDED.error_message,
				pages_visited = EXCLUDED.pages_visited,
				listings_new = EXCLUDED.listings_new,
				listings_updated = EXCLUDED.listings_updated,
				parse_errors = EXCLUDED.parse_errors`,
			j.ID,
			string(j.Status),
			j.StartedAt,
			j.FinishedAt,
			j.ErrorCode,
			j.ErrorMessage,
			j.PagesVisited,
			j.ListingsNew,
			j.ListingsUpdated,
			j.ParseErrors,
		); err != nil {
			err = fmt.Errorf("%w: record job %s: %v", models.ErrPersistenceWrite, j.ID, err)
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("%w: commit transaction: %v", models.ErrPersistenceWrite, err)
		return err
	}
	return nil
}

func (s *PostgresStore) Load(ctx context.Context) (models.Snapshot, error) {
	snap := models.Snapshot{Listings: []models.Listing{}}

	rows, err := s.db.QueryContext(ctx, `
		SELECT fingerprint, fields, tags, images, first_seen, last_seen
		FROM listings
		ORDER BY first_seen`)
	if err != nil {
		return snap, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			l            models.Listing
			fields       string
			tags, images string
		)
		if err := rows.Scan(&l.Fingerprint, &fields, &tags, &images, &l.FirstSeen, &l.LastSeen); err != nil {
			return snap, fmt.Errorf("scan listing: %w", err)
		}
		if err := json.Unmarshal([]byte(fields), &l.Fields); err != nil {
			return snap, fmt.Errorf("decode fields for %s: %w", l.Fingerprint, err)
		}
		l.Tags = splitLines(tags)
		l.Images = splitLines(images)
		snap.Listings = append(snap.Listings, l)
	}
	if err := rows.Err(); err != nil {
		return snap, fmt.Errorf("iterate listings: %w", err)
	}

	var j models.ScrapeJob
	var status string
	err = s.db.QueryRowContext(ctx, `
		SELECT id, status, started_at, finished_at, error_code, error_message,
		       pages_visited, listings_new, listings_updated, parse_errors
		FROM scrape_jobs
		ORDER BY started_at DESC
		LIMIT 1`).Scan(
		&j.ID, &status, &j.StartedAt, &j.FinishedAt, &j.ErrorCode, &j.ErrorMessage,
		&j.PagesVisited, &j.ListingsNew, &j.ListingsUpdated, &j.ParseErrors,
	)
	switch err {
	case nil:
		j.Status = models.JobStatus(status)
		snap.LastJob = &j
		snap.SavedAt = j.FinishedAt
	case sql.ErrNoRows:
		// First run: no job history yet.
	default:
		return snap, fmt.Errorf("query last job: %w", err)
	}

	return snap, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS listings (
			fingerprint TEXT PRIMARY KEY,
			fields TEXT NOT NULL DEFAULT '{}',
			tags TEXT NOT NULL DEFAULT '',
			images TEXT NOT NULL DEFAULT '',
			first_seen TIMESTAMPTZ NOT NULL,
			last_seen TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS scrape_jobs (
			id TEXT PRIMARY KEY,
			status TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ,
			error_code TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT '',
			pages_visited INT NOT NULL DEFAULT 0,
			listings_new INT NOT NULL DEFAULT 0,
			listings_updated INT NOT NULL DEFAULT 0,
			parse_errors INT NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_scrape_jobs_started ON scrape_jobs(started_at);
	`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
