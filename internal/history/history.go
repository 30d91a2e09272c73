// Package history persists submitted applications so the same job is never
// applied to twice.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"

	StatusSubmitted = "submitted"

	defaultListLimit = 50
)

var ErrUnknownDriver = errors.New("unknown history driver")

// Application is one submitted application.
type Application struct {
	ID          uuid.UUID `json:"id"`
	UserID      string    `json:"user_id"`
	JobID       string    `json:"job_id"`
	Key         string    `json:"key"`
	Company     string    `json:"company"`
	Title       string    `json:"title"`
	Source      string    `json:"source"`
	Score       int       `json:"score"`
	Status      string    `json:"status"`
	CoverLetter string    `json:"cover_letter,omitempty"`
	AppliedAt   time.Time `json:"applied_at"`
}

type Store struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
}

// Open connects to dsn with driver ("sqlite" or "pgx") and creates the schema.
// For sqlite the dsn is a file path; its directory is created if needed.
func Open(ctx context.Context, driver, dsn string, logger *zap.Logger) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}

	if driver == DriverSQLite {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("history: mkdir %s: %w", dir, err)
			}
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if driver == DriverSQLite {
		// SQLite: single writer
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: ping: %w", err)
	}

	s, err := New(db, driver, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// New wraps an already opened database.
func New(db *sql.DB, driver string, logger *zap.Logger) (*Store, error) {
	if driver != DriverSQLite && driver != DriverPostgres {
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, driver: driver, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS applications (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			job_id       TEXT NOT NULL,
			dedup_key    TEXT NOT NULL,
			company      TEXT NOT NULL,
			title        TEXT NOT NULL,
			source       TEXT NOT NULL,
			score        INTEGER NOT NULL,
			status       TEXT NOT NULL,
			cover_letter TEXT,
			applied_at   TEXT NOT NULL,
			UNIQUE (user_id, dedup_key)
		)`,
		`CREATE INDEX IF NOT EXISTS applications_user_applied_at ON applications (user_id, applied_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("history: migrate: %w", err)
		}
	}
	return nil
}

// Record stores app unless the user already applied to the same key.
// It reports whether a new row was written.
func (s *Store) Record(ctx context.Context, app *Application) (bool, error) {
	if app.ID == uuid.Nil {
		app.ID = uuid.New()
	}
	if app.AppliedAt.IsZero() {
		app.AppliedAt = time.Now()
	}
	if app.Status == "" {
		app.Status = StatusSubmitted
	}

	res, err := s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO applications (id, user_id, job_id, dedup_key, company, title, source, score, status, cover_letter, applied_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, dedup_key) DO NOTHING`),
		app.ID.String(), app.UserID, app.JobID, app.Key, app.Company, app.Title, app.Source,
		app.Score, app.Status, app.CoverLetter, formatTime(app.AppliedAt),
	)
	if err != nil {
		return false, fmt.Errorf("history: insert: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("history: rows affected: %w", err)
	}

	s.logger.Debug("application recorded",
		zap.String("user_id", app.UserID),
		zap.String("job_id", app.JobID),
		zap.Bool("inserted", n > 0),
	)

	return n > 0, nil
}

// AppliedKeys returns the deduplication keys of every application of userID.
func (s *Store) AppliedKeys(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT dedup_key FROM applications WHERE user_id = ?`), userID)
	if err != nil {
		return nil, fmt.Errorf("history: applied keys: %w", err)
	}
	defer rows.Close()

	keys := make(map[string]bool)
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("history: scan key: %w", err)
		}
		keys[key] = true
	}
	return keys, rows.Err()
}

// List returns the latest applications of userID, newest first.
func (s *Store) List(ctx context.Context, userID string, limit int) ([]Application, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(
		`SELECT id, user_id, job_id, dedup_key, company, title, source, score, status, cover_letter, applied_at
		 FROM applications WHERE user_id = ? ORDER BY applied_at DESC LIMIT ?`), userID, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list: %w", err)
	}
	defer rows.Close()

	apps := make([]Application, 0)
	for rows.Next() {
		var (
			app         Application
			id          string
			coverLetter sql.NullString
			appliedAt   string
		)
		if err := rows.Scan(&id, &app.UserID, &app.JobID, &app.Key, &app.Company, &app.Title,
			&app.Source, &app.Score, &app.Status, &coverLetter, &appliedAt); err != nil {
			return nil, fmt.Errorf("history: scan: %w", err)
		}
		if app.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("history: parse id %q: %w", id, err)
		}
		if app.AppliedAt, err = time.Parse(time.RFC3339, appliedAt); err != nil {
			return nil, fmt.Errorf("history: parse applied_at %q: %w", appliedAt, err)
		}
		app.CoverLetter = coverLetter.String
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// CountSince counts the applications of userID at or after since.
func (s *Store) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT COUNT(*) FROM applications WHERE user_id = ? AND applied_at >= ?`),
		userID, formatTime(since),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("history: count: %w", err)
	}
	return n, nil
}

// rebind turns ? placeholders into $1, $2... for postgres.
func (s *Store) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Timestamps are stored as UTC RFC3339 text so they sort lexicographically.
func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}
