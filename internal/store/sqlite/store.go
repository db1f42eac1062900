// Package sqlite is the relational bookmark table, read by the sql source mode
// and written by the ingestion endpoint.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/zakhap/bookmarks-with-friends/internal/domain"
	"github.com/zakhap/bookmarks-with-friends/internal/logger"
)

//go:embed migrations/*.sql
var migrations embed.FS

// savedAt is stored as fixed-width UTC text so ORDER BY saved_at is chronological.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Store implements domain.BookmarkRepository on top of SQLite.
type Store struct {
	db     *sql.DB
	logger logger.Logger
	now    func() time.Time
}

// Open connects to the database at path and applies pending migrations.
func Open(ctx context.Context, path string, log logger.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids "database is locked".
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to reach sqlite database %s: %w", path, err)
	}

	s := &Store{db: db, logger: log, now: time.Now}
	if err := s.Migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate brings the schema up to date. Running it twice is a no-op.
func (s *Store) Migrate() error {
	src, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(s.db, &sqlite3.Config{
		MigrationsTable: "migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to init migration driver: %w", err)
	}

	// Not closing m: that would close s.db through the driver.
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("failed to init migrations: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			s.logger.Debug("nothing to migrate")
			return nil
		}
		return fmt.Errorf("failed to migrate: %w", err)
	}

	version, _, _ := m.Version()
	s.logger.Info("database migrated", logger.Int("version", int(version)))
	return nil
}

// Create inserts one bookmark. The id and saved time are assigned here.
func (s *Store) Create(ctx context.Context, in domain.NewBookmark) (domain.Bookmark, error) {
	b := domain.Bookmark{
		ID:      uuid.NewString(),
		Kind:    domain.KindLink,
		URL:     in.URL,
		Title:   in.Title,
		Note:    in.Note,
		SavedBy: in.SavedBy,
		SavedAt: s.now().UTC(),
	}

	var note sql.NullString
	if b.Note != "" {
		note = sql.NullString{String: b.Note, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO
        bookmarks(id, url, title, note, saved_by, saved_at)
        VALUES
        (?, ?, ?, ?, ?, ?)
    `, b.ID, b.URL, b.Title, note, b.SavedBy, b.SavedAt.Format(timeLayout))
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("failed to insert bookmark: %w", err)
	}

	return b, nil
}

// Latest returns up to limit bookmarks, most recent first.
func (s *Store) Latest(ctx context.Context, limit int) ([]domain.Bookmark, error) {
	if limit <= 0 {
		limit = domain.DefaultPageSize
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT id, url, title, note, saved_by, saved_at
        FROM bookmarks
        ORDER BY saved_at DESC, rowid DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookmarks: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Bookmark, 0, limit)
	for rows.Next() {
		var (
			b       domain.Bookmark
			note    sql.NullString
			savedAt string
		)
		if err := rows.Scan(&b.ID, &b.URL, &b.Title, &note, &b.SavedBy, &savedAt); err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}

		t, err := time.Parse(timeLayout, savedAt)
		if err != nil {
			return nil, fmt.Errorf("bookmark %s has invalid saved_at %q: %w", b.ID, savedAt, err)
		}

		b.Kind = domain.KindLink
		b.Note = note.String
		b.SavedAt = t
		result = append(result, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bookmarks: %w", err)
	}

	return result, nil
}

// Fetch adapts Latest to the cache's fetch signature; the key is ignored.
func (s *Store) Fetch(ctx context.Context, _ string) ([]domain.Bookmark, error) {
	return s.Latest(ctx, domain.DefaultPageSize)
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookmarks`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count bookmarks: %w", err)
	}
	return n, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
