// Package repository implements the link and admin stores on top of
// database/sql. PostgreSQL is reached through the pgx stdlib driver and
// SQLite through modernc.org/sqlite; both share the same schema and the same
// atomic click increment.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/clickshort/internal/storage"
)

// dialect holds the statements that differ between database engines.
type dialect struct {
	name            string
	schema          []string
	insertLink      string
	findByCode      string
	findByOriginal  string
	incrementClicks string
	listAll         string
	findAdmin       string
	insertAdmin     string
	isUniqueErr     func(error) bool
}

// URLRepository is a SQL-backed link and admin store.
type URLRepository struct {
	db      *sql.DB
	dialect dialect
	logger  *zap.Logger
	now     func() time.Time
}

func newRepository(db *sql.DB, d dialect, logger *zap.Logger) *URLRepository {
	return &URLRepository{
		db:      db,
		dialect: d,
		logger:  logger,
		now:     time.Now,
	}
}

// Migrate creates the tables and indexes if they do not exist yet.
func (r *URLRepository) Migrate(ctx context.Context) error {
	for _, stmt := range r.dialect.schema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s migration failed: %w", r.dialect.name, err)
		}
	}
	return nil
}

func (r *URLRepository) unavailable(op string, err error) error {
	r.logger.Error("query failed", zap.String("db", r.dialect.name), zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%w: %s: %v", storage.ErrUnavailable, op, err)
}

func (r *URLRepository) Insert(ctx context.Context, original, code string) (*storage.Link, error) {
	l := storage.Link{Code: code, Original: original, CreatedAt: r.now().UTC()}

	_, err := r.db.ExecContext(ctx, r.dialect.insertLink, l.Code, l.Original, l.CreatedAt)
	if err != nil {
		if r.dialect.isUniqueErr(err) {
			return nil, storage.ErrConflict
		}
		return nil, r.unavailable("insert", err)
	}

	return &l, nil
}

func (r *URLRepository) scanLink(row *sql.Row, op string) (*storage.Link, error) {
	var l storage.Link

	err := row.Scan(&l.Code, &l.Original, &l.Clicks, timestamp{&l.CreatedAt})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, r.unavailable(op, err)
	}

	return &l, nil
}

func (r *URLRepository) FindByCode(ctx context.Context, code string) (*storage.Link, error) {
	return r.scanLink(r.db.QueryRowContext(ctx, r.dialect.findByCode, code), "find by code")
}

// FindByOriginal returns the oldest link for the exact original URL.
func (r *URLRepository) FindByOriginal(ctx context.Context, original string) (*storage.Link, error) {
	return r.scanLink(r.db.QueryRowContext(ctx, r.dialect.findByOriginal, original), "find by original")
}

// IncrementClicks bumps the counter in a single UPDATE ... RETURNING
// statement, so concurrent callers never lose an update.
func (r *URLRepository) IncrementClicks(ctx context.Context, code string) (int64, error) {
	var clicks int64

	err := r.db.QueryRowContext(ctx, r.dialect.incrementClicks, code).Scan(&clicks)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrNotFound
		}
		return 0, r.unavailable("increment clicks", err)
	}

	return clicks, nil
}

func (r *URLRepository) ListAll(ctx context.Context) ([]storage.Link, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.listAll)
	if err != nil {
		return nil, r.unavailable("list", err)
	}
	defer rows.Close()

	links := make([]storage.Link, 0)
	for rows.Next() {
		var l storage.Link
		if err := rows.Scan(&l.Code, &l.Original, &l.Clicks, timestamp{&l.CreatedAt}); err != nil {
			return nil, r.unavailable("list scan", err)
		}
		links = append(links, l)
	}

	if err := rows.Err(); err != nil {
		return nil, r.unavailable("list", err)
	}

	return links, nil
}

func (r *URLRepository) FindAdmin(ctx context.Context, username string) (*storage.Admin, error) {
	var a storage.Admin

	err := r.db.QueryRowContext(ctx, r.dialect.findAdmin, username).Scan(&a.ID, &a.Username, &a.PasswordHash, timestamp{&a.CreatedAt})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, r.unavailable("find admin", err)
	}

	return &a, nil
}

func (r *URLRepository) CreateAdmin(ctx context.Context, a storage.Admin) error {
	_, err := r.db.ExecContext(ctx, r.dialect.insertAdmin, a.ID, a.Username, a.PasswordHash, a.CreatedAt)
	if err != nil {
		if r.dialect.isUniqueErr(err) {
			return storage.ErrConflict
		}
		return r.unavailable("create admin", err)
	}
	return nil
}

// timestamp scans the representations drivers return for timestamp columns:
// pgx yields time.Time, SQLite may hand back text.
type timestamp struct {
	t *time.Time
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

func (ts timestamp) Scan(v any) error {
	switch x := v.(type) {
	case time.Time:
		*ts.t = x
		return nil
	case int64:
		*ts.t = time.Unix(0, x).UTC()
		return nil
	case []byte:
		return ts.parse(string(x))
	case string:
		return ts.parse(x)
	}
	return fmt.Errorf("unsupported timestamp value %T", v)
}

func (ts timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			*ts.t = t
			return nil
		}
	}
	return fmt.Errorf("unparsable timestamp %q", s)
}

func (r *URLRepository) PingContext(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", storage.ErrUnavailable, err)
	}
	return nil
}
