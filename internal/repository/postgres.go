package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

var postgres = dialect{
	name: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS links (
			code TEXT PRIMARY KEY,
			original_url TEXT NOT NULL,
			clicks BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_links_original_url ON links (original_url);`,
		`CREATE INDEX IF NOT EXISTS idx_links_created_at ON links (created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS admins (
			id UUID PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
	},
	insertLink:      `INSERT INTO links (code, original_url, created_at) VALUES ($1, $2, $3);`,
	findByCode:      `SELECT code, original_url, clicks, created_at FROM links WHERE code = $1;`,
	findByOriginal:  `SELECT code, original_url, clicks, created_at FROM links WHERE original_url = $1 ORDER BY created_at ASC LIMIT 1;`,
	incrementClicks: `UPDATE links SET clicks = clicks + 1 WHERE code = $1 RETURNING clicks;`,
	listAll:         `SELECT code, original_url, clicks, created_at FROM links ORDER BY created_at DESC;`,
	findAdmin:       `SELECT id, username, password_hash, created_at FROM admins WHERE username = $1;`,
	insertAdmin:     `INSERT INTO admins (id, username, password_hash, created_at) VALUES ($1, $2, $3, $4);`,
	isUniqueErr: func(err error) bool {
		var pgErr *pgconn.PgError
		return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
	},
}

// InitDB opens a PostgreSQL connection pool and checks it is reachable.
func InitDB(dsn string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("postgres connected")
	return db, nil
}

// CreateURLRepository returns a PostgreSQL-backed repository. Call Migrate
// before first use.
func CreateURLRepository(db *sql.DB, logger *zap.Logger) *URLRepository {
	return newRepository(db, postgres, logger)
}
