package repository

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS links (
			code TEXT PRIMARY KEY,
			original_url TEXT NOT NULL,
			clicks INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_links_original_url ON links (original_url);`,
		`CREATE INDEX IF NOT EXISTS idx_links_created_at ON links (created_at);`,
		`CREATE TABLE IF NOT EXISTS admins (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
	},
	insertLink:      `INSERT INTO links (code, original_url, created_at) VALUES (?, ?, ?);`,
	findByCode:      `SELECT code, original_url, clicks, created_at FROM links WHERE code = ?;`,
	findByOriginal:  `SELECT code, original_url, clicks, created_at FROM links WHERE original_url = ? ORDER BY created_at ASC, rowid ASC LIMIT 1;`,
	incrementClicks: `UPDATE links SET clicks = clicks + 1 WHERE code = ? RETURNING clicks;`,
	listAll:         `SELECT code, original_url, clicks, created_at FROM links ORDER BY created_at DESC, rowid DESC;`,
	findAdmin:       `SELECT id, username, password_hash, created_at FROM admins WHERE username = ?;`,
	insertAdmin:     `INSERT INTO admins (id, username, password_hash, created_at) VALUES (?, ?, ?, ?);`,
	isUniqueErr: func(err error) bool {
		var sqliteErr *sqlite.Error
		if !errors.As(err, &sqliteErr) {
			return false
		}
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	},
}

// InitSQLite opens a SQLite database. A single connection is used so that
// writers queue in database/sql instead of failing with SQLITE_BUSY.
func InitSQLite(dsn string, logger *zap.Logger) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, err
	}

	for _, pragma := range []string{`PRAGMA journal_mode=WAL;`, `PRAGMA busy_timeout=5000;`} {
		if _, err := db.Exec(pragma); err != nil {
			logger.Warn("sqlite pragma not applied", zap.String("pragma", pragma), zap.Error(err))
		}
	}

	logger.Info("sqlite opened", zap.String("dsn", dsn))
	return db, nil
}

// CreateSQLiteRepository returns a SQLite-backed repository. Call Migrate
// before first use.
func CreateSQLiteRepository(db *sql.DB, logger *zap.Logger) *URLRepository {
	return newRepository(db, sqliteDialect, logger)
}
