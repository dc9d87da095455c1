package store

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/xerrors"
)

// Sqlite3Adapter provides support for SQLite3 databases.
type Sqlite3Adapter struct{}

func (Sqlite3Adapter) DriverName() string { return "sqlite3" }

func (Sqlite3Adapter) PostCreate(db *sqlx.DB) (err error) {
	// Faster than using default journal file
	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return err
	}
	// Default (full) is slower
	_, err = db.Exec("PRAGMA synchronous = NORMAL")
	if err != nil {
		return err
	}
	_, err = db.Exec("PRAGMA busy_timeout = 5000")
	return err
}

func (Sqlite3Adapter) CreateTableQuery(table string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %q (
    "id" TEXT PRIMARY KEY,
    "language" TEXT NOT NULL UNIQUE,
    "content" TEXT NOT NULL,
    "createdAt" TIMESTAMP,
    "updatedAt" TIMESTAMP
)`, table)
}

func (Sqlite3Adapter) GetQuery(table string) string {
	return fmt.Sprintf(`SELECT "id", "language", "content", "createdAt", "updatedAt" FROM %q WHERE "language" = ?`, table)
}

func (Sqlite3Adapter) InsertQuery(table string) string {
	return fmt.Sprintf(`INSERT INTO %q ("id", "language", "content", "createdAt", "updatedAt") VALUES (?, ?, ?, ?, ?)`, table)
}

func (Sqlite3Adapter) UpdateQuery(table string) string {
	return fmt.Sprintf(`UPDATE %q SET "content" = ?, "updatedAt" = ? WHERE "language" = ?`, table)
}

func (Sqlite3Adapter) LanguagesQuery(table string) string {
	return fmt.Sprintf(`SELECT "language" FROM %q ORDER BY "language"`, table)
}

func (Sqlite3Adapter) IsUniqueViolation(err error) bool {
	var sqErr sqlite3.Error
	return xerrors.As(err, &sqErr) && sqErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
