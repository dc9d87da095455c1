package store

import (
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"golang.org/x/xerrors"
)

// PostgresAdapter provides support for PostgreSQL through pgx. Content is
// stored as JSONB.
type PostgresAdapter struct{}

func (PostgresAdapter) DriverName() string { return "pgx" }

func (PostgresAdapter) PostCreate(*sqlx.DB) error { return nil }

func (PostgresAdapter) CreateTableQuery(table string) string {
	return fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %q (
    id TEXT PRIMARY KEY,
    language VARCHAR(10) NOT NULL UNIQUE,
    content JSONB NOT NULL,
    "createdAt" TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
    "updatedAt" TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
)`, table)
}

func (PostgresAdapter) GetQuery(table string) string {
	return fmt.Sprintf(`SELECT id, language, content, "createdAt", "updatedAt" FROM %q WHERE language = $1`, table)
}

func (PostgresAdapter) InsertQuery(table string) string {
	return fmt.Sprintf(`INSERT INTO %q (id, language, content, "createdAt", "updatedAt") VALUES ($1, $2, $3::jsonb, $4, $5)`, table)
}

func (PostgresAdapter) UpdateQuery(table string) string {
	return fmt.Sprintf(`UPDATE %q SET content = $1::jsonb, "updatedAt" = $2 WHERE language = $3`, table)
}

func (PostgresAdapter) LanguagesQuery(table string) string {
	return fmt.Sprintf(`SELECT language FROM %q ORDER BY language`, table)
}

func (PostgresAdapter) IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return xerrors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
