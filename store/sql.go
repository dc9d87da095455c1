package store

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/jmoiron/sqlx"
	"golang.org/x/xerrors"

	"github.com/minios-linux/locsync/tree"
)

// Adapter provides database-driver-specific query strings.
type Adapter interface {
	// DriverName is the database/sql driver to open.
	DriverName() string
	PostCreate(*sqlx.DB) error
	CreateTableQuery(table string) string
	GetQuery(table string) string
	InsertQuery(table string) string
	UpdateQuery(table string) string
	LanguagesQuery(table string) string
	// IsUniqueViolation reports whether err is a unique constraint failure.
	IsUniqueViolation(err error) bool
}

func newAdapter(driver string) (Adapter, error) {
	switch driver {
	case DriverPostgres:
		return PostgresAdapter{}, nil
	case DriverSqlite3:
		return Sqlite3Adapter{}, nil
	}
	return nil, xerrors.Errorf("no adapter available for database driver '%v'", driver)
}

// SQL stores one row per language in a "Translation" table.
type SQL struct {
	adapter Adapter
	db      *sqlx.DB
	table   string
}

type row struct {
	ID        string       `db:"id"`
	Language  string       `db:"language"`
	Content   []byte       `db:"content"`
	CreatedAt sql.NullTime `db:"createdAt"`
	UpdatedAt sql.NullTime `db:"updatedAt"`
}

// OpenSQL connects to the database and returns a store on table (or
// DefaultTable when empty).
func OpenSQL(ctx context.Context, driver, dsn, table string) (*SQL, error) {
	adp, err := newAdapter(driver)
	if err != nil {
		return nil, err
	}
	db, err := sqlx.ConnectContext(ctx, adp.DriverName(), dsn)
	if err != nil {
		return nil, wrapUnavailable("connect", err)
	}
	s, err := NewSQL(db, driver, table)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQL creates a store on an open connection. The driver parameter
// selects the database adapter and should be one of the Driver* constants.
func NewSQL(db *sqlx.DB, driver, table string) (*SQL, error) {
	adp, err := newAdapter(driver)
	if err != nil {
		return nil, err
	}
	if table == "" {
		table = DefaultTable
	}
	if err := adp.PostCreate(db); err != nil {
		return nil, wrapUnavailable("configure", err)
	}
	return &SQL{adapter: adp, db: db, table: table}, nil
}

// EnsureSchema creates the table if it does not exist.
func (s *SQL) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, s.adapter.CreateTableQuery(s.table)); err != nil {
		return wrapUnavailable("create table", err)
	}
	return nil
}

// Get implements Store.
func (s *SQL) Get(ctx context.Context, lang string) (*Record, error) {
	var r row
	err := s.db.GetContext(ctx, &r, s.adapter.GetQuery(s.table), lang)
	if err != nil {
		if xerrors.Is(err, sql.ErrNoRows) {
			return nil, xerrors.Errorf("language %q: %w", lang, ErrNotFound)
		}
		return nil, wrapUnavailable("get "+lang, err)
	}

	doc, err := decodeDocument(r.Content)
	if err != nil {
		return nil, wrapUnavailable("get "+lang, err)
	}
	return &Record{
		ID:        r.ID,
		Language:  r.Language,
		Document:  doc,
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}, nil
}

// Put implements Store. An existing row is updated in place; otherwise a
// row is inserted, falling back to an update if another writer inserted
// the language first.
func (s *SQL) Put(ctx context.Context, lang string, doc *tree.Map) error {
	content, err := tree.MarshalPairs(doc)
	if err != nil {
		return xerrors.Errorf("encoding document for %s: %w", lang, err)
	}
	now := time.Now().UTC()

	updated, err := s.update(ctx, lang, content, now)
	if err != nil {
		return err
	}
	if updated {
		return nil
	}

	_, err = s.db.ExecContext(ctx, s.adapter.InsertQuery(s.table), NewID(), lang, string(content), now, now)
	if err == nil {
		log.Debugw("created record", "lang", lang)
		return nil
	}
	if !s.adapter.IsUniqueViolation(err) {
		return wrapUnavailable("insert "+lang, err)
	}

	log.Debugw("concurrent insert, updating instead", "lang", lang)
	if _, err := s.update(ctx, lang, content, now); err != nil {
		return err
	}
	return nil
}

func (s *SQL) update(ctx context.Context, lang string, content []byte, now time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, s.adapter.UpdateQuery(s.table), string(content), now, lang)
	if err != nil {
		return false, wrapUnavailable("update "+lang, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrapUnavailable("update "+lang, err)
	}
	return n > 0, nil
}

// Languages implements Store.
func (s *SQL) Languages(ctx context.Context) ([]string, error) {
	var langs []string
	if err := s.db.SelectContext(ctx, &langs, s.adapter.LanguagesQuery(s.table)); err != nil {
		return nil, wrapUnavailable("list languages", err)
	}
	return langs, nil
}

// Close implements Store.
func (s *SQL) Close() error {
	return s.db.Close()
}
