// Package store persists one translated document per language.
//
// Documents cross the store boundary in the ordered pairs encoding (see
// tree.MarshalPairs) wherever the backend does not preserve object key
// order. A missing record is reported as ErrNotFound; every connectivity
// or driver failure wraps ErrStoreUnavailable.
package store

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"golang.org/x/xerrors"

	"github.com/minios-linux/locsync/tree"
)

var log = logging.Logger("store")

var (
	// ErrNotFound means no record exists for the language.
	ErrNotFound = xerrors.New("translation record not found")
	// ErrStoreUnavailable wraps every backend failure.
	ErrStoreUnavailable = xerrors.New("store unavailable")
)

// DefaultTable is the table name used by the SQL and DynamoDB stores.
const DefaultTable = "Translation"

// Record is the persisted translation document of one language.
type Record struct {
	ID        string
	Language  string
	Document  *tree.Map
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store reads and writes translation records.
type Store interface {
	// Get returns the record of lang, or ErrNotFound.
	Get(ctx context.Context, lang string) (*Record, error)
	// Put creates or replaces the document of lang.
	Put(ctx context.Context, lang string, doc *tree.Map) error
	// Languages lists the stored languages, sorted.
	Languages(ctx context.Context) ([]string, error)
	Close() error
}

// NewID returns a fresh record ID ("cm" followed by 24 hex digits).
func NewID() string {
	return "cm" + strings.ReplaceAll(uuid.NewString(), "-", "")[:24]
}

// unavailable ties a backend error to ErrStoreUnavailable.
type unavailable struct {
	op  string
	err error
}

func (e *unavailable) Error() string {
	return "store " + e.op + ": " + e.err.Error()
}

func (e *unavailable) Unwrap() error { return e.err }

func (e *unavailable) Is(target error) bool { return target == ErrStoreUnavailable }

func wrapUnavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	if xerrors.Is(err, ErrStoreUnavailable) {
		return err
	}
	return &unavailable{op: op, err: err}
}

// decodeDocument reads a stored document. Pairs-encoded content is
// preferred; plain JSON objects written by other tools are accepted in
// their stored key order.
func decodeDocument(data []byte) (*tree.Map, error) {
	if m, err := tree.UnmarshalPairsMap(data); err == nil {
		return m, nil
	}
	m, err := tree.ParseJSON(data)
	if err != nil {
		return nil, xerrors.Errorf("decoding stored document: %w", err)
	}
	return m, nil
}

// ---------------------------------------------------------------------------
// Opening
// ---------------------------------------------------------------------------

// Driver names accepted by Open.
const (
	DriverPostgres = "postgres"
	DriverSqlite3  = "sqlite3"
	DriverDynamo   = "dynamo"
	DriverDir      = "dir"
	DriverMemory   = "memory"
)

// Config selects and configures a backend.
type Config struct {
	Driver string
	// DSN is the database connection string (postgres, sqlite3).
	DSN string
	// Dir is the directory of the dir store.
	Dir string
	// Table overrides DefaultTable (postgres, sqlite3, dynamo).
	Table string
	// Region and Endpoint configure the DynamoDB client.
	Region   string
	Endpoint string
}

// Open connects to the configured backend and prepares its schema.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverPostgres, DriverSqlite3:
		s, err := OpenSQL(ctx, cfg.Driver, cfg.DSN, cfg.Table)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureSchema(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	case DriverDynamo:
		return OpenDynamo(cfg.Region, cfg.Endpoint, cfg.Table)
	case DriverDir:
		return NewDir(cfg.Dir)
	case DriverMemory:
		return NewMemory(), nil
	case "":
		return nil, xerrors.New("no store driver configured")
	default:
		return nil, xerrors.Errorf("unknown store driver %q", cfg.Driver)
	}
}
