package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/maloquacious/tablekit/internal/codec"
	"github.com/maloquacious/tablekit/internal/cursor"
	"github.com/maloquacious/tablekit/internal/dberrors"
	"github.com/maloquacious/tablekit/internal/kvs"
	"github.com/maloquacious/tablekit/internal/logger"
	"github.com/maloquacious/tablekit/internal/metrics"
	"github.com/maloquacious/tablekit/internal/store"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using modernc.org/sqlite.
type SQLiteStore struct {
	dbPath         string
	db             *sql.DB
	expectedSchema string

	log     logger.Logger
	json    codec.Codec
	decoder *cursor.Decoder
	reader  *kvs.Reader
	locked  map[string]bool
	metrics *metrics.Metrics
}

var _ store.Store = (*SQLiteStore)(nil)

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

func WithLogger(l logger.Logger) Option { return func(s *SQLiteStore) { s.log = l } }

func WithCodec(c codec.Codec) Option { return func(s *SQLiteStore) { s.json = c } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *SQLiteStore) { s.metrics = m } }

// WithLockedTables makes every write to the named tables fail with
// dberrors.ActionNotAuthorizedError.
func WithLockedTables(tableIDs ...string) Option {
	return func(s *SQLiteStore) {
		for _, id := range tableIDs {
			s.locked[id] = true
		}
	}
}

// New creates a new SQLiteStore.
func New(dbPath string, expectedSchema string, opts ...Option) *SQLiteStore {
	s := &SQLiteStore{
		dbPath:         dbPath,
		expectedSchema: expectedSchema,
		log:            logger.Discard,
		json:           codec.JSON{},
		locked:         map[string]bool{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.decoder = cursor.NewDecoder(s.json, s.log, s.metrics)
	s.reader = kvs.NewReader(s.json, s.log, s.metrics)
	return s
}

// Open opens the SQLite database with safe defaults.
func (s *SQLiteStore) Open() error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// Apply safe defaults
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return fmt.Errorf("failed to set pragma %q: %w", pragma, err)
		}
	}

	s.db = db
	s.log.Debug("sqlite: opened", "path", s.dbPath)
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		err := s.db.Close()
		s.db = nil
		return err
	}
	return nil
}

func (s *SQLiteStore) opened() error {
	if s.db == nil {
		return fmt.Errorf("database not opened: %w", dberrors.ErrClosed)
	}
	return nil
}

// InitSchema creates the initial schema and records version.
func (s *SQLiteStore) InitSchema(version string) error {
	if err := s.opened(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(initialSchema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	_, err = tx.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, strftime('%s', 'now'))`, version)
	if err != nil {
		return fmt.Errorf("failed to insert schema version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// CheckState returns the current state of the datastore.
func (s *SQLiteStore) CheckState() (store.StoreState, error) {
	if err := s.opened(); err != nil {
		return store.StateMissing, err
	}

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_migrations'`).Scan(&count)
	if err != nil {
		return store.StateUninitialized, fmt.Errorf("failed to check schema_migrations table: %w", err)
	}

	if count == 0 {
		return store.StateUninitialized, nil
	}

	version, err := s.GetSchemaVersion()
	if err != nil {
		return store.StateUninitialized, fmt.Errorf("failed to get schema version: %w", err)
	}

	if version != s.expectedSchema {
		return store.StateVersionMismatch, nil
	}

	return store.StateReady, nil
}

// GetSchemaVersion returns the current schema version from the database.
func (s *SQLiteStore) GetSchemaVersion() (string, error) {
	if err := s.opened(); err != nil {
		return "", err
	}

	var version string
	err := s.db.QueryRow(`SELECT version FROM schema_migrations ORDER BY applied_at DESC, rowid DESC LIMIT 1`).Scan(&version)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query schema version: %w", err)
	}

	return version, nil
}
