package store

import (
	"context"

	"github.com/maloquacious/tablekit/internal/cursor"
	"github.com/maloquacious/tablekit/internal/health"
	"github.com/maloquacious/tablekit/internal/kvs"
)

// StoreState represents the initialization state of the datastore.
type StoreState int

const (
	StateMissing         StoreState = iota // File doesn't exist
	StateUninitialized                     // File exists but no schema
	StateVersionMismatch                   // Schema exists but wrong version
	StateReady                             // Initialized and correct version
)

func (s StoreState) String() string {
	switch s {
	case StateMissing:
		return "missing"
	case StateUninitialized:
		return "uninitialized"
	case StateVersionMismatch:
		return "version-mismatch"
	case StateReady:
		return "ready"
	}
	return "unknown"
}

// Row is one decoded data-table row keyed by column name. Null cells are nil.
type Row map[string]cursor.Value

// Store defines the tablekit datastore contract.
// Implementations must be safe for concurrent use.
type Store interface {
	// Open opens the datastore connection
	Open() error

	// Close closes the datastore connection
	Close() error

	// InitSchema creates the schema and records version
	InitSchema(version string) error

	// CheckState returns the current state of the datastore
	CheckState() (StoreState, error)

	// GetSchemaVersion returns the current schema version from the database
	GetSchemaVersion() (string, error)

	// PutEntry inserts or replaces a key-value store entry
	PutEntry(ctx context.Context, e *kvs.Entry) error

	// GetEntry returns the entry or an error wrapping dberrors.ErrNotFound
	GetEntry(ctx context.Context, tableID, partition, aspect, key string) (*kvs.Entry, error)

	// ListEntries returns every entry of a table, ordered by partition, aspect and key
	ListEntries(ctx context.Context, tableID string) ([]*kvs.Entry, error)

	// DeleteEntry removes an entry; deleting a missing entry is not an error
	DeleteEntry(ctx context.Context, tableID, partition, aspect, key string) error

	// CreateDataTable creates a user data table with the sync metadata columns
	CreateDataTable(ctx context.Context, tableID string, columns []Column) error

	// InsertRow adds a row to a data table and returns its row id
	InsertRow(ctx context.Context, tableID string, values map[string]any) (string, error)

	// ReadRow decodes one row of a data table
	ReadRow(ctx context.Context, tableID, rowID string) (Row, error)

	// TableHealth summarizes conflicts, checkpoints and pending changes of a data table
	TableHealth(ctx context.Context, tableID string) (health.Health, error)
}

// Column declares a user column of a data table.
type Column struct {
	Name string
	Kind cursor.Kind
}
