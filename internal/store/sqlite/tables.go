package sqlite

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/maloquacious/tablekit/internal/cursor"
	"github.com/maloquacious/tablekit/internal/dberrors"
	"github.com/maloquacious/tablekit/internal/health"
	"github.com/maloquacious/tablekit/internal/kvs"
	"github.com/maloquacious/tablekit/internal/store"
)

// columnDef is the stored form of a store.Column.
type columnDef struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

var sqlAffinity = map[cursor.Kind]string{
	cursor.KindInteger: "INTEGER",
	cursor.KindInt:     "INTEGER",
	cursor.KindBool:    "INTEGER",
	cursor.KindFloat:   "REAL",
	cursor.KindText:    "TEXT",
	cursor.KindList:    "TEXT",
	cursor.KindMap:     "TEXT",
}

func parseKind(name string) (cursor.Kind, bool) {
	for k := range sqlAffinity {
		if k.String() == name {
			return k, true
		}
	}
	return 0, false
}

// CreateDataTable creates a data table with the sync metadata columns and
// records its column list in the key-value store.
func (s *SQLiteStore) CreateDataTable(ctx context.Context, tableID string, columns []store.Column) error {
	if err := s.opened(); err != nil {
		return err
	}
	if !store.ValidIdentifier(tableID) {
		return fmt.Errorf("%w: invalid table id %q", dberrors.ErrInvalidArgument, tableID)
	}
	if err := s.checkWritable(tableID); err != nil {
		return fmt.Errorf("create table %s: %w", tableID, err)
	}

	defs := make([]columnDef, 0, len(columns))
	ddl := []string{
		fmt.Sprintf("%s TEXT PRIMARY KEY", store.ColID),
		fmt.Sprintf("%s TEXT NOT NULL DEFAULT '%s'", store.ColSyncState, store.SyncStateNewRow),
		fmt.Sprintf("%s INTEGER NULL", store.ColConflictType),
		fmt.Sprintf("%s TEXT NULL DEFAULT '%s'", store.ColSavepointType, store.SavepointComplete),
	}
	for _, c := range columns {
		affinity, ok := sqlAffinity[c.Kind]
		if !ok || !store.ValidIdentifier(c.Name) {
			return fmt.Errorf("%w: invalid column %q of kind %s", dberrors.ErrInvalidArgument, c.Name, c.Kind)
		}
		ddl = append(ddl, fmt.Sprintf("%q %s NULL", c.Name, affinity))
		defs = append(defs, columnDef{Name: c.Name, Kind: c.Kind.String()})
	}
	serialized, err := s.json.Marshal(defs)
	if err != nil {
		return fmt.Errorf("failed to encode column list: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %q (%s)", tableID, strings.Join(ddl, ", "))); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableID, err)
	}
	e := kvs.BuildEntry(tableID, partitionTable, aspectDefault, keyColumns, kvs.Array, string(serialized))
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO key_value_store (`+entryColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		e.TableID, e.Partition, e.Aspect, e.Key, e.Type, e.Value); err != nil {
		return fmt.Errorf("failed to record columns of %s: %w", tableID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	s.log.Info("sqlite: created data table", "table", tableID, "columns", len(columns))
	return nil
}

// columns loads the user column list of a data table.
func (s *SQLiteStore) columns(ctx context.Context, tableID string) (map[string]cursor.Kind, error) {
	e, err := s.GetEntry(ctx, tableID, partitionTable, aspectDefault, keyColumns)
	if err != nil {
		if errors.Is(err, dberrors.ErrNotFound) {
			return nil, fmt.Errorf("data table %s: %w", tableID, dberrors.ErrNotFound)
		}
		return nil, err
	}
	defs, _, err := kvs.GetArray[columnDef](s.reader, e)
	if err != nil {
		return nil, fmt.Errorf("column list of %s: %w", tableID, err)
	}
	kinds := make(map[string]cursor.Kind, len(defs))
	for _, d := range defs {
		k, ok := parseKind(d.Kind)
		if !ok {
			return nil, fmt.Errorf("%w: column %s of %s has unknown kind %q", dberrors.ErrIllegalState, d.Name, tableID, d.Kind)
		}
		kinds[d.Name] = k
	}
	return kinds, nil
}

var metadataColumns = []string{store.ColID, store.ColSyncState, store.ColConflictType, store.ColSavepointType}

// InsertRow adds a row. Metadata columns may be given explicitly; a missing
// _id is generated. List and map values that are not already strings are
// encoded with the store's codec.
func (s *SQLiteStore) InsertRow(ctx context.Context, tableID string, values map[string]any) (string, error) {
	if err := s.opened(); err != nil {
		return "", err
	}
	if err := s.checkWritable(tableID); err != nil {
		return "", fmt.Errorf("insert into %s: %w", tableID, err)
	}
	kinds, err := s.columns(ctx, tableID)
	if err != nil {
		return "", err
	}

	rowID, _ := values[store.ColID].(string)
	if rowID == "" {
		rowID = uuid.NewString()
	}
	names := []string{store.ColID}
	args := []any{rowID}
	for name, v := range values {
		if name == store.ColID {
			continue
		}
		kind, known := kinds[name]
		if !known && !slices.Contains(metadataColumns, name) {
			return "", fmt.Errorf("%w: table %s has no column %q", dberrors.ErrInvalidArgument, tableID, name)
		}
		if known && (kind == cursor.KindList || kind == cursor.KindMap) && v != nil {
			if _, isText := v.(string); !isText {
				b, err := s.json.Marshal(v)
				if err != nil {
					return "", fmt.Errorf("%w: column %s: %v", dberrors.ErrInvalidArgument, name, err)
				}
				v = string(b)
			}
		}
		names = append(names, fmt.Sprintf("%q", name))
		args = append(args, v)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ")
	query := fmt.Sprintf("INSERT INTO %q (%s) VALUES (%s)", tableID, strings.Join(names, ", "), placeholders)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to insert into %s: %w", tableID, err)
	}
	return rowID, nil
}

// ReadRow decodes one row; user columns decode to their declared kind,
// metadata columns to their storage type.
func (s *SQLiteStore) ReadRow(ctx context.Context, tableID, rowID string) (store.Row, error) {
	if err := s.opened(); err != nil {
		return nil, err
	}
	kinds, err := s.columns(ctx, tableID)
	if err != nil {
		return nil, err
	}
	sqlRows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT * FROM %q WHERE %s = ?", tableID, store.ColID), rowID)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", tableID, err)
	}
	rows, err := cursor.NewRows(sqlRows)
	if err != nil {
		sqlRows.Close()
		return nil, err
	}
	defer rows.Close()

	ok, err := rows.Next()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("row %s of %s: %w", rowID, tableID, dberrors.ErrNotFound)
	}

	row := make(store.Row, len(rows.Columns()))
	for i, name := range rows.Columns() {
		kind, known := kinds[name]
		if !known {
			if kind, err = cursor.DataType(rows, i); err != nil {
				return nil, fmt.Errorf("column %s: %w", name, err)
			}
		}
		v, err := s.decoder.Decode(rows, i, kind)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", name, err)
		}
		row[name] = v
	}
	return row, nil
}

// TableHealth scans the sync metadata of every row of a data table.
func (s *SQLiteStore) TableHealth(ctx context.Context, tableID string) (health.Health, error) {
	if err := s.opened(); err != nil {
		return health.Clean, err
	}
	if _, err := s.columns(ctx, tableID); err != nil {
		return health.Clean, err
	}
	sqlRows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT %s, %s, %s FROM %q",
		store.ColSyncState, store.ColConflictType, store.ColSavepointType, tableID))
	if err != nil {
		return health.Clean, fmt.Errorf("failed to query %s: %w", tableID, err)
	}
	rows, err := cursor.NewRows(sqlRows)
	if err != nil {
		sqlRows.Close()
		return health.Clean, err
	}
	defer rows.Close()

	h := health.Clean
	for {
		ok, err := rows.Next()
		if err != nil {
			return health.Clean, err
		}
		if !ok {
			return h, nil
		}
		state, _, err := s.decoder.DecodeString(rows, 0)
		if err != nil {
			return health.Clean, fmt.Errorf("%s: %w", store.ColSyncState, err)
		}
		conflict, err := s.decoder.Decode(rows, 1, cursor.KindInt)
		if err != nil {
			return health.Clean, fmt.Errorf("%s: %w", store.ColConflictType, err)
		}
		_, hasSavepoint, err := s.decoder.DecodeString(rows, 2)
		if err != nil {
			return health.Clean, fmt.Errorf("%s: %w", store.ColSavepointType, err)
		}

		if conflict != nil {
			h = health.SetHasConflicts(h)
		}
		// a row without a savepoint type is a checkpoint
		if !hasSavepoint {
			h = health.SetHasCheckpoints(h)
		}
		if state != store.SyncStateSynced {
			h = health.SetHasChanges(h)
		}
	}
}
