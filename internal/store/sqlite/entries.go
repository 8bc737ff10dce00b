package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/maloquacious/tablekit/internal/cursor"
	"github.com/maloquacious/tablekit/internal/dberrors"
	"github.com/maloquacious/tablekit/internal/kvs"
)

func (s *SQLiteStore) checkWritable(tableID string) error {
	if s.locked[tableID] {
		return dberrors.NotAuthorized(fmt.Sprintf("table %s is locked for modification", tableID))
	}
	return nil
}

// PutEntry inserts or replaces a key-value store entry.
func (s *SQLiteStore) PutEntry(ctx context.Context, e *kvs.Entry) error {
	if err := s.opened(); err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("%w: nil entry", dberrors.ErrInvalidArgument)
	}
	if _, err := kvs.ParseElementDataType(e.Type); err != nil {
		return fmt.Errorf("put entry %s: %w", e.Key, err)
	}
	if err := s.checkWritable(e.TableID); err != nil {
		return fmt.Errorf("put entry %s: %w", e.Key, err)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO key_value_store (_table_id, _partition, _aspect, _key, _type, _value) VALUES (?, ?, ?, ?, ?, ?)`,
		e.TableID, e.Partition, e.Aspect, e.Key, e.Type, e.Value)
	if err != nil {
		return fmt.Errorf("failed to put entry %s: %w", e.Key, err)
	}
	return nil
}

const entryColumns = `_table_id, _partition, _aspect, _key, _type, _value`

// scanEntries reads key-value rows through the cursor decoder.
func (s *SQLiteStore) scanEntries(sqlRows *sql.Rows) ([]*kvs.Entry, error) {
	rows, err := cursor.NewRows(sqlRows)
	if err != nil {
		sqlRows.Close()
		return nil, err
	}
	defer rows.Close()

	var entries []*kvs.Entry
	for {
		ok, err := rows.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return entries, nil
		}
		var parts [6]string
		for i := range parts {
			text, _, err := s.decoder.DecodeString(rows, i)
			if err != nil {
				return nil, fmt.Errorf("key_value_store column %s: %w", rows.Columns()[i], err)
			}
			parts[i] = text
		}
		if _, err := kvs.ParseElementDataType(parts[4]); err != nil {
			s.log.Warn("sqlite: entry with unknown type", "table", parts[0], "key", parts[3], "type", parts[4])
		}
		e := &kvs.Entry{TableID: parts[0], Partition: parts[1], Aspect: parts[2], Key: parts[3], Type: parts[4], Value: parts[5]}
		entries = append(entries, e)
	}
}

// GetEntry returns a single entry or an error wrapping dberrors.ErrNotFound.
func (s *SQLiteStore) GetEntry(ctx context.Context, tableID, partition, aspect, key string) (*kvs.Entry, error) {
	if err := s.opened(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM key_value_store WHERE _table_id = ? AND _partition = ? AND _aspect = ? AND _key = ?`,
		tableID, partition, aspect, key)
	if err != nil {
		return nil, fmt.Errorf("failed to query entry: %w", err)
	}
	entries, err := s.scanEntries(rows)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("entry %s/%s/%s/%s: %w", tableID, partition, aspect, key, dberrors.ErrNotFound)
	}
	return entries[0], nil
}

// ListEntries returns every entry of a table.
func (s *SQLiteStore) ListEntries(ctx context.Context, tableID string) ([]*kvs.Entry, error) {
	if err := s.opened(); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM key_value_store WHERE _table_id = ? ORDER BY _partition, _aspect, _key`, tableID)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return s.scanEntries(rows)
}

// DeleteEntry removes an entry.
func (s *SQLiteStore) DeleteEntry(ctx context.Context, tableID, partition, aspect, key string) error {
	if err := s.opened(); err != nil {
		return err
	}
	if err := s.checkWritable(tableID); err != nil {
		return fmt.Errorf("delete entry %s: %w", key, err)
	}
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM key_value_store WHERE _table_id = ? AND _partition = ? AND _aspect = ? AND _key = ?`,
		tableID, partition, aspect, key)
	if err != nil {
		return fmt.Errorf("failed to delete entry %s: %w", key, err)
	}
	return nil
}
