package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

const (
	DefaultDBFile = "tablekit.db"
)

// Sync metadata columns present on every data table.
const (
	ColID            = "_id"
	ColSyncState     = "_sync_state"
	ColConflictType  = "_conflict_type"
	ColSavepointType = "_savepoint_type"
)

// Values of the _sync_state column.
const (
	SyncStateSynced        = "synced"
	SyncStateNewRow        = "new_row"
	SyncStateChanged       = "changed"
	SyncStateDeleted       = "deleted"
	SyncStateInConflict    = "in_conflict"
	SyncStateSyncedPending = "synced_pending_files"
)

// Values of the _savepoint_type column. A null savepoint type marks a checkpoint row.
const (
	SavepointComplete   = "COMPLETE"
	SavepointIncomplete = "INCOMPLETE"
)

var identRE = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name can be used as a table or column name.
// Names starting with an underscore are reserved for metadata columns.
func ValidIdentifier(name string) bool {
	return identRE.MatchString(name)
}

// CheckExists verifies if the datastore exists at the given path.
// Returns true if the store exists, false otherwise.
func CheckExists(storePath string) (bool, error) {
	dbPath := filepath.Join(storePath, DefaultDBFile)
	info, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check store existence: %w", err)
	}
	if info.IsDir() {
		return false, fmt.Errorf("datastore path is a directory, expected file: %s", dbPath)
	}
	return true, nil
}

// GetDBPath returns the full path to the database file.
func GetDBPath(storePath string) string {
	return filepath.Join(storePath, DefaultDBFile)
}
