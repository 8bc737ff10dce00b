package sqlite

// initialSchema holds the version table and the key-value metadata store.
// Data tables are created on demand by CreateDataTable.
const initialSchema = `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version TEXT PRIMARY KEY,
    applied_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS key_value_store (
    _table_id  TEXT NOT NULL,
    _partition TEXT NOT NULL,
    _aspect    TEXT NOT NULL,
    _key       TEXT NOT NULL,
    _type      TEXT NOT NULL,
    _value     TEXT NOT NULL,
    PRIMARY KEY (_table_id, _partition, _aspect, _key)
);
`

// The column list of a data table is kept in the key-value store under these names.
const (
	partitionTable = "Table"
	aspectDefault  = "default"
	keyColumns     = "columns"
)
