package cursor

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/maloquacious/tablekit/internal/dberrors"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "cursor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE cells (
		id INTEGER PRIMARY KEY,
		name TEXT,
		score REAL,
		flag INTEGER,
		tags TEXT,
		raw BLOB
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO cells (id, name, score, flag, tags, raw) VALUES
		(1, 'alpha', 1, 1, '["a","b"]', x'0102'),
		(2, NULL, 2.5, 0, NULL, NULL)`)
	require.NoError(t, err)
	return db
}

func TestRows(t *testing.T) {
	db := openTestDB(t)
	sqlRows, err := db.Query(`SELECT id, name, score, flag, tags, raw FROM cells ORDER BY id`)
	require.NoError(t, err)

	rows, err := NewRows(sqlRows)
	require.NoError(t, err)
	defer rows.Close()

	require.Equal(t, []string{"id", "name", "score", "flag", "tags", "raw"}, rows.Columns())
	require.Equal(t, 4, rows.ColumnIndex("tags"))
	require.Equal(t, -1, rows.ColumnIndex("missing"))

	d := NewDecoder(nil, nil, nil)

	ok, err := rows.Next()
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, FieldInteger, rows.Type(0))
	require.Equal(t, FieldString, rows.Type(1))
	require.Equal(t, FieldFloat, rows.Type(2))
	require.Equal(t, FieldBlob, rows.Type(5))

	v, err := d.Decode(rows, rows.ColumnIndex("name"), KindText)
	require.NoError(t, err)
	require.Equal(t, Text("alpha"), v)

	v, err = d.Decode(rows, rows.ColumnIndex("flag"), KindBool)
	require.NoError(t, err)
	require.Equal(t, Bool(true), v)

	v, err = d.Decode(rows, rows.ColumnIndex("tags"), KindList)
	require.NoError(t, err)
	require.Equal(t, List{"a", "b"}, v)

	v, err = d.Decode(rows, rows.ColumnIndex("missing"), KindText)
	require.NoError(t, err)
	require.Nil(t, v)

	// REAL affinity stores 1 as 1.0
	s, ok, err := d.DecodeString(rows, rows.ColumnIndex("score"))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "1.0", s)

	s, _, err = d.DecodeString(rows, rows.ColumnIndex("id"))
	require.NoError(t, err)
	require.Equal(t, "1", s)

	_, _, err = d.DecodeString(rows, rows.ColumnIndex("raw"))
	require.ErrorIs(t, err, dberrors.ErrIllegalState)

	for _, kind := range []Kind{KindInteger, KindInt, KindFloat, KindText, KindBool, KindList, KindMap} {
		_, err = d.Decode(rows, rows.ColumnIndex("raw"), kind)
		require.ErrorIs(t, err, dberrors.ErrIllegalState, "kind %s", kind)
	}

	// typed text and display text agree on floats
	v, err = d.Decode(rows, rows.ColumnIndex("score"), KindText)
	require.NoError(t, err)
	require.Equal(t, Text("1.0"), v)

	ok, err = rows.Next()
	require.NoError(t, err)
	require.True(t, ok)

	require.True(t, rows.IsNull(1))
	v, err = d.Decode(rows, 1, KindMap)
	require.NoError(t, err)
	require.Nil(t, v)

	v, err = d.Decode(rows, rows.ColumnIndex("score"), KindFloat)
	require.NoError(t, err)
	require.Equal(t, Float(2.5), v)

	v, err = d.Decode(rows, rows.ColumnIndex("score"), KindInteger)
	require.NoError(t, err)
	require.Equal(t, Integer(2), v)

	ok, err = rows.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRowsTextCoercion(t *testing.T) {
	db := openTestDB(t)
	sqlRows, err := db.Query(`SELECT '12', ' 3.75 ', 'abc'`)
	require.NoError(t, err)
	rows, err := NewRows(sqlRows)
	require.NoError(t, err)
	defer rows.Close()

	ok, err := rows.Next()
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, int64(12), rows.Int64(0))
	require.Equal(t, 3.75, rows.Float64(1))
	require.Equal(t, int64(3), rows.Int64(1))
	require.Equal(t, int64(0), rows.Int64(2))
	require.Equal(t, 0.0, rows.Float64(2))
}

func TestRowsStringFormatsFloats(t *testing.T) {
	db := openTestDB(t)
	sqlRows, err := db.Query(`SELECT 1e21, 2.5`)
	require.NoError(t, err)
	rows, err := NewRows(sqlRows)
	require.NoError(t, err)
	defer rows.Close()

	ok, err := rows.Next()
	require.NoError(t, err)
	require.True(t, ok)

	d := NewDecoder(nil, nil, nil)
	for i := range rows.Columns() {
		text, err := d.Decode(rows, i, KindText)
		require.NoError(t, err)
		display, _, err := d.DecodeString(rows, i)
		require.NoError(t, err)
		require.Equal(t, Text(display), text)
	}
	require.Equal(t, "1.0E21", rows.String(0))
}
