package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/maloquacious/tablekit/internal/cursor"
	"github.com/maloquacious/tablekit/internal/dberrors"
	"github.com/maloquacious/tablekit/internal/health"
	"github.com/maloquacious/tablekit/internal/kvs"
	"github.com/maloquacious/tablekit/internal/store"
	"github.com/stretchr/testify/require"
)

const testSchema = "0.1"

func openStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()
	s := New(filepath.Join(t.TempDir(), store.DefaultDBFile), testSchema, opts...)
	require.NoError(t, s.Open())
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.InitSchema(testSchema))
	return s
}

func TestCheckState(t *testing.T) {
	path := filepath.Join(t.TempDir(), store.DefaultDBFile)

	s := New(path, testSchema)
	_, err := s.CheckState()
	require.ErrorIs(t, err, dberrors.ErrClosed)

	require.NoError(t, s.Open())
	defer s.Close()

	state, err := s.CheckState()
	require.NoError(t, err)
	require.Equal(t, store.StateUninitialized, state)

	require.NoError(t, s.InitSchema(testSchema))
	state, err = s.CheckState()
	require.NoError(t, err)
	require.Equal(t, store.StateReady, state)

	require.NoError(t, s.InitSchema("0.2"))
	version, err := s.GetSchemaVersion()
	require.NoError(t, err)
	require.Equal(t, "0.2", version)
	state, err = s.CheckState()
	require.NoError(t, err)
	require.Equal(t, store.StateVersionMismatch, state)
}

func TestEntries(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	entries := []*kvs.Entry{
		kvs.BuildEntry("census", "Table", "default", "displayName", kvs.String, `"Census"`),
		kvs.BuildEntry("census", "Column", "age", "min", kvs.Integer, "0"),
		kvs.BuildEntry("census", "Table", "default", "showMap", kvs.Bool, "TRUE"),
		kvs.BuildEntry("other", "Table", "default", "displayName", kvs.String, "x"),
	}
	for _, e := range entries {
		require.NoError(t, s.PutEntry(ctx, e))
	}

	got, err := s.GetEntry(ctx, "census", "Column", "age", "min")
	require.NoError(t, err)
	require.Equal(t, entries[1], got)
	n, ok, err := kvs.GetInteger(got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int32(0), n)

	// replace keeps the text exactly
	require.NoError(t, s.PutEntry(ctx, kvs.BuildEntry("census", "Column", "age", "min", kvs.Integer, "18")))
	got, err = s.GetEntry(ctx, "census", "Column", "age", "min")
	require.NoError(t, err)
	require.Equal(t, "18", got.Value)

	list, err := s.ListEntries(ctx, "census")
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.Equal(t, "min", list[0].Key)
	require.Equal(t, "displayName", list[1].Key)
	require.Equal(t, "showMap", list[2].Key)

	require.NoError(t, s.DeleteEntry(ctx, "census", "Column", "age", "min"))
	require.NoError(t, s.DeleteEntry(ctx, "census", "Column", "age", "min"))
	_, err = s.GetEntry(ctx, "census", "Column", "age", "min")
	require.ErrorIs(t, err, dberrors.ErrNotFound)

	err = s.PutEntry(ctx, &kvs.Entry{TableID: "census", Key: "k", Type: "float", Value: "1"})
	require.ErrorIs(t, err, dberrors.ErrInvalidArgument)
	require.ErrorIs(t, s.PutEntry(ctx, nil), dberrors.ErrInvalidArgument)
}

func TestLockedTables(t *testing.T) {
	ctx := context.Background()
	s := openStore(t, WithLockedTables("locked"))

	err := s.PutEntry(ctx, kvs.BuildEntry("locked", "Table", "default", "k", kvs.String, "v"))
	require.True(t, dberrors.IsNotAuthorized(err), "got %v", err)

	err = s.DeleteEntry(ctx, "locked", "Table", "default", "k")
	require.True(t, dberrors.IsNotAuthorized(err))

	err = s.CreateDataTable(ctx, "locked", nil)
	require.True(t, dberrors.IsNotAuthorized(err))

	_, err = s.InsertRow(ctx, "locked", map[string]any{})
	require.True(t, dberrors.IsNotAuthorized(err))

	require.NoError(t, s.PutEntry(ctx, kvs.BuildEntry("open", "Table", "default", "k", kvs.String, "v")))
}

func TestDataTableRows(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.NoError(t, s.CreateDataTable(ctx, "household", []store.Column{
		{Name: "head", Kind: cursor.KindText},
		{Name: "members", Kind: cursor.KindInteger},
		{Name: "income", Kind: cursor.KindFloat},
		{Name: "electrified", Kind: cursor.KindBool},
		{Name: "crops", Kind: cursor.KindList},
		{Name: "location", Kind: cursor.KindMap},
	}))

	// the column list is an array entry
	e, err := s.GetEntry(ctx, "household", "Table", "default", "columns")
	require.NoError(t, err)
	require.Equal(t, "array", e.Type)

	id, err := s.InsertRow(ctx, "household", map[string]any{
		"head":        "Amina",
		"members":     5,
		"income":      1200,
		"electrified": 1,
		"crops":       []string{"maize", "beans"},
		"location":    `{"lat": -1.5, "lng": 36.8}`,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	row, err := s.ReadRow(ctx, "household", id)
	require.NoError(t, err)
	require.Equal(t, cursor.Text("Amina"), row["head"])
	require.Equal(t, cursor.Integer(5), row["members"])
	require.Equal(t, cursor.Float(1200), row["income"])
	require.Equal(t, cursor.Bool(true), row["electrified"])
	require.Equal(t, cursor.List{"maize", "beans"}, row["crops"])
	require.Equal(t, cursor.Map{"lat": -1.5, "lng": 36.8}, row["location"])
	require.Equal(t, cursor.Text(id), row[store.ColID])
	require.Equal(t, cursor.Text(store.SyncStateNewRow), row[store.ColSyncState])
	require.Nil(t, row[store.ColConflictType])

	id2, err := s.InsertRow(ctx, "household", map[string]any{store.ColID: "fixed-id"})
	require.NoError(t, err)
	require.Equal(t, "fixed-id", id2)
	row, err = s.ReadRow(ctx, "household", id2)
	require.NoError(t, err)
	require.Nil(t, row["head"])
	require.Nil(t, row["crops"])

	_, err = s.ReadRow(ctx, "household", "nope")
	require.ErrorIs(t, err, dberrors.ErrNotFound)

	_, err = s.InsertRow(ctx, "household", map[string]any{"unknown": 1})
	require.ErrorIs(t, err, dberrors.ErrInvalidArgument)

	_, err = s.InsertRow(ctx, "missing", map[string]any{})
	require.ErrorIs(t, err, dberrors.ErrNotFound)
}

func TestCorruptListCell(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.CreateDataTable(ctx, "t1", []store.Column{{Name: "tags", Kind: cursor.KindList}}))

	id, err := s.InsertRow(ctx, "t1", map[string]any{"tags": "[unterminated"})
	require.NoError(t, err)

	_, err = s.ReadRow(ctx, "t1", id)
	require.ErrorIs(t, err, dberrors.ErrIllegalState)
}

func TestCreateDataTableValidation(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	require.ErrorIs(t, s.CreateDataTable(ctx, "bad name", nil), dberrors.ErrInvalidArgument)
	require.ErrorIs(t, s.CreateDataTable(ctx, "t1", []store.Column{{Name: "_x", Kind: cursor.KindText}}), dberrors.ErrInvalidArgument)
	require.ErrorIs(t, s.CreateDataTable(ctx, "t1", []store.Column{{Name: "x", Kind: cursor.Kind(99)}}), dberrors.ErrInvalidArgument)
	require.NoError(t, s.CreateDataTable(ctx, "t1", nil))
	require.Error(t, s.CreateDataTable(ctx, "t1", nil))
}

func TestTableHealth(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	require.NoError(t, s.CreateDataTable(ctx, "visits", []store.Column{{Name: "note", Kind: cursor.KindText}}))

	h, err := s.TableHealth(ctx, "visits")
	require.NoError(t, err)
	require.True(t, health.IsClean(h))

	_, err = s.InsertRow(ctx, "visits", map[string]any{store.ColSyncState: store.SyncStateSynced})
	require.NoError(t, err)
	h, err = s.TableHealth(ctx, "visits")
	require.NoError(t, err)
	require.Equal(t, health.Clean, h)

	_, err = s.InsertRow(ctx, "visits", map[string]any{"note": "draft"})
	require.NoError(t, err)
	h, err = s.TableHealth(ctx, "visits")
	require.NoError(t, err)
	require.Equal(t, health.HasChanges, h)

	_, err = s.InsertRow(ctx, "visits", map[string]any{
		store.ColSyncState:     store.SyncStateSynced,
		store.ColSavepointType: nil,
	})
	require.NoError(t, err)
	h, err = s.TableHealth(ctx, "visits")
	require.NoError(t, err)
	require.True(t, health.IsCheckpointed(h))
	require.False(t, health.IsConflicted(h))

	_, err = s.InsertRow(ctx, "visits", map[string]any{
		store.ColSyncState:    store.SyncStateInConflict,
		store.ColConflictType: 1,
	})
	require.NoError(t, err)
	h, err = s.TableHealth(ctx, "visits")
	require.NoError(t, err)
	require.Equal(t, health.Health(7), h)

	_, err = s.TableHealth(ctx, "missing")
	require.ErrorIs(t, err, dberrors.ErrNotFound)
}

func TestClosedStore(t *testing.T) {
	ctx := context.Background()
	s := New(filepath.Join(t.TempDir(), store.DefaultDBFile), testSchema)

	require.ErrorIs(t, s.PutEntry(ctx, kvs.BuildEntry("t", "p", "a", "k", kvs.String, "")), dberrors.ErrClosed)
	_, err := s.GetEntry(ctx, "t", "p", "a", "k")
	require.ErrorIs(t, err, dberrors.ErrClosed)
	_, err = s.TableHealth(ctx, "t")
	require.ErrorIs(t, err, dberrors.ErrClosed)
	require.NoError(t, s.Close())
}
