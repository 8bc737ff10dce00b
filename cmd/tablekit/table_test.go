package main

import (
	"bytes"
	"testing"

	"github.com/maloquacious/tablekit/internal/cursor"
	"github.com/maloquacious/tablekit/internal/kvs"
	"github.com/maloquacious/tablekit/internal/store"
	"github.com/stretchr/testify/require"
)

func TestParseColumns(t *testing.T) {
	cols, err := parseColumns([]string{"name", "age:integer", "tags:list", "geo:map"})
	require.NoError(t, err)
	require.Equal(t, []store.Column{
		{Name: "name", Kind: cursor.KindText},
		{Name: "age", Kind: cursor.KindInteger},
		{Name: "tags", Kind: cursor.KindList},
		{Name: "geo", Kind: cursor.KindMap},
	}, cols)

	_, err = parseColumns([]string{"x:decimal"})
	require.Error(t, err)
}

func TestDecodeEntry(t *testing.T) {
	v, err := decodeEntry(kvs.BuildEntry("t1", "p", "a", "k", kvs.Integer, "42"), kvs.Integer)
	require.NoError(t, err)
	require.Equal(t, int32(42), v)

	_, err = decodeEntry(kvs.BuildEntry("t1", "p", "a", "k", kvs.Integer, "42"), kvs.Number)
	require.Error(t, err)

	v, err = decodeEntry(kvs.BuildEntry("t1", "p", "a", "k", kvs.Array, `[1,"a"]`), kvs.Array)
	require.NoError(t, err)
	require.Equal(t, []any{float64(1), "a"}, v)
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer

	cfg.Output.Format = "yaml"
	require.NoError(t, render(&buf, map[string]string{"state": "ready"}))
	require.Equal(t, "state: ready\n", buf.String())

	buf.Reset()
	cfg.Output.Format = "json"
	require.NoError(t, render(&buf, map[string]int{"health": 4}))
	require.JSONEq(t, `{"health":4}`, buf.String())
}
