package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/maloquacious/tablekit/internal/cursor"
	"github.com/maloquacious/tablekit/internal/store"
	"github.com/spf13/cobra"
)

func tableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Manage data tables",
	}

	create := &cobra.Command{
		Use:   "create TABLE [NAME:KIND ...]",
		Short: "Create a data table; kinds are integer, int, float, text, bool, list, map",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			columns, err := parseColumns(args[1:])
			if err != nil {
				return err
			}
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			return s.CreateDataTable(context.Background(), args[0], columns)
		},
	}

	insert := &cobra.Command{
		Use:   "insert TABLE JSON",
		Short: "Insert a row given as a JSON object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var values map[string]any
			if err := json.Unmarshal([]byte(args[1]), &values); err != nil {
				return fmt.Errorf("row must be a JSON object: %w", err)
			}
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			id, err := s.InsertRow(context.Background(), args[0], values)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), map[string]string{store.ColID: id})
		},
	}

	read := &cobra.Command{
		Use:   "read TABLE ROWID",
		Short: "Print one row, decoded by column kind",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			row, err := s.ReadRow(context.Background(), args[0], args[1])
			if err != nil {
				return err
			}
			out := make(map[string]any, len(row))
			for name, v := range row {
				out[name] = cursor.Any(v)
			}
			return render(cmd.OutOrStdout(), out)
		},
	}

	health := &cobra.Command{
		Use:   "health TABLE",
		Short: "Report conflicts, checkpoints and pending changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			h, err := s.TableHealth(context.Background(), args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), map[string]any{"table": args[0], "health": int(h), "flags": h.String()})
		},
	}

	cmd.AddCommand(create, insert, read, health)
	return cmd
}

var kindsByName = map[string]cursor.Kind{
	cursor.KindInteger.String(): cursor.KindInteger,
	cursor.KindInt.String():     cursor.KindInt,
	cursor.KindFloat.String():   cursor.KindFloat,
	cursor.KindText.String():    cursor.KindText,
	cursor.KindBool.String():    cursor.KindBool,
	cursor.KindList.String():    cursor.KindList,
	cursor.KindMap.String():     cursor.KindMap,
}

func parseColumns(specs []string) ([]store.Column, error) {
	columns := make([]store.Column, 0, len(specs))
	for _, spec := range specs {
		name, kindName, ok := strings.Cut(spec, ":")
		if !ok {
			kindName = "text"
		}
		kind, known := kindsByName[kindName]
		if !known {
			return nil, fmt.Errorf("column %q: unknown kind %q", name, kindName)
		}
		columns = append(columns, store.Column{Name: name, Kind: kind})
	}
	return columns, nil
}
