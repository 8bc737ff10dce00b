package main

import (
	"context"
	"fmt"

	"github.com/maloquacious/tablekit/internal/kvs"
	"github.com/spf13/cobra"
)

func kvsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kvs",
		Short: "Read and write key-value store entries",
	}

	put := &cobra.Command{
		Use:   "put TABLE PARTITION ASPECT KEY TYPE VALUE",
		Short: "Insert or replace an entry",
		Args:  cobra.ExactArgs(6),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := kvs.ParseElementDataType(args[4])
			if err != nil {
				return err
			}
			e := kvs.BuildEntry(args[0], args[1], args[2], args[3], typ, args[5])
			// reject values the getters could not read back
			if _, err := decodeEntry(e, typ); err != nil {
				return err
			}
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			return s.PutEntry(context.Background(), e)
		},
	}

	var as string
	get := &cobra.Command{
		Use:   "get TABLE PARTITION ASPECT KEY",
		Short: "Print an entry, decoded by its type",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			e, err := s.GetEntry(context.Background(), args[0], args[1], args[2], args[3])
			if err != nil {
				return err
			}
			typ := kvs.ElementDataType(e.Type)
			if as != "" {
				if typ, err = kvs.ParseElementDataType(as); err != nil {
					return err
				}
			}
			v, err := decodeEntry(e, typ)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), v)
		},
	}
	get.Flags().StringVar(&as, "as", "", "decode as this type instead of the stored one")

	list := &cobra.Command{
		Use:   "list TABLE",
		Short: "List the entries of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			entries, err := s.ListEntries(context.Background(), args[0])
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), entries)
		},
	}

	del := &cobra.Command{
		Use:   "delete TABLE PARTITION ASPECT KEY",
		Short: "Remove an entry",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openStore()
			if err != nil {
				return err
			}
			defer s.Close()
			return s.DeleteEntry(context.Background(), args[0], args[1], args[2], args[3])
		},
	}

	cmd.AddCommand(put, get, list, del)
	return cmd
}

// decodeEntry runs the getter for typ. Arrays decode to generic JSON values.
func decodeEntry(e *kvs.Entry, typ kvs.ElementDataType) (any, error) {
	switch typ {
	case kvs.Number:
		v, _, err := kvs.GetNumber(e)
		return v, err
	case kvs.Integer:
		v, _, err := kvs.GetInteger(e)
		return v, err
	case kvs.Bool:
		v, _, err := kvs.GetBoolean(e)
		return v, err
	case kvs.String:
		v, _ := kvs.GetString(e)
		return v, nil
	case kvs.Array:
		v, _, err := kvs.GetArray[any](kvs.NewReader(nil, log, stats), e)
		return v, err
	case kvs.Object:
		v, _, err := kvs.GetObject(e)
		return v, err
	}
	return nil, fmt.Errorf("unsupported type %q", typ)
}
