package main

import (
	"fmt"
	"os"

	"github.com/maloquacious/tablekit/internal/store"
	"github.com/spf13/cobra"
)

func dbCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Create and initialize the datastore",
			Args:  cobra.NoArgs,
			RunE:  runDBCreate,
		},
		&cobra.Command{
			Use:   "upgrade",
			Short: "Record the current schema version on an older datastore",
			Args:  cobra.NoArgs,
			RunE:  runDBUpgrade,
		},
		&cobra.Command{
			Use:   "verify",
			Short: "Verify schema integrity and version",
			Args:  cobra.NoArgs,
			RunE:  runDBVerify,
		},
	)
	return cmd
}

func runDBCreate(cmd *cobra.Command, args []string) error {
	exists, err := store.CheckExists(cfg.Store.Path)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("datastore already exists at %s", store.GetDBPath(cfg.Store.Path))
	}
	if err := os.MkdirAll(cfg.Store.Path, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	s := newStore()
	if err := s.Open(); err != nil {
		return err
	}
	defer s.Close()
	if err := s.InitSchema(schemaVersion); err != nil {
		return err
	}
	log.Info("db create: initialized", "path", store.GetDBPath(cfg.Store.Path), "schema", schemaVersion)
	return nil
}

func runDBUpgrade(cmd *cobra.Command, args []string) error {
	s := newStore()
	if err := s.Open(); err != nil {
		return err
	}
	defer s.Close()

	state, err := s.CheckState()
	if err != nil {
		return err
	}
	switch state {
	case store.StateReady:
		log.Info("db upgrade: already at current schema", "schema", schemaVersion)
		return nil
	case store.StateVersionMismatch, store.StateUninitialized:
		// schema statements are idempotent
		if err := s.InitSchema(schemaVersion); err != nil {
			return err
		}
		log.Info("db upgrade: schema recorded", "schema", schemaVersion)
		return nil
	default:
		return fmt.Errorf("cannot upgrade datastore in state %s", state)
	}
}

func runDBVerify(cmd *cobra.Command, args []string) error {
	exists, err := store.CheckExists(cfg.Store.Path)
	if err != nil {
		return err
	}
	summary := map[string]string{
		"path":           store.GetDBPath(cfg.Store.Path),
		"expectedSchema": schemaVersion,
		"state":          store.StateMissing.String(),
	}
	if exists {
		s := newStore()
		if err := s.Open(); err != nil {
			return err
		}
		defer s.Close()
		state, err := s.CheckState()
		if err != nil {
			return err
		}
		current, err := s.GetSchemaVersion()
		if err != nil {
			return err
		}
		summary["state"] = state.String()
		summary["schema"] = current
	}
	return render(cmd.OutOrStdout(), summary)
}
