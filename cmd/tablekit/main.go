package main

import (
	"fmt"
	"os"

	"github.com/maloquacious/semver"
	"github.com/maloquacious/tablekit/internal/config"
	"github.com/maloquacious/tablekit/internal/logger"
	"github.com/maloquacious/tablekit/internal/metrics"
	"github.com/maloquacious/tablekit/internal/store"
	"github.com/maloquacious/tablekit/internal/store/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	version       = semver.Version{Minor: 1, PreRelease: "alpha", Build: semver.Commit()}
	schemaVersion = "0.1"
	buildDate     = ""
)

var (
	cfgFile  string
	cfg      config.Config
	log      logger.Logger = logger.Default
	closeLog               = func() {}
	registry               = prometheus.NewRegistry()
	stats                  = metrics.New(registry)
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "tablekit",
		Short:         "Offline data-table store and key-value metadata tool",
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(viper.GetViper(), cfgFile)
			if err != nil {
				return err
			}
			log, closeLog = logger.New(logger.Options{Level: cfg.Log.Level, Writer: os.Stderr, SeqURL: cfg.Log.SeqURL})
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			closeLog()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./tablekit.yaml)")
	rootCmd.PersistentFlags().String("store", ".", "directory holding "+store.DefaultDBFile)
	rootCmd.PersistentFlags().String("log-level", "info", "debug, info, warn or error")
	rootCmd.PersistentFlags().String("format", "json", "output format: json, yaml or text")
	_ = viper.BindPFlag("store.path", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("output.format", rootCmd.PersistentFlags().Lookup("format"))

	rootCmd.AddCommand(serveCmd(), dbCmd(), kvsCmd(), tableCmd(), licenseCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// openStore opens the configured datastore and checks that it is initialized.
func openStore() (*sqlite.SQLiteStore, error) {
	exists, err := store.CheckExists(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("no datastore at %s, run 'tablekit db create'", store.GetDBPath(cfg.Store.Path))
	}
	s := newStore()
	if err := s.Open(); err != nil {
		return nil, err
	}
	state, err := s.CheckState()
	if err != nil {
		s.Close()
		return nil, err
	}
	if state != store.StateReady {
		s.Close()
		return nil, fmt.Errorf("datastore is %s (want schema %s)", state, schemaVersion)
	}
	return s, nil
}

func newStore() *sqlite.SQLiteStore {
	return sqlite.New(store.GetDBPath(cfg.Store.Path), schemaVersion,
		sqlite.WithLogger(log),
		sqlite.WithMetrics(stats),
		sqlite.WithLockedTables(cfg.Store.LockedTables...),
	)
}
