package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/maloquacious/tablekit/internal/admin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	var (
		shutdownTO time.Duration
		exitAfter  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the loopback-only admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(shutdownTO, exitAfter)
		},
	}
	cmd.Flags().Int("admin-port", 8383, "admin HTTP port (JSON, loopback only)")
	cmd.Flags().DurationVar(&shutdownTO, "shutdown-timeout", 15*time.Second, "graceful shutdown timeout")
	cmd.Flags().DurationVar(&exitAfter, "exit-after", 0, "optional runtime; if set, server exits after this duration (testing)")
	_ = viper.BindPFlag("admin.port", cmd.Flags().Lookup("admin-port"))
	return cmd
}

// runServe runs the admin server until interrupted, then shuts down gracefully.
func runServe(shutdownTO, exitAfter time.Duration) error {
	s, err := openStore()
	if err != nil {
		return err
	}
	defer s.Close()

	api := admin.New(s, admin.Info{
		Version:       version.String(),
		SchemaVersion: schemaVersion,
		BuildDate:     buildDate,
	}, log, registry)

	// Bind admin to 127.0.0.1 only (loopback enforcement)
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", cfg.Admin.Port))
	if err != nil {
		return fmt.Errorf("admin listener bind failed (loopback only): %w", err)
	}
	srv := &http.Server{
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if exitAfter > 0 {
		log.Info("exit-after timer set", "duration", exitAfter)
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, exitAfter)
		defer cancel()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("admin server listening (JSON-only)", "addr", listener.Addr().String())
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("admin server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		// graceful shutdown
	case err := <-errCh:
		log.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTO)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}
