package main

import (
	"context"
	"fmt"
	"time"

	"github.com/maloquacious/tablekit/internal/license"
	"github.com/spf13/cobra"
)

func licenseCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "license",
		Short: "Print the bundled license",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			task := license.NewTask(nil, log)
			task.Start(context.Background())

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()
			select {
			case <-task.Done():
			case <-ctx.Done():
				task.Cancel()
			}
			o, _ := task.Result()
			if o.Cancelled {
				return fmt.Errorf("reading license timed out after %s", timeout)
			}
			if !o.OK {
				return fmt.Errorf("license text unavailable")
			}
			_, err := fmt.Fprint(cmd.OutOrStdout(), o.Text)
			return err
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "give up after this long")
	return cmd
}
