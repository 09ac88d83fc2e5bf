package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/haanna/anna/internal/logging"
	"github.com/haanna/anna/internal/verify"
	"github.com/haanna/anna/internal/watch"
	"github.com/haanna/anna/pkg/anna"
)

var watchInterval time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "Time between refreshes (default from preferences, 30s)")
	rootCmd.AddCommand(watchCmd)
}

// watchCmd shows a live, refreshing status view
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show a live thermostat view",
	Long: `Show the thermostat state and refresh it periodically.

Keys: r refreshes now, + and - move the target temperature by 0.5 °C,
? toggles help, q quits.`,
	Example: `  anna watch
  anna watch --gateway living --interval 10s`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

// setTarget writes a setpoint from the watch view and checks the endpoint once
func setTarget(client *anna.Client, label string) watch.AdjusterFunc {
	return func(ctx context.Context, temperature float64) error {
		doc, err := client.DomainObjects(ctx)
		if err != nil {
			return err
		}
		req, err := anna.BuildSetTemperatureRequest(doc, temperature)
		if err != nil {
			return err
		}
		_, err = client.Submit(ctx, req)
		logging.LogCommand(label, req.String(), err)
		if err != nil {
			return err
		}

		opts := &verify.Options{MaxRetries: 0, InitialDelay: 500 * time.Millisecond}
		result := verify.Run(ctx, client, label, opts, verify.Endpoint(req))
		if !result.Success {
			return result.Error
		}
		return nil
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	client, t, err := connect(cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	interval := watchInterval
	if interval <= 0 {
		interval = seconds(loadRegistry().Preferences.PollInterval, 30*time.Second)
	}

	m := watch.New(t.label(), client, interval,
		watch.WithAdjuster(setTarget(client, t.label())),
		watch.WithTimeout(client.Config().Timeout),
	)
	if err := watch.Run(cmd.Context(), m); err != nil && cmd.Context().Err() == nil {
		return err
	}
	markSeen(t)
	return nil
}
