package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/xtding233/defuse-backend/internal/bridge"
	"github.com/xtding233/defuse-backend/internal/events"
	"github.com/xtding233/defuse-backend/internal/session"
)

func newSendCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Talk to a running server over the gRPC bridge",
	}
	cmd.PersistentFlags().StringVar(&addr, "addr", grpcAddr(), "bridge address")
	cmd.PersistentFlags().DurationVar(&timeout, "timeout", 5*time.Second, "per-call timeout")

	withClient := func(cmd *cobra.Command, fn func(context.Context, *bridge.Client) error) error {
		client, conn, err := bridge.Dial(addr)
		if err != nil {
			return err
		}
		defer conn.Close()
		ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
		defer cancel()
		return fn(ctx, client)
	}
	printJSON := func(cmd *cobra.Command, v any) error {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "arm",
			Short: "Arm the bomb",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(cmd, func(ctx context.Context, c *bridge.Client) error {
					snap, err := c.Arm(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd, snap)
				})
			},
		},
		&cobra.Command{
			Use:   "snapshot",
			Short: "Print the session state",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withClient(cmd, func(ctx context.Context, c *bridge.Client) error {
					snap, err := c.Snapshot(ctx)
					if err != nil {
						return err
					}
					return printJSON(cmd, snap)
				})
			},
		},
		&cobra.Command{
			Use:   "signal JSON",
			Short: "Submit one signal",
			Long: `Submit one signal, given as JSON.

Example: defuse send signal '{"kind":"key","key":"1"}'`,
			Args: cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var sig session.Signal
				if err := json.Unmarshal([]byte(args[0]), &sig); err != nil {
					return fmt.Errorf("parse signal: %w", err)
				}
				if err := sig.Validate(); err != nil {
					return err
				}
				return withClient(cmd, func(ctx context.Context, c *bridge.Client) error {
					return c.Send(ctx, sig)
				})
			},
		},
		&cobra.Command{
			Use:   "watch",
			Short: "Stream outbound events until interrupted",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				client, conn, err := bridge.Dial(addr)
				if err != nil {
					return err
				}
				defer conn.Close()
				return client.Watch(cmd.Context(), func(e events.Event) {
					_ = printJSON(cmd, e)
				})
			},
		},
	)
	return cmd
}
