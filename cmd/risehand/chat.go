package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/rise-hand/internal/config"
	"github.com/DoyleJ11/rise-hand/internal/console"
)

func chatCommand(ctx context.Context, cfg *config.Config) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "print the room's announcements",
		RunE: func(cmd *cobra.Command, _ []string) error {
			chat := console.ChatClient{Base: cfg.Relay.URL, Room: cfg.Relay.Room}
			entries, err := chat.List(ctx, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%s  %s: %s\n", e.CreatedAt.Local().Format("15:04:05"), e.Speaker, e.Text)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "number of entries (relay default when 0)")
	return cmd
}
