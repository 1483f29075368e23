package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DoyleJ11/rise-hand/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           "risehand",
		Short:         "Raise-hand queue for tabletop sessions",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	f := root.PersistentFlags()
	f.StringVar(&cfg.Identity.UserID, "user", cfg.Identity.UserID, "your user id")
	f.StringVar(&cfg.Identity.UserName, "name", cfg.Identity.UserName, "display name")
	f.BoolVar(&cfg.Identity.Moderator, "gm", cfg.Identity.Moderator, "join as game master")
	f.StringVar(&cfg.Relay.Room, "room", cfg.Relay.Room, "session room code")
	f.StringVar(&cfg.Relay.URL, "relay", cfg.Relay.URL, "relay base url")
	f.StringVar(&cfg.Transport, "transport", cfg.Transport, "websocket, redis or memory")
	f.StringVar(&cfg.Language, "lang", cfg.Language, "language for messages")

	root.AddCommand(
		joinCommand(ctx, cfg),
		chatCommand(ctx, cfg),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "risehand:", err)
		os.Exit(1)
	}
}
