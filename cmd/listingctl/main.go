package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/property-listing-api/cmd/listingctl/command"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	cmd := &cobra.Command{
		Use:   "listingctl",
		Short: "Property listing operator CLI",
		Long:  `listingctl mints operator tokens and runs the scheduled listing jobs by hand.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(command.TokenCommand())
	cmd.AddCommand(command.DigestCommand())
	cmd.AddCommand(command.SweepCommand())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
