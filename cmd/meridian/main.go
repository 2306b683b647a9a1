package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian-ads/meridian/internal/interfaces/cli/migrate"
	"github.com/meridian-ads/meridian/internal/interfaces/cli/server"
	"github.com/meridian-ads/meridian/internal/interfaces/cli/sync"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "meridian",
		Short: "Meridian - multi-tenant ads data platform",
		Long:  `Meridian ingests ad platform metrics and resolves ad creatives for multi-tenant reporting.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
		sync.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
