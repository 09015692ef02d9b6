package main

import (
	"os"

	"github.com/spf13/cobra"

	"settlo/internal/interfaces/cli/migrate"
	"settlo/internal/interfaces/cli/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "settlo",
		Short: "Settlo - stablecoin payment attribution and settlement service",
		Long:  `Settlo sells digital services against on-chain stablecoin transfers, attributing memo-less payments by amount suffix and settling orders from signed webhook notifications.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
