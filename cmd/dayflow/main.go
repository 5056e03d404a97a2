package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/dayflow/core/cmd/dayflow/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dayflow",
		Short: "Dayflow personal task and habit tracker",
		Long:  `Dayflow is a personal task and habit tracker that keeps all data in a local embedded database and can synchronize a full snapshot with a shared cloud file.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewSyncCommand())
	rootCmd.AddCommand(commands.NewBackupCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
