package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/DevinWangGZ/DevTeamResourceManager/cmd/api/commands"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "devteam",
		Short: "DevTeam Resource Manager API server",
		Long:  `DevTeam Resource Manager is a team and task management backend with work-day-aware scheduling, workload statistics and project output value tracking.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
