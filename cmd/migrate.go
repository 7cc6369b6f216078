package cmd

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	config "task-manager.com/task-manager/internal/configs"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			log.Println(".env file not found, using environment variables")
		}

		cfg := config.Load()
		database := config.NewDatabaseClient(cfg.DatabaseDSN, cfg.DatabaseLogLevel)

		if err := config.Migrate(database); err != nil {
			return err
		}

		log.Printf("database %s migrated", cfg.DatabaseDSN)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
