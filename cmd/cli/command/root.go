package command

// root.go defines the root command for yamdbctl and the config/database
// plumbing shared by its subcommands.

import (
	"fmt"
	"os"

	"yamdb/database"
	"yamdb/internal/config"
	"yamdb/pkg/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var cfg *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "yamdbctl",
	Short: "yamdbctl - YaMDb administration tool",
	Long: `yamdbctl manages a YaMDb deployment. It reads the same environment
(and .env file) as the API server and can:
- apply database migrations
- create a superuser and print its confirmation code
- import the CSV fixture set
- check the configuration

Use "yamdbctl [command] --help" to see the options of a command.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		logger.Init(cfg.GoEnv, cfg.LogLevel, cfg.LogFormat)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err) // Print error to standard error
		os.Exit(1)
	}
}

// openDB connects with the loaded config and makes sure the schema exists.
func openDB() (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		database.Close(db)
		return nil, err
	}
	return db, nil
}
