// Package app implements the main application commands.
package app

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix for environment variables bound through viper.
const EnvPrefix = "CATALOG_ADMIN"

var rootCmd = &cobra.Command{
	Use:   "catalog-admin",
	Short: "catalog-admin is a REST backend for managing a school catalog",
	Long: `catalog-admin is a REST backend for managing categories, products,
subjects and teachers with JWT authentication and role based permissions.`,
	Args: cobra.OnlyValidArgs,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// a missing .env file is fine, everything can come from the real environment
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}

		viper.SetEnvPrefix(EnvPrefix)
		viper.AutomaticEnv()

		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
