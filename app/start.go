package app

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/catalog-admin/catalog-admin/internal/config"
	"github.com/catalog-admin/catalog-admin/internal/daemon"
	"github.com/catalog-admin/catalog-admin/internal/logger"
)

func init() { //nolint: gochecknoinits
	startCmd.Flags().String("config", "", "Path to the directory holding main.toml (default ./etc/)")
	startCmd.Flags().Bool("dev", false, "Enable dev mode")

	_ = viper.BindPFlag("config", startCmd.Flags().Lookup("config"))
	_ = viper.BindPFlag("dev", startCmd.Flags().Lookup("dev"))

	rootCmd.AddCommand(startCmd)
}

var (
	cfg config.Config

	startCmd = &cobra.Command{
		Use:   "start",
		Short: "Start the catalog-admin web service",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			var err error

			if cfg, err = config.ReadConfig(viper.GetString("config")); err != nil {
				return err
			}

			if viper.GetBool("dev") {
				cfg.DevMode = true
			}

			return logger.Init(cfg.Log)
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			d, err := daemon.New(&cfg)
			if err != nil {
				return err
			}

			return d.Start()
		},
	}
)
