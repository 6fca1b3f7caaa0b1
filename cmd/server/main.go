package main

import (
	"fmt"
	"os"

	"github.com/blues/cfledger/internal/config"
	"github.com/blues/cfledger/internal/logger"
	"github.com/blues/cfledger/internal/repository"
	"github.com/spf13/cobra"
)

var (
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cfledger",
	Short: "Crowdfunding escrow ledger service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// 加载配置
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		if err := logger.Setup(loaded.Log); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = loaded
		return nil
	},
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the ledger HTTP API and event relay",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), cfg)
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the projection tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := repository.Init(cfg.Database); err != nil {
			return err
		}
		logger.Info("Database migrated (%s)", cfg.Database.Driver)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: ./config.yaml)")
	rootCmd.AddCommand(serveCmd, migrateCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
