package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	appLogger "github.com/FACorreiaa/nizhal-navigator/app/logger"
	"github.com/FACorreiaa/nizhal-navigator/config"
)

var (
	envFile string
	cfg     config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "nizhal",
	Short:        "Nizhal, a tourism chat assistant with a sarcastic streak",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && cmd.Flags().Changed("env-file") {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}

		var err error
		cfg, err = config.InitConfig()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		env := os.Getenv("APP_ENV")
		if env == "" {
			env = cfg.Mode
		}
		logger = appLogger.New(os.Stderr, env)
		slog.SetDefault(logger)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a dotenv file with credentials")
}

func Execute() error {
	return rootCmd.Execute()
}
