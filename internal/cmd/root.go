package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Trustflow-Network-Labs/farepay/internal/utils"
)

var (
	configPath  string
	envFile     string
	logLevel    string
	autoApprove bool
	config      *utils.ConfigManager
	logger      *utils.LogsManager
)

var rootCmd = &cobra.Command{
	Use:   "farepay",
	Short: "Peer-to-peer fare payments in Celo stablecoins",
	Long: `farepay lets a driver request a fare and a passenger pay it in a Celo
stablecoin (cUSD, cEUR, cREAL) on the Celo Alfajores testnet.

Keys live in a local encrypted keystore. Connecting, switching network and
signing each ask for your approval in the terminal unless --yes is given.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load %s: %w", envFile, err)
		}

		var err error
		config, err = utils.NewConfigManager(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err = utils.NewLogsManager(config)
		if err != nil {
			return fmt.Errorf("failed to open log: %w", err)
		}
		if err := applyLogLevel(logger, logLevel); err != nil {
			return err
		}
		logger.Debug(fmt.Sprintf("Running %s", cmd.CommandPath()), "cli")

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			logger.Close()
		}
	},
}

// applyLogLevel overrides the configured level; empty keeps it.
func applyLogLevel(lm *utils.LogsManager, level string) error {
	if level == "" {
		return nil
	}
	return lm.SetLogLevel(level)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&autoApprove, "yes", "y", false, "approve every wallet request without prompting")
}
