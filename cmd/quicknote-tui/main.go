package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MarcoPoloResearchLab/quicknote/internal/client"
	"github.com/MarcoPoloResearchLab/quicknote/internal/config"
	"github.com/MarcoPoloResearchLab/quicknote/internal/logging"
	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
	"github.com/MarcoPoloResearchLab/quicknote/internal/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile     string
	clientViper = config.NewClientViper()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quicknote-tui",
		Short: "Terminal client for QuickNote",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClient(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	defaults := config.NewClientViper()
	cmd.Flags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.Flags().String("api-base-url", defaults.GetString("api.base_url"), "QuickNote API base URL")
	cmd.Flags().String("api-token", "", "Session token (see quicknote-api token)")
	cmd.Flags().Int("api-timeout-seconds", defaults.GetInt("api.timeout_seconds"), "Request timeout in seconds")
	cmd.Flags().String("order-by", defaults.GetString("notes.order_by"), "Listing order (title, time, slug)")
	cmd.Flags().String("log-file", defaults.GetString("log.file"), "Log file path")
	cmd.Flags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")

	bindFlag(cmd, "api.base_url", "api-base-url")
	bindFlag(cmd, "api.token", "api-token")
	bindFlag(cmd, "api.timeout_seconds", "api-timeout-seconds")
	bindFlag(cmd, "notes.order_by", "order-by")
	bindFlag(cmd, "log.file", "log-file")
	bindFlag(cmd, "log.level", "log-level")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := clientViper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile == "" {
		return nil
	}
	clientViper.SetConfigFile(cfgFile)
	if err := clientViper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if errors.As(err, &configNotFound) {
			return fmt.Errorf("config file %s not found: %w", cfgFile, err)
		}
		return err
	}
	return nil
}

func runClient(ctx context.Context) error {
	clientConfig, err := config.LoadClient(clientViper)
	if err != nil {
		return err
	}
	orderBy, err := notes.ParseOrderField(clientConfig.OrderBy)
	if err != nil {
		return fmt.Errorf("notes.order_by: %w", err)
	}

	// The terminal is owned by the UI, so logs go to a file.
	logger, err := logging.NewFileLogger(clientConfig.LogFile, clientConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	api, err := client.New(client.Config{
		BaseURL: clientConfig.APIBaseURL,
		Token:   clientConfig.APIToken,
		Timeout: clientConfig.APITimeout,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("client starting", zap.String("api", clientConfig.APIBaseURL), zap.Bool("signed_in", clientConfig.APIToken != ""))
	return tui.Run(signalCtx, tui.Config{Backend: api, OrderBy: orderBy, Logger: logger})
}
