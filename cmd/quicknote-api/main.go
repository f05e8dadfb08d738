package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MarcoPoloResearchLab/quicknote/internal/auth"
	"github.com/MarcoPoloResearchLab/quicknote/internal/config"
	"github.com/MarcoPoloResearchLab/quicknote/internal/logging"
	quicknotemcp "github.com/MarcoPoloResearchLab/quicknote/internal/mcp"
	"github.com/MarcoPoloResearchLab/quicknote/internal/notes"
	"github.com/MarcoPoloResearchLab/quicknote/internal/server"
	"github.com/MarcoPoloResearchLab/quicknote/internal/slug"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quicknote-api",
		Short: "QuickNote notes service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)
	rootCmd.AddCommand(newTokenCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("store-driver", defaults.GetString("store.driver"), "Note store backend (sqlite, mongo)")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("mongo-uri", defaults.GetString("mongo.uri"), "MongoDB connection URI")
	cmd.PersistentFlags().String("mongo-database", defaults.GetString("mongo.database"), "MongoDB database name")
	cmd.PersistentFlags().String("notes-order", defaults.GetString("notes.default_order"), "Default listing order (title, time, slug)")
	cmd.PersistentFlags().String("google-client-id", defaults.GetString("google.client_id"), "Google OAuth client ID; empty disables sign-in")
	cmd.PersistentFlags().String("google-jwks-url", defaults.GetString("google.jwks_url"), "Google JWKS URL")
	cmd.PersistentFlags().Int("token-ttl-minutes", defaults.GetInt("auth.token_ttl_minutes"), "Session token TTL in minutes")
	cmd.PersistentFlags().Bool("mcp", defaults.GetBool("mcp.enabled"), "Serve MCP tools at /mcp")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "store.driver", "store-driver")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "mongo.uri", "mongo-uri")
	bindFlag(cmd, "mongo.database", "mongo-database")
	bindFlag(cmd, "notes.default_order", "notes-order")
	bindFlag(cmd, "google.client_id", "google-client-id")
	bindFlag(cmd, "google.jwks_url", "google-jwks-url")
	bindFlag(cmd, "auth.token_ttl_minutes", "token-ttl-minutes")
	bindFlag(cmd, "mcp.enabled", "mcp")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("quicknote")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

// watchLogLevel applies log.level edits in the config file without a restart.
func watchLogLevel(level zap.AtomicLevel, logger *zap.Logger) {
	if viper.ConfigFileUsed() == "" {
		return
	}
	viper.OnConfigChange(func(event fsnotify.Event) {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
			return
		}
		next := logging.ParseLevel(viper.GetString("log.level"))
		if next == level.Level() {
			return
		}
		level.SetLevel(next)
		logger.Info("log level changed", zap.String("file", event.Name), zap.Stringer("level", next))
	})
	viper.WatchConfig()
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, level, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck
	watchLogLevel(level, logger)

	notesOrder, err := notes.ParseOrderField(appConfig.NotesDefaultOrder)
	if err != nil {
		return fmt.Errorf("notes.default_order: %w", err)
	}

	store, closeStore, err := openStore(ctx, appConfig, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	notesService, err := notes.NewService(notes.ServiceConfig{
		Store:   store,
		Clock:   time.Now,
		Slugger: slug.NewGenerator(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	tokenIssuer, err := auth.NewTokenIssuer(auth.TokenIssuerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        appConfig.SessionIssuer,
		Audience:      appConfig.SessionAudience,
		TokenTTL:      appConfig.TokenTTL,
	})
	if err != nil {
		return err
	}
	sessionValidator, err := auth.NewSessionValidator(auth.SessionValidatorConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        appConfig.SessionIssuer,
		Audience:      appConfig.SessionAudience,
		CookieName:    appConfig.SessionCookieName,
	})
	if err != nil {
		return err
	}

	var googleVerifier server.GoogleVerifier
	if appConfig.GoogleClientID != "" {
		verifier, err := auth.NewGoogleVerifier(auth.GoogleVerifierConfig{
			Audience:       appConfig.GoogleClientID,
			JWKSURL:        appConfig.GoogleJWKSURL,
			AllowedIssuers: []string{"https://accounts.google.com", "accounts.google.com"},
			Logger:         logger,
		})
		if err != nil {
			return err
		}
		googleVerifier = verifier
	} else {
		logger.Warn("google.client_id not set; sign-in disabled")
	}

	realtime := server.NewRealtimeDispatcher()

	var mcpHandler http.Handler
	if appConfig.MCPEnabled {
		mcpServer, err := quicknotemcp.NewServer(quicknotemcp.Config{
			Service:   notesService,
			OnCreated: realtime.AnnounceNoteCreated,
			Logger:    logger,
		})
		if err != nil {
			return err
		}
		mcpHandler = quicknotemcp.NewHTTPHandler(mcpServer)
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		NotesService:     notesService,
		SessionValidator: sessionValidator,
		SessionIssuer:    tokenIssuer,
		GoogleVerifier:   googleVerifier,
		GoogleClientID:   appConfig.GoogleClientID,
		Realtime:         realtime,
		MCPHandler:       mcpHandler,
		AllowedOrigins:   appConfig.CORSAllowedOrigins,
		NotesOrder:       notesOrder,
		Logger:           logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              appConfig.HTTPAddress,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(signalCtx)
	group.Go(func() error {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("store", appConfig.StoreDriver),
			zap.Bool("mcp", appConfig.MCPEnabled))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("server shutting down")
		return httpServer.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
