package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/dojo-starter/internal/api"
	"github.com/mcoot/dojo-starter/internal/config"
	"github.com/mcoot/dojo-starter/internal/factory"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the client daemon",
		Long: `Run the client daemon: the player store, the initialization flow and the local
JSON API the other commands talk to.

Settings come from starter.yaml (or --config) and STARTER_* environment variables.`,
		// the daemon does not talk to itself
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			daemonCfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runDaemon(ctx, daemonCfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (default ./starter.yaml)")

	return cmd
}

func runDaemon(ctx context.Context, daemonCfg *config.Config) error {
	level, err := config.ParseLevel(daemonCfg.Log.Level)
	if err != nil {
		return err
	}

	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	app, err := factory.New(ctx, factory.FromConfig(daemonCfg, logger))
	if err != nil {
		return fmt.Errorf("failed to create application: %w", err)
	}
	defer func() {
		if err := app.Close(); err != nil {
			logger.Warn("failed to close storage", slog.String("error", err.Error()))
		}
	}()

	// cancelled before the deferred Close so the store can flush
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("failed to start application: %w", err)
	}

	if daemonCfg.Wallet.AutoConnect {
		account, err := app.DefaultAccount()
		if err != nil {
			return fmt.Errorf("failed to load default account: %w", err)
		}
		app.Wallet.Connect(account)
	}

	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		TokenHash:      daemonCfg.API.TokenHash,
		Store:          app.Store,
		Initializer:    app.Initializer,
		Actions:        app.Actions,
		Wallet:         app.Wallet,
		DefaultAccount: app.DefaultAccount,
		Hub:            app.Hub,
		Chain:          app.Chain,
	})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = daemonCfg.API.Host
	serverConfig.Port = daemonCfg.API.Port
	server, err := api.Listen(router, serverConfig, logger)
	if err != nil {
		return err
	}

	logger.Info("daemon started",
		slog.String("addr", server.Addr()),
		slog.String("chain", daemonCfg.Chain.URL),
		slog.String("storage", daemonCfg.Storage.Type))

	return server.Run(ctx)
}
