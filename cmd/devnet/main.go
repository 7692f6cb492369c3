package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/mcoot/dojo-starter/internal/api"
	"github.com/mcoot/dojo-starter/internal/config"
	"github.com/mcoot/dojo-starter/internal/dependencies/clock"
	"github.com/mcoot/dojo-starter/internal/dependencies/random"
	"github.com/mcoot/dojo-starter/internal/devnet"
	"github.com/mcoot/dojo-starter/internal/factory"
	redisstorage "github.com/mcoot/dojo-starter/internal/storage/redis"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Build storage config from environment
	cfg := factory.Config{
		Logger:      logger,
		StorageType: os.Getenv("STORAGE_TYPE"),
		SQLitePath:  os.Getenv("SQLITE_PATH"),
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == config.StorageRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := factory.NewStorage(ctx, cfg)
	if err != nil {
		logger.Error("failed to open storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	namespace := getEnvOrDefault("DEVNET_NAMESPACE", "dojo_starter")
	world := devnet.NewWorld(store, clock.New(), random.New(), namespace, logger)
	router := devnet.NewRouter(devnet.RouterConfig{Logger: logger, World: world})

	serverConfig := api.DefaultServerConfig()
	serverConfig.Host = getEnvOrDefault("DEVNET_HOST", serverConfig.Host)
	serverConfig.Port = 5050
	if port := os.Getenv("DEVNET_PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			logger.Error("invalid DEVNET_PORT", slog.String("value", port))
			os.Exit(1)
		}
		serverConfig.Port = p
	}

	server, err := api.Listen(router, serverConfig, logger)
	if err != nil {
		logger.Error("failed to listen", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("devnet started",
		slog.String("addr", server.Addr()),
		slog.String("namespace", namespace))

	if err := server.Run(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
	logger.Info("devnet stopped")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
