package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/dojo-starter/internal/actions"
	"github.com/mcoot/dojo-starter/internal/chain"
	"github.com/mcoot/dojo-starter/internal/config"
	"github.com/mcoot/dojo-starter/internal/datasync"
	"github.com/mcoot/dojo-starter/internal/dependencies/clock"
	"github.com/mcoot/dojo-starter/internal/events"
	"github.com/mcoot/dojo-starter/internal/initflow"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/storage"
	"github.com/mcoot/dojo-starter/internal/storage/memory"
	redisstorage "github.com/mcoot/dojo-starter/internal/storage/redis"
	"github.com/mcoot/dojo-starter/internal/storage/sqlite"
	"github.com/mcoot/dojo-starter/internal/store"
	"github.com/mcoot/dojo-starter/internal/wallet"
)

// Chain is everything the app needs from the game backend
type Chain interface {
	SpawnPlayer(ctx context.Context, account wallet.Account) (*model.TransactionResponse, error)
	SubmitAction(ctx context.Context, account wallet.Account, action model.Action) (*model.TransactionResponse, error)
	GetPlayer(ctx context.Context, owner string) (*model.Player, error)
	GetReceipt(ctx context.Context, txHash string) (*model.Receipt, error)
	Health(ctx context.Context) error
}

// Ensure the HTTP client satisfies Chain
var _ Chain = (*chain.Client)(nil)

// App contains all wired application components
type App struct {
	// Storage persists the store's durable subset
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Chain  Chain
	Wallet *wallet.Adapter

	// Services
	Store       *store.Store
	Syncer      *datasync.Syncer
	Tracker     *datasync.Tracker
	Actions     *actions.Service
	Initializer *initflow.Initializer
	Hub         *events.Hub
	Broadcaster *events.Broadcaster

	// DefaultAccount supplies the burner used when a connect request carries no key
	DefaultAccount func() (wallet.Account, error)

	Logger *slog.Logger

	running sync.WaitGroup
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory", "redis" or "sqlite")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// SQLitePath is the database file (required if StorageType is "sqlite")
	SQLitePath string
	// StoreKey namespaces the persisted store; empty uses store.DefaultKey
	StoreKey string

	ChainURL       string
	ChainNamespace string
	ChainTimeout   time.Duration

	// PrivateKey or KeyFile select the default burner; with neither a fresh one is generated
	PrivateKey string
	KeyFile    string

	Flow    initflow.Config
	Actions actions.Config
}

// FromConfig translates daemon configuration into factory configuration
func FromConfig(cfg *config.Config, logger *slog.Logger) Config {
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = cfg.Storage.RedisURL

	return Config{
		Logger:         logger,
		StorageType:    cfg.Storage.Type,
		RedisConfig:    &redisCfg,
		SQLitePath:     cfg.Storage.SQLitePath,
		StoreKey:       cfg.Storage.StoreKey,
		ChainURL:       cfg.Chain.URL,
		ChainNamespace: cfg.Chain.Namespace,
		ChainTimeout:   cfg.Chain.Timeout,
		PrivateKey:     cfg.Wallet.PrivateKey,
		KeyFile:        cfg.Wallet.KeyFile,
		Flow: initflow.Config{
			SettleDelay:     cfg.Flow.SettleDelay,
			PacingDelay:     cfg.Flow.PacingDelay,
			SettlementDelay: cfg.Flow.SettlementDelay,
			PollSettlement:  cfg.Flow.PollSettlement,
			PollInterval:    cfg.Flow.PollInterval,
			PollTimeout:     cfg.Flow.PollTimeout,
		},
		Actions: actions.Config{
			PollInterval: cfg.Flow.PollInterval,
			PollTimeout:  cfg.Flow.PollTimeout,
		},
	}
}

// New creates a new application with all dependencies wired
func New(ctx context.Context, cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	st, err := NewStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	timeout := cfg.ChainTimeout
	if timeout == 0 {
		timeout = chain.DefaultTimeout
	}
	client := chain.New(cfg.ChainURL, cfg.ChainNamespace, timeout)

	flowCfg := cfg.Flow
	if flowCfg == (initflow.Config{}) {
		flowCfg = initflow.DefaultConfig()
	}
	actionsCfg := cfg.Actions
	if actionsCfg == (actions.Config{}) {
		actionsCfg = actions.DefaultConfig()
	}

	app := newWithDependencies(st, client, clock.New(), cfg.StoreKey, flowCfg, actionsCfg, logger)
	app.DefaultAccount = burnerLoader(cfg.PrivateKey, cfg.KeyFile)
	return app, nil
}

// NewStorage opens the configured storage backend
func NewStorage(ctx context.Context, cfg Config) (storage.Storage, error) {
	switch cfg.StorageType {
	case "", config.StorageMemory:
		return memory.New(), nil
	case config.StorageRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		return redisstorage.New(*cfg.RedisConfig)
	case config.StorageSQLite:
		if cfg.SQLitePath == "" {
			return nil, errors.New("SQLitePath required when StorageType is sqlite")
		}
		return sqlite.New(ctx, cfg.SQLitePath)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory', 'redis' or 'sqlite'")
	}
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(st storage.Storage, ch Chain, clk clock.Clock, storeKey string, flowCfg initflow.Config, actionsCfg actions.Config, logger *slog.Logger) *App {
	playerStore := store.New(st, storeKey, logger)
	walletAdapter := wallet.NewAdapter(logger)
	syncer := datasync.NewSyncer(ch, walletAdapter, playerStore, logger)
	tracker := datasync.NewTracker(ch, playerStore, logger)
	actionService := actions.New(ch, walletAdapter, playerStore, tracker, syncer, clk, actionsCfg, logger)
	initializer := initflow.New(initflow.Deps{
		Wallet:       walletAdapter,
		Transactions: ch,
		Sync:         syncer,
		Tracker:      tracker,
		Store:        playerStore,
		Clock:        clk,
		Logger:       logger,
	}, flowCfg)
	hub := events.NewHub(logger)
	broadcaster := events.NewBroadcaster(hub, logger)

	// the cached player belongs to one account
	walletAdapter.OnChange(func(status model.ConnectionStatus, account wallet.Account) {
		if account != nil {
			playerStore.InvalidateForOwner(account.Address())
		}
		initializer.ConnectionChanged()
	})
	playerStore.Subscribe(broadcaster.StoreChanged)
	initializer.Subscribe(broadcaster.SessionChanged)

	return &App{
		Storage:     st,
		Clock:       clk,
		Chain:       ch,
		Wallet:      walletAdapter,
		Store:       playerStore,
		Syncer:      syncer,
		Tracker:     tracker,
		Actions:     actionService,
		Initializer: initializer,
		Hub:         hub,
		Broadcaster: broadcaster,
		DefaultAccount: func() (wallet.Account, error) {
			return wallet.NewBurnerAccount()
		},
		Logger: logger,
	}
}

// Start restores the persisted store and starts the background goroutines.
// They stop when ctx is cancelled.
func (a *App) Start(ctx context.Context) error {
	if err := a.Store.Restore(ctx); err != nil {
		return err
	}
	a.running.Add(1)
	go func() {
		defer a.running.Done()
		a.Store.Run(ctx)
	}()
	go a.Hub.Run()
	go func() {
		<-ctx.Done()
		a.Hub.Close()
	}()
	return nil
}

// Close waits for the store's final flush, then releases the storage backend.
// The context passed to Start must be done first.
func (a *App) Close() error {
	a.running.Wait()
	return a.Storage.Close()
}

// burnerLoader returns the default account source for the configured key material.
// A generated burner is kept for the life of the process.
func burnerLoader(privateKey, keyFile string) func() (wallet.Account, error) {
	var (
		mu        sync.Mutex
		generated wallet.Account
	)
	return func() (wallet.Account, error) {
		mu.Lock()
		defer mu.Unlock()

		switch {
		case privateKey != "":
			return wallet.BurnerFromHex(privateKey)
		case keyFile != "":
			return wallet.LoadBurner(keyFile)
		case generated != nil:
			return generated, nil
		}
		account, err := wallet.NewBurnerAccount()
		if err != nil {
			return nil, err
		}
		generated = account
		return account, nil
	}
}
