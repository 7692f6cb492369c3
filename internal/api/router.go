package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mcoot/dojo-starter/internal/actions"
	"github.com/mcoot/dojo-starter/internal/api/handler"
	"github.com/mcoot/dojo-starter/internal/api/middleware"
	"github.com/mcoot/dojo-starter/internal/api/response"
	"github.com/mcoot/dojo-starter/internal/events"
	"github.com/mcoot/dojo-starter/internal/initflow"
	requestlog "github.com/mcoot/dojo-starter/internal/middleware"
	"github.com/mcoot/dojo-starter/internal/store"
	"github.com/mcoot/dojo-starter/internal/wallet"
)

// healthTimeout bounds the backend probe made by the health endpoint
const healthTimeout = 2 * time.Second

// HealthChecker probes the game backend
type HealthChecker interface {
	Health(ctx context.Context) error
}

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger *slog.Logger
	// TokenHash is a bcrypt hash of the bearer token; empty disables auth
	TokenHash string

	Store          *store.Store
	Initializer    *initflow.Initializer
	Actions        *actions.Service
	Wallet         *wallet.Adapter
	DefaultAccount handler.AccountLoader
	Hub            *events.Hub
	Chain          HealthChecker
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.Store, cfg.Initializer)
	gameHandler := handler.NewGameHandler(cfg.Store)
	actionHandler := handler.NewActionHandler(cfg.Actions)
	walletHandler := handler.NewWalletHandler(cfg.Wallet, cfg.DefaultAccount)
	eventsHandler := handler.NewEventsHandler(cfg.Hub, cfg.Store, cfg.Initializer, cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(requestlog.Logging(cfg.Logger, "/api/v1/health", "/api/v1/events"))
	api.Use(middleware.Recovery(cfg.Logger))

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler(cfg.Chain)).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.Auth(cfg.TokenHash))

	protected.HandleFunc("/session", playerHandler.Session).Methods(http.MethodGet)
	protected.HandleFunc("/player", playerHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/player/initialize", playerHandler.Initialize).Methods(http.MethodPost)
	protected.HandleFunc("/player/reset", playerHandler.Reset).Methods(http.MethodPost)

	protected.HandleFunc("/game/start", gameHandler.Start).Methods(http.MethodPost)
	protected.HandleFunc("/game/end", gameHandler.End).Methods(http.MethodPost)

	protected.HandleFunc("/actions/{action}", actionHandler.Perform).Methods(http.MethodPost)

	protected.HandleFunc("/wallet", walletHandler.Get).Methods(http.MethodGet)
	protected.HandleFunc("/wallet/connect", walletHandler.Connect).Methods(http.MethodPost)
	protected.HandleFunc("/wallet/disconnect", walletHandler.Disconnect).Methods(http.MethodPost)

	protected.HandleFunc("/events", eventsHandler.Stream).Methods(http.MethodGet)

	return r
}

func healthHandler(chain HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := response.Health{Status: "ok", Chain: "ok"}
		if chain != nil {
			if err := chain.Health(ctx); err != nil {
				resp.Chain = "unreachable"
			}
		}
		response.JSON(w, http.StatusOK, resp)
	}
}
