// Package actions performs gameplay transactions for the connected player, updating the
// store optimistically and reconciling it once the transaction settles.
package actions

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mcoot/dojo-starter/internal/datasync"
	"github.com/mcoot/dojo-starter/internal/dependencies/clock"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/store"
	"github.com/mcoot/dojo-starter/internal/wallet"
)

// Submitter sends gameplay transactions to the backend
type Submitter interface {
	SubmitAction(ctx context.Context, account wallet.Account, action model.Action) (*model.TransactionResponse, error)
}

// Wallet reports the connected account
type Wallet interface {
	Status() model.ConnectionStatus
	Account() wallet.Account
}

// Refetcher reloads the player from the backend
type Refetcher interface {
	RefetchPlayer(ctx context.Context) error
}

// Config controls how long Perform waits for settlement
type Config struct {
	PollInterval time.Duration
	PollTimeout  time.Duration
}

// DefaultConfig returns the default polling settings
func DefaultConfig() Config {
	return Config{
		PollInterval: 500 * time.Millisecond,
		PollTimeout:  10 * time.Second,
	}
}

// Result describes a performed action
type Result struct {
	Action          model.Action   `json:"action"`
	TransactionHash string         `json:"transaction_hash"`
	Status          model.TxStatus `json:"status"`
	Player          *model.Player  `json:"player"`
}

// Service performs gameplay actions
type Service struct {
	client  Submitter
	wallet  Wallet
	store   *store.Store
	tracker *datasync.Tracker
	syncer  Refetcher
	clock   clock.Clock
	config  Config
	logger  *slog.Logger
}

// New creates an actions service
func New(client Submitter, wallet Wallet, store *store.Store, tracker *datasync.Tracker, syncer Refetcher, clock clock.Clock, config Config, logger *slog.Logger) *Service {
	return &Service{
		client:  client,
		wallet:  wallet,
		store:   store,
		tracker: tracker,
		syncer:  syncer,
		clock:   clock,
		config:  config,
		logger:  logger.With(slog.String("component", "actions")),
	}
}

// Perform submits action for the connected player. The store reflects the predicted
// outcome as soon as the backend accepts the transaction; a settled rejection undoes it.
func (s *Service) Perform(ctx context.Context, action model.Action) (*Result, error) {
	if s.wallet.Status() != model.StatusConnected {
		return nil, model.ErrNotConnected
	}
	account := s.wallet.Account()
	if account == nil {
		return nil, model.ErrNoAccount
	}

	current := s.store.Player()
	if current == nil {
		return nil, model.ErrPlayerNotFound
	}
	if _, err := action.Apply(*current); err != nil {
		return nil, err
	}

	resp, err := s.client.SubmitAction(ctx, account, action)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, rejection(nil)
	}

	result := &Result{Action: action, TransactionHash: resp.TransactionHash}
	if !resp.Succeeded() {
		result.Status = model.TxStatusRejected
		result.Player = s.store.Player()
		return result, rejection(resp)
	}

	txHash := resp.TransactionHash
	s.tracker.ApplyOptimisticUpdate(txHash, action.Apply)

	status, err := datasync.AwaitSettlement(ctx, s.tracker, s.clock, txHash, s.config.PollInterval, s.config.PollTimeout)
	if err != nil {
		s.logger.Warn("stopped waiting for settlement",
			slog.String("tx_hash", txHash),
			slog.String("error", err.Error()))
	}
	result.Status = status

	switch status {
	case model.TxStatusSuccess:
		if err := s.tracker.ConfirmTransaction(ctx, txHash); err != nil {
			s.logger.Warn("confirm failed", slog.String("tx_hash", txHash), slog.String("error", err.Error()))
		}
		if err := s.syncer.RefetchPlayer(ctx); err != nil {
			s.logger.Warn("refetch after action failed", slog.String("error", err.Error()))
		}
	case model.TxStatusRejected:
		if err := s.tracker.RevertOptimisticUpdate(ctx, txHash); err != nil {
			s.logger.Warn("revert failed", slog.String("tx_hash", txHash), slog.String("error", err.Error()))
		}
		result.Player = s.store.Player()
		return result, fmt.Errorf("%w: %s settled as rejected", model.ErrTransactionRejected, action)
	default:
		// settlement not observed; the prediction stays until the next refetch
		s.tracker.Abandon(txHash)
	}

	s.logger.Info("action performed",
		slog.String("action", string(action)),
		slog.String("tx_hash", resp.TransactionHash),
		slog.String("status", string(status)))

	result.Player = s.store.Player()
	return result, nil
}

func rejection(resp *model.TransactionResponse) error {
	if resp == nil {
		return fmt.Errorf("%w: no response", model.ErrTransactionRejected)
	}
	if resp.Reason != "" {
		return fmt.Errorf("%w: %s: %s", model.ErrTransactionRejected, resp.Code, resp.Reason)
	}
	return fmt.Errorf("%w: %s", model.ErrTransactionRejected, resp.Code)
}
