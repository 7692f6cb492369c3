package datasync

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/store"
)

// ReceiptSource reads transaction receipts from the backend
type ReceiptSource interface {
	GetReceipt(ctx context.Context, txHash string) (*model.Receipt, error)
}

// optimistic is a store change made before its transaction settled
type optimistic struct {
	owner string
	delta model.PlayerDelta
}

// Tracker records optimistic updates by transaction hash so they can be confirmed or undone
type Tracker struct {
	receipts ReceiptSource
	store    *store.Store
	logger   *slog.Logger

	mu      sync.Mutex
	pending map[string]optimistic
}

// NewTracker creates a Tracker
func NewTracker(receipts ReceiptSource, store *store.Store, logger *slog.Logger) *Tracker {
	return &Tracker{
		receipts: receipts,
		store:    store,
		logger:   logger.With(slog.String("component", "tracker")),
		pending:  make(map[string]optimistic),
	}
}

// ApplyOptimisticUpdate runs update against the cached player as one store change and
// remembers the resulting delta under txHash. It reports false and records nothing when no
// player is cached or update fails against the current player.
func (t *Tracker) ApplyOptimisticUpdate(txHash string, update func(model.Player) (model.Player, error)) bool {
	var u optimistic
	applied := t.store.UpdatePlayer(func(p *model.Player) bool {
		next, err := update(*p)
		if err != nil {
			return false
		}
		next.Owner, next.CreationDay = p.Owner, p.CreationDay
		u = optimistic{owner: p.Owner, delta: model.Diff(*p, next)}
		*p = next
		return true
	})
	if !applied {
		t.logger.Debug("optimistic update skipped", slog.String("tx_hash", txHash))
		return false
	}

	t.mu.Lock()
	t.pending[txHash] = u
	t.mu.Unlock()

	t.logger.Debug("optimistic update applied", slog.String("tx_hash", txHash))
	return true
}

// ConfirmTransaction forgets the optimistic update for txHash; the store keeps it
func (t *Tracker) ConfirmTransaction(ctx context.Context, txHash string) error {
	t.forget(txHash)
	return nil
}

// Abandon stops tracking txHash without touching the store, for transactions whose
// settlement was never observed. A later refetch reconciles the store.
func (t *Tracker) Abandon(txHash string) {
	if t.forget(txHash) {
		t.logger.Warn("optimistic update abandoned", slog.String("tx_hash", txHash))
	}
}

func (t *Tracker) forget(txHash string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[txHash]
	delete(t.pending, txHash)
	return ok
}

// RevertOptimisticUpdate subtracts the delta recorded for txHash from the cached player,
// leaving changes made since by other writers in place. It is a no-op when nothing was
// applied under txHash or the cache now holds another owner's player.
func (t *Tracker) RevertOptimisticUpdate(ctx context.Context, txHash string) error {
	t.mu.Lock()
	u, ok := t.pending[txHash]
	delete(t.pending, txHash)
	t.mu.Unlock()

	if !ok {
		return nil
	}
	reverted := t.store.UpdatePlayer(func(p *model.Player) bool {
		if !strings.EqualFold(p.Owner, u.owner) {
			return false
		}
		*p = p.Without(u.delta)
		return true
	})
	if reverted {
		t.logger.Info("optimistic update reverted", slog.String("tx_hash", txHash))
	}
	return nil
}

// TransactionStatus reports the settlement status of txHash. A transaction without a
// receipt is still pending.
func (t *Tracker) TransactionStatus(ctx context.Context, txHash string) (model.TxStatus, error) {
	r, err := t.receipts.GetReceipt(ctx, txHash)
	if errors.Is(err, model.ErrReceiptNotFound) {
		return model.TxStatusPending, nil
	}
	if err != nil {
		return model.TxStatusNone, err
	}
	return r.Status, nil
}

// Pending returns the hashes with unconfirmed optimistic updates
func (t *Tracker) Pending() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	hashes := make([]string, 0, len(t.pending))
	for h := range t.pending {
		hashes = append(hashes, h)
	}
	return hashes
}
