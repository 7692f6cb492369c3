// Package initflow drives the connected account from "unknown" to a ready player: it checks
// the backend for an existing player and spawns one when there is none.
package initflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mcoot/dojo-starter/internal/datasync"
	"github.com/mcoot/dojo-starter/internal/dependencies/clock"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/store"
	"github.com/mcoot/dojo-starter/internal/wallet"
)

// Config holds the flow's pacing
type Config struct {
	// SettleDelay follows the first refetch to absorb backend lag
	SettleDelay time.Duration
	// PacingDelay is shown on the existing-player path before success
	PacingDelay time.Duration
	// SettlementDelay is waited after an accepted spawn when not polling
	SettlementDelay time.Duration

	// PollSettlement polls the spawn receipt instead of waiting SettlementDelay
	PollSettlement bool
	PollInterval   time.Duration
	PollTimeout    time.Duration
}

// DefaultConfig returns the standard delays
func DefaultConfig() Config {
	return Config{
		SettleDelay:     time.Second,
		PacingDelay:     time.Second,
		SettlementDelay: 3500 * time.Millisecond,
		PollInterval:    500 * time.Millisecond,
		PollTimeout:     10 * time.Second,
	}
}

// Deps are the collaborators of an Initializer
type Deps struct {
	Wallet       Wallet
	Transactions TransactionClient
	Sync         DataSync
	Tracker      TransactionTracker
	Store        *store.Store
	Clock        clock.Clock
	Logger       *slog.Logger
}

// Initializer runs the player initialization flow. At most one run is in flight at a time.
type Initializer struct {
	wallet  Wallet
	tx      TransactionClient
	sync    DataSync
	tracker TransactionTracker
	store   *store.Store
	clock   clock.Clock
	config  Config
	logger  *slog.Logger

	// active is the guard slot, owned by the running invocation
	active atomic.Pointer[invocation]

	mu      sync.Mutex
	session session

	notifyMu    sync.Mutex
	subscribers map[int]func(State)
	nextSubID   int

	loadingMu sync.Mutex
}

// New creates an Initializer
func New(deps Deps, config Config) *Initializer {
	f := &Initializer{
		wallet:      deps.Wallet,
		tx:          deps.Transactions,
		sync:        deps.Sync,
		tracker:     deps.Tracker,
		store:       deps.Store,
		clock:       deps.Clock,
		config:      config,
		logger:      deps.Logger.With(slog.String("component", "initflow")),
		session:     initialSession(),
		subscribers: make(map[int]func(State)),
	}
	f.sync.OnFetchingChange(func(bool) { f.syncLoading() })
	return f
}

// InitializePlayer makes sure the connected account has a player, spawning one if needed.
// It never panics or returns an error; failures are reported in the Result and the
// session's error field.
func (f *Initializer) InitializePlayer(ctx context.Context) (result Result) {
	inv := &invocation{id: uuid.NewString()}

	if !f.active.CompareAndSwap(nil, inv) {
		return Result{
			Kind:         KindAlreadyInitializing,
			Error:        model.ErrAlreadyInitializing.Error(),
			InvocationID: inv.id,
		}
	}
	defer f.release(inv)

	defer func() {
		if r := recover(); r != nil {
			f.logger.Error("initialization panicked", slog.Any("panic", r), slog.String("invocation_id", inv.id))
			result = f.fail(ctx, inv, KindUnknownFailure, fmt.Errorf("unexpected failure: %v", r))
		}
	}()

	if f.wallet.Status() != model.StatusConnected {
		return f.precondition(inv, KindNotConnected, model.ErrNotConnected)
	}
	account := f.wallet.Account()
	if account == nil {
		return f.precondition(inv, KindNoAccount, model.ErrNoAccount)
	}

	f.syncLoading()
	f.logger.Info("initializing player",
		slog.String("invocation_id", inv.id),
		slog.String("address", account.Address()))

	return f.run(ctx, inv, account)
}

func (f *Initializer) run(ctx context.Context, inv *invocation, account wallet.Account) Result {
	f.update(inv, func(s *session) {
		s.step = model.StepChecking
		s.completed = false
		s.txHash = ""
		s.txStatus = model.TxStatusNone
	})

	if err := f.sync.RefetchPlayer(ctx); err != nil {
		return f.fail(ctx, inv, KindUnknownFailure, err)
	}
	if err := f.clock.Sleep(ctx, f.config.SettleDelay); err != nil {
		return f.fail(ctx, inv, KindUnknownFailure, err)
	}

	if f.cachedPlayerFor(account.Address()) != nil {
		return f.loadExisting(ctx, inv)
	}
	return f.spawn(ctx, inv, account)
}

// cachedPlayerFor returns the cached player if it belongs to address, dropping a cache
// left behind by another account
func (f *Initializer) cachedPlayerFor(address string) *model.Player {
	p := f.store.Player()
	if p == nil {
		return nil
	}
	if !strings.EqualFold(p.Owner, address) {
		f.logger.Warn("discarding cached player of another account",
			slog.String("cached_owner", p.Owner),
			slog.String("address", address))
		f.store.InvalidateForOwner(address)
		return nil
	}
	return p
}

func (f *Initializer) loadExisting(ctx context.Context, inv *invocation) Result {
	f.update(inv, func(s *session) { s.step = model.StepLoading })

	if err := f.clock.Sleep(ctx, f.config.PacingDelay); err != nil {
		return f.fail(ctx, inv, KindUnknownFailure, err)
	}

	f.succeed(inv, true)
	f.logger.Info("player loaded", slog.String("invocation_id", inv.id))
	return Result{Success: true, PlayerExists: true, InvocationID: inv.id}
}

func (f *Initializer) spawn(ctx context.Context, inv *invocation, account wallet.Account) Result {
	f.update(inv, func(s *session) {
		s.step = model.StepSpawning
		s.txStatus = model.TxStatusPending
	})

	resp, err := f.tx.SpawnPlayer(ctx, account)
	if resp != nil && resp.TransactionHash != "" {
		inv.txHash = resp.TransactionHash
		f.update(inv, func(s *session) { s.txHash = resp.TransactionHash })
	}
	if err != nil {
		return f.fail(ctx, inv, KindUnknownFailure, err)
	}
	if !resp.Succeeded() {
		f.update(inv, func(s *session) { s.txStatus = model.TxStatusRejected })
		return f.fail(ctx, inv, KindTransactionRejected, rejection(resp))
	}

	f.update(inv, func(s *session) { s.txStatus = model.TxStatusSuccess })
	f.logger.Info("spawn transaction accepted",
		slog.String("invocation_id", inv.id),
		slog.String("tx_hash", inv.txHash))

	if err := f.awaitSettlement(ctx, inv); err != nil {
		kind := KindUnknownFailure
		if errors.Is(err, model.ErrTransactionRejected) {
			kind = KindTransactionRejected
		}
		return f.fail(ctx, inv, kind, err)
	}

	if err := f.sync.RefetchPlayer(ctx); err != nil {
		return f.fail(ctx, inv, KindUnknownFailure, err)
	}
	if inv.txHash != "" {
		if err := f.tracker.ConfirmTransaction(ctx, inv.txHash); err != nil {
			return f.fail(ctx, inv, KindUnknownFailure, err)
		}
	}

	f.succeed(inv, false)
	f.logger.Info("player spawned",
		slog.String("invocation_id", inv.id),
		slog.String("tx_hash", inv.txHash))
	return Result{Success: true, TransactionHash: inv.txHash, InvocationID: inv.id}
}

// awaitSettlement waits for the spawn to become readable, either for a fixed delay or by
// polling the receipt. A polling timeout falls through to the refetch.
func (f *Initializer) awaitSettlement(ctx context.Context, inv *invocation) error {
	if !f.config.PollSettlement || inv.txHash == "" {
		return f.clock.Sleep(ctx, f.config.SettlementDelay)
	}

	status, err := datasync.AwaitSettlement(ctx, f.tracker, f.clock, inv.txHash, f.config.PollInterval, f.config.PollTimeout)
	if err != nil {
		return err
	}
	switch status {
	case model.TxStatusRejected:
		f.update(inv, func(s *session) { s.txStatus = model.TxStatusRejected })
		return fmt.Errorf("%w: spawn settled as rejected", model.ErrTransactionRejected)
	case model.TxStatusPending:
		f.logger.Warn("spawn settlement not observed before timeout",
			slog.String("tx_hash", inv.txHash),
			slog.Duration("timeout", f.config.PollTimeout))
	}
	return nil
}

func (f *Initializer) succeed(inv *invocation, playerExists bool) {
	if f.update(inv, func(s *session) {
		s.step = model.StepSuccess
		s.completed = true
		s.playerExists = playerExists
		s.err = ""
	}) {
		f.store.SetError("")
	}
}

// precondition reports a failed entry check, touching only the error field
func (f *Initializer) precondition(inv *invocation, kind Kind, err error) Result {
	msg := err.Error()
	if f.update(inv, func(s *session) { s.err = msg }) {
		f.store.SetError(msg)
	}
	f.logger.Warn("player initialization refused",
		slog.String("invocation_id", inv.id),
		slog.String("kind", string(kind)))
	return Result{Kind: kind, Error: msg, InvocationID: inv.id}
}

// fail is the shared failure path: undo any optimistic update made under the recorded
// transaction, mark it rejected and return to checking
func (f *Initializer) fail(ctx context.Context, inv *invocation, kind Kind, err error) Result {
	cleanupCtx := context.WithoutCancel(ctx)
	if inv.txHash != "" {
		if rerr := f.tracker.RevertOptimisticUpdate(cleanupCtx, inv.txHash); rerr != nil {
			f.logger.Warn("failed to revert optimistic update",
				slog.String("tx_hash", inv.txHash),
				slog.String("error", rerr.Error()))
		}
	}

	msg := err.Error()
	if f.update(inv, func(s *session) {
		if inv.txHash != "" {
			s.txStatus = model.TxStatusRejected
		}
		s.err = msg
		s.step = model.StepChecking
		s.completed = false
	}) {
		f.store.SetError(msg)
	}

	f.logger.Warn("player initialization failed",
		slog.String("invocation_id", inv.id),
		slog.String("kind", string(kind)),
		slog.String("error", msg))
	return Result{Kind: kind, Error: msg, InvocationID: inv.id}
}

func rejection(resp *model.TransactionResponse) error {
	if resp == nil {
		return fmt.Errorf("%w: no response", model.ErrTransactionRejected)
	}
	if resp.Reason != "" {
		return fmt.Errorf("%w: code %s: %s", model.ErrTransactionRejected, resp.Code, resp.Reason)
	}
	return fmt.Errorf("%w: code %s", model.ErrTransactionRejected, resp.Code)
}

// release frees the guard slot if inv still holds it
func (f *Initializer) release(inv *invocation) {
	if f.active.CompareAndSwap(inv, nil) {
		f.publish()
		f.syncLoading()
	}
}

// Reset clears the session and frees the guard slot. A run still in flight carries on but
// its writes are dropped.
func (f *Initializer) Reset() {
	f.mu.Lock()
	f.session = initialSession()
	f.active.Store(nil)
	f.mu.Unlock()

	f.logger.Info("initializer reset")
	f.publish()
	f.syncLoading()
}

// State returns the observable session fields
func (f *Initializer) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stateLocked()
}

func (f *Initializer) stateLocked() State {
	s := f.session
	st := State{
		IsInitializing: f.active.Load() != nil,
		Error:          s.err,
		Completed:      s.completed,
		CurrentStep:    s.step,
		TxHash:         s.txHash,
		TxStatus:       s.txStatus,
		IsConnected:    f.wallet.Status() == model.StatusConnected,
		PlayerExists:   s.playerExists,
	}
	if inv := f.active.Load(); inv != nil {
		st.InvocationID = inv.id
	}
	st.IsLoading = st.IsInitializing || f.sync.Fetching()
	return st
}

// Subscribe registers fn to receive the state after every change.
// fn runs synchronously and must not call back into the Initializer's mutating methods.
func (f *Initializer) Subscribe(fn func(State)) (unsubscribe func()) {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()

	id := f.nextSubID
	f.nextSubID++
	f.subscribers[id] = fn

	return func() {
		f.notifyMu.Lock()
		defer f.notifyMu.Unlock()
		delete(f.subscribers, id)
	}
}

// ConnectionChanged republishes the state after the wallet connects or disconnects
func (f *Initializer) ConnectionChanged() {
	f.publish()
}

// update applies fn to the session if inv still owns the guard slot, reporting whether it did
func (f *Initializer) update(inv *invocation, fn func(s *session)) bool {
	f.mu.Lock()
	if f.active.Load() != inv {
		f.mu.Unlock()
		f.logger.Debug("dropping stale session update", slog.String("invocation_id", inv.id))
		return false
	}
	fn(&f.session)
	f.mu.Unlock()

	f.publish()
	return true
}

func (f *Initializer) publish() {
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()

	state := f.State()
	for _, sub := range f.subscribers {
		sub(state)
	}
}

// syncLoading pushes the derived loading flag into the store
func (f *Initializer) syncLoading() {
	f.loadingMu.Lock()
	defer f.loadingMu.Unlock()
	f.store.SetLoading(f.active.Load() != nil || f.sync.Fetching())
}
