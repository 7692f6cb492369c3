// Package datasync keeps the player store in step with the backend: full refetches of the
// connected account's player and tracking of optimistic updates made ahead of settlement.
package datasync

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"

	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/store"
	"github.com/mcoot/dojo-starter/internal/wallet"
)

// PlayerSource reads players from the backend
type PlayerSource interface {
	GetPlayer(ctx context.Context, owner string) (*model.Player, error)
}

// AccountSource provides the connected account
type AccountSource interface {
	Account() wallet.Account
}

// Syncer refetches the connected account's player into the store
type Syncer struct {
	source   PlayerSource
	accounts AccountSource
	store    *store.Store
	logger   *slog.Logger

	mu       sync.Mutex
	inFlight int
	handlers []func(bool)
}

// NewSyncer creates a Syncer
func NewSyncer(source PlayerSource, accounts AccountSource, store *store.Store, logger *slog.Logger) *Syncer {
	return &Syncer{
		source:   source,
		accounts: accounts,
		store:    store,
		logger:   logger.With(slog.String("component", "datasync")),
	}
}

// RefetchPlayer replaces the cached player with the backend's copy.
// A missing player clears the cache; any other failure leaves it untouched.
func (s *Syncer) RefetchPlayer(ctx context.Context) error {
	account := s.accounts.Account()
	if account == nil {
		return model.ErrNoAccount
	}

	s.begin()
	defer s.end()

	p, err := s.source.GetPlayer(ctx, account.Address())
	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		s.store.SetPlayer(nil)
		return nil
	case err != nil:
		s.logger.Warn("player refetch failed",
			slog.String("owner", account.Address()),
			slog.String("error", err.Error()))
		return err
	}

	s.store.SetPlayer(p)
	s.logger.Debug("player refetched", slog.String("owner", p.Owner))
	return nil
}

// Fetching reports whether a refetch is in progress
func (s *Syncer) Fetching() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight > 0
}

// OnFetchingChange registers fn to be called when Fetching flips
func (s *Syncer) OnFetchingChange(fn func(bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, fn)
}

func (s *Syncer) begin() {
	s.mu.Lock()
	s.inFlight++
	first := s.inFlight == 1
	handlers := slices.Clone(s.handlers)
	s.mu.Unlock()

	if first {
		for _, h := range handlers {
			h(true)
		}
	}
}

func (s *Syncer) end() {
	s.mu.Lock()
	s.inFlight--
	last := s.inFlight == 0
	handlers := slices.Clone(s.handlers)
	s.mu.Unlock()

	if last {
		for _, h := range handlers {
			h(false)
		}
	}
}
