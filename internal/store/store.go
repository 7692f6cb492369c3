// Package store holds the client-side mirror of the connected account's player entity
// together with the coarse UI flags derived from it.
//
// A Store is created by the composition root and passed to everything that needs it. All
// operations are synchronous and never fail; readers always observe whole snapshots. The
// durable subset (player, game started) is handed to a Persister in the background with
// last-write-wins semantics, so a crash may lose the latest update but never tears it.
package store

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/dojo-starter/internal/model"
)

// DefaultKey is the namespace the durable subset is stored under
const DefaultKey = "dojo-starter:player-store"

// flushTimeout bounds the final save when Run is stopped
const flushTimeout = 2 * time.Second

// Snapshot is an immutable view of the store
type Snapshot struct {
	Player      *model.Player `json:"player"`
	Loading     bool          `json:"loading"`
	Error       string        `json:"error,omitempty"`
	GameStarted bool          `json:"game_started"`
}

// Durable returns the persisted subset of the snapshot
func (s Snapshot) Durable() model.DurableState {
	return model.DurableState{
		Player:      s.Player.Clone(),
		GameStarted: s.GameStarted,
	}
}

// Persister durably stores the store's durable subset
type Persister interface {
	SaveSnapshot(ctx context.Context, key string, state model.DurableState) error
	LoadSnapshot(ctx context.Context, key string) (*model.DurableState, error)
}

// Store is the single source of truth for the cached player and UI flags
type Store struct {
	mu    sync.RWMutex
	state Snapshot

	// notifyMu keeps subscriber notifications in mutation order
	notifyMu    sync.Mutex
	subscribers map[int]func(Snapshot)
	nextSubID   int

	persister Persister
	key       string
	pending   chan model.DurableState
	logger    *slog.Logger
}

// New creates an empty store. persister may be nil, in which case nothing is persisted.
func New(persister Persister, key string, logger *slog.Logger) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{
		subscribers: make(map[int]func(Snapshot)),
		persister:   persister,
		key:         key,
		pending:     make(chan model.DurableState, 1),
		logger:      logger.With(slog.String("component", "store")),
	}
}

// Player returns a copy of the cached player, or nil
func (s *Store) Player() *model.Player {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Player.Clone()
}

// Snapshot returns every field at once
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := s.state
	snap.Player = s.state.Player.Clone()
	return snap
}

// SetPlayer replaces the cached player wholesale
func (s *Store) SetPlayer(p *model.Player) {
	s.mutate(true, func(st *Snapshot) bool {
		st.Player = p.Clone()
		return true
	})
}

// UpdateCoins replaces the coin balance of the cached player.
// It reports false and changes nothing when no player is cached.
func (s *Store) UpdateCoins(v uint64) bool {
	return s.mutate(true, func(st *Snapshot) bool {
		if st.Player == nil {
			return false
		}
		p := st.Player.Clone()
		p.Coins = v
		st.Player = p
		return true
	})
}

// UpdateExperience replaces the experience of the cached player
func (s *Store) UpdateExperience(v uint64) bool {
	return s.mutate(true, func(st *Snapshot) bool {
		if st.Player == nil {
			return false
		}
		p := st.Player.Clone()
		p.Experience = v
		st.Player = p
		return true
	})
}

// UpdateHealth replaces the health of the cached player
func (s *Store) UpdateHealth(v int64) bool {
	return s.mutate(true, func(st *Snapshot) bool {
		if st.Player == nil {
			return false
		}
		p := st.Player.Clone()
		p.Health = v
		st.Player = p
		return true
	})
}

// UpdatePlayer edits a copy of the cached player with fn and publishes it as a single
// change. fn reports whether it changed anything. Nothing happens when no player is cached.
func (s *Store) UpdatePlayer(fn func(p *model.Player) bool) bool {
	return s.mutate(true, func(st *Snapshot) bool {
		if st.Player == nil {
			return false
		}
		p := st.Player.Clone()
		if !fn(p) {
			return false
		}
		st.Player = p
		return true
	})
}

// SetLoading overwrites the loading flag
func (s *Store) SetLoading(loading bool) {
	s.mutate(false, func(st *Snapshot) bool {
		if st.Loading == loading {
			return false
		}
		st.Loading = loading
		return true
	})
}

// SetError overwrites the error flag; an empty message clears it
func (s *Store) SetError(msg string) {
	s.mutate(false, func(st *Snapshot) bool {
		if st.Error == msg {
			return false
		}
		st.Error = msg
		return true
	})
}

// StartGame sets the game started flag
func (s *Store) StartGame() {
	s.setGameStarted(true)
}

// EndGame clears the game started flag
func (s *Store) EndGame() {
	s.setGameStarted(false)
}

func (s *Store) setGameStarted(started bool) {
	s.mutate(true, func(st *Snapshot) bool {
		st.GameStarted = started
		return true
	})
}

// Reset restores every field to its initial value
func (s *Store) Reset() {
	s.mutate(true, func(st *Snapshot) bool {
		*st = Snapshot{}
		return true
	})
}

// InvalidateForOwner drops the cached player if it belongs to a different owner.
// It reports whether the cache was cleared.
func (s *Store) InvalidateForOwner(owner string) bool {
	return s.mutate(true, func(st *Snapshot) bool {
		if st.Player == nil || strings.EqualFold(st.Player.Owner, owner) {
			return false
		}
		st.Player = nil
		return true
	})
}

// Subscribe registers fn to receive a snapshot after every change.
// fn runs synchronously and must not mutate the store.
func (s *Store) Subscribe(fn func(Snapshot)) (unsubscribe func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn

	return func() {
		s.notifyMu.Lock()
		defer s.notifyMu.Unlock()
		delete(s.subscribers, id)
	}
}

// mutate applies fn under the write lock, then notifies subscribers and, for durable
// changes, queues the new durable state for persistence
func (s *Store) mutate(durable bool, fn func(st *Snapshot) bool) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	changed := fn(&s.state)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	if !changed {
		return false
	}

	if durable {
		s.enqueue(snap.Durable())
	}
	for _, sub := range s.subscribers {
		sub(snap)
	}
	return true
}

// enqueue replaces any unsaved durable state with the latest one
func (s *Store) enqueue(state model.DurableState) {
	if s.persister == nil {
		return
	}
	for {
		select {
		case s.pending <- state:
			return
		default:
			select {
			case <-s.pending:
			default:
			}
		}
	}
}

// Restore loads the durable subset saved by a previous process
func (s *Store) Restore(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}

	state, err := s.persister.LoadSnapshot(ctx, s.key)
	if err != nil {
		if errors.Is(err, model.ErrSnapshotNotFound) {
			return nil
		}
		return err
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.state.Player = state.Player.Clone()
	s.state.GameStarted = state.GameStarted
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.logger.Info("player store restored",
		slog.Bool("has_player", snap.Player != nil),
		slog.Bool("game_started", snap.GameStarted))

	for _, sub := range s.subscribers {
		sub(snap)
	}
	return nil
}

// Run persists queued durable states until ctx is done, then flushes the last one
func (s *Store) Run(ctx context.Context) {
	if s.persister == nil {
		<-ctx.Done()
		return
	}

	for {
		select {
		case state := <-s.pending:
			if ctx.Err() != nil {
				s.flush(state)
				return
			}
			s.save(ctx, state)
		case <-ctx.Done():
			select {
			case state := <-s.pending:
				s.flush(state)
			default:
			}
			return
		}
	}
}

func (s *Store) flush(state model.DurableState) {
	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	s.save(ctx, state)
}

func (s *Store) save(ctx context.Context, state model.DurableState) {
	if err := s.persister.SaveSnapshot(ctx, s.key, state); err != nil {
		s.logger.Warn("failed to persist player store",
			slog.String("key", s.key),
			slog.String("error", err.Error()))
	}
}
