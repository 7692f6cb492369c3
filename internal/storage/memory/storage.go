package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	snapshots map[string]model.DurableState
	players   map[string]*model.Player
	receipts  map[string]*model.Receipt
	block     uint64
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		snapshots: make(map[string]model.DurableState),
		players:   make(map[string]*model.Player),
		receipts:  make(map[string]*model.Receipt),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Snapshot operations

func (s *Storage) SaveSnapshot(ctx context.Context, key string, state model.DurableState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state.Player = state.Player.Clone()
	s.snapshots[key] = state
	return nil
}

func (s *Storage) LoadSnapshot(ctx context.Context, key string) (*model.DurableState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.snapshots[key]
	if !ok {
		return nil, model.ErrSnapshotNotFound
	}
	state.Player = state.Player.Clone()
	return &state, nil
}

func (s *Storage) DeleteSnapshot(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, key)
	return nil
}

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[strings.ToLower(player.Owner)]; ok {
		return model.ErrPlayerAlreadyExists
	}
	s.players[strings.ToLower(player.Owner)] = player.Clone()
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, owner string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[strings.ToLower(owner)]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player.Clone(), nil
}

func (s *Storage) UpdatePlayer(ctx context.Context, owner string, fn func(p *model.Player) error) (*model.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.players[strings.ToLower(owner)]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := stored.Clone()
	if err := fn(p); err != nil {
		return nil, err
	}
	s.players[strings.ToLower(owner)] = p.Clone()
	return p, nil
}

// Receipt operations

func (s *Storage) SaveReceipt(ctx context.Context, receipt *model.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *receipt
	s.receipts[receipt.TransactionHash] = &r
	return nil
}

func (s *Storage) GetReceipt(ctx context.Context, txHash string) (*model.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	receipt, ok := s.receipts[txHash]
	if !ok {
		return nil, model.ErrReceiptNotFound
	}
	r := *receipt
	return &r, nil
}

func (s *Storage) NextBlock(ctx context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.block++
	return s.block, nil
}

func (s *Storage) Close() error {
	return nil
}
