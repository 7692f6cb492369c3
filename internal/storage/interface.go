package storage

import (
	"context"

	"github.com/mcoot/dojo-starter/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// Snapshot operations back the client-side player store
	SaveSnapshot(ctx context.Context, key string, state model.DurableState) error
	LoadSnapshot(ctx context.Context, key string) (*model.DurableState, error)
	DeleteSnapshot(ctx context.Context, key string) error

	// Player operations back the devnet world
	CreatePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, owner string) (*model.Player, error)
	// UpdatePlayer applies fn to the stored player atomically and returns the result.
	// An error from fn aborts the update and is returned as is.
	UpdatePlayer(ctx context.Context, owner string, fn func(p *model.Player) error) (*model.Player, error)

	// Receipt operations
	SaveReceipt(ctx context.Context, receipt *model.Receipt) error
	GetReceipt(ctx context.Context, txHash string) (*model.Receipt, error)
	NextBlock(ctx context.Context) (uint64, error)

	Close() error
}
