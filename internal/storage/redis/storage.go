package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid redis url %q", cfg.URL)
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, eris.Wrap(err, "unable to reach redis")
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Snapshot operations

func (s *Storage) SaveSnapshot(ctx context.Context, key string, state model.DurableState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return eris.Wrap(err, "unable to encode snapshot")
	}
	return s.client.Set(ctx, snapshotKey(key), data, 0).Err()
}

func (s *Storage) LoadSnapshot(ctx context.Context, key string) (*model.DurableState, error) {
	data, err := s.client.Get(ctx, snapshotKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrSnapshotNotFound
		}
		return nil, err
	}

	var state model.DurableState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, eris.Wrap(err, "unable to decode snapshot")
	}
	return &state, nil
}

func (s *Storage) DeleteSnapshot(ctx context.Context, key string) error {
	return s.client.Del(ctx, snapshotKey(key)).Err()
}

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	data, err := json.Marshal(player)
	if err != nil {
		return eris.Wrap(err, "unable to encode player")
	}

	// SETNX enforces one player per owner
	created, err := s.client.SetNX(ctx, playerKey(player.Owner), data, 0).Result()
	if err != nil {
		return err
	}
	if !created {
		return model.ErrPlayerAlreadyExists
	}
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, owner string) (*model.Player, error) {
	data, err := s.client.Get(ctx, playerKey(owner)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, err
	}

	var player model.Player
	if err := json.Unmarshal(data, &player); err != nil {
		return nil, eris.Wrap(err, "unable to decode player")
	}
	return &player, nil
}

// maxUpdateRetries bounds optimistic-lock retries when writers contend for one player
const maxUpdateRetries = 100

func (s *Storage) UpdatePlayer(ctx context.Context, owner string, fn func(p *model.Player) error) (*model.Player, error) {
	key := playerKey(owner)

	var updated *model.Player
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return model.ErrPlayerNotFound
		}
		if err != nil {
			return err
		}

		var p model.Player
		if err := json.Unmarshal(data, &p); err != nil {
			return eris.Wrap(err, "unable to decode player")
		}
		if err := fn(&p); err != nil {
			return err
		}
		out, err := json.Marshal(p)
		if err != nil {
			return eris.Wrap(err, "unable to encode player")
		}

		// EXEC fails with TxFailedErr if the key changed since WATCH
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = &p
		return nil
	}

	for range maxUpdateRetries {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, eris.Errorf("player %s: too much contention", owner)
}

// Receipt operations

func (s *Storage) SaveReceipt(ctx context.Context, receipt *model.Receipt) error {
	data, err := json.Marshal(receipt)
	if err != nil {
		return eris.Wrap(err, "unable to encode receipt")
	}
	return s.client.Set(ctx, receiptKey(receipt.TransactionHash), data, s.cfg.ReceiptTTL).Err()
}

func (s *Storage) GetReceipt(ctx context.Context, txHash string) (*model.Receipt, error) {
	data, err := s.client.Get(ctx, receiptKey(txHash)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, model.ErrReceiptNotFound
		}
		return nil, err
	}

	var receipt model.Receipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return nil, eris.Wrap(err, "unable to decode receipt")
	}
	return &receipt, nil
}

func (s *Storage) NextBlock(ctx context.Context) (uint64, error) {
	n, err := s.client.Incr(ctx, blockKey()).Result()
	if err != nil {
		return 0, err
	}
	return uint64(n), nil
}
