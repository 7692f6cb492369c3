package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rotisserie/eris"

	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	namespace TEXT PRIMARY KEY,
	data      TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS players (
	owner        TEXT PRIMARY KEY,
	experience   INTEGER NOT NULL,
	health       INTEGER NOT NULL,
	coins        INTEGER NOT NULL,
	creation_day INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS receipts (
	tx_hash TEXT PRIMARY KEY,
	status  TEXT NOT NULL,
	errors  TEXT NOT NULL,
	block   INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS blocks (
	id     INTEGER PRIMARY KEY CHECK (id = 1),
	height INTEGER NOT NULL
);
`

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// New opens (creating if needed) the database at path and applies the schema
func New(ctx context.Context, path string) (*Storage, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, eris.Wrapf(err, "failed to open database %q", path)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "failed to apply schema")
	}

	return &Storage{db: db}, nil
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Snapshot operations

func (s *Storage) SaveSnapshot(ctx context.Context, key string, state model.DurableState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return eris.Wrap(err, "unable to encode snapshot")
	}
	q := `INSERT OR REPLACE INTO snapshots (namespace, data) VALUES (?, ?);`
	if _, err := s.db.ExecContext(ctx, q, key, string(data)); err != nil {
		return eris.Wrap(err, "failed to save snapshot")
	}
	return nil
}

func (s *Storage) LoadSnapshot(ctx context.Context, key string) (*model.DurableState, error) {
	var data string
	q := `SELECT data FROM snapshots WHERE namespace = ?;`
	if err := s.db.QueryRowContext(ctx, q, key).Scan(&data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrSnapshotNotFound
		}
		return nil, eris.Wrap(err, "failed to load snapshot")
	}

	var state model.DurableState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return nil, eris.Wrap(err, "unable to decode snapshot")
	}
	return &state, nil
}

func (s *Storage) DeleteSnapshot(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE namespace = ?;`, key); err != nil {
		return eris.Wrap(err, "failed to delete snapshot")
	}
	return nil
}

// Player operations

func (s *Storage) CreatePlayer(ctx context.Context, player *model.Player) error {
	q := `
	INSERT OR IGNORE INTO players (owner, experience, health, coins, creation_day)
	VALUES (?, ?, ?, ?, ?);
	`
	res, err := s.db.ExecContext(ctx, q, strings.ToLower(player.Owner),
		player.Experience, player.Health, player.Coins, player.CreationDay)
	if err != nil {
		return eris.Wrap(err, "failed to insert player")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "failed to insert player")
	}
	if n == 0 {
		return model.ErrPlayerAlreadyExists
	}
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, owner string) (*model.Player, error) {
	q := `SELECT owner, experience, health, coins, creation_day FROM players WHERE owner = ?;`
	var p model.Player
	err := s.db.QueryRowContext(ctx, q, strings.ToLower(owner)).
		Scan(&p.Owner, &p.Experience, &p.Health, &p.Coins, &p.CreationDay)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, eris.Wrap(err, "failed to scan player")
	}
	return &p, nil
}

// UpdatePlayer runs inside a transaction; the single pooled connection serializes writers
func (s *Storage) UpdatePlayer(ctx context.Context, owner string, fn func(p *model.Player) error) (*model.Player, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "failed to begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := `SELECT owner, experience, health, coins, creation_day FROM players WHERE owner = ?;`
	var p model.Player
	err = tx.QueryRowContext(ctx, q, strings.ToLower(owner)).
		Scan(&p.Owner, &p.Experience, &p.Health, &p.Coins, &p.CreationDay)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrPlayerNotFound
		}
		return nil, eris.Wrap(err, "failed to scan player")
	}

	if err := fn(&p); err != nil {
		return nil, err
	}

	u := `UPDATE players SET experience = ?, health = ?, coins = ? WHERE owner = ?;`
	if _, err := tx.ExecContext(ctx, u, p.Experience, p.Health, p.Coins, strings.ToLower(owner)); err != nil {
		return nil, eris.Wrap(err, "failed to update player")
	}
	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "failed to commit player update")
	}
	return &p, nil
}

// Receipt operations

func (s *Storage) SaveReceipt(ctx context.Context, receipt *model.Receipt) error {
	errs, err := json.Marshal(receipt.Errors)
	if err != nil {
		return eris.Wrap(err, "unable to encode receipt errors")
	}
	q := `INSERT OR REPLACE INTO receipts (tx_hash, status, errors, block) VALUES (?, ?, ?, ?);`
	if _, err := s.db.ExecContext(ctx, q, receipt.TransactionHash, string(receipt.Status), string(errs), receipt.Block); err != nil {
		return eris.Wrap(err, "failed to save receipt")
	}
	return nil
}

func (s *Storage) GetReceipt(ctx context.Context, txHash string) (*model.Receipt, error) {
	q := `SELECT tx_hash, status, errors, block FROM receipts WHERE tx_hash = ?;`
	var (
		r      model.Receipt
		status string
		errs   string
	)
	if err := s.db.QueryRowContext(ctx, q, txHash).Scan(&r.TransactionHash, &status, &errs, &r.Block); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrReceiptNotFound
		}
		return nil, eris.Wrap(err, "failed to scan receipt")
	}
	r.Status = model.TxStatus(status)
	if err := json.Unmarshal([]byte(errs), &r.Errors); err != nil {
		return nil, eris.Wrap(err, "unable to decode receipt errors")
	}
	return &r, nil
}

func (s *Storage) NextBlock(ctx context.Context) (uint64, error) {
	q := `
	INSERT INTO blocks (id, height) VALUES (1, 1)
	ON CONFLICT(id) DO UPDATE SET height = height + 1
	RETURNING height;
	`
	var height uint64
	if err := s.db.QueryRowContext(ctx, q).Scan(&height); err != nil {
		return 0, eris.Wrap(err, "failed to advance block")
	}
	return height, nil
}
