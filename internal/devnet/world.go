// Package devnet is a single-process stand-in for the game world: it accepts signed
// transactions, applies the player rules and serves player and receipt queries.
package devnet

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rotisserie/eris"

	"github.com/mcoot/dojo-starter/internal/dependencies/clock"
	"github.com/mcoot/dojo-starter/internal/dependencies/random"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/sign"
	"github.com/mcoot/dojo-starter/internal/storage"
)

// txHashBytes is the length of generated transaction hashes
const txHashBytes = 32

// World executes transactions against stored world state
type World struct {
	storage   storage.Storage
	clock     clock.Clock
	random    random.Random
	namespace string
	logger    *slog.Logger
}

// NewWorld creates a world that accepts transactions signed for namespace
func NewWorld(storage storage.Storage, clock clock.Clock, random random.Random, namespace string, logger *slog.Logger) *World {
	return &World{
		storage:   storage,
		clock:     clock,
		random:    random,
		namespace: namespace,
		logger:    logger.With(slog.String("component", "world")),
	}
}

// Execute verifies and applies a transaction.
// Rule violations produce a rejected response with a receipt; malformed payloads return an error.
func (w *World) Execute(ctx context.Context, action model.Action, payload *sign.SignedPayload) (*model.TransactionResponse, error) {
	if payload.Action != action {
		return nil, eris.Wrapf(model.ErrUnknownAction, "payload is for %q, not %q", payload.Action, action)
	}
	if action != model.ActionSpawn {
		if _, err := model.ParseAction(string(action)); err != nil {
			return nil, err
		}
	}
	if payload.Namespace != w.namespace {
		return nil, eris.Wrapf(model.ErrInvalidSignature, "wrong namespace %q", payload.Namespace)
	}
	if err := payload.Verify(); err != nil {
		return nil, err
	}

	block, err := w.storage.NextBlock(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "failed to allocate block")
	}

	receipt := &model.Receipt{
		TransactionHash: w.random.Hex(txHashBytes),
		Status:          model.TxStatusSuccess,
		Block:           block,
	}

	if err := w.apply(ctx, action, payload.Signer); err != nil {
		if !isRuleViolation(err) {
			return nil, err
		}
		receipt.Status = model.TxStatusRejected
		receipt.Errors = []string{err.Error()}
	}

	if err := w.storage.SaveReceipt(ctx, receipt); err != nil {
		return nil, eris.Wrap(err, "failed to save receipt")
	}

	resp := &model.TransactionResponse{
		Code:            model.TxCodeSuccess,
		TransactionHash: receipt.TransactionHash,
	}
	if receipt.Status == model.TxStatusRejected {
		resp.Code = model.TxCodeRejected
		resp.Reason = receipt.Errors[0]
	}

	w.logger.Info("transaction executed",
		slog.String("action", string(action)),
		slog.String("signer", payload.Signer),
		slog.String("tx_hash", receipt.TransactionHash),
		slog.String("code", resp.Code),
		slog.Uint64("block", block))

	return resp, nil
}

func (w *World) apply(ctx context.Context, action model.Action, owner string) error {
	if action == model.ActionSpawn {
		return w.storage.CreatePlayer(ctx, model.NewPlayer(owner, w.clock.Now()))
	}

	_, err := w.storage.UpdatePlayer(ctx, owner, func(p *model.Player) error {
		next, err := action.Apply(*p)
		if err != nil {
			return err
		}
		*p = next
		return nil
	})
	return err
}

func isRuleViolation(err error) bool {
	return errors.Is(err, model.ErrPlayerAlreadyExists) ||
		errors.Is(err, model.ErrPlayerNotFound) ||
		errors.Is(err, model.ErrInsufficientHealth) ||
		errors.Is(err, model.ErrUnknownAction)
}

// Player returns the player owned by an address
func (w *World) Player(ctx context.Context, owner string) (*model.Player, error) {
	return w.storage.GetPlayer(ctx, owner)
}

// Receipt returns the receipt of a transaction
func (w *World) Receipt(ctx context.Context, txHash string) (*model.Receipt, error) {
	return w.storage.GetReceipt(ctx, txHash)
}

// Namespace is the namespace transactions must be signed for
func (w *World) Namespace() string {
	return w.namespace
}
