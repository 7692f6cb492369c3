package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/wallet"
)

// MockChain is an in-memory backend client with scripted transaction responses
type MockChain struct {
	mu sync.Mutex

	// SpawnResponses is a queue of responses for SpawnPlayer.
	// When empty, SpawnPlayer returns SpawnErr or a success response.
	SpawnResponses []*model.TransactionResponse
	SpawnErr       error

	// ActionResponses is a queue of responses for SubmitAction
	ActionResponses []*model.TransactionResponse
	ActionErr       error

	// BeforeSpawn, if set, runs inside SpawnPlayer before it returns
	BeforeSpawn func(ctx context.Context)

	// HealthErr is returned from Health
	HealthErr error

	players  map[string]*model.Player
	receipts map[string]*model.Receipt
	getErr   error

	spawnCalls   []string
	actionCalls  []model.Action
	getCalls     int
	receiptCalls int
}

// NewMockChain creates an empty MockChain
func NewMockChain() *MockChain {
	return &MockChain{
		players:  make(map[string]*model.Player),
		receipts: make(map[string]*model.Receipt),
	}
}

// SpawnPlayer records the call and returns the next queued response
func (c *MockChain) SpawnPlayer(ctx context.Context, account wallet.Account) (*model.TransactionResponse, error) {
	c.mu.Lock()
	addr := ""
	if account != nil {
		addr = account.Address()
	}
	c.spawnCalls = append(c.spawnCalls, addr)
	hook := c.BeforeSpawn

	var resp *model.TransactionResponse
	err := c.SpawnErr
	if len(c.SpawnResponses) > 0 {
		resp = c.SpawnResponses[0]
		c.SpawnResponses = c.SpawnResponses[1:]
		err = nil
	} else if err == nil {
		resp = &model.TransactionResponse{Code: model.TxCodeSuccess, TransactionHash: "0x1"}
	}
	c.mu.Unlock()

	if hook != nil {
		hook(ctx)
	}
	return resp, err
}

// SubmitAction records the call and returns the next queued response
func (c *MockChain) SubmitAction(ctx context.Context, account wallet.Account, action model.Action) (*model.TransactionResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.actionCalls = append(c.actionCalls, action)
	if c.ActionErr != nil {
		return nil, c.ActionErr
	}
	if len(c.ActionResponses) == 0 {
		return &model.TransactionResponse{Code: model.TxCodeSuccess, TransactionHash: "0x2"}, nil
	}
	resp := c.ActionResponses[0]
	c.ActionResponses = c.ActionResponses[1:]
	return resp, nil
}

// GetPlayer returns the player set with SetPlayer
func (c *MockChain) GetPlayer(ctx context.Context, owner string) (*model.Player, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getCalls++
	if c.getErr != nil {
		return nil, c.getErr
	}
	p, ok := c.players[strings.ToLower(owner)]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return p.Clone(), nil
}

// GetReceipt returns the receipt set with SetReceipt
func (c *MockChain) GetReceipt(ctx context.Context, txHash string) (*model.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.receiptCalls++
	r, ok := c.receipts[txHash]
	if !ok {
		return nil, model.ErrReceiptNotFound
	}
	cp := *r
	return &cp, nil
}

// Health reports HealthErr
func (c *MockChain) Health(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.HealthErr
}

// SetPlayer makes a player visible to GetPlayer; nil removes the owner's player
func (c *MockChain) SetPlayer(owner string, p *model.Player) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p == nil {
		delete(c.players, strings.ToLower(owner))
		return
	}
	c.players[strings.ToLower(owner)] = p.Clone()
}

// SetGetError makes GetPlayer fail with err until cleared with nil
func (c *MockChain) SetGetError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.getErr = err
}

// SetReceipt makes a receipt visible to GetReceipt
func (c *MockChain) SetReceipt(r *model.Receipt) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := *r
	c.receipts[r.TransactionHash] = &cp
}

// SpawnCalls returns the account addresses SpawnPlayer was called with
func (c *MockChain) SpawnCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.spawnCalls...)
}

// ActionCalls returns the actions SubmitAction was called with
func (c *MockChain) ActionCalls() []model.Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Action(nil), c.actionCalls...)
}

// GetPlayerCalls returns the number of GetPlayer calls
func (c *MockChain) GetPlayerCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getCalls
}

// GetReceiptCalls returns the number of GetReceipt calls
func (c *MockChain) GetReceiptCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.receiptCalls
}
