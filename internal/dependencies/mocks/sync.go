package mocks

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/dojo-starter/internal/model"
)

// MockDataSync counts refetches and lets tests script their side effects
type MockDataSync struct {
	mu sync.Mutex

	// OnRefetch, if set, runs on every RefetchPlayer call with the 1-based call number.
	// Its error is returned from RefetchPlayer.
	OnRefetch func(ctx context.Context, call int) error

	calls    int
	fetching bool
	handlers []func(bool)
}

// NewMockDataSync creates a MockDataSync
func NewMockDataSync() *MockDataSync {
	return &MockDataSync{}
}

// RefetchPlayer records the call and runs OnRefetch
func (d *MockDataSync) RefetchPlayer(ctx context.Context) error {
	d.mu.Lock()
	d.calls++
	call := d.calls
	hook := d.OnRefetch
	d.mu.Unlock()

	if hook != nil {
		return hook(ctx, call)
	}
	return nil
}

// Fetching reports the value set with SetFetching
func (d *MockDataSync) Fetching() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.fetching
}

// OnFetchingChange registers a handler called by SetFetching
func (d *MockDataSync) OnFetchingChange(fn func(bool)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, fn)
}

// SetFetching changes the fetching flag and notifies handlers
func (d *MockDataSync) SetFetching(fetching bool) {
	d.mu.Lock()
	d.fetching = fetching
	handlers := slices.Clone(d.handlers)
	d.mu.Unlock()

	for _, h := range handlers {
		h(fetching)
	}
}

// RefetchCalls returns the number of RefetchPlayer calls
func (d *MockDataSync) RefetchCalls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// MockTracker records transaction tracking calls
type MockTracker struct {
	mu sync.Mutex

	ConfirmErr error
	RevertErr  error

	// Statuses is a queue of results for TransactionStatus; when empty it returns pending
	Statuses []model.TxStatus

	confirmed   []string
	reverted    []string
	statusCalls []string
}

// NewMockTracker creates a MockTracker
func NewMockTracker() *MockTracker {
	return &MockTracker{}
}

// ConfirmTransaction records the id
func (t *MockTracker) ConfirmTransaction(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.confirmed = append(t.confirmed, id)
	return t.ConfirmErr
}

// RevertOptimisticUpdate records the id
func (t *MockTracker) RevertOptimisticUpdate(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reverted = append(t.reverted, id)
	return t.RevertErr
}

// TransactionStatus returns the next queued status
func (t *MockTracker) TransactionStatus(ctx context.Context, id string) (model.TxStatus, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statusCalls = append(t.statusCalls, id)
	if len(t.Statuses) == 0 {
		return model.TxStatusPending, nil
	}
	s := t.Statuses[0]
	t.Statuses = t.Statuses[1:]
	return s, nil
}

// Confirmed returns the ids passed to ConfirmTransaction
func (t *MockTracker) Confirmed() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.confirmed...)
}

// Reverted returns the ids passed to RevertOptimisticUpdate
func (t *MockTracker) Reverted() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.reverted...)
}

// StatusCalls returns the ids passed to TransactionStatus
func (t *MockTracker) StatusCalls() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.statusCalls...)
}
