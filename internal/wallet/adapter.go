package wallet

import (
	"log/slog"
	"sync"

	"github.com/mcoot/dojo-starter/internal/model"
)

// ChangeFunc is called after the connection status or account changes
type ChangeFunc func(status model.ConnectionStatus, account Account)

// Adapter tracks the wallet connection for the session
type Adapter struct {
	mu       sync.RWMutex
	status   model.ConnectionStatus
	account  Account
	handlers []ChangeFunc
	logger   *slog.Logger
}

// NewAdapter creates a disconnected adapter
func NewAdapter(logger *slog.Logger) *Adapter {
	return &Adapter{
		status: model.StatusDisconnected,
		logger: logger.With(slog.String("component", "wallet")),
	}
}

// Connect marks the adapter connected with the given account
func (a *Adapter) Connect(account Account) {
	a.mu.Lock()
	a.status = model.StatusConnected
	a.account = account
	handlers := append([]ChangeFunc(nil), a.handlers...)
	a.mu.Unlock()

	addr := ""
	if account != nil {
		addr = account.Address()
	}
	a.logger.Info("wallet connected", slog.String("address", addr))
	for _, h := range handlers {
		h(model.StatusConnected, account)
	}
}

// SetConnecting marks a connection attempt in progress
func (a *Adapter) SetConnecting() {
	a.mu.Lock()
	a.status = model.StatusConnecting
	a.account = nil
	handlers := append([]ChangeFunc(nil), a.handlers...)
	a.mu.Unlock()

	for _, h := range handlers {
		h(model.StatusConnecting, nil)
	}
}

// Disconnect drops the account
func (a *Adapter) Disconnect() {
	a.mu.Lock()
	a.status = model.StatusDisconnected
	a.account = nil
	handlers := append([]ChangeFunc(nil), a.handlers...)
	a.mu.Unlock()

	a.logger.Info("wallet disconnected")
	for _, h := range handlers {
		h(model.StatusDisconnected, nil)
	}
}

// Status returns the current connection status
func (a *Adapter) Status() model.ConnectionStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// Account returns the signing account, which may be nil
func (a *Adapter) Account() Account {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.account
}

// OnChange registers a handler for connection changes
func (a *Adapter) OnChange(fn ChangeFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.handlers = append(a.handlers, fn)
}
