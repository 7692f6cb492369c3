package initflow

import (
	"context"

	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/wallet"
)

// Wallet reports the connection status and signing account
type Wallet interface {
	Status() model.ConnectionStatus
	Account() wallet.Account
}

// TransactionClient submits the spawn transaction
type TransactionClient interface {
	SpawnPlayer(ctx context.Context, account wallet.Account) (*model.TransactionResponse, error)
}

// DataSync refreshes the player store from the backend
type DataSync interface {
	RefetchPlayer(ctx context.Context) error
	Fetching() bool
	OnFetchingChange(fn func(fetching bool))
}

// TransactionTracker confirms or undoes optimistic updates and reports settlement
type TransactionTracker interface {
	ConfirmTransaction(ctx context.Context, txHash string) error
	RevertOptimisticUpdate(ctx context.Context, txHash string) error
	TransactionStatus(ctx context.Context, txHash string) (model.TxStatus, error)
}
