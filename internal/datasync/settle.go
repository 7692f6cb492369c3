package datasync

import (
	"context"
	"time"

	"github.com/mcoot/dojo-starter/internal/dependencies/clock"
	"github.com/mcoot/dojo-starter/internal/model"
)

// StatusSource reports the settlement status of a transaction
type StatusSource interface {
	TransactionStatus(ctx context.Context, txHash string) (model.TxStatus, error)
}

// AwaitSettlement polls src every interval until txHash reaches a terminal status or timeout
// elapses, in which case it returns pending. Lookup errors count as pending.
func AwaitSettlement(ctx context.Context, src StatusSource, c clock.Clock, txHash string, interval, timeout time.Duration) (model.TxStatus, error) {
	deadline := c.Now().Add(timeout)
	for {
		status, err := src.TransactionStatus(ctx, txHash)
		if err == nil && status.IsTerminal() {
			return status, nil
		}
		if !c.Now().Before(deadline) {
			return model.TxStatusPending, nil
		}
		if err := c.Sleep(ctx, interval); err != nil {
			return model.TxStatusPending, err
		}
	}
}
