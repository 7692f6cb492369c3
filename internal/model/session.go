package model

// Step is the phase of the player initialization flow
type Step string

const (
	StepChecking Step = "checking"
	StepSpawning Step = "spawning"
	StepLoading  Step = "loading"
	StepSuccess  Step = "success"
)

// TxStatus tracks a submitted transaction
type TxStatus string

const (
	TxStatusNone     TxStatus = "none"
	TxStatusPending  TxStatus = "pending"
	TxStatusSuccess  TxStatus = "success"
	TxStatusRejected TxStatus = "rejected"
)

// IsTerminal reports whether the status can no longer change
func (s TxStatus) IsTerminal() bool {
	return s == TxStatusSuccess || s == TxStatusRejected
}

// ConnectionStatus is the state reported by the wallet adapter
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "connected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusDisconnected ConnectionStatus = "disconnected"
)
