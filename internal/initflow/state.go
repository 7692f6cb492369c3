package initflow

import "github.com/mcoot/dojo-starter/internal/model"

// Kind tags why an initialization failed
type Kind string

const (
	KindNone                Kind = ""
	KindAlreadyInitializing Kind = "AlreadyInitializing"
	KindNotConnected        Kind = "NotConnected"
	KindNoAccount           Kind = "NoAccount"
	KindTransactionRejected Kind = "TransactionRejected"
	KindUnknownFailure      Kind = "UnknownFailure"
)

// Result is the outcome of one InitializePlayer call
type Result struct {
	Success         bool   `json:"success"`
	PlayerExists    bool   `json:"player_exists"`
	TransactionHash string `json:"transaction_hash,omitempty"`
	Error           string `json:"error,omitempty"`
	Kind            Kind   `json:"kind,omitempty"`

	// InvocationID identifies the call. A result whose invocation was superseded by
	// Reset no longer matches State and can be discarded.
	InvocationID string `json:"invocation_id"`
}

// State is a snapshot of the observable session fields
type State struct {
	IsInitializing bool           `json:"is_initializing"`
	IsLoading      bool           `json:"is_loading"`
	Error          string         `json:"error,omitempty"`
	Completed      bool           `json:"completed"`
	CurrentStep    model.Step     `json:"current_step"`
	TxHash         string         `json:"tx_hash,omitempty"`
	TxStatus       model.TxStatus `json:"tx_status"`
	IsConnected    bool           `json:"is_connected"`
	PlayerExists   bool           `json:"player_exists"`
	InvocationID   string         `json:"invocation_id,omitempty"`
}

// session holds the mutable fields behind State
type session struct {
	err          string
	completed    bool
	step         model.Step
	txHash       string
	txStatus     model.TxStatus
	playerExists bool
}

func initialSession() session {
	return session{
		step:     model.StepChecking,
		txStatus: model.TxStatusNone,
	}
}

// invocation is the handle held in the guard slot by the running call
type invocation struct {
	id     string
	txHash string
}
