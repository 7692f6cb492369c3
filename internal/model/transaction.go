package model

// TxCodeSuccess is the response code the backend returns for an accepted transaction.
// Any other code is a rejection.
const TxCodeSuccess = "SUCCESS"

// TxCodeRejected is the code the devnet returns for transactions it refuses
const TxCodeRejected = "REJECTED"

// TransactionResponse is returned by the backend for every submitted transaction
type TransactionResponse struct {
	Code            string `json:"code"`
	TransactionHash string `json:"transaction_hash,omitempty"`
	Reason          string `json:"reason,omitempty"`
}

// Succeeded reports whether the response carries the success sentinel
func (r *TransactionResponse) Succeeded() bool {
	return r != nil && r.Code == TxCodeSuccess
}

// Receipt is the settlement record of a transaction
type Receipt struct {
	TransactionHash string   `json:"transaction_hash"`
	Status          TxStatus `json:"status"`
	Errors          []string `json:"errors,omitempty"`
	Block           uint64   `json:"block"`
}

// Action identifies a gameplay transaction
type Action string

const (
	ActionSpawn Action = "spawn"
	ActionTrain Action = "train"
	ActionMine  Action = "mine"
	ActionRest  Action = "rest"
)

// Gameplay rules applied by the world
const (
	TrainExperience = 10
	MineCoins       = 5
	MineHealthCost  = 5
	RestHealth      = 20
)

// Actions lists the gameplay actions
func Actions() []Action {
	return []Action{ActionTrain, ActionMine, ActionRest}
}

// ParseAction validates a gameplay action name (spawn is not a gameplay action)
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionTrain, ActionMine, ActionRest:
		return a, nil
	default:
		return "", ErrUnknownAction
	}
}

// Apply returns the player after the action, or an error if the rules forbid it
func (a Action) Apply(p Player) (Player, error) {
	switch a {
	case ActionTrain:
		p.Experience += TrainExperience
	case ActionMine:
		if p.Health < MineHealthCost {
			return p, ErrInsufficientHealth
		}
		p.Coins += MineCoins
		p.Health -= MineHealthCost
	case ActionRest:
		p.Health += RestHealth
		if p.Health > MaxHealth {
			p.Health = MaxHealth
		}
	default:
		return p, ErrUnknownAction
	}
	return p, nil
}
