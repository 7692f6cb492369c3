package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mcoot/dojo-starter/internal/actions"
	"github.com/mcoot/dojo-starter/internal/api/response"
	"github.com/mcoot/dojo-starter/internal/initflow"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/store"
)

// Output handles formatting output based on the configured format
type Output struct {
	w      io.Writer
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(w io.Writer, format string) *Output {
	return &Output{w: w, format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		_, _ = fmt.Fprintln(o.w, string(data))
	} else {
		_, _ = fmt.Fprintln(o.w, msg)
	}
}

// printJSONLine writes data as a single line, for streams
func (o *Output) printJSONLine(data any) {
	_ = json.NewEncoder(o.w).Encode(data)
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case model.Player:
		o.printPlayer(v)
	case initflow.Result:
		o.printInitResult(v)
	case initflow.State:
		o.printSessionState(v)
	case response.Session:
		o.printSession(v)
	case store.Snapshot:
		o.printSnapshot(v)
	case actions.Result:
		o.printActionResult(v)
	case response.Wallet:
		o.printWallet(v)
	case BurnerKey:
		o.printBurnerKey(v)
	case response.Health:
		o.printHealth(v)
	case APIToken:
		o.printAPIToken(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// BurnerKey is a locally generated burner account
type BurnerKey struct {
	Address    string `json:"address"`
	PrivateKey string `json:"private_key"`
	SavedTo    string `json:"saved_to,omitempty"`
}

func (o *Output) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(o.w, format, args...)
}

func (o *Output) printPlayer(p model.Player) {
	o.printf("Player: %s\n", p.Owner)
	o.printf("Health: %d\n", p.Health)
	o.printf("Experience: %d\n", p.Experience)
	o.printf("Coins: %d\n", p.Coins)
	o.printf("Created: day %d\n", p.CreationDay)
}

func (o *Output) printInitResult(r initflow.Result) {
	if !r.Success {
		o.printf("Initialization failed (%s): %s\n", r.Kind, r.Error)
		return
	}
	if r.PlayerExists {
		o.printf("Player loaded\n")
	} else {
		o.printf("Player spawned\n")
	}
	if r.TransactionHash != "" {
		o.printf("Transaction: %s\n", r.TransactionHash)
	}
}

func (o *Output) printSessionState(s initflow.State) {
	o.printf("Step: %s\n", s.CurrentStep)
	o.printf("Connected: %t\n", s.IsConnected)
	o.printf("Initializing: %t\n", s.IsInitializing)
	o.printf("Completed: %t\n", s.Completed)
	if s.TxHash != "" {
		o.printf("Transaction: %s (%s)\n", s.TxHash, s.TxStatus)
	}
	if s.Error != "" {
		o.printf("Error: %s\n", s.Error)
	}
}

func (o *Output) printSession(s response.Session) {
	o.printSessionState(s.Initializer)
	o.printf("\n")
	o.printSnapshot(s.Store)
}

func (o *Output) printSnapshot(s store.Snapshot) {
	if s.Player != nil {
		o.printPlayer(*s.Player)
	} else {
		o.printf("Player: none\n")
	}
	o.printf("Game started: %t\n", s.GameStarted)
	if s.Loading {
		o.printf("Loading...\n")
	}
	if s.Error != "" {
		o.printf("Store error: %s\n", s.Error)
	}
}

func (o *Output) printActionResult(r actions.Result) {
	o.printf("Action %s: %s\n", r.Action, r.Status)
	if r.TransactionHash != "" {
		o.printf("Transaction: %s\n", r.TransactionHash)
	}
	if r.Player != nil {
		o.printf("\n")
		o.printPlayer(*r.Player)
	}
}

func (o *Output) printWallet(w response.Wallet) {
	o.printf("Wallet: %s\n", w.Status)
	if w.Address != "" {
		o.printf("Address: %s\n", w.Address)
	}
}

func (o *Output) printBurnerKey(k BurnerKey) {
	o.printf("Address: %s\n", k.Address)
	o.printf("Private key: %s\n", k.PrivateKey)
	if k.SavedTo != "" {
		o.printf("Saved to: %s\n", k.SavedTo)
	}
}

func (o *Output) printHealth(h response.Health) {
	o.printf("Status: %s\n", h.Status)
	o.printf("Chain: %s\n", h.Chain)
}

func (o *Output) printAPIToken(t APIToken) {
	o.printf("Token: %s\n", t.Token)
	o.printf("Hash: %s\n", t.Hash)
	if t.SavedTo != "" {
		o.printf("Saved to: %s\n", t.SavedTo)
	}
}
