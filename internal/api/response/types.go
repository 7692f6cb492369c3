package response

import (
	"encoding/json"
	"net/http"

	"github.com/mcoot/dojo-starter/internal/initflow"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/store"
)

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
	Chain  string `json:"chain"`
}

// Session combines the store and the initializer state
type Session struct {
	Store       store.Snapshot `json:"store"`
	Initializer initflow.State `json:"initializer"`
}

// Wallet describes the wallet connection
type Wallet struct {
	Status  model.ConnectionStatus `json:"status"`
	Address string                 `json:"address,omitempty"`
}

// JSON writes data with the given status. Responses can carry account state, so they
// are never cached.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}
