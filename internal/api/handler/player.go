package handler

import (
	"net/http"

	"github.com/mcoot/dojo-starter/internal/api/response"
	"github.com/mcoot/dojo-starter/internal/initflow"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/store"
)

// PlayerHandler handles the player and its initialization
type PlayerHandler struct {
	store       *store.Store
	initializer *initflow.Initializer
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(store *store.Store, initializer *initflow.Initializer) *PlayerHandler {
	return &PlayerHandler{
		store:       store,
		initializer: initializer,
	}
}

// Get handles GET /api/v1/player
func (h *PlayerHandler) Get(w http.ResponseWriter, r *http.Request) {
	p := h.store.Player()
	if p == nil {
		WriteError(w, model.ErrPlayerNotFound)
		return
	}
	response.JSON(w, http.StatusOK, p)
}

// Initialize handles POST /api/v1/player/initialize
func (h *PlayerHandler) Initialize(w http.ResponseWriter, r *http.Request) {
	result := h.initializer.InitializePlayer(r.Context())
	response.JSON(w, statusForResult(result), result)
}

// Reset handles POST /api/v1/player/reset
func (h *PlayerHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.initializer.Reset()
	h.store.SetError("")
	response.JSON(w, http.StatusOK, h.initializer.State())
}

// Session handles GET /api/v1/session
func (h *PlayerHandler) Session(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.Session{
		Store:       h.store.Snapshot(),
		Initializer: h.initializer.State(),
	})
}

func statusForResult(result initflow.Result) int {
	switch result.Kind {
	case initflow.KindNone:
		return http.StatusOK
	case initflow.KindUnknownFailure:
		return http.StatusBadGateway
	default:
		return http.StatusConflict
	}
}
