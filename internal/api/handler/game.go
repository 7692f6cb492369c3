package handler

import (
	"net/http"

	"github.com/mcoot/dojo-starter/internal/api/response"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/store"
)

// GameHandler toggles the game started flag
type GameHandler struct {
	store *store.Store
}

// NewGameHandler creates a new game handler
func NewGameHandler(store *store.Store) *GameHandler {
	return &GameHandler{store: store}
}

// Start handles POST /api/v1/game/start
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	if h.store.Player() == nil {
		WriteError(w, model.ErrPlayerNotFound)
		return
	}
	h.store.StartGame()
	response.JSON(w, http.StatusOK, h.store.Snapshot())
}

// End handles POST /api/v1/game/end
func (h *GameHandler) End(w http.ResponseWriter, r *http.Request) {
	h.store.EndGame()
	response.JSON(w, http.StatusOK, h.store.Snapshot())
}
