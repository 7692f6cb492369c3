package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/dojo-starter/internal/events"
	"github.com/mcoot/dojo-starter/internal/initflow"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/store"
)

// EventsHandler streams store and session changes
type EventsHandler struct {
	hub         *events.Hub
	store       *store.Store
	initializer *initflow.Initializer
	logger      *slog.Logger
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *events.Hub, store *store.Store, initializer *initflow.Initializer, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{
		hub:         hub,
		store:       store,
		initializer: initializer,
		logger:      logger,
	}
}

// Stream handles GET /api/v1/events
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var initial [][]byte
	if msg, err := events.Message(model.EventStoreChanged, h.store.Snapshot()); err == nil {
		initial = append(initial, msg)
	} else {
		h.logger.Error("failed to encode store snapshot", slog.Any("error", err))
	}
	if msg, err := events.Message(model.EventSessionChanged, h.initializer.State()); err == nil {
		initial = append(initial, msg)
	} else {
		h.logger.Error("failed to encode session state", slog.Any("error", err))
	}

	events.ServeSSE(w, r, h.hub, initial...)
}
