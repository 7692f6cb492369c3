package events

import (
	"encoding/json"
	"log/slog"

	"github.com/mcoot/dojo-starter/internal/initflow"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/store"
)

// Broadcaster turns store and session changes into hub events
type Broadcaster struct {
	hub    *Hub
	logger *slog.Logger
}

// NewBroadcaster creates a new Broadcaster
func NewBroadcaster(hub *Hub, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:    hub,
		logger: logger.With(slog.String("component", "events-broadcaster")),
	}
}

// StoreChanged broadcasts a store snapshot
func (b *Broadcaster) StoreChanged(snap store.Snapshot) {
	b.send(model.EventStoreChanged, snap)
}

// SessionChanged broadcasts the initializer's state
func (b *Broadcaster) SessionChanged(state initflow.State) {
	b.send(model.EventSessionChanged, state)
}

func (b *Broadcaster) send(event model.EventType, v any) {
	msg, err := Message(event, v)
	if err != nil {
		b.logger.Error("failed to encode event",
			slog.String("event", string(event)),
			slog.Any("error", err))
		return
	}
	b.hub.Broadcast(msg)
}

// Message encodes v as JSON inside an SSE event
func Message(event model.EventType, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return formatSSEMessage(string(event), string(data)), nil
}
