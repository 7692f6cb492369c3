package model

// EventType identifies the type of event pushed to local subscribers
type EventType string

const (
	EventStoreChanged   EventType = "store"
	EventSessionChanged EventType = "session"
)
