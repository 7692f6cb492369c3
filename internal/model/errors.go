package model

import "errors"

// Common errors used across the application
var (
	// Player errors
	ErrPlayerNotFound      = errors.New("player not found")
	ErrPlayerAlreadyExists = errors.New("player already exists for owner")
	ErrInsufficientHealth  = errors.New("not enough health")
	ErrUnknownAction       = errors.New("unknown action")

	// Initialization errors
	ErrAlreadyInitializing = errors.New("player initialization already in progress")
	ErrNotConnected        = errors.New("wallet is not connected")
	ErrNoAccount           = errors.New("no account available")
	ErrTransactionRejected = errors.New("transaction rejected")

	// Transaction errors
	ErrReceiptNotFound  = errors.New("receipt not found")
	ErrInvalidSignature = errors.New("invalid signature")

	// Storage errors
	ErrSnapshotNotFound = errors.New("snapshot not found")
)
