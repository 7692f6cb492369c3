package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mcoot/dojo-starter/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e APIError) String() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest      = "INVALID_REQUEST"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodePlayerNotFound      = "PLAYER_NOT_FOUND"
	CodePlayerExists        = "PLAYER_EXISTS"
	CodeReceiptNotFound     = "RECEIPT_NOT_FOUND"
	CodeUnknownAction       = "UNKNOWN_ACTION"
	CodeInsufficientHealth  = "INSUFFICIENT_HEALTH"
	CodeInvalidSignature    = "INVALID_SIGNATURE"
	CodeNotConnected        = "NOT_CONNECTED"
	CodeNoAccount           = "NO_ACCOUNT"
	CodeAlreadyInitializing = "ALREADY_INITIALIZING"
	CodeTxRejected          = "TRANSACTION_REJECTED"
	CodeInternalError       = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	switch {
	case errors.Is(err, model.ErrPlayerNotFound):
		return &httpError{http.StatusNotFound, APIError{CodePlayerNotFound, "Player not found"}}
	case errors.Is(err, model.ErrPlayerAlreadyExists):
		return &httpError{http.StatusConflict, APIError{CodePlayerExists, "Player already exists for this owner"}}
	case errors.Is(err, model.ErrReceiptNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeReceiptNotFound, "Receipt not found"}}
	case errors.Is(err, model.ErrUnknownAction):
		return &httpError{http.StatusBadRequest, APIError{CodeUnknownAction, "Unknown action"}}
	case errors.Is(err, model.ErrInsufficientHealth):
		return &httpError{http.StatusConflict, APIError{CodeInsufficientHealth, "Not enough health"}}
	case errors.Is(err, model.ErrInvalidSignature):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidSignature, "Invalid signature"}}
	case errors.Is(err, model.ErrNotConnected):
		return &httpError{http.StatusConflict, APIError{CodeNotConnected, "Wallet not connected"}}
	case errors.Is(err, model.ErrNoAccount):
		return &httpError{http.StatusConflict, APIError{CodeNoAccount, "No signing account available"}}
	case errors.Is(err, model.ErrAlreadyInitializing):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInitializing, "Initialization already in progress"}}
	case errors.Is(err, model.ErrTransactionRejected):
		return &httpError{http.StatusConflict, APIError{CodeTxRejected, err.Error()}}
	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// ToError maps an error body received from a server back to the matching sentinel error
func ToError(status int, e APIError) error {
	var sentinel error
	switch e.Code {
	case CodePlayerNotFound:
		sentinel = model.ErrPlayerNotFound
	case CodePlayerExists:
		sentinel = model.ErrPlayerAlreadyExists
	case CodeReceiptNotFound:
		sentinel = model.ErrReceiptNotFound
	case CodeUnknownAction:
		sentinel = model.ErrUnknownAction
	case CodeInsufficientHealth:
		sentinel = model.ErrInsufficientHealth
	case CodeInvalidSignature:
		sentinel = model.ErrInvalidSignature
	case CodeNotConnected:
		sentinel = model.ErrNotConnected
	case CodeNoAccount:
		sentinel = model.ErrNoAccount
	case CodeAlreadyInitializing:
		sentinel = model.ErrAlreadyInitializing
	case CodeTxRejected:
		sentinel = model.ErrTransactionRejected
	}
	if sentinel != nil {
		return fmt.Errorf("%w: %s", sentinel, e.Message)
	}
	if e.Code != "" {
		return fmt.Errorf("%s", e.String())
	}
	return fmt.Errorf("HTTP %d", status)
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error. A non-empty requestID is quoted
// in the message so the failure can be found in the server log.
func NewInternalError(requestID string) error {
	msg := "Internal server error"
	if requestID != "" {
		msg += " (request " + requestID + ")"
	}
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, msg}}
}
