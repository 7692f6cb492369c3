package apierr

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/dojo-starter/internal/model"
)

func TestWriteError_MapsSentinels(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{model.ErrPlayerNotFound, http.StatusNotFound, CodePlayerNotFound},
		{model.ErrUnknownAction, http.StatusBadRequest, CodeUnknownAction},
		{model.ErrInsufficientHealth, http.StatusConflict, CodeInsufficientHealth},
		{model.ErrInvalidSignature, http.StatusUnauthorized, CodeInvalidSignature},
		{model.ErrNotConnected, http.StatusConflict, CodeNotConnected},
		{model.ErrAlreadyInitializing, http.StatusConflict, CodeAlreadyInitializing},
		{eris.Wrap(model.ErrReceiptNotFound, "lookup"), http.StatusNotFound, CodeReceiptNotFound},
		{eris.New("disk on fire"), http.StatusInternalServerError, CodeInternalError},
		{NewInvalidRequestError("bad"), http.StatusBadRequest, CodeInvalidRequest},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)

			assert.Equal(t, tt.status, rec.Code)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestToError_RoundTrip(t *testing.T) {
	for _, sentinel := range []error{
		model.ErrPlayerNotFound,
		model.ErrNotConnected,
		model.ErrNoAccount,
		model.ErrTransactionRejected,
	} {
		rec := httptest.NewRecorder()
		WriteError(rec, sentinel)

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.ErrorIs(t, ToError(rec.Code, body.Error), sentinel)
	}
}

func TestToError_Unknown(t *testing.T) {
	assert.EqualError(t, ToError(http.StatusTeapot, APIError{}), "HTTP 418")
	assert.EqualError(t, ToError(http.StatusBadRequest, APIError{Code: "X", Message: "nope"}), "nope (X)")
}

func TestNewInternalError_QuotesRequestID(t *testing.T) {
	assert.EqualError(t, NewInternalError(""), "Internal server error")
	assert.EqualError(t, NewInternalError("r1"), "Internal server error (request r1)")
}
