package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/mcoot/dojo-starter/internal/api/request"
	"github.com/mcoot/dojo-starter/internal/api/response"
	"github.com/mcoot/dojo-starter/internal/wallet"
)

// AccountLoader returns the account used when a connect request names no key
type AccountLoader func() (wallet.Account, error)

// WalletHandler connects and disconnects the session wallet
type WalletHandler struct {
	adapter        *wallet.Adapter
	defaultAccount AccountLoader
}

// NewWalletHandler creates a new wallet handler
func NewWalletHandler(adapter *wallet.Adapter, defaultAccount AccountLoader) *WalletHandler {
	return &WalletHandler{
		adapter:        adapter,
		defaultAccount: defaultAccount,
	}
}

// Get handles GET /api/v1/wallet
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, h.describe())
}

// Connect handles POST /api/v1/wallet/connect
func (h *WalletHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req request.ConnectWalletRequest
	// an empty body selects the default account
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	var account wallet.Account
	var err error
	if req.PrivateKey != "" {
		account, err = wallet.BurnerFromHex(req.PrivateKey)
		if err != nil {
			WriteError(w, NewInvalidRequestError("invalid private key"))
			return
		}
	} else {
		account, err = h.defaultAccount()
		if err != nil {
			WriteError(w, err)
			return
		}
	}

	h.adapter.Connect(account)
	response.JSON(w, http.StatusOK, h.describe())
}

// Disconnect handles POST /api/v1/wallet/disconnect
func (h *WalletHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	h.adapter.Disconnect()
	response.JSON(w, http.StatusOK, h.describe())
}

func (h *WalletHandler) describe() response.Wallet {
	resp := response.Wallet{Status: h.adapter.Status()}
	if account := h.adapter.Account(); account != nil {
		resp.Address = account.Address()
	}
	return resp
}
