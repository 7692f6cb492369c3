package request

// ConnectWalletRequest is the request body for connecting a wallet.
// An empty private key connects the configured burner account.
type ConnectWalletRequest struct {
	PrivateKey string `json:"private_key,omitempty"`
}
