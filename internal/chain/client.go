// Package chain is the HTTP client for the game backend (the world contract's transaction
// and query endpoints).
package chain

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/mcoot/dojo-starter/internal/api/apierr"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/sign"
	"github.com/mcoot/dojo-starter/internal/wallet"
)

// DefaultTimeout bounds every request to the backend
const DefaultTimeout = 30 * time.Second

// Client submits signed transactions and queries world state
type Client struct {
	baseURL    string
	namespace  string
	httpClient *http.Client
}

// New creates a client for the backend at baseURL. Transactions are signed under namespace.
func New(baseURL, namespace string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		namespace: namespace,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SpawnPlayer submits the spawn transaction for the account
func (c *Client) SpawnPlayer(ctx context.Context, account wallet.Account) (*model.TransactionResponse, error) {
	return c.submit(ctx, account, model.ActionSpawn)
}

// SubmitAction submits a gameplay action for the account
func (c *Client) SubmitAction(ctx context.Context, account wallet.Account, action model.Action) (*model.TransactionResponse, error) {
	if _, err := model.ParseAction(string(action)); err != nil {
		return nil, err
	}
	return c.submit(ctx, account, action)
}

func (c *Client) submit(ctx context.Context, account wallet.Account, action model.Action) (*model.TransactionResponse, error) {
	if account == nil {
		return nil, model.ErrNoAccount
	}

	payload, err := sign.NewSignedPayload(account, c.namespace, uuid.NewString(), action, nil)
	if err != nil {
		return nil, err
	}

	var resp model.TransactionResponse
	if err := c.do(ctx, http.MethodPost, "/tx/player/"+string(action), payload, &resp); err != nil {
		return nil, eris.Wrapf(err, "failed to submit %s transaction", action)
	}
	return &resp, nil
}

// GetPlayer fetches the player owned by an address
func (c *Client) GetPlayer(ctx context.Context, owner string) (*model.Player, error) {
	var p model.Player
	if err := c.do(ctx, http.MethodGet, "/query/player/"+url.PathEscape(owner), nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetReceipt fetches the settlement receipt of a transaction
func (c *Client) GetReceipt(ctx context.Context, txHash string) (*model.Receipt, error) {
	var r model.Receipt
	if err := c.do(ctx, http.MethodGet, "/query/receipt/"+url.PathEscape(txHash), nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// Health checks the backend is reachable
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "failed to marshal request")
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return eris.Wrap(err, "failed to create request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return eris.Wrapf(err, "%s %s failed", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "failed to read response")
	}

	if resp.StatusCode >= 400 {
		var errResp apierr.ErrorResponse
		_ = json.Unmarshal(respBody, &errResp)
		return apierr.ToError(resp.StatusCode, errResp.Error)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return eris.Wrap(err, "failed to parse response")
		}
	}
	return nil
}
