package chain_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/dojo-starter/internal/chain"
	"github.com/mcoot/dojo-starter/internal/dependencies/clock"
	"github.com/mcoot/dojo-starter/internal/dependencies/random"
	"github.com/mcoot/dojo-starter/internal/devnet"
	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/storage/memory"
	"github.com/mcoot/dojo-starter/internal/testutil"
	"github.com/mcoot/dojo-starter/internal/wallet"
)

const namespace = "dojo_starter"

func newDevnet(t *testing.T) *httptest.Server {
	t.Helper()
	logger := testutil.NopLogger()
	world := devnet.NewWorld(memory.New(), clock.New(), random.New(), namespace, logger)
	srv := httptest.NewServer(devnet.NewRouter(devnet.RouterConfig{Logger: logger, World: world}))
	t.Cleanup(srv.Close)
	return srv
}

func newAccount(t *testing.T) *wallet.BurnerAccount {
	t.Helper()
	account, err := wallet.NewBurnerAccount()
	require.NoError(t, err)
	return account
}

func TestSpawnThenQuery(t *testing.T) {
	srv := newDevnet(t)
	client := chain.New(srv.URL, namespace, time.Second)
	account := newAccount(t)
	ctx := context.Background()

	resp, err := client.SpawnPlayer(ctx, account)
	require.NoError(t, err)
	assert.True(t, resp.Succeeded())
	assert.NotEmpty(t, resp.TransactionHash)

	player, err := client.GetPlayer(ctx, account.Address())
	require.NoError(t, err)
	assert.Equal(t, account.Address(), player.Owner)
	assert.Equal(t, int64(model.DefaultHealth), player.Health)

	receipt, err := client.GetReceipt(ctx, resp.TransactionHash)
	require.NoError(t, err)
	assert.Equal(t, model.TxStatusSuccess, receipt.Status)
}

func TestSecondSpawnReturnsRejectedCode(t *testing.T) {
	srv := newDevnet(t)
	client := chain.New(srv.URL, namespace, time.Second)
	account := newAccount(t)
	ctx := context.Background()

	_, err := client.SpawnPlayer(ctx, account)
	require.NoError(t, err)

	resp, err := client.SpawnPlayer(ctx, account)
	require.NoError(t, err)
	assert.False(t, resp.Succeeded())
	assert.Equal(t, model.TxCodeRejected, resp.Code)
	assert.NotEmpty(t, resp.TransactionHash)

	receipt, err := client.GetReceipt(ctx, resp.TransactionHash)
	require.NoError(t, err)
	assert.Equal(t, model.TxStatusRejected, receipt.Status)
}

func TestSubmitAction(t *testing.T) {
	srv := newDevnet(t)
	client := chain.New(srv.URL, namespace, time.Second)
	account := newAccount(t)
	ctx := context.Background()

	_, err := client.SpawnPlayer(ctx, account)
	require.NoError(t, err)

	resp, err := client.SubmitAction(ctx, account, model.ActionTrain)
	require.NoError(t, err)
	assert.True(t, resp.Succeeded())

	player, err := client.GetPlayer(ctx, account.Address())
	require.NoError(t, err)
	assert.Equal(t, uint64(model.TrainExperience), player.Experience)
}

func TestSubmitActionRejectsSpawnAndUnknown(t *testing.T) {
	client := chain.New("http://unused", namespace, time.Second)
	account := newAccount(t)

	_, err := client.SubmitAction(context.Background(), account, model.ActionSpawn)
	assert.ErrorIs(t, err, model.ErrUnknownAction)

	_, err = client.SubmitAction(context.Background(), account, "dance")
	assert.ErrorIs(t, err, model.ErrUnknownAction)
}

func TestSpawnWithoutAccount(t *testing.T) {
	client := chain.New("http://unused", namespace, time.Second)

	_, err := client.SpawnPlayer(context.Background(), nil)
	assert.ErrorIs(t, err, model.ErrNoAccount)
}

func TestNotFoundErrorsMapToSentinels(t *testing.T) {
	srv := newDevnet(t)
	client := chain.New(srv.URL, namespace, time.Second)
	ctx := context.Background()

	_, err := client.GetPlayer(ctx, "0x000000000000000000000000000000000000dead")
	assert.ErrorIs(t, err, model.ErrPlayerNotFound)

	_, err = client.GetReceipt(ctx, "0xnope")
	assert.ErrorIs(t, err, model.ErrReceiptNotFound)
}

func TestWrongNamespaceIsRefused(t *testing.T) {
	srv := newDevnet(t)
	client := chain.New(srv.URL, "someone_else", time.Second)

	_, err := client.SpawnPlayer(context.Background(), newAccount(t))
	assert.ErrorIs(t, err, model.ErrInvalidSignature)
}

func TestHealth(t *testing.T) {
	srv := newDevnet(t)
	client := chain.New(srv.URL+"/", namespace, time.Second)

	assert.NoError(t, client.Health(context.Background()))
}

func TestUnstructuredErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := chain.New(srv.URL, namespace, time.Second)
	err := client.Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestContextCancellation(t *testing.T) {
	srv := newDevnet(t)
	client := chain.New(srv.URL, namespace, time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.GetPlayer(ctx, "0xabc")
	assert.ErrorIs(t, err, context.Canceled)
}
