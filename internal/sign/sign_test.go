package sign_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/dojo-starter/internal/model"
	"github.com/mcoot/dojo-starter/internal/sign"
	"github.com/mcoot/dojo-starter/internal/wallet"
)

func newAccount(t *testing.T) *wallet.BurnerAccount {
	t.Helper()
	acc, err := wallet.NewBurnerAccount()
	require.NoError(t, err)
	return acc
}

func TestSignAndVerify(t *testing.T) {
	acc := newAccount(t)

	sp, err := sign.NewSignedPayload(acc, "dojo_starter", "n-1", model.ActionSpawn, map[string]string{"hello": "world"})
	require.NoError(t, err)

	buf, err := sp.Marshal()
	require.NoError(t, err)

	decoded, err := sign.Unmarshal(buf)
	require.NoError(t, err)
	assert.NoError(t, decoded.Verify())
	assert.Equal(t, acc.Address(), decoded.Signer)
}

func TestVerifyRejectsTamperedBody(t *testing.T) {
	acc := newAccount(t)

	sp, err := sign.NewSignedPayload(acc, "dojo_starter", "n-1", model.ActionTrain, nil)
	require.NoError(t, err)

	sp.Action = model.ActionMine
	assert.ErrorIs(t, sp.Verify(), model.ErrInvalidSignature)
}

func TestVerifyRejectsForeignSigner(t *testing.T) {
	acc := newAccount(t)
	other := newAccount(t)

	sp, err := sign.NewSignedPayload(acc, "dojo_starter", "n-1", model.ActionRest, nil)
	require.NoError(t, err)

	sp.Signer = other.Address()
	assert.ErrorIs(t, sp.Verify(), model.ErrInvalidSignature)
}

func TestVerifyRejectsMalformedAddress(t *testing.T) {
	sp := &sign.SignedPayload{Signer: "not-an-address"}
	assert.ErrorIs(t, sp.Verify(), model.ErrInvalidSignature)
}
