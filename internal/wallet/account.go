package wallet

import (
	"crypto/ecdsa"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rotisserie/eris"
)

// Account is a signing account handle
type Account interface {
	// Address returns the lower-case 0x-prefixed account address
	Address() string

	// Sign signs a 32-byte digest
	Sign(digest []byte) ([]byte, error)
}

// BurnerAccount is a locally held secp256k1 key used as a throwaway game account
type BurnerAccount struct {
	key     *ecdsa.PrivateKey
	address string
}

// Ensure BurnerAccount implements Account
var _ Account = (*BurnerAccount)(nil)

// NewBurnerAccount generates a fresh key
func NewBurnerAccount() (*BurnerAccount, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, eris.Wrap(err, "unable to generate burner key")
	}
	return newBurner(key), nil
}

// BurnerFromHex loads a burner from a hex private key, with or without 0x prefix
func BurnerFromHex(hexKey string) (*BurnerAccount, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, eris.Wrap(err, "invalid burner private key")
	}
	return newBurner(key), nil
}

// LoadBurner reads a burner key file written by Save
func LoadBurner(path string) (*BurnerAccount, error) {
	key, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, eris.Wrapf(err, "unable to load burner key from %q", path)
	}
	return newBurner(key), nil
}

func newBurner(key *ecdsa.PrivateKey) *BurnerAccount {
	return &BurnerAccount{
		key:     key,
		address: strings.ToLower(crypto.PubkeyToAddress(key.PublicKey).Hex()),
	}
}

// Address returns the account address
func (a *BurnerAccount) Address() string {
	return a.address
}

// Sign signs the digest with the burner key
func (a *BurnerAccount) Sign(digest []byte) ([]byte, error) {
	sig, err := crypto.Sign(digest, a.key)
	if err != nil {
		return nil, eris.Wrap(err, "unable to sign digest")
	}
	return sig, nil
}

// PrivateKeyHex exports the key for persistence in config
func (a *BurnerAccount) PrivateKeyHex() string {
	return "0x" + hex.EncodeToString(crypto.FromECDSA(a.key))
}

// Save writes the key to path with owner-only permissions
func (a *BurnerAccount) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return eris.Wrap(err, "unable to create key directory")
	}
	if err := crypto.SaveECDSA(path, a.key); err != nil {
		return eris.Wrapf(err, "unable to save burner key to %q", path)
	}
	return nil
}
