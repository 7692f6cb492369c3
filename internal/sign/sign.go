// Package sign produces and verifies signed transaction payloads sent to the game backend.
package sign

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rotisserie/eris"

	"github.com/mcoot/dojo-starter/internal/model"
)

// Signer signs a 32-byte digest on behalf of an account address
type Signer interface {
	Address() string
	Sign(digest []byte) ([]byte, error)
}

// SignedPayload is the envelope for every transaction submitted to the backend
type SignedPayload struct {
	Signer    string          `json:"signer"`
	Namespace string          `json:"namespace"`
	Nonce     string          `json:"nonce"`
	Action    model.Action    `json:"action"`
	Body      json.RawMessage `json:"body,omitempty"`
	Signature []byte          `json:"signature"`
}

// NewSignedPayload signs the given body with the signer's key
func NewSignedPayload(s Signer, namespace, nonce string, action model.Action, body any) (*SignedPayload, error) {
	sp := &SignedPayload{
		Signer:    strings.ToLower(s.Address()),
		Namespace: namespace,
		Nonce:     nonce,
		Action:    action,
	}
	if body != nil {
		bz, err := json.Marshal(body)
		if err != nil {
			return nil, eris.Wrap(err, "unable to marshal payload body")
		}
		sp.Body = bz
	}

	sig, err := s.Sign(sp.Digest())
	if err != nil {
		return nil, eris.Wrap(err, "unable to sign payload")
	}
	sp.Signature = sig
	return sp, nil
}

// Unmarshal decodes a SignedPayload. Verify must still be called on the result.
func Unmarshal(buf []byte) (*SignedPayload, error) {
	sp := &SignedPayload{}
	if err := json.Unmarshal(buf, sp); err != nil {
		return nil, eris.Wrap(err, "unable to decode signed payload")
	}
	return sp, nil
}

// Marshal serializes this SignedPayload to bytes, which can then be passed in to Unmarshal.
func (s *SignedPayload) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// Verify checks the signature was produced by the key behind the Signer address
func (s *SignedPayload) Verify() error {
	if !common.IsHexAddress(s.Signer) {
		return eris.Wrapf(model.ErrInvalidSignature, "malformed signer address %q", s.Signer)
	}
	pub, err := crypto.SigToPub(s.Digest(), s.Signature)
	if err != nil {
		return eris.Wrap(model.ErrInvalidSignature, err.Error())
	}
	if crypto.PubkeyToAddress(*pub) != common.HexToAddress(s.Signer) {
		return eris.Wrap(model.ErrInvalidSignature, "signer mismatch")
	}
	return nil
}

// Digest is the keccak hash covering every signed field
func (s *SignedPayload) Digest() []byte {
	return crypto.Keccak256(
		[]byte(s.Signer),
		[]byte(s.Namespace),
		[]byte(fmt.Sprintf("%s:%s", s.Nonce, s.Action)),
		s.Body,
	)
}
