package crypto

import (
	"encoding/base64"
	"encoding/hex"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Proof is a wallet signature over an order, in raw bytes.
type Proof []byte

// ProofFromWallet normalizes what a wallet returns. Metamask hands back 0x
// hex; every other provider returns base58.
func ProofFromWallet(kind SignerKind, raw string) (Proof, error) {
	if raw == "" {
		return nil, errors.Wrap(ErrInvalidEncoding, "proof: empty")
	}
	if kind == SignerMetamask {
		s := strings.TrimPrefix(strings.TrimPrefix(raw, "0x"), "0X")
		b, err := hex.DecodeString(s)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidEncoding, "proof: %v", err)
		}
		return Proof(b), nil
	}
	b, err := base58.Decode(raw)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidEncoding, "proof: %v", err)
	}
	return Proof(b), nil
}

// Base64 is the plain base64 form.
func (p Proof) Base64() string { return base64.StdEncoding.EncodeToString(p) }

// Binary is the "base64:" form used for binary invocation arguments.
func (p Proof) Binary() string { return "base64:" + p.Base64() }

func (p Proof) Base58() string { return base58.Encode(p) }

// BinaryArg renders arbitrary bytes as a binary invocation argument.
func BinaryArg(b []byte) string {
	return "base64:" + base64.StdEncoding.EncodeToString(b)
}
