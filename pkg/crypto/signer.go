package crypto

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// SignatureSize is the [R || S || V] length produced by secp256k1 wallets.
const SignatureSize = 65

// Signer holds a secp256k1 key and signs order ids the way a metamask wallet
// does: personal_sign over the base58 id string.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
}

// GenerateKey creates a new random secp256k1 key pair.
func GenerateKey() (*Signer, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}
	return newSigner(privateKey), nil
}

// FromPrivateKeyHex loads a key from 64 hex chars, with or without 0x.
func FromPrivateKeyHex(hexKey string) (*Signer, error) {
	if len(hexKey) > 1 && hexKey[0] == '0' && (hexKey[1] == 'x' || hexKey[1] == 'X') {
		hexKey = hexKey[2:]
	}
	privateKey, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return newSigner(privateKey), nil
}

func newSigner(privateKey *ecdsa.PrivateKey) *Signer {
	return &Signer{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey),
	}
}

// Address returns the Ethereum address derived from the public key.
func (s *Signer) Address() common.Address {
	return s.address
}

// WavesAddress is the sender id a metamask user carries in orders.
func (s *Signer) WavesAddress(chainID byte) string {
	return AddressFromEthereum(chainID, s.address)
}

// PrivateKeyHex returns the private key as hex without 0x. Never log it.
func (s *Signer) PrivateKeyHex() string {
	return fmt.Sprintf("%x", crypto.FromECDSA(s.privateKey))
}

// SignOrderID signs the base58 order id with EIP-191 personal-message hashing.
// V is 27 or 28, as wallets return it.
func (s *Signer) SignOrderID(id OrderID) ([]byte, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(id.Base58)), s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// RecoverOrderSigner returns the address that produced a personal_sign
// signature over the order id. Both 0/1 and 27/28 recovery ids are accepted.
func RecoverOrderSigner(id OrderID, signature []byte) (common.Address, error) {
	if len(signature) != SignatureSize {
		return common.Address{}, fmt.Errorf("invalid signature length: %d", len(signature))
	}
	sig := make([]byte, SignatureSize)
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	pub, err := crypto.SigToPub(accounts.TextHash([]byte(id.Base58)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to recover public key: %w", err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// VerifyOrderSignature reports whether address signed the order id.
func VerifyOrderSignature(address common.Address, id OrderID, signature []byte) bool {
	recovered, err := RecoverOrderSigner(id, signature)
	if err != nil {
		return false
	}
	return recovered == address
}
