package crypto

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

const (
	addressVersion      = 0x01
	addressHashSize     = 20
	addressChecksumSize = 4
)

// secureHash is keccak256(blake2b256(b)), the chain's address hash.
func secureHash(b []byte) []byte {
	inner := blake2b.Sum256(b)
	h := sha3.NewLegacyKeccak256()
	h.Write(inner[:])
	return h.Sum(nil)
}

// addressFromHash lays out version | chainId | hash20 | checksum.
func addressFromHash(chainID byte, hash20 []byte) []byte {
	addr := make([]byte, 0, AddressSize)
	addr = append(addr, addressVersion, chainID)
	addr = append(addr, hash20[:addressHashSize]...)
	return append(addr, secureHash(addr)[:addressChecksumSize]...)
}

// AddressFromPublicKey derives the base58 address of a base58 public key on
// the given chain.
func AddressFromPublicKey(chainID byte, publicKey string) (string, error) {
	pk, err := decodeBase58("public key", publicKey, PublicKeySize)
	if err != nil {
		return "", err
	}
	return base58.Encode(addressFromHash(chainID, secureHash(pk))), nil
}

// AddressFromEthereum embeds a 20-byte Ethereum address into a chain
// address. This is how metamask users get a sender id without a public key.
func AddressFromEthereum(chainID byte, eth common.Address) string {
	return base58.Encode(addressFromHash(chainID, eth.Bytes()))
}

// ValidateAddress checks length, version, chain id and checksum.
func ValidateAddress(chainID byte, address string) error {
	b, err := decodeBase58("address", address, AddressSize)
	if err != nil {
		return err
	}
	if b[0] != addressVersion {
		return errors.Wrapf(ErrInvalidEncoding, "address: unsupported version %d", b[0])
	}
	if b[1] != chainID {
		return errors.Wrapf(ErrInvalidNetwork, "address is for chain %q, want %q", b[1], chainID)
	}
	body := b[:AddressSize-addressChecksumSize]
	if !bytes.Equal(secureHash(body)[:addressChecksumSize], b[AddressSize-addressChecksumSize:]) {
		return errors.Wrap(ErrInvalidEncoding, "address: checksum mismatch")
	}
	return nil
}
