package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/mr-tron/base58"
)

// Digest is a SHA-256 hash.
type Digest [DigestSize]byte

// HashOrder returns the SHA-256 of exactly the given encoded order bytes.
func HashOrder(encoded []byte) Digest {
	return sha256.Sum256(encoded)
}

// String is the base58 form, which is how ids are displayed and signed.
func (d Digest) String() string { return base58.Encode(d[:]) }

func (d Digest) Hex() string { return hex.EncodeToString(d[:]) }

// OrderID is the content-addressed identifier of an encoded order in the
// forms the UI shows it.
type OrderID struct {
	Digest Digest
	// Base58 is base58(digest): the displayed order id and, for version 1
	// orders, the message the wallet signs.
	Base58 string
	// Base64 is base64 of the Base58 string, not of the digest. The deployed
	// UI/contract pairing compares this form, so it is kept as is.
	Base64 string
}

// NewOrderID hashes encoded order bytes and renders both display forms.
func NewOrderID(encoded []byte) OrderID {
	d := HashOrder(encoded)
	b58 := d.String()
	return OrderID{
		Digest: d,
		Base58: b58,
		Base64: base64.StdEncoding.EncodeToString([]byte(b58)),
	}
}
