package crypto

import (
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// NativeAssetName is the human-readable sentinel for the chain's own token.
const NativeAssetName = "WAVES"

// Asset is either the native token (Present == false) or a 32-byte asset id.
// On the wire the native token is a single 0x00 byte; a custom asset is 0x01
// followed by its id.
type Asset struct {
	Present bool
	ID      [DigestSize]byte
}

// NativeAsset returns the native-token sentinel.
func NativeAsset() Asset { return Asset{} }

// ParseAsset accepts "WAVES" or a base58 asset id.
func ParseAsset(s string) (Asset, error) {
	if s == NativeAssetName {
		return Asset{}, nil
	}
	b, err := decodeBase58("asset id", s, DigestSize)
	if err != nil {
		return Asset{}, err
	}
	var a Asset
	a.Present = true
	copy(a.ID[:], b)
	return a, nil
}

func (a Asset) String() string {
	if a.Present {
		return base58.Encode(a.ID[:])
	}
	return NativeAssetName
}

// BinarySize is 1 for the native token and 33 otherwise.
func (a Asset) BinarySize() int {
	if a.Present {
		return 1 + DigestSize
	}
	return 1
}

func (a Asset) appendBinary(dst []byte) []byte {
	if !a.Present {
		return append(dst, 0)
	}
	dst = append(dst, 1)
	return append(dst, a.ID[:]...)
}

// readAsset consumes one asset segment and returns the remaining bytes.
func readAsset(field string, data []byte) (Asset, []byte, error) {
	if len(data) < 1 {
		return Asset{}, nil, errors.Wrapf(ErrMalformedOrder, "%s: missing asset tag", field)
	}
	switch data[0] {
	case 0:
		return Asset{}, data[1:], nil
	case 1:
		data = data[1:]
		if len(data) < DigestSize {
			return Asset{}, nil, errors.Wrapf(ErrMalformedOrder, "%s: expected %d id bytes, got %d", field, DigestSize, len(data))
		}
		var a Asset
		a.Present = true
		copy(a.ID[:], data[:DigestSize])
		return a, data[DigestSize:], nil
	default:
		return Asset{}, nil, errors.Wrapf(ErrMalformedOrder, "%s: unknown asset tag %d", field, data[0])
	}
}

// MarshalText renders the asset the way the UI and the contract state show it.
func (a Asset) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText parses "WAVES" or a base58 id.
func (a *Asset) UnmarshalText(text []byte) error {
	parsed, err := ParseAsset(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
