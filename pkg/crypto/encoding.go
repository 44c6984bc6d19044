package crypto

import (
	"encoding/base64"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Fixed sizes of the decoded base58 values the wire formats carry.
const (
	PublicKeySize = 32
	AddressSize   = 26
	DigestSize    = 32
	uint64Size    = 8
)

// decodeBase58 decodes s and checks the decoded length when size > 0.
// Empty input is an error: callers must never end up with zero-filled fields.
func decodeBase58(field, s string, size int) ([]byte, error) {
	if s == "" {
		return nil, errors.Wrapf(ErrInvalidEncoding, "%s: empty base58 string", field)
	}
	b, err := base58.Decode(s)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidEncoding, "%s: %v", field, err)
	}
	if size > 0 && len(b) != size {
		return nil, errors.Wrapf(ErrInvalidEncoding, "%s: expected %d bytes, got %d", field, size, len(b))
	}
	return b, nil
}

// DecodeBase64 accepts plain base64 and the node's "base64:" prefixed form.
func DecodeBase64(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "base64:")
	if s == "" {
		return nil, errors.Wrap(ErrInvalidEncoding, "empty base64 string")
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidEncoding, "base64: %v", err)
	}
	return b, nil
}

func appendUint64(dst []byte, v uint64) []byte {
	return binary.BigEndian.AppendUint64(dst, v)
}

// ParseUint64 parses a required decimal field the way UI and CLI inputs
// arrive. Empty input is ErrInvalidEncoding; negative numbers and values above
// MaxUint64 are rejected with ErrOutOfRange.
func ParseUint64(field, s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.Wrapf(ErrInvalidEncoding, "%s: required", field)
	}
	if strings.HasPrefix(s, "-") {
		return 0, errors.Wrapf(ErrOutOfRange, "%s: negative value %s", field, s)
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		if ne, ok := err.(*strconv.NumError); ok && ne.Err == strconv.ErrRange {
			return 0, errors.Wrapf(ErrOutOfRange, "%s: %s", field, s)
		}
		return 0, errors.Wrapf(ErrInvalidEncoding, "%s: not an integer: %q", field, s)
	}
	return v, nil
}

// ParseOptionalUint64 is ParseUint64 for fields the matcher can fill in,
// such as timestamp and flags: empty input means zero.
func ParseOptionalUint64(field, s string) (uint64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	return ParseUint64(field, s)
}
