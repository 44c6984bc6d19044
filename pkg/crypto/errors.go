package crypto

import "github.com/pkg/errors"

// Sentinel errors returned (wrapped) by the codec. Match with errors.Is.
var (
	ErrInvalidEncoding    = errors.New("invalid encoding input")
	ErrOutOfRange         = errors.New("value out of 8-byte unsigned range")
	ErrUnsupportedVersion = errors.New("unsupported order version")
	ErrInvalidNetwork     = errors.New("network must be a single ASCII character")
	ErrFlagsUnsupported   = errors.New("flags require order version 3")
	ErrMalformedOrder     = errors.New("malformed order bytes")
)
