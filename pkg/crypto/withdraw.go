package crypto

import (
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// withdrawPrefix is base58 "7YXq4t": the bytes ff ff ff 01. It keeps a
// withdraw approval from ever being mistaken for an order.
var withdrawPrefix = [4]byte{0xff, 0xff, 0xff, 0x01}

// WithdrawRequest is what the matcher signs to approve a fast withdrawal from
// the treasury.
type WithdrawRequest struct {
	// LastTxID is the user's previous fast-withdraw transaction id, empty on
	// the first withdrawal.
	LastTxID    string
	UserAddress string
	AssetID     string
	Amount      uint64
}

// WithdrawSigningPayload lays out:
//
//	ff ff ff 01 | [last tx id] | user address | asset | amount
//
// It shares only the asset tag and integer encoding with orders.
func WithdrawSigningPayload(req WithdrawRequest) ([]byte, error) {
	buf := make([]byte, 0, len(withdrawPrefix)+DigestSize+AddressSize+1+DigestSize+uint64Size)
	buf = append(buf, withdrawPrefix[:]...)

	if req.LastTxID != "" {
		txID, err := decodeBase58("last withdraw tx id", req.LastTxID, DigestSize)
		if err != nil {
			return nil, err
		}
		buf = append(buf, txID...)
	}

	user, err := decodeBase58("user address", req.UserAddress, AddressSize)
	if err != nil {
		return nil, err
	}
	buf = append(buf, user...)

	asset, err := ParseAsset(req.AssetID)
	if err != nil {
		return nil, errors.WithMessage(err, "withdraw asset")
	}
	buf = asset.appendBinary(buf)
	buf = appendUint64(buf, req.Amount)
	return buf, nil
}

// WithdrawSigningPayloadBase58 is the form handed to the matcher for signing.
func WithdrawSigningPayloadBase58(req WithdrawRequest) (string, error) {
	b, err := WithdrawSigningPayload(req)
	if err != nil {
		return "", err
	}
	return base58.Encode(b), nil
}
