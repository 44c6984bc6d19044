package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/uhyunpark/ridematcher/pkg/crypto"
	"github.com/uhyunpark/ridematcher/pkg/storage"
)

// Request and response bodies of the REST endpoints and WebSocket messages.

// Uint64Text accepts an integer either as a JSON number or as a decimal
// string. Wallet UIs send amounts as strings so values above 2^53 survive.
// An optional field is omitted or null; an empty string is rejected.
type Uint64Text uint64

func (u *Uint64Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*u = 0
		return nil
	}
	s := string(data)
	if strings.HasPrefix(s, `"`) {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	v, err := crypto.ParseUint64("integer", s)
	if err != nil {
		return err
	}
	*u = Uint64Text(v)
	return nil
}

func (u Uint64Text) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`"%d"`, uint64(u))), nil
}

// ==============================
// Orders
// ==============================

// EncodeOrderRequest is the form a UI fills before asking the wallet to sign.
// Empty network, matcher key and timestamp are filled by the matcher.
type EncodeOrderRequest struct {
	Signer           string     `json:"signer"` // keeper, metamask, web, email
	Version          uint8      `json:"version"`
	Network          string     `json:"network,omitempty"`
	Sender           string     `json:"sender"`
	MatcherPublicKey string     `json:"matcherPublicKey,omitempty"`
	AmountAsset      string     `json:"amountAsset"`
	PriceAsset       string     `json:"priceAsset"`
	OrderType        string     `json:"orderType"` // "limit" or "prediction"
	Direction        string     `json:"direction"` // "buy" or "sell"
	Amount           Uint64Text `json:"amount"`
	Price            Uint64Text `json:"price"`
	Timestamp        Uint64Text `json:"timestamp,omitempty"`
	Expiration       Uint64Text `json:"expiration"`
	Flags            Uint64Text `json:"flags,omitempty"`
	Outcome          string     `json:"outcome,omitempty"` // "YES" or "NO", prediction orders only
}

// Fields converts the request into order fields and the signer kind.
func (r EncodeOrderRequest) Fields() (crypto.OrderFields, crypto.SignerKind, error) {
	dir, err := crypto.ParseDirection(r.Direction)
	if err != nil {
		return crypto.OrderFields{}, 0, err
	}
	var typ crypto.OrderType
	switch strings.ToLower(r.OrderType) {
	case "", "limit":
		typ = crypto.OrderTypeLimit
	case "prediction":
		typ = crypto.OrderTypePrediction
	default:
		return crypto.OrderFields{}, 0, fmt.Errorf("unknown order type %q", r.OrderType)
	}

	flags := uint64(r.Flags)
	switch strings.ToUpper(r.Outcome) {
	case "":
	case "YES":
		flags &^= 0xff
	case "NO":
		flags = flags&^0xff | 1
	default:
		return crypto.OrderFields{}, 0, fmt.Errorf("unknown outcome %q", r.Outcome)
	}

	version := r.Version
	if version == 0 {
		version = crypto.OrderVersion3
	}
	return crypto.OrderFields{
		Version:          version,
		Network:          r.Network,
		Sender:           r.Sender,
		MatcherPublicKey: r.MatcherPublicKey,
		AmountAsset:      r.AmountAsset,
		PriceAsset:       r.PriceAsset,
		OrderType:        typ,
		Direction:        dir,
		Amount:           uint64(r.Amount),
		Price:            uint64(r.Price),
		Timestamp:        uint64(r.Timestamp),
		Expiration:       uint64(r.Expiration),
		Flags:            flags,
	}, crypto.ParseSignerKind(r.Signer), nil
}

// OrderInfo is a stored order with its bytes in every form a wallet asks for.
type OrderInfo struct {
	ID          string `json:"id"`
	IDBase64    string `json:"idBase64"`
	Sender      string `json:"sender"`
	Signer      string `json:"signer"`
	Version     uint8  `json:"version"`
	Prediction  bool   `json:"prediction"`
	Status      string `json:"status"`
	Bytes       string `json:"bytes"`       // base58
	BytesBase64 string `json:"bytesBase64"` // plain base64
	Proof       string `json:"proof,omitempty"`
	CreatedAt   int64  `json:"createdAt"`
}

func orderInfo(rec *storage.OrderRecord) OrderInfo {
	info := OrderInfo{
		ID:          rec.ID,
		IDBase64:    rec.IDBase64,
		Sender:      rec.Sender,
		Signer:      rec.SignerKind,
		Version:     rec.Version,
		Prediction:  rec.Prediction,
		Status:      rec.Status,
		Bytes:       base58.Encode(rec.Encoded),
		BytesBase64: base64.StdEncoding.EncodeToString(rec.Encoded),
		CreatedAt:   rec.CreatedAt,
	}
	if len(rec.Proof) > 0 {
		info.Proof = base58.Encode(rec.Proof)
	}
	return info
}

// AttachProofRequest carries the signature exactly as the wallet returned it.
type AttachProofRequest struct {
	Proof string `json:"proof"`
}

// ==============================
// Exchange and treasury
// ==============================

type ExchangeRequest struct {
	MakerID       string     `json:"makerId"`
	TakerID       string     `json:"takerId"`
	Amount        Uint64Text `json:"amount"`
	Price         Uint64Text `json:"price"`
	MakerFeeAsset string     `json:"makerFeeAsset"`
	MakerFee      Uint64Text `json:"makerFee"`
	TakerFeeAsset string     `json:"takerFeeAsset"`
	TakerFee      Uint64Text `json:"takerFee"`
}

type WithdrawPayloadRequest struct {
	LastTxID    string     `json:"lastTxId,omitempty"`
	UserAddress string     `json:"userAddress"`
	AssetID     string     `json:"assetId"`
	Amount      Uint64Text `json:"amount"`

	// ResolveLastTx reads the previous withdraw tx from the treasury when
	// LastTxID is empty.
	ResolveLastTx bool `json:"resolveLastTx"`
}

type WithdrawPayloadResponse struct {
	Payload string `json:"payload"` // base58
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// ==============================
// WebSocket Message Types
// ==============================

// WSSubscribeRequest is a client subscription message.
type WSSubscribeRequest struct {
	Op       string   `json:"op"`       // "subscribe" or "unsubscribe"
	Channels []string `json:"channels"` // "orders", "matches"
}

// WSMessage is what subscribers of a channel receive.
type WSMessage struct {
	Channel string `json:"channel"`
	Type    string `json:"type"`
	Data    any    `json:"data"`
}
