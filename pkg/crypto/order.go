package crypto

import (
	"encoding/binary"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// Order versions understood by the matcher contracts.
const (
	OrderVersion1 uint8 = 1
	OrderVersion2 uint8 = 2
	OrderVersion3 uint8 = 3 // adds the trailing 8-byte flags field
)

// SignerKind is the wallet provider that produced the sender id and the proof.
type SignerKind uint8

const (
	SignerKeeper SignerKind = iota
	SignerMetamask
	SignerWeb
	SignerEmail
	SignerOther
)

// ParseSignerKind maps provider names to a SignerKind. Unknown names are SignerOther.
func ParseSignerKind(s string) SignerKind {
	switch s {
	case "keeper":
		return SignerKeeper
	case "metamask":
		return SignerMetamask
	case "web":
		return SignerWeb
	case "email":
		return SignerEmail
	default:
		return SignerOther
	}
}

func (k SignerKind) String() string {
	switch k {
	case SignerKeeper:
		return "keeper"
	case SignerMetamask:
		return "metamask"
	case SignerWeb:
		return "web"
	case SignerEmail:
		return "email"
	default:
		return "other"
	}
}

// SenderKind is the one-byte discriminator in front of the sender id.
type SenderKind uint8

const (
	SenderPublicKey SenderKind = 0
	SenderAddress   SenderKind = 1
)

// SenderKind reports which sender id the provider hands out: metamask users
// have no Waves public key, only an address.
func (k SignerKind) SenderKind() SenderKind {
	if k == SignerMetamask {
		return SenderAddress
	}
	return SenderPublicKey
}

// size is the decoded length of a sender id of this kind.
func (k SenderKind) size() int {
	if k == SenderAddress {
		return AddressSize
	}
	return PublicKeySize
}

// Sender is the discriminated sender id.
type Sender struct {
	Kind  SenderKind
	Bytes []byte
}

func (s Sender) String() string { return base58.Encode(s.Bytes) }

// Direction of the order.
type Direction uint8

const (
	Buy  Direction = 0
	Sell Direction = 1
)

// ParseDirection accepts "buy" and "sell".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "buy", "BUY":
		return Buy, nil
	case "sell", "SELL":
		return Sell, nil
	default:
		return 0, errors.Errorf("unknown order direction %q", s)
	}
}

func (d Direction) String() string {
	if d == Sell {
		return "sell"
	}
	return "buy"
}

// OrderType selects the matching rules applied by the contract.
type OrderType uint8

const (
	OrderTypeLimit      OrderType = 0
	OrderTypePrediction OrderType = 3
)

// Outcome is the prediction-market side packed into the low byte of flags.
type Outcome uint8

const (
	OutcomeYes Outcome = iota
	OutcomeNo
)

func (o Outcome) String() string {
	if o == OutcomeNo {
		return "NO"
	}
	return "YES"
}

// Order is a decoded trade order.
type Order struct {
	Version          uint8
	Network          byte
	Sender           Sender
	MatcherPublicKey [PublicKeySize]byte
	AmountAsset      Asset
	PriceAsset       Asset
	OrderType        OrderType
	Direction        Direction
	Amount           uint64
	Price            uint64
	Timestamp        uint64
	Expiration       uint64
	Flags            uint64 // encoded only for OrderVersion3
}

// OrderFields is an order as the UI and CLI collect it: base58 strings and
// asset names rather than raw bytes.
type OrderFields struct {
	Version          uint8
	Network          string
	Sender           string
	MatcherPublicKey string
	AmountAsset      string
	PriceAsset       string
	OrderType        OrderType
	Direction        Direction
	Amount           uint64
	Price            uint64
	Timestamp        uint64
	Expiration       uint64
	Flags            uint64
}

// NewOrder decodes the textual fields. The signer kind only decides whether the
// sender is read as a public key or as an address.
func NewOrder(f OrderFields, kind SignerKind) (*Order, error) {
	if len(f.Network) != 1 || f.Network[0] > 0x7f {
		return nil, errors.Wrapf(ErrInvalidNetwork, "got %q", f.Network)
	}
	senderKind := kind.SenderKind()
	senderBytes, err := decodeBase58("sender", f.Sender, senderKind.size())
	if err != nil {
		return nil, err
	}
	matcher, err := decodeBase58("matcher public key", f.MatcherPublicKey, PublicKeySize)
	if err != nil {
		return nil, err
	}
	amountAsset, err := ParseAsset(f.AmountAsset)
	if err != nil {
		return nil, errors.WithMessage(err, "amount asset")
	}
	priceAsset, err := ParseAsset(f.PriceAsset)
	if err != nil {
		return nil, errors.WithMessage(err, "price asset")
	}

	o := &Order{
		Version:     f.Version,
		Network:     f.Network[0],
		Sender:      Sender{Kind: senderKind, Bytes: senderBytes},
		AmountAsset: amountAsset,
		PriceAsset:  priceAsset,
		OrderType:   f.OrderType,
		Direction:   f.Direction,
		Amount:      f.Amount,
		Price:       f.Price,
		Timestamp:   f.Timestamp,
		Expiration:  f.Expiration,
		Flags:       f.Flags,
	}
	copy(o.MatcherPublicKey[:], matcher)
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// EncodeOrder builds and serializes an order in one step.
func EncodeOrder(f OrderFields, kind SignerKind) ([]byte, error) {
	o, err := NewOrder(f, kind)
	if err != nil {
		return nil, err
	}
	return o.MarshalBinary()
}

// Validate checks the invariants the binary layout depends on.
func (o *Order) Validate() error {
	if o.Version < OrderVersion1 || o.Version > OrderVersion3 {
		return errors.Wrapf(ErrUnsupportedVersion, "version %d", o.Version)
	}
	if o.Version < OrderVersion3 && o.Flags != 0 {
		return errors.Wrapf(ErrFlagsUnsupported, "version %d, flags %d", o.Version, o.Flags)
	}
	if o.Network > 0x7f {
		return errors.Wrapf(ErrInvalidNetwork, "network byte %#x", o.Network)
	}
	if o.Sender.Kind != SenderPublicKey && o.Sender.Kind != SenderAddress {
		return errors.Errorf("unknown sender kind %d", o.Sender.Kind)
	}
	if want := o.Sender.Kind.size(); len(o.Sender.Bytes) != want {
		return errors.Wrapf(ErrInvalidEncoding, "sender: expected %d bytes, got %d", want, len(o.Sender.Bytes))
	}
	return nil
}

// BinarySize is fully determined by the version, the sender kind and the two
// asset branches.
func (o *Order) BinarySize() int {
	n := 1 + 1 + 1 + len(o.Sender.Bytes) + PublicKeySize
	n += o.AmountAsset.BinarySize() + o.PriceAsset.BinarySize()
	n += 1 + 1 + 4*uint64Size
	if o.Version >= OrderVersion3 {
		n += uint64Size
	}
	return n
}

// MarshalBinary writes the fixed, version-dependent layout:
//
//	version | network | senderKind | sender | matcher | amountAsset | priceAsset |
//	orderType | direction | amount | price | timestamp | expiration | [flags]
func (o *Order) MarshalBinary() ([]byte, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	buf := make([]byte, 0, o.BinarySize())
	buf = append(buf, o.Version, o.Network, byte(o.Sender.Kind))
	buf = append(buf, o.Sender.Bytes...)
	buf = append(buf, o.MatcherPublicKey[:]...)
	buf = o.AmountAsset.appendBinary(buf)
	buf = o.PriceAsset.appendBinary(buf)
	buf = append(buf, byte(o.OrderType), byte(o.Direction))
	buf = appendUint64(buf, o.Amount)
	buf = appendUint64(buf, o.Price)
	buf = appendUint64(buf, o.Timestamp)
	buf = appendUint64(buf, o.Expiration)
	if o.Version >= OrderVersion3 {
		buf = appendUint64(buf, o.Flags)
	}
	return buf, nil
}

// UnmarshalBinary is the inverse of MarshalBinary. The sender and asset
// discriminators decide how many bytes each segment takes; trailing bytes are
// rejected.
func (o *Order) UnmarshalBinary(data []byte) error {
	r := reader{data: data}
	var out Order
	out.Version = r.readByte("version")
	out.Network = r.readByte("network")
	out.Sender.Kind = SenderKind(r.readByte("sender kind"))
	if r.err == nil && out.Sender.Kind != SenderPublicKey && out.Sender.Kind != SenderAddress {
		return errors.Wrapf(ErrMalformedOrder, "unknown sender kind %d", out.Sender.Kind)
	}
	out.Sender.Bytes = r.readBytes("sender", out.Sender.Kind.size())
	copy(out.MatcherPublicKey[:], r.readBytes("matcher public key", PublicKeySize))
	if r.err != nil {
		return r.err
	}

	var err error
	if out.AmountAsset, r.data, err = readAsset("amount asset", r.data); err != nil {
		return err
	}
	if out.PriceAsset, r.data, err = readAsset("price asset", r.data); err != nil {
		return err
	}

	out.OrderType = OrderType(r.readByte("order type"))
	out.Direction = Direction(r.readByte("direction"))
	out.Amount = r.readUint64("amount")
	out.Price = r.readUint64("price")
	out.Timestamp = r.readUint64("timestamp")
	out.Expiration = r.readUint64("expiration")
	if out.Version >= OrderVersion3 {
		out.Flags = r.readUint64("flags")
	}
	if r.err != nil {
		return r.err
	}
	if len(r.data) != 0 {
		return errors.Wrapf(ErrMalformedOrder, "%d trailing bytes", len(r.data))
	}
	if err := out.Validate(); err != nil {
		return errors.Wrap(ErrMalformedOrder, err.Error())
	}
	*o = out
	return nil
}

// DecodeOrder parses order bytes.
func DecodeOrder(data []byte) (*Order, error) {
	var o Order
	if err := o.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return &o, nil
}

// ID computes the content-addressed identifier of the encoded order.
func (o *Order) ID() (OrderID, error) {
	b, err := o.MarshalBinary()
	if err != nil {
		return OrderID{}, err
	}
	return NewOrderID(b), nil
}

// IsPrediction reports whether the order targets the prediction-market validator.
func (o *Order) IsPrediction() bool { return o.OrderType == OrderTypePrediction }

// Outcome decodes the prediction side from the low byte of flags.
// ok is false for non-prediction orders.
func (o *Order) Outcome() (outcome Outcome, ok bool) {
	if !o.IsPrediction() {
		return OutcomeYes, false
	}
	return OutcomeFromFlags(o.Flags), true
}

// OutcomeFromFlags reads the prediction side packed into flags: a low byte of
// 1 is NO, anything else YES.
func OutcomeFromFlags(flags uint64) Outcome {
	if flags&0xff == 1 {
		return OutcomeNo
	}
	return OutcomeYes
}

// reader is a sticky-error cursor over a byte slice.
type reader struct {
	data []byte
	err  error
}

func (r *reader) readBytes(field string, n int) []byte {
	if r.err != nil {
		return nil
	}
	if len(r.data) < n {
		r.err = errors.Wrapf(ErrMalformedOrder, "%s: expected %d bytes, got %d", field, n, len(r.data))
		return nil
	}
	out := make([]byte, n)
	copy(out, r.data[:n])
	r.data = r.data[n:]
	return out
}

func (r *reader) readByte(field string) byte {
	b := r.readBytes(field, 1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) readUint64(field string) uint64 {
	b := r.readBytes(field, uint64Size)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint64(b)
}
