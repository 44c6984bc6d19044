package storage

import "errors"

// ErrNotFound is returned by loads of a missing key.
var ErrNotFound = errors.New("not found")

// Order lifecycle as the matcher sees it.
const (
	StatusEncoded = "encoded" // bytes built, waiting for the wallet proof
	StatusSigned  = "signed"  // proof attached
	StatusMatched = "matched" // used in an exchange invocation
)

// OrderRecord is an encoded order the matcher has handed out.
type OrderRecord struct {
	ID         string `json:"id"`       // base58 digest
	IDBase64   string `json:"idBase64"` // base64 of the base58 id
	Sender     string `json:"sender"`
	SignerKind string `json:"signerKind"`
	Version    uint8  `json:"version"`
	Prediction bool   `json:"prediction"`
	Encoded    []byte `json:"encoded"`
	Proof      []byte `json:"proof,omitempty"`
	Status     string `json:"status"`
	CreatedAt  int64  `json:"createdAt"` // unix seconds
}

// MatchRecord is one exchange invocation built from two signed orders.
type MatchRecord struct {
	ID        string `json:"id"`
	MakerID   string `json:"makerId"`
	TakerID   string `json:"takerId"`
	DApp      string `json:"dApp"`
	Function  string `json:"function"`
	Amount    uint64 `json:"amount"`
	Price     uint64 `json:"price"`
	Timestamp int64  `json:"timestamp"`
}

// OrderStore persists orders and matches. PebbleStore is the durable
// implementation, MemoryStore backs tests and --ephemeral runs.
type OrderStore interface {
	SaveOrder(rec *OrderRecord) error
	LoadOrder(id string) (*OrderRecord, error)
	ListOrders(sender string, limit int) ([]*OrderRecord, error)
	DeleteOrder(id string) error
	SaveMatch(m *MatchRecord) error
	LoadRecentMatches(limit int) ([]*MatchRecord, error)
	Close() error
}
