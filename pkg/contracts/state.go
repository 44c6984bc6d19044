// Package contracts reads the exchange dApps' on-chain state and builds the
// invocations the matcher submits.
package contracts

import (
	"context"

	"github.com/uhyunpark/ridematcher/pkg/node"
)

// Node is the part of the node API the contract readers need.
type Node interface {
	AddressData(ctx context.Context, address string) ([]node.DataEntry, error)
	AddressDataByKeys(ctx context.Context, address string, keys []string) ([]node.DataEntry, error)
	AddressDataMatching(ctx context.Context, address, pattern string) ([]node.DataEntry, error)
	EvaluateExpr(ctx context.Context, dApp, expr string) (*node.EvaluateResult, error)
}

var _ Node = (*node.Client)(nil)

// State is a dApp's data storage in the order the node returned it.
type State []node.DataEntry

// Entry returns the first entry with the given key.
func (s State) Entry(key string) (node.DataEntry, bool) {
	for _, e := range s {
		if e.Key == key {
			return e, true
		}
	}
	return node.DataEntry{}, false
}

// String returns the first matching value as text, or "" when absent.
func (s State) String(key string) string {
	if e, ok := s.Entry(key); ok {
		return e.String()
	}
	return ""
}

// Int returns the first matching integer value.
func (s State) Int(key string) (int64, bool) {
	if e, ok := s.Entry(key); ok {
		return e.Int()
	}
	return 0, false
}

// AsMap flattens the state for template lookups. Later duplicates lose.
func (s State) AsMap() map[string]string {
	out := make(map[string]string, len(s))
	for _, e := range s {
		if _, seen := out[e.Key]; !seen {
			out[e.Key] = e.String()
		}
	}
	return out
}

// LoadState fetches the whole data storage of an account.
func LoadState(ctx context.Context, n Node, address string) (State, error) {
	entries, err := n.AddressData(ctx, address)
	if err != nil {
		return nil, err
	}
	return State(entries), nil
}
