package storage

import "fmt"

// Key schema:
//
//	ord:<orderID>                      → OrderRecord
//	snd:<sender>:<orderID>             → empty (sender index)
//	match:<timestamp>:<matchID>        → MatchRecord
const (
	prefixOrder  = "ord:"
	prefixSender = "snd:"
	prefixMatch  = "match:"
)

// orderKey returns the key for an order
// Format: "ord:{orderID}"
func orderKey(orderID string) []byte {
	return []byte(prefixOrder + orderID)
}

// senderIndexKey returns the index entry of an order under its sender
// Format: "snd:{sender}:{orderID}"
func senderIndexKey(sender, orderID string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", prefixSender, sender, orderID))
}

// senderPrefix returns the prefix for all orders of a sender
func senderPrefix(sender string) []byte {
	return []byte(fmt.Sprintf("%s%s:", prefixSender, sender))
}

// matchKey returns the key for a match
// Timestamp is zero-padded (20 digits) for lexicographic sorting
func matchKey(timestamp int64, matchID string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixMatch, timestamp, matchID))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
