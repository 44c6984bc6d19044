package crypto

import (
	"bytes"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func drawAsset(t *rapid.T, label string) string {
	if rapid.Bool().Draw(t, label+"_native") {
		return NativeAssetName
	}
	return base58.Encode(rapid.SliceOfN(rapid.Byte(), DigestSize, DigestSize).Draw(t, label))
}

func drawFields(t *rapid.T) (OrderFields, SignerKind) {
	kind := rapid.SampledFrom([]SignerKind{SignerKeeper, SignerMetamask, SignerWeb}).Draw(t, "kind")
	version := rapid.Uint8Range(OrderVersion1, OrderVersion3).Draw(t, "version")
	var flags uint64
	if version == OrderVersion3 {
		flags = rapid.Uint64().Draw(t, "flags")
	}
	sender := rapid.SliceOfN(rapid.Byte(), kind.SenderKind().size(), kind.SenderKind().size()).Draw(t, "sender")
	matcher := rapid.SliceOfN(rapid.Byte(), PublicKeySize, PublicKeySize).Draw(t, "matcher")
	return OrderFields{
		Version:          version,
		Network:          string(rune(rapid.ByteRange(0x21, 0x7e).Draw(t, "network"))),
		Sender:           base58.Encode(sender),
		MatcherPublicKey: base58.Encode(matcher),
		AmountAsset:      drawAsset(t, "amount_asset"),
		PriceAsset:       drawAsset(t, "price_asset"),
		OrderType:        rapid.SampledFrom([]OrderType{OrderTypeLimit, OrderTypePrediction}).Draw(t, "type"),
		Direction:        rapid.SampledFrom([]Direction{Buy, Sell}).Draw(t, "direction"),
		Amount:           rapid.Uint64().Draw(t, "amount"),
		Price:            rapid.Uint64().Draw(t, "price"),
		Timestamp:        rapid.Uint64().Draw(t, "timestamp"),
		Expiration:       rapid.Uint64().Draw(t, "expiration"),
		Flags:            flags,
	}, kind
}

// The encoded length is fully determined by version, sender kind and the
// asset branches, and decoding always gives back the same bytes.
func TestOrderEncodingProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f, kind := drawFields(t)

		encoded, err := EncodeOrder(f, kind)
		require.NoError(t, err)

		want := 3 + kind.SenderKind().size() + PublicKeySize + 2 + 32
		for _, a := range []string{f.AmountAsset, f.PriceAsset} {
			want++
			if a != NativeAssetName {
				want += DigestSize
			}
		}
		if f.Version == OrderVersion3 {
			want += 8
		}
		require.Len(t, encoded, want)
		require.Equal(t, byte(kind.SenderKind()), encoded[2])

		decoded, err := DecodeOrder(encoded)
		require.NoError(t, err)
		again, err := decoded.MarshalBinary()
		require.NoError(t, err)
		require.True(t, bytes.Equal(encoded, again))

		id, err := decoded.ID()
		require.NoError(t, err)
		require.Equal(t, NewOrderID(encoded), id)
	})
}
