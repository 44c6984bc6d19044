package crypto

import (
	"bytes"
	"encoding/hex"
	"errors"
	"testing"
)

const (
	testPublicKey    = "9QvMuwXsxpVmjirwEvpYyG93BL5uW54RVv5SozrwP9wv"
	testPublicKeyHex = "7cfe3062794d50fcca532ac7e81027439052b895372e02b984dc1f087111b641"
	testAddress      = "3MwwN6bPUCm2Tbi9YxJwiu21zbRbERroHyx"
	testAssetID      = "FNiKANejAn3VguZYF6vGtHiWXEYWsoMLEiGh1xr6sB6F"
)

func baseFields(version uint8) OrderFields {
	return OrderFields{
		Version:          version,
		Network:          "T",
		Sender:           testPublicKey,
		MatcherPublicKey: testPublicKey,
		AmountAsset:      NativeAssetName,
		PriceAsset:       NativeAssetName,
		OrderType:        OrderTypeLimit,
		Direction:        Buy,
		Amount:           100000000,
		Price:            100000000,
		Timestamp:        1700000000,
		Expiration:       1700003600,
	}
}

func TestEncodeOrderVectors(t *testing.T) {
	tests := []struct {
		name   string
		fields func() OrderFields
		size   int
		digest string
		base58 string
		base64 string
	}{
		{
			name:   "v2 native pair",
			fields: func() OrderFields { return baseFields(OrderVersion2) },
			size:   103,
			digest: "a287017c11592bc3baf341929710df5bfbf29a0a8ae864fa2d8fb3e870301b39",
			base58: "BwSSvCvyqMSM7HkPrYDeUhYBUEpTTgLjqgqFfD84SDzg",
			base64: "QndTU3ZDdnlxTVNNN0hrUHJZRGVVaFlCVUVwVFRnTGpxZ3FGZkQ4NFNEemc=",
		},
		{
			name:   "v1 native pair",
			fields: func() OrderFields { return baseFields(OrderVersion1) },
			size:   103,
			digest: "8688f47844307f7c93451a6c9c83dfeb01d8b210c0d1a3e558bb38e491e818a8",
			base58: "A4AkoMyb1uZJvxriC6o4FEyfbNWoJVNYbN64jPsiznmd",
			base64: "QTRBa29NeWIxdVpKdnhyaUM2bzRGRXlmYk5Xb0pWTlliTjY0alBzaXpubWQ=",
		},
		{
			name:   "v3 zero flags",
			fields: func() OrderFields { return baseFields(OrderVersion3) },
			size:   111,
			digest: "7127405551f9958d9d634004638ff8cfd7440e0a9915d3070253760c26caa350",
			base58: "8chnU2ndu8qfwbUsXMqwgBakAPW7foEMSCK1eAwtYj9H",
			base64: "OGNoblUybmR1OHFmd2JVc1hNcXdnQmFrQVBXN2ZvRU1TQ0sxZUF3dFlqOUg=",
		},
		{
			name: "v3 prediction sell NO",
			fields: func() OrderFields {
				f := baseFields(OrderVersion3)
				f.OrderType = OrderTypePrediction
				f.Direction = Sell
				f.Flags = 1
				return f
			},
			size:   111,
			digest: "a6e69d3c2ddf964dc6647d768dcfcd54c8c1660209e1bbd18203925c06de8b90",
			base58: "CEWdnS9ge8EoUiVjJjdvHGCTdiuUdHzz6ycnHpg8oQCP",
			base64: "Q0VXZG5TOWdlOEVvVWlWakpqZHZIR0NUZGl1VWRIeno2eWNuSHBnOG9RQ1A=",
		},
		{
			name: "v3 custom amount asset",
			fields: func() OrderFields {
				f := baseFields(OrderVersion3)
				f.AmountAsset = testAssetID
				f.OrderType = OrderTypePrediction
				f.Direction = Sell
				f.Flags = 1
				return f
			},
			size:   143,
			base58: "BE7RXL4ofe8xNjdFFETEw8SCcEGo1ckMwhvyMxjoAUCR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeOrder(tt.fields(), SignerKeeper)
			if err != nil {
				t.Fatalf("EncodeOrder: %v", err)
			}
			if len(encoded) != tt.size {
				t.Fatalf("len = %d, want %d", len(encoded), tt.size)
			}
			id := NewOrderID(encoded)
			if tt.digest != "" && id.Digest.Hex() != tt.digest {
				t.Errorf("digest = %s, want %s", id.Digest.Hex(), tt.digest)
			}
			if id.Base58 != tt.base58 {
				t.Errorf("base58 id = %s, want %s", id.Base58, tt.base58)
			}
			if tt.base64 != "" && id.Base64 != tt.base64 {
				t.Errorf("base64 id = %s, want %s", id.Base64, tt.base64)
			}
		})
	}
}

func TestEncodeOrderLayout(t *testing.T) {
	encoded, err := EncodeOrder(baseFields(OrderVersion2), SignerKeeper)
	if err != nil {
		t.Fatalf("EncodeOrder: %v", err)
	}
	pk, _ := hex.DecodeString(testPublicKeyHex)

	want := []byte{0x02, 'T', 0x00}
	want = append(want, pk...)
	want = append(want, pk...)
	want = append(want, 0x00, 0x00, 0x00, 0x00)
	want = append(want,
		0, 0, 0, 0, 0x05, 0xf5, 0xe1, 0x00,
		0, 0, 0, 0, 0x05, 0xf5, 0xe1, 0x00,
		0, 0, 0, 0, 0x65, 0x53, 0xf1, 0x00,
		0, 0, 0, 0, 0x65, 0x53, 0xff, 0x10,
	)
	if !bytes.Equal(encoded, want) {
		t.Fatalf("encoded =\n%x\nwant\n%x", encoded, want)
	}
}

func TestEncodeOrderDeterministic(t *testing.T) {
	a, err := EncodeOrder(baseFields(OrderVersion3), SignerKeeper)
	if err != nil {
		t.Fatalf("EncodeOrder: %v", err)
	}
	b, err := EncodeOrder(baseFields(OrderVersion3), SignerKeeper)
	if err != nil {
		t.Fatalf("EncodeOrder: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatal("same fields produced different bytes")
	}
	if NewOrderID(a) != NewOrderID(b) {
		t.Fatal("same bytes produced different ids")
	}
}

func TestEncodeOrderVersionChangesID(t *testing.T) {
	v2, _ := EncodeOrder(baseFields(OrderVersion2), SignerKeeper)
	v3, _ := EncodeOrder(baseFields(OrderVersion3), SignerKeeper)
	if len(v3)-len(v2) != 8 {
		t.Fatalf("v3 should be 8 bytes longer, got %d vs %d", len(v3), len(v2))
	}
	if NewOrderID(v2).Base58 == NewOrderID(v3).Base58 {
		t.Fatal("v2 and v3 orders share an id")
	}
}

func TestEncodeOrderAddressSender(t *testing.T) {
	f := baseFields(OrderVersion3)
	f.Sender = testAddress

	encoded, err := EncodeOrder(f, SignerMetamask)
	if err != nil {
		t.Fatalf("EncodeOrder: %v", err)
	}
	if len(encoded) != 111-PublicKeySize+AddressSize {
		t.Fatalf("len = %d, want %d", len(encoded), 111-PublicKeySize+AddressSize)
	}
	if encoded[2] != byte(SenderAddress) {
		t.Fatalf("sender kind byte = %d, want 1", encoded[2])
	}

	// A public key handed over as a metamask sender has the wrong length.
	f.Sender = testPublicKey
	if _, err := EncodeOrder(f, SignerMetamask); !errors.Is(err, ErrInvalidEncoding) {
		t.Fatalf("err = %v, want ErrInvalidEncoding", err)
	}
}

func TestEncodeOrderErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*OrderFields)
		want   error
	}{
		{"bad sender base58", func(f *OrderFields) { f.Sender = "0OIl" }, ErrInvalidEncoding},
		{"empty matcher", func(f *OrderFields) { f.MatcherPublicKey = "" }, ErrInvalidEncoding},
		{"short asset", func(f *OrderFields) { f.AmountAsset = "abc" }, ErrInvalidEncoding},
		{"lowercase waves is not native", func(f *OrderFields) { f.PriceAsset = "waves" }, ErrInvalidEncoding},
		{"two-char network", func(f *OrderFields) { f.Network = "TT" }, ErrInvalidNetwork},
		{"empty network", func(f *OrderFields) { f.Network = "" }, ErrInvalidNetwork},
		{"non-ascii network", func(f *OrderFields) { f.Network = "é" }, ErrInvalidNetwork},
		{"version zero", func(f *OrderFields) { f.Version = 0 }, ErrUnsupportedVersion},
		{"version four", func(f *OrderFields) { f.Version = 4 }, ErrUnsupportedVersion},
		{"flags on v2", func(f *OrderFields) { f.Version = OrderVersion2; f.Flags = 1 }, ErrFlagsUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := baseFields(OrderVersion3)
			tt.mutate(&f)
			_, err := EncodeOrder(f, SignerKeeper)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDecodeOrderRoundTrip(t *testing.T) {
	f := baseFields(OrderVersion3)
	f.AmountAsset = testAssetID
	f.OrderType = OrderTypePrediction
	f.Flags = 1

	encoded, err := EncodeOrder(f, SignerKeeper)
	if err != nil {
		t.Fatalf("EncodeOrder: %v", err)
	}
	o, err := DecodeOrder(encoded)
	if err != nil {
		t.Fatalf("DecodeOrder: %v", err)
	}
	if o.AmountAsset.String() != testAssetID || o.PriceAsset.String() != NativeAssetName {
		t.Errorf("assets = %s/%s", o.AmountAsset, o.PriceAsset)
	}
	if o.Sender.String() != testPublicKey {
		t.Errorf("sender = %s", o.Sender)
	}
	if outcome, ok := o.Outcome(); !ok || outcome != OutcomeNo {
		t.Errorf("outcome = %v, %v; want NO, true", outcome, ok)
	}
	again, err := o.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary: %v", err)
	}
	if !bytes.Equal(encoded, again) {
		t.Fatal("re-encoding changed the bytes")
	}
}

func TestDecodeOrderMalformed(t *testing.T) {
	valid, _ := EncodeOrder(baseFields(OrderVersion2), SignerKeeper)

	badSender := append([]byte(nil), valid...)
	badSender[2] = 7

	badAsset := append([]byte(nil), valid...)
	badAsset[3+PublicKeySize+PublicKeySize] = 2

	tests := map[string][]byte{
		"empty":         nil,
		"truncated":     valid[:len(valid)-1],
		"trailing":      append(append([]byte(nil), valid...), 0),
		"sender kind":   badSender,
		"asset tag":     badAsset,
		"header only":   valid[:3],
		"missing flags": append([]byte{OrderVersion3}, valid[1:]...),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeOrder(data); !errors.Is(err, ErrMalformedOrder) {
				t.Fatalf("err = %v, want ErrMalformedOrder", err)
			}
		})
	}
}

func TestOutcomeFromFlags(t *testing.T) {
	tests := []struct {
		flags uint64
		want  Outcome
	}{
		{0, OutcomeYes},
		{1, OutcomeNo},
		{2, OutcomeYes},
		{0x0101, OutcomeNo},
		{0x0100, OutcomeYes},
	}
	for _, tt := range tests {
		if got := OutcomeFromFlags(tt.flags); got != tt.want {
			t.Errorf("OutcomeFromFlags(%#x) = %v, want %v", tt.flags, got, tt.want)
		}
	}

	limit := &Order{OrderType: OrderTypeLimit, Flags: 1}
	if _, ok := limit.Outcome(); ok {
		t.Error("limit order should carry no outcome")
	}
}

func TestParseUint64(t *testing.T) {
	tests := []struct {
		in   string
		want uint64
		err  error
	}{
		{"", 0, ErrInvalidEncoding},
		{"   ", 0, ErrInvalidEncoding},
		{"42", 42, nil},
		{" 42 ", 42, nil},
		{"18446744073709551615", 1<<64 - 1, nil},
		{"18446744073709551616", 0, ErrOutOfRange},
		{"-1", 0, ErrOutOfRange},
		{"1.5", 0, ErrInvalidEncoding},
	}
	for _, tt := range tests {
		got, err := ParseUint64("amount", tt.in)
		if tt.err != nil {
			if !errors.Is(err, tt.err) {
				t.Errorf("ParseUint64(%q) err = %v, want %v", tt.in, err, tt.err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseUint64(%q) = %d, %v; want %d", tt.in, got, err, tt.want)
		}
	}
}

func TestParseOptionalUint64(t *testing.T) {
	if v, err := ParseOptionalUint64("flags", ""); err != nil || v != 0 {
		t.Errorf("ParseOptionalUint64(\"\") = %d, %v; want 0", v, err)
	}
	if v, err := ParseOptionalUint64("flags", "7"); err != nil || v != 7 {
		t.Errorf("ParseOptionalUint64(\"7\") = %d, %v; want 7", v, err)
	}
	if _, err := ParseOptionalUint64("flags", "-7"); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("ParseOptionalUint64(\"-7\") err = %v, want %v", err, ErrOutOfRange)
	}
}
