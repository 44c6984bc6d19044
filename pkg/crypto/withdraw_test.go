package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestWithdrawSigningPayload(t *testing.T) {
	tests := []struct {
		name   string
		req    WithdrawRequest
		size   int
		base58 string
	}{
		{
			name: "with last tx",
			req: WithdrawRequest{
				LastTxID:    "2qo2mC7GvBBEPZTmZeYXsc5KhzboKSen6DekBytar1fy",
				UserAddress: testAddress,
				AssetID:     testAssetID,
				Amount:      12345,
			},
			size:   103,
			base58: "FkWc1Ccx6zwsYWWu4mnJ1vXediaCaPXZQw6EdmXsZKUr8C1eHiVf8hCiqskSWYwCz6kcAGbr9HrwZUegMs1AeHyqygNPxjSjpQPfPwjAd8fFvcFdoc7vFFixV8RPkXJpiDSa4hrbX2PW8",
		},
		{
			name: "first withdrawal of native token",
			req: WithdrawRequest{
				UserAddress: testAddress,
				AssetID:     NativeAssetName,
				Amount:      12345,
			},
			size:   39,
			base58: "3t9dAcn34taCeLmQhQdS2TaoXwvZ6zTR3ciDG8yJLSvbC15gGzk1DS",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := WithdrawSigningPayload(tt.req)
			if err != nil {
				t.Fatalf("WithdrawSigningPayload: %v", err)
			}
			if len(b) != tt.size {
				t.Fatalf("len = %d, want %d", len(b), tt.size)
			}
			if !bytes.Equal(b[:4], []byte{0xff, 0xff, 0xff, 0x01}) {
				t.Fatalf("prefix = %x", b[:4])
			}
			s, err := WithdrawSigningPayloadBase58(tt.req)
			if err != nil {
				t.Fatalf("WithdrawSigningPayloadBase58: %v", err)
			}
			if s != tt.base58 {
				t.Fatalf("base58 = %s, want %s", s, tt.base58)
			}
		})
	}
}

func TestWithdrawSigningPayloadErrors(t *testing.T) {
	_, err := WithdrawSigningPayload(WithdrawRequest{UserAddress: "", AssetID: NativeAssetName})
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("empty user: err = %v", err)
	}
	_, err = WithdrawSigningPayload(WithdrawRequest{LastTxID: "abc", UserAddress: testAddress, AssetID: NativeAssetName})
	if !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("short tx id: err = %v", err)
	}
}
