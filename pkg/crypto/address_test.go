package crypto

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestAddressFromPublicKey(t *testing.T) {
	addr, err := AddressFromPublicKey('T', testPublicKey)
	if err != nil {
		t.Fatalf("AddressFromPublicKey: %v", err)
	}
	if addr != testAddress {
		t.Fatalf("address = %s, want %s", addr, testAddress)
	}
	if err := ValidateAddress('T', addr); err != nil {
		t.Fatalf("ValidateAddress: %v", err)
	}
}

func TestAddressFromEthereum(t *testing.T) {
	eth := common.HexToAddress("0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0")
	addr := AddressFromEthereum('T', eth)
	if addr != "3MzWNKRqzDQjpxYQRGeyx7ZYyRnQZphe4Aj" {
		t.Fatalf("address = %s", addr)
	}
	if err := ValidateAddress('T', addr); err != nil {
		t.Fatalf("ValidateAddress: %v", err)
	}
}

func TestValidateAddressErrors(t *testing.T) {
	if err := ValidateAddress('W', testAddress); !errors.Is(err, ErrInvalidNetwork) {
		t.Errorf("wrong chain: err = %v", err)
	}
	if err := ValidateAddress('T', testPublicKey); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("public key as address: err = %v", err)
	}
	// Flip the last character to break the checksum.
	broken := testAddress[:len(testAddress)-1] + "y"
	if err := ValidateAddress('T', broken); !errors.Is(err, ErrInvalidEncoding) {
		t.Errorf("bad checksum: err = %v", err)
	}
}
