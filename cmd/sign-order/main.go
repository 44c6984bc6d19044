package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/mr-tron/base58"

	"github.com/uhyunpark/ridematcher/pkg/crypto"
)

// matcherPublicKey is a placeholder; real orders use the factory's key.
const matcherPublicKey = "9QvMuwXsxpVmjirwEvpYyG93BL5uW54RVv5SozrwP9wv"

func main() {
	// Step 1: Generate or load key
	var signer *crypto.Signer
	var err error
	if key := os.Getenv("PRIVATE_KEY"); key != "" {
		fmt.Println("Loading key from PRIVATE_KEY...")
		signer, err = crypto.FromPrivateKeyHex(key)
	} else {
		fmt.Println("Generating new keypair...")
		signer, err = crypto.GenerateKey()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	const chainID = 'T'
	sender := signer.WavesAddress(chainID)
	fmt.Printf("Ethereum Address: %s\n", signer.Address().Hex())
	fmt.Printf("Waves Address:    %s\n", sender)
	fmt.Printf("Private Key: %s (KEEP SECRET!)\n\n", signer.PrivateKeyHex())

	// Step 2: Create order. Metamask users are identified by address.
	fields := crypto.OrderFields{
		Version:          crypto.OrderVersion1,
		Network:          string(rune(chainID)),
		Sender:           sender,
		MatcherPublicKey: matcherPublicKey,
		AmountAsset:      crypto.NativeAssetName,
		PriceAsset:       crypto.NativeAssetName,
		OrderType:        crypto.OrderTypeLimit,
		Direction:        crypto.Buy,
		Amount:           100000000,
		Price:            100000000,
		Timestamp:        1700000000,
		Expiration:       1700003600,
	}
	encoded, err := crypto.EncodeOrder(fields, crypto.SignerMetamask)
	if err != nil {
		fmt.Printf("Error encoding: %v\n", err)
		os.Exit(1)
	}
	id := crypto.NewOrderID(encoded)

	fmt.Println("Order:")
	fmt.Printf("  Version: %d\n", fields.Version)
	fmt.Printf("  Direction: %s\n", fields.Direction)
	fmt.Printf("  Amount: %d\n", fields.Amount)
	fmt.Printf("  Price: %d\n", fields.Price)
	fmt.Printf("  Bytes (%d): %s\n", len(encoded), base58.Encode(encoded))
	fmt.Printf("  ID: %s\n", id.Base58)
	fmt.Printf("  ID (base64): %s\n\n", id.Base64)

	// Step 3: Sign the id the way personal_sign does
	signature, err := signer.SignOrderID(id)
	if err != nil {
		fmt.Printf("Error signing: %v\n", err)
		os.Exit(1)
	}
	proof := "0x" + hex.EncodeToString(signature)
	fmt.Printf("Proof: %s\n\n", proof)

	// Step 4: Verify as the matcher does when the proof is attached
	fmt.Println("Verifying proof...")
	p, err := crypto.ProofFromWallet(crypto.SignerMetamask, proof)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	recovered, err := crypto.RecoverOrderSigner(id, p)
	if err != nil {
		fmt.Printf("Error recovering signer: %v\n", err)
		os.Exit(1)
	}
	if got := crypto.AddressFromEthereum(chainID, recovered); got != sender {
		fmt.Printf("FAILED: recovered %s, want %s\n", got, sender)
		os.Exit(1)
	}
	fmt.Printf("Recovered: %s\n", recovered.Hex())
	fmt.Println("Signature valid")
	fmt.Printf("\nInvocation argument: %s\n", p.Binary())
}
