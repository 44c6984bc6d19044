package contracts

import (
	"fmt"

	"github.com/uhyunpark/ridematcher/pkg/crypto"
)

// ExchangeFunction is the validator entry point that settles a matched pair.
const ExchangeFunction = "validateAndExchange"

// Arg is a typed invocation argument.
type Arg struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

func binaryArg(b []byte) Arg  { return Arg{Type: "binary", Value: crypto.BinaryArg(b)} }
func integerArg(v uint64) Arg { return Arg{Type: "integer", Value: v} }
func stringArg(s string) Arg  { return Arg{Type: "string", Value: s} }

// Call is the function part of an invoke transaction.
type Call struct {
	Function string `json:"function"`
	Args     []Arg  `json:"args"`
}

// InvokeCall is an unsigned invocation for the wallet to sign and broadcast.
type InvokeCall struct {
	DApp    string `json:"dApp"`
	Call    Call   `json:"call"`
	Payment []any  `json:"payment"`
	ChainID string `json:"chainId,omitempty"`
}

// SignedOrder is the encoded order together with the wallet proof over it.
type SignedOrder struct {
	Bytes []byte
	Proof crypto.Proof
}

// MatchParams are the matcher's terms for one fill.
type MatchParams struct {
	Amount        uint64 `json:"amount"`
	Price         uint64 `json:"price"`
	MakerFeeAsset string `json:"makerFeeAsset"`
	MakerFee      uint64 `json:"makerFee"`
	TakerFeeAsset string `json:"takerFeeAsset"`
	TakerFee      uint64 `json:"takerFee"`
}

// ValidateAndExchange builds the settlement call. The validator is chosen from
// the maker order: prediction orders are settled by the prediction validator.
func ValidateAndExchange(f *Factory, maker, taker SignedOrder, p MatchParams) (*InvokeCall, error) {
	makerOrder, err := crypto.DecodeOrder(maker.Bytes)
	if err != nil {
		return nil, fmt.Errorf("maker order: %w", err)
	}
	if _, err := crypto.DecodeOrder(taker.Bytes); err != nil {
		return nil, fmt.Errorf("taker order: %w", err)
	}
	if len(maker.Proof) == 0 || len(taker.Proof) == 0 {
		return nil, fmt.Errorf("both orders must carry a proof")
	}
	dApp, err := f.ValidatorFor(makerOrder.IsPrediction())
	if err != nil {
		return nil, err
	}

	return &InvokeCall{
		DApp:    dApp,
		ChainID: string(rune(makerOrder.Network)),
		Payment: []any{},
		Call: Call{
			Function: ExchangeFunction,
			Args: []Arg{
				binaryArg(maker.Bytes),
				binaryArg(maker.Proof),
				binaryArg(taker.Bytes),
				binaryArg(taker.Proof),
				integerArg(p.Amount),
				integerArg(p.Price),
				stringArg(p.MakerFeeAsset),
				integerArg(p.MakerFee),
				stringArg(p.TakerFeeAsset),
				integerArg(p.TakerFee),
			},
		},
	}, nil
}
