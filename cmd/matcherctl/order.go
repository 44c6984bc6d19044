package main

import (
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/spf13/cobra"

	"github.com/uhyunpark/ridematcher/pkg/crypto"
)

var (
	orderSigner     string
	orderVersion    uint8
	orderSender     string
	orderMatcher    string
	orderAmountAst  string
	orderPriceAst   string
	orderType       string
	orderDirection  string
	orderAmount     string
	orderPrice      string
	orderTimestamp  string
	orderExpiration string
	orderFlags      string

	wdLastTx string
	wdUser   string
	wdAsset  string
	wdAmount string
)

var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode an order and print its bytes and id",
	Long:  "Encode an order offline. The matcher key must be given explicitly; the network is the configured chain id.",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, kind, err := orderFieldsFromFlags()
		if err != nil {
			return err
		}
		encoded, err := crypto.EncodeOrder(f, kind)
		if err != nil {
			return err
		}
		id := crypto.NewOrderID(encoded)
		return printJSON(map[string]any{
			"bytes":    base58.Encode(encoded),
			"size":     len(encoded),
			"id":       id.Base58,
			"idBase64": id.Base64,
			"digest":   id.Digest.Hex(),
		})
	},
}

func orderFieldsFromFlags() (crypto.OrderFields, crypto.SignerKind, error) {
	var f crypto.OrderFields
	dir, err := crypto.ParseDirection(orderDirection)
	if err != nil {
		return f, 0, err
	}
	var typ crypto.OrderType
	switch orderType {
	case "limit":
		typ = crypto.OrderTypeLimit
	case "prediction":
		typ = crypto.OrderTypePrediction
	default:
		return f, 0, fmt.Errorf("unknown order type %q", orderType)
	}

	var amount, price, ts, exp, flags uint64
	for _, in := range []struct {
		name     string
		raw      string
		dst      *uint64
		optional bool
	}{
		{"amount", orderAmount, &amount, false},
		{"price", orderPrice, &price, false},
		{"timestamp", orderTimestamp, &ts, true},
		{"expiration", orderExpiration, &exp, false},
		{"flags", orderFlags, &flags, true},
	} {
		parse := crypto.ParseUint64
		if in.optional {
			parse = crypto.ParseOptionalUint64
		}
		v, err := parse(in.name, in.raw)
		if err != nil {
			return f, 0, err
		}
		*in.dst = v
	}

	f = crypto.OrderFields{
		Version:          orderVersion,
		Network:          string(rune(cfg.Node.ChainID)),
		Sender:           orderSender,
		MatcherPublicKey: orderMatcher,
		AmountAsset:      orderAmountAst,
		PriceAsset:       orderPriceAst,
		OrderType:        typ,
		Direction:        dir,
		Amount:           amount,
		Price:            price,
		Timestamp:        ts,
		Expiration:       exp,
		Flags:            flags,
	}
	return f, crypto.ParseSignerKind(orderSigner), nil
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw-payload",
	Short: "Build the base58 fast-withdraw approval",
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := crypto.ParseUint64("amount", wdAmount)
		if err != nil {
			return err
		}
		payload, err := crypto.WithdrawSigningPayloadBase58(crypto.WithdrawRequest{
			LastTxID:    wdLastTx,
			UserAddress: wdUser,
			AssetID:     wdAsset,
			Amount:      amount,
		})
		if err != nil {
			return err
		}
		fmt.Println(payload)
		return nil
	},
}

func init() {
	fl := encodeCmd.Flags()
	fl.StringVar(&orderSigner, "signer", "keeper", "wallet provider: keeper, metamask, web, email")
	fl.Uint8Var(&orderVersion, "version", crypto.OrderVersion3, "order version (1-3)")
	fl.StringVar(&orderSender, "sender", "", "sender public key, or address for metamask")
	fl.StringVar(&orderMatcher, "matcher", "", "matcher public key")
	fl.StringVar(&orderAmountAst, "amount-asset", crypto.NativeAssetName, "amount asset id or WAVES")
	fl.StringVar(&orderPriceAst, "price-asset", crypto.NativeAssetName, "price asset id or WAVES")
	fl.StringVar(&orderType, "type", "limit", "limit or prediction")
	fl.StringVar(&orderDirection, "direction", "buy", "buy or sell")
	fl.StringVar(&orderAmount, "amount", "", "amount in smallest units")
	fl.StringVar(&orderPrice, "price", "", "price in smallest units")
	fl.StringVar(&orderTimestamp, "timestamp", "", "order timestamp")
	fl.StringVar(&orderExpiration, "expiration", "", "expiration timestamp")
	fl.StringVar(&orderFlags, "flags", "", "flags (version 3 only)")
	_ = encodeCmd.MarkFlagRequired("sender")
	_ = encodeCmd.MarkFlagRequired("matcher")
	_ = encodeCmd.MarkFlagRequired("amount")
	_ = encodeCmd.MarkFlagRequired("price")
	_ = encodeCmd.MarkFlagRequired("expiration")

	wf := withdrawCmd.Flags()
	wf.StringVar(&wdLastTx, "last-tx", "", "previous fast-withdraw tx id, empty on the first withdrawal")
	wf.StringVar(&wdUser, "user", "", "user address")
	wf.StringVar(&wdAsset, "asset", crypto.NativeAssetName, "asset id or WAVES")
	wf.StringVar(&wdAmount, "amount", "", "amount in smallest units")
	_ = withdrawCmd.MarkFlagRequired("user")
	_ = withdrawCmd.MarkFlagRequired("amount")
}
