package contracts

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DepositURL is where users fund their treasury account.
func DepositURL(treasuryAddress string) string {
	return "https://waves-dapp.com/" + treasuryAddress + "#deposit"
}

// LastFastWithdrawTxKey is the treasury key holding a user's previous
// fast-withdraw transaction id.
func LastFastWithdrawTxKey(user string) string {
	return "%s%s__lastFastWithdrawTx__" + user
}

// balancePattern matches both the balance and the loan entries of a user.
func balancePattern(user string) string {
	return "%s%s%s__(balance|loan)__" + regexp.QuoteMeta(user) + "__.*"
}

// AssetBalance is a user's treasury position in one asset.
type AssetBalance struct {
	Asset   string `json:"asset"`
	Balance int64  `json:"balance"`
	Loan    int64  `json:"loan"`
}

// TreasuryAccount is everything the treasury stores about a user.
type TreasuryAccount struct {
	User               string         `json:"user"`
	Balances           []AssetBalance `json:"balances"`
	LastFastWithdrawTx string         `json:"lastFastWithdrawTx"`
}

// BalancesFromState groups balance and loan entries by asset. Only assets
// with a balance entry are listed; a missing loan is 0.
func BalancesFromState(state State) []AssetBalance {
	balances := map[string]int64{}
	loans := map[string]int64{}
	for _, e := range state {
		parts := strings.Split(e.Key, "__")
		if len(parts) < 4 {
			continue
		}
		asset := parts[3]
		v, _ := e.Int()
		if strings.Contains(e.Key, "balance") {
			balances[asset] = v
		} else {
			loans[asset] = v
		}
	}

	out := make([]AssetBalance, 0, len(balances))
	for asset, bal := range balances {
		out = append(out, AssetBalance{Asset: asset, Balance: bal, Loan: loans[asset]})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Asset < out[j].Asset })
	return out
}

// LoadTreasuryAccount reads a user's balances and last fast-withdraw tx.
func LoadTreasuryAccount(ctx context.Context, n Node, treasury, user string) (*TreasuryAccount, error) {
	if treasury == "" || user == "" {
		return nil, fmt.Errorf("treasury and user addresses are required")
	}
	entries, err := n.AddressDataMatching(ctx, treasury, balancePattern(user))
	if err != nil {
		return nil, fmt.Errorf("load treasury balances: %w", err)
	}
	lastTx, err := LastFastWithdrawTx(ctx, n, treasury, user)
	if err != nil {
		return nil, err
	}
	return &TreasuryAccount{
		User:               user,
		Balances:           BalancesFromState(State(entries)),
		LastFastWithdrawTx: lastTx,
	}, nil
}

// LastFastWithdrawTx returns "" when the user never withdrew.
func LastFastWithdrawTx(ctx context.Context, n Node, treasury, user string) (string, error) {
	entries, err := n.AddressDataByKeys(ctx, treasury, []string{LastFastWithdrawTxKey(user)})
	if err != nil {
		return "", fmt.Errorf("load last withdraw tx: %w", err)
	}
	if len(entries) == 0 {
		return "", nil
	}
	return entries[0].String(), nil
}
