package contracts

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// PoolShare is one (asset, amount) pair of getAllUserInfo.
type PoolShare struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// poolTuple mirrors the evaluator's encoding of Tuple(String, Int).
type poolTuple struct {
	Value struct {
		First struct {
			Value json.RawMessage `json:"value"`
		} `json:"_1"`
		Second struct {
			Value json.RawMessage `json:"value"`
		} `json:"_2"`
	} `json:"value"`
}

// PoolUserInfoExpr is the read-only call answering a user's pool shares.
func PoolUserInfoExpr(user string) string {
	return "getAllUserInfo(" + strconv.Quote(user) + ")"
}

// LoadPoolShares evaluates getAllUserInfo on the pool dApp.
func LoadPoolShares(ctx context.Context, n Node, pool, user string) ([]PoolShare, error) {
	if pool == "" || user == "" {
		return nil, fmt.Errorf("pool and user addresses are required")
	}
	res, err := n.EvaluateExpr(ctx, pool, PoolUserInfoExpr(user))
	if err != nil {
		return nil, fmt.Errorf("evaluate pool info: %w", err)
	}
	if res.Failed() {
		return nil, fmt.Errorf("evaluate pool info: %s", res.Error)
	}
	return PoolSharesFromResult(res.Raw)
}

// PoolSharesFromResult decodes result.value[] of the evaluation body.
func PoolSharesFromResult(raw map[string]any) ([]PoolShare, error) {
	body, err := json.Marshal(raw["result"])
	if err != nil {
		return nil, err
	}
	var result struct {
		Value []poolTuple `json:"value"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode pool info: %w", err)
	}
	shares := make([]PoolShare, 0, len(result.Value))
	for _, t := range result.Value {
		shares = append(shares, PoolShare{
			Asset:  rawText(t.Value.First.Value),
			Amount: rawText(t.Value.Second.Value),
		})
	}
	return shares, nil
}

func rawText(m json.RawMessage) string {
	var s string
	if err := json.Unmarshal(m, &s); err == nil {
		return s
	}
	return string(m)
}
