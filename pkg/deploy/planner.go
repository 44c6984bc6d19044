// Package deploy compares the compiled contract sources with the scripts
// installed on chain and prepares SetScript updates for the ones that differ.
package deploy

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/uhyunpark/ridematcher/params"
	"github.com/uhyunpark/ridematcher/pkg/crypto"
	"github.com/uhyunpark/ridematcher/pkg/node"
	"github.com/uhyunpark/ridematcher/pkg/util"
)

// Node is the part of the node API the planner needs.
type Node interface {
	CompileCode(ctx context.Context, source string) (*node.CompileResult, error)
	ScriptInfo(ctx context.Context, address string) (*node.ScriptInfo, error)
	Broadcast(ctx context.Context, tx json.RawMessage) (*node.BroadcastResult, error)
}

var _ Node = (*node.Client)(nil)

type State string

const (
	StateUpToDate State = "up-to-date"
	StateOutdated State = "outdated"
	StateFailed   State = "failed"
)

// SetScript fees: the base fee plus the smart-account surcharge.
const (
	setScriptBaseFee       = 1000000
	setScriptAdditionalFee = 400000
)

// Status is the outcome of planning one contract.
type Status struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	PublicKey string `json:"publicKey,omitempty"`
	Script    string `json:"script"`
	State     State  `json:"state"`
	Compiled  string `json:"compiled,omitempty"`
	Error     string `json:"error,omitempty"`
}

func (s Status) String() string {
	switch s.State {
	case StateUpToDate:
		return fmt.Sprintf("Script is up to date: %s %s", s.Script, s.Address)
	case StateOutdated:
		return fmt.Sprintf("Needs update: %s %s", s.Script, s.Address)
	default:
		return fmt.Sprintf("%s: %s", s.Script, s.Error)
	}
}

type Planner struct {
	node     Node
	chainID  byte
	readFile func(string) ([]byte, error)
	clock    util.Clock
	log      *zap.SugaredLogger
}

func NewPlanner(n Node, chainID byte, log *zap.SugaredLogger) *Planner {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Planner{node: n, chainID: chainID, readFile: os.ReadFile, clock: util.RealClock{}, log: log}
}

// Plan checks every target concurrently. A failing target never stops the others.
func (p *Planner) Plan(ctx context.Context, targets []params.Contract) []Status {
	out := make([]Status, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range targets {
		i, t := i, t
		g.Go(func() error {
			out[i] = p.check(gctx, t)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (p *Planner) check(ctx context.Context, t params.Contract) Status {
	st := Status{Name: t.Name, Address: t.Address, PublicKey: t.PublicKey, Script: t.Script}
	fail := func(err error) Status {
		st.State = StateFailed
		st.Error = err.Error()
		p.log.Warnw("deploy_check_failed", "contract", t.Name, "err", err)
		return st
	}

	if strings.TrimSpace(t.Address) == "" {
		return fail(fmt.Errorf("empty address"))
	}
	src, err := p.readFile(t.Script)
	if err != nil {
		return fail(fmt.Errorf("read script: %w", err))
	}
	compiled, err := p.node.CompileCode(ctx, string(src))
	if err != nil {
		return fail(fmt.Errorf("compile: %w", err))
	}
	st.Compiled = compiled.Script

	// An account without a script, or one the node cannot describe, is outdated.
	current := ""
	if info, err := p.node.ScriptInfo(ctx, t.Address); err != nil {
		p.log.Warnw("script_info_failed", "contract", t.Name, "address", t.Address, "err", err)
	} else {
		current = info.Script
	}

	if current == compiled.Script {
		st.State = StateUpToDate
	} else {
		st.State = StateOutdated
	}
	p.log.Infow("deploy_checked", "contract", t.Name, "address", t.Address, "state", st.State)
	return st
}

// UnsignedSetScript is the SetScript body for an outdated contract, complete
// except for its proofs, so the account's wallet can sign it as printed. The
// sender key comes from <NAME>_PUBLIC_KEY and must derive the contract address.
func (p *Planner) UnsignedSetScript(st Status) (map[string]any, error) {
	if st.State != StateOutdated {
		return nil, fmt.Errorf("%s is %s", st.Name, st.State)
	}
	if st.PublicKey == "" {
		return nil, fmt.Errorf("%s: no sender public key, set %s_PUBLIC_KEY", st.Name, params.EnvKey(st.Name))
	}
	addr, err := crypto.AddressFromPublicKey(p.chainID, st.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%s: sender public key: %w", st.Name, err)
	}
	if addr != st.Address {
		return nil, fmt.Errorf("%s: public key belongs to %s, not %s", st.Name, addr, st.Address)
	}
	return map[string]any{
		"type":            13,
		"version":         2,
		"chainId":         int(p.chainID),
		"senderPublicKey": st.PublicKey,
		"sender":          st.Address,
		"script":          st.Compiled,
		"fee":             setScriptBaseFee + setScriptAdditionalFee,
		"timestamp":       p.clock.Now().UnixMilli(),
		"proofs":          []string{},
	}, nil
}

// BroadcastFile submits pre-signed transactions. The file holds one
// transaction object or an array of them.
func (p *Planner) BroadcastFile(ctx context.Context, path string) ([]*node.BroadcastResult, error) {
	data, err := p.readFile(path)
	if err != nil {
		return nil, err
	}
	txs, err := splitTransactions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	results := make([]*node.BroadcastResult, 0, len(txs))
	for i, tx := range txs {
		res, err := p.node.Broadcast(ctx, tx)
		if err != nil {
			return results, fmt.Errorf("broadcast tx %d: %w", i, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func splitTransactions(data []byte) ([]json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var txs []json.RawMessage
		if err := json.Unmarshal([]byte(trimmed), &txs); err != nil {
			return nil, err
		}
		return txs, nil
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, fmt.Errorf("not a JSON transaction")
	}
	return []json.RawMessage{json.RawMessage(trimmed)}, nil
}
