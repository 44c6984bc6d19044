// Package matcher is the matcher service: it encodes orders for wallets to
// sign, keeps them until both sides of a match carry a proof, and builds the
// settlement invocations and withdraw approvals the contracts expect.
package matcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uhyunpark/ridematcher/pkg/contracts"
	"github.com/uhyunpark/ridematcher/pkg/crypto"
	"github.com/uhyunpark/ridematcher/pkg/storage"
	"github.com/uhyunpark/ridematcher/pkg/util"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrOrderNotSigned = errors.New("order has no proof")
	ErrOrderMatched   = errors.New("order is already matched")
	ErrProofMismatch  = errors.New("proof was not produced by the order sender")
	ErrNoFactory      = errors.New("factory address is not configured")
)

// factoryTTL bounds how stale the cached registry may get.
const factoryTTL = 30 * time.Second

// Event is pushed to subscribers whenever an order or a match changes.
type Event struct {
	Type  string                `json:"type"` // "order" or "match"
	Order *storage.OrderRecord  `json:"order,omitempty"`
	Match *storage.MatchRecord  `json:"match,omitempty"`
	Call  *contracts.InvokeCall `json:"call,omitempty"`
}

type Config struct {
	ChainID        byte
	FactoryAddress string
}

type App struct {
	cfg   Config
	node  contracts.Node
	store storage.OrderStore
	audit storage.AuditLog
	clock util.Clock
	log   *zap.SugaredLogger

	mu        sync.Mutex
	factory   *contracts.Factory
	factoryAt time.Time

	// exchangeMu serializes status transitions so a pair is matched once.
	exchangeMu sync.Mutex

	hooksMu sync.RWMutex
	hooks   []func(Event)
}

func NewApp(cfg Config, n contracts.Node, store storage.OrderStore, audit storage.AuditLog, clock util.Clock, log *zap.SugaredLogger) *App {
	if audit == nil {
		audit = storage.NewNopAuditLog()
	}
	if clock == nil {
		clock = util.RealClock{}
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &App{cfg: cfg, node: n, store: store, audit: audit, clock: clock, log: log}
}

// OnEvent registers a subscriber. Subscribers run synchronously and must not block.
func (a *App) OnEvent(fn func(Event)) {
	a.hooksMu.Lock()
	a.hooks = append(a.hooks, fn)
	a.hooksMu.Unlock()
}

func (a *App) emit(ev Event) {
	a.hooksMu.RLock()
	defer a.hooksMu.RUnlock()
	for _, fn := range a.hooks {
		fn(ev)
	}
}

// Factory returns the registry, refreshed at most every factoryTTL.
func (a *App) Factory(ctx context.Context, refresh bool) (*contracts.Factory, error) {
	if a.cfg.FactoryAddress == "" {
		return nil, ErrNoFactory
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.clock.Now()
	if !refresh && a.factory != nil && now.Sub(a.factoryAt) < factoryTTL {
		return a.factory, nil
	}
	f, err := contracts.LoadFactory(ctx, a.node, a.cfg.FactoryAddress)
	if err != nil {
		return nil, err
	}
	a.factory, a.factoryAt = f, now
	return f, nil
}

// PrepareOrder encodes an order and stores it until the wallet proof arrives.
// A zero timestamp becomes the current unix time in seconds, an empty network
// the configured chain, and an empty matcher key the factory's matcher.
func (a *App) PrepareOrder(ctx context.Context, f crypto.OrderFields, kind crypto.SignerKind) (*storage.OrderRecord, error) {
	if f.Timestamp == 0 {
		f.Timestamp = uint64(a.clock.Now().Unix())
	}
	if f.Network == "" {
		f.Network = string(rune(a.cfg.ChainID))
	}
	if f.MatcherPublicKey == "" {
		factory, err := a.Factory(ctx, false)
		if err != nil {
			return nil, fmt.Errorf("resolve matcher key: %w", err)
		}
		if factory.MatcherPublicKey == "" {
			return nil, fmt.Errorf("resolve matcher key: factory has no matcher key")
		}
		f.MatcherPublicKey = factory.MatcherPublicKey
	}

	order, err := crypto.NewOrder(f, kind)
	if err != nil {
		return nil, err
	}
	encoded, err := order.MarshalBinary()
	if err != nil {
		return nil, err
	}
	id := crypto.NewOrderID(encoded)

	rec := &storage.OrderRecord{
		ID:         id.Base58,
		IDBase64:   id.Base64,
		Sender:     f.Sender,
		SignerKind: kind.String(),
		Version:    order.Version,
		Prediction: order.IsPrediction(),
		Encoded:    encoded,
		Status:     storage.StatusEncoded,
		CreatedAt:  a.clock.Now().Unix(),
	}
	if err := a.store.SaveOrder(rec); err != nil {
		return nil, err
	}
	a.log.Infow("order_encoded", "id", rec.ID, "sender", rec.Sender, "version", rec.Version, "bytes", len(encoded), "prediction", rec.Prediction)
	a.emit(Event{Type: "order", Order: rec})
	return rec, nil
}

// Order returns a stored order.
func (a *App) Order(id string) (*storage.OrderRecord, error) {
	rec, err := a.store.LoadOrder(id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
	}
	return rec, err
}

// Orders lists stored orders, optionally of one sender.
func (a *App) Orders(sender string, limit int) ([]*storage.OrderRecord, error) {
	return a.store.ListOrders(sender, limit)
}

// Matches lists the most recent exchanges, newest first.
func (a *App) Matches(limit int) ([]*storage.MatchRecord, error) {
	return a.store.LoadRecentMatches(limit)
}

// AttachProof stores the wallet signature of an order. Personal-message proofs
// from metamask wallets over version 1 orders are checked against the sender.
// A matched order keeps the proof it was settled with.
func (a *App) AttachProof(_ context.Context, id, rawProof string) (*storage.OrderRecord, error) {
	a.exchangeMu.Lock()
	defer a.exchangeMu.Unlock()

	rec, err := a.Order(id)
	if err != nil {
		return nil, err
	}
	if rec.Status == storage.StatusMatched {
		return nil, fmt.Errorf("%w: %s", ErrOrderMatched, id)
	}
	kind := crypto.ParseSignerKind(rec.SignerKind)
	proof, err := crypto.ProofFromWallet(kind, rawProof)
	if err != nil {
		return nil, err
	}

	if kind == crypto.SignerMetamask && rec.Version == crypto.OrderVersion1 {
		orderID := crypto.NewOrderID(rec.Encoded)
		signer, err := crypto.RecoverOrderSigner(orderID, proof)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrProofMismatch, err)
		}
		if got := crypto.AddressFromEthereum(rec.Encoded[1], signer); got != rec.Sender {
			return nil, fmt.Errorf("%w: recovered %s", ErrProofMismatch, got)
		}
	}

	rec.Proof = proof
	rec.Status = storage.StatusSigned
	if err := a.store.SaveOrder(rec); err != nil {
		return nil, err
	}
	a.log.Infow("order_signed", "id", rec.ID, "signer", rec.SignerKind, "proof_bytes", len(proof))
	a.emit(Event{Type: "order", Order: rec})
	return rec, nil
}

// Exchange builds the validateAndExchange call for a signed maker/taker pair.
// The caller's wallet signs and broadcasts it.
func (a *App) Exchange(ctx context.Context, makerID, takerID string, p contracts.MatchParams) (*contracts.InvokeCall, error) {
	a.exchangeMu.Lock()
	defer a.exchangeMu.Unlock()

	maker, err := a.signedOrder(makerID)
	if err != nil {
		return nil, fmt.Errorf("maker: %w", err)
	}
	taker, err := a.signedOrder(takerID)
	if err != nil {
		return nil, fmt.Errorf("taker: %w", err)
	}
	factory, err := a.Factory(ctx, false)
	if err != nil {
		return nil, err
	}

	call, err := contracts.ValidateAndExchange(factory,
		contracts.SignedOrder{Bytes: maker.Encoded, Proof: maker.Proof},
		contracts.SignedOrder{Bytes: taker.Encoded, Proof: taker.Proof},
		p)
	if err != nil {
		return nil, err
	}

	match := &storage.MatchRecord{
		ID:        uuid.NewString(),
		MakerID:   maker.ID,
		TakerID:   taker.ID,
		DApp:      call.DApp,
		Function:  call.Call.Function,
		Amount:    p.Amount,
		Price:     p.Price,
		Timestamp: a.clock.Now().UnixMilli(),
	}
	if err := a.store.SaveMatch(match); err != nil {
		return nil, err
	}
	for _, rec := range []*storage.OrderRecord{maker, taker} {
		rec.Status = storage.StatusMatched
		if err := a.store.SaveOrder(rec); err != nil {
			return nil, err
		}
	}

	a.audit.Append("exchange_built", map[string]any{
		"match_id": match.ID, "maker": maker.ID, "taker": taker.ID,
		"dapp": call.DApp, "amount": p.Amount, "price": p.Price,
	})
	a.log.Infow("exchange_built", "match_id", match.ID, "maker", maker.ID, "taker", taker.ID, "dapp", call.DApp, "prediction", maker.Prediction)
	a.emit(Event{Type: "match", Match: match, Call: call})
	return call, nil
}

func (a *App) signedOrder(id string) (*storage.OrderRecord, error) {
	rec, err := a.Order(id)
	if err != nil {
		return nil, err
	}
	if rec.Status == storage.StatusMatched {
		return nil, fmt.Errorf("%w: %s", ErrOrderMatched, id)
	}
	if len(rec.Proof) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotSigned, id)
	}
	return rec, nil
}

// WithdrawPayload renders the base58 approval for a fast withdrawal. With
// resolveLastTx set, an empty LastTxID is filled from the treasury state.
func (a *App) WithdrawPayload(ctx context.Context, req crypto.WithdrawRequest, resolveLastTx bool) (string, error) {
	if resolveLastTx && req.LastTxID == "" {
		factory, err := a.Factory(ctx, false)
		if err != nil {
			return "", err
		}
		last, err := contracts.LastFastWithdrawTx(ctx, a.node, factory.TreasuryAddress, req.UserAddress)
		if err != nil {
			return "", err
		}
		req.LastTxID = last
	}
	payload, err := crypto.WithdrawSigningPayloadBase58(req)
	if err != nil {
		return "", err
	}
	a.audit.Append("withdraw_payload", map[string]any{
		"user": req.UserAddress, "asset": req.AssetID, "amount": req.Amount, "last_tx": req.LastTxID,
	})
	a.log.Infow("withdraw_payload", "user", req.UserAddress, "asset", req.AssetID, "amount", req.Amount)
	return payload, nil
}

// Balances reads a user's treasury account.
func (a *App) Balances(ctx context.Context, user string) (*contracts.TreasuryAccount, error) {
	factory, err := a.Factory(ctx, false)
	if err != nil {
		return nil, err
	}
	return contracts.LoadTreasuryAccount(ctx, a.node, factory.TreasuryAddress, user)
}

// PoolInfo reads a user's liquidity pool shares.
func (a *App) PoolInfo(ctx context.Context, user string) ([]contracts.PoolShare, error) {
	factory, err := a.Factory(ctx, false)
	if err != nil {
		return nil, err
	}
	return contracts.LoadPoolShares(ctx, a.node, factory.PoolAddress, user)
}
