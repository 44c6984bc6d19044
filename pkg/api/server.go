// Package api exposes the matcher over REST and WebSocket.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/uhyunpark/ridematcher/params"
	"github.com/uhyunpark/ridematcher/pkg/app/matcher"
	"github.com/uhyunpark/ridematcher/pkg/contracts"
	"github.com/uhyunpark/ridematcher/pkg/crypto"
	"github.com/uhyunpark/ridematcher/pkg/node"
)

const (
	defaultListLimit = 100
	maxBodyBytes     = 1 << 20
)

// Server handles REST API and WebSocket connections.
type Server struct {
	app     *matcher.App
	cfg     params.API
	router  *mux.Router
	hub     *Hub
	metrics *metrics
	log     *zap.SugaredLogger
}

func NewServer(app *matcher.App, cfg params.API, log *zap.SugaredLogger) *Server {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	hub := NewHub(log.Named("ws"))
	s := &Server{
		app:     app,
		cfg:     cfg,
		router:  mux.NewRouter(),
		hub:     hub,
		metrics: newMetrics(hub),
		log:     log,
	}
	app.OnEvent(s.publish)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.metrics.middleware)

	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Orders
	api.HandleFunc("/orders/encode", s.handleEncodeOrder).Methods("POST")
	api.HandleFunc("/orders", s.handleListOrders).Methods("GET")
	api.HandleFunc("/orders/{id}", s.handleGetOrder).Methods("GET")
	api.HandleFunc("/orders/{id}/proof", s.handleAttachProof).Methods("POST")

	// Settlement and treasury
	api.HandleFunc("/exchange", s.handleExchange).Methods("POST")
	api.HandleFunc("/matches", s.handleListMatches).Methods("GET")
	api.HandleFunc("/withdraw/payload", s.handleWithdrawPayload).Methods("POST")

	// Chain state
	api.HandleFunc("/contracts", s.handleGetContracts).Methods("GET")
	api.HandleFunc("/accounts/{address}/balances", s.handleGetBalances).Methods("GET")
	api.HandleFunc("/pool/{address}", s.handleGetPool).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.Handle("/metrics", s.metrics.handler()).Methods("GET")
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler is the router wrapped in the CORS policy. Credentials are only
// allowed for an explicit origin list, never together with "*".
func (s *Server) Handler() http.Handler {
	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = params.DefaultCORSOrigins
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: !slices.Contains(origins, "*"),
	})
	return c.Handler(s.router)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go s.hub.Run(hubCtx)

	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infow("api_listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// publish forwards matcher events to WebSocket subscribers.
func (s *Server) publish(ev matcher.Event) {
	s.metrics.events.WithLabelValues(ev.Type).Inc()
	switch ev.Type {
	case "order":
		if ev.Order != nil {
			s.hub.BroadcastToChannel(ChannelOrders, ev.Type, orderInfo(ev.Order))
		}
	case "match":
		s.hub.BroadcastToChannel(ChannelMatches, ev.Type, map[string]any{
			"match": ev.Match,
			"call":  ev.Call,
		})
	}
}

// ==============================
// REST Handlers
// ==============================

func (s *Server) handleEncodeOrder(w http.ResponseWriter, r *http.Request) {
	var req EncodeOrderRequest
	if !decodeBody(w, r, &req) {
		return
	}
	fields, kind, err := req.Fields()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order", err.Error())
		return
	}
	rec, err := s.app.PrepareOrder(r.Context(), fields, kind)
	if err != nil {
		s.fail(w, "encode order", err)
		return
	}
	respondJSONStatus(w, http.StatusCreated, orderInfo(rec))
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	limit, ok := listLimit(w, r)
	if !ok {
		return
	}
	recs, err := s.app.Orders(r.URL.Query().Get("sender"), limit)
	if err != nil {
		s.fail(w, "list orders", err)
		return
	}
	out := make([]OrderInfo, len(recs))
	for i, rec := range recs {
		out[i] = orderInfo(rec)
	}
	respondJSON(w, out)
}

func (s *Server) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	rec, err := s.app.Order(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, "get order", err)
		return
	}
	respondJSON(w, orderInfo(rec))
}

func (s *Server) handleAttachProof(w http.ResponseWriter, r *http.Request) {
	var req AttachProofRequest
	if !decodeBody(w, r, &req) {
		return
	}
	rec, err := s.app.AttachProof(r.Context(), mux.Vars(r)["id"], req.Proof)
	if err != nil {
		s.fail(w, "attach proof", err)
		return
	}
	respondJSON(w, orderInfo(rec))
}

func (s *Server) handleExchange(w http.ResponseWriter, r *http.Request) {
	var req ExchangeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.MakerID == "" || req.TakerID == "" {
		respondError(w, http.StatusBadRequest, "missing order id", "makerId and takerId are required")
		return
	}
	call, err := s.app.Exchange(r.Context(), req.MakerID, req.TakerID, contracts.MatchParams{
		Amount:        uint64(req.Amount),
		Price:         uint64(req.Price),
		MakerFeeAsset: req.MakerFeeAsset,
		MakerFee:      uint64(req.MakerFee),
		TakerFeeAsset: req.TakerFeeAsset,
		TakerFee:      uint64(req.TakerFee),
	})
	if err != nil {
		s.fail(w, "exchange", err)
		return
	}
	respondJSON(w, call)
}

func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	limit, ok := listLimit(w, r)
	if !ok {
		return
	}
	matches, err := s.app.Matches(limit)
	if err != nil {
		s.fail(w, "list matches", err)
		return
	}
	respondJSON(w, matches)
}

func (s *Server) handleWithdrawPayload(w http.ResponseWriter, r *http.Request) {
	var req WithdrawPayloadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	payload, err := s.app.WithdrawPayload(r.Context(), crypto.WithdrawRequest{
		LastTxID:    req.LastTxID,
		UserAddress: req.UserAddress,
		AssetID:     req.AssetID,
		Amount:      uint64(req.Amount),
	}, req.ResolveLastTx)
	if err != nil {
		s.fail(w, "withdraw payload", err)
		return
	}
	respondJSON(w, WithdrawPayloadResponse{Payload: payload})
}

func (s *Server) handleGetContracts(w http.ResponseWriter, r *http.Request) {
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))
	f, err := s.app.Factory(r.Context(), refresh)
	if err != nil {
		s.fail(w, "load contracts", err)
		return
	}
	respondJSON(w, f)
}

func (s *Server) handleGetBalances(w http.ResponseWriter, r *http.Request) {
	account, err := s.app.Balances(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		s.fail(w, "load balances", err)
		return
	}
	respondJSON(w, account)
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request) {
	shares, err := s.app.PoolInfo(r.Context(), mux.Vars(r)["address"])
	if err != nil {
		s.fail(w, "load pool info", err)
		return
	}
	respondJSON(w, shares)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Helper Functions
// ==============================

// fail maps matcher, codec and node errors onto HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.log.Errorw("request_failed", "op", op, "status", status, "err", err)
	} else {
		s.log.Debugw("request_rejected", "op", op, "status", status, "err", err)
	}
	respondError(w, status, op+" failed", err.Error())
}

func statusFor(err error) int {
	var apiErr *node.APIError
	switch {
	case errors.Is(err, matcher.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, matcher.ErrOrderNotSigned),
		errors.Is(err, matcher.ErrOrderMatched):
		return http.StatusConflict
	case errors.Is(err, matcher.ErrNoFactory):
		return http.StatusServiceUnavailable
	case errors.Is(err, matcher.ErrProofMismatch),
		errors.Is(err, crypto.ErrInvalidEncoding),
		errors.Is(err, crypto.ErrOutOfRange),
		errors.Is(err, crypto.ErrUnsupportedVersion),
		errors.Is(err, crypto.ErrInvalidNetwork),
		errors.Is(err, crypto.ErrFlagsUnsupported),
		errors.Is(err, crypto.ErrMalformedOrder):
		return http.StatusBadRequest
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

func listLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultListLimit, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		respondError(w, http.StatusBadRequest, "invalid limit", raw)
		return 0, false
	}
	return n, true
}

func respondJSON(w http.ResponseWriter, data any) {
	respondJSONStatus(w, http.StatusOK, data)
}

func respondJSONStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, error string, message string) {
	respondJSONStatus(w, status, ErrorResponse{Error: error, Message: message})
}
