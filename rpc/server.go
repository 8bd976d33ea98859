package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"auctionhouse/core/events"
	"auctionhouse/core/state"
	"auctionhouse/crypto"
	"auctionhouse/native/auctioneer"
	"auctionhouse/native/auctionhouse"
	"auctionhouse/native/token"
	"auctionhouse/observability"
	"auctionhouse/observability/logging"
)

const defaultMaxBodyBytes = 1 << 20

// Config tunes the transport around the marketplace.
type Config struct {
	Auth              AuthConfig
	RequestsPerSecond float64
	Burst             int
	MaxBodyBytes      int64
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	Logger            *slog.Logger
	// Events, when set, backs the websocket event stream on /ws/events.
	Events    *events.Hub
	WSOrigins []string
}

// Server exposes the marketplace over JSON-RPC. Calls are serialized; each
// mutating call runs as one atomic unit and is committed before the response
// is written.
type Server struct {
	mu      sync.Mutex
	state   *state.Manager
	engine  *auctionhouse.Engine
	auction *auctioneer.Module
	assets  *token.Program

	cfg     Config
	logger  *slog.Logger
	auth    authenticator
	limiter *sourceLimiter
	methods map[string]method
}

// NewServer wires the engine, the auction module and the asset program over
// one ledger.
func NewServer(mgr *state.Manager, engine *auctionhouse.Engine, auction *auctioneer.Module, assets *token.Program, cfg Config) *Server {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		state:   mgr,
		engine:  engine,
		auction: auction,
		assets:  assets,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "rpc")),
		auth:    authenticator{cfg: cfg.Auth},
		limiter: newSourceLimiter(cfg.RequestsPerSecond, cfg.Burst),
	}
	s.methods = s.routes()
	return s
}

// Handler returns the HTTP handler serving JSON-RPC on / and /rpc.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/", s.handle)
	r.Post("/rpc", s.handle)
	r.Get("/ws/events", s.handleEventsWS)
	return otelhttp.NewHandler(r, "auctionhouse.rpc")
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("json-rpc listening", slog.String("address", addr))
		errCh <- srv.ListenAndServe()
	}()
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-Id", requestID)
	source := clientSource(r)

	if !s.limiter.allow(source) {
		observability.Marketplace().RecordThrottle("rate_limit")
		writeError(w, http.StatusTooManyRequests, nil, &RPCError{Code: codeRateLimited, Message: "rate limit exceeded"})
		return
	}

	reader := http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	defer reader.Close()
	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
		}
		writeError(w, status, nil, &RPCError{Code: codeInvalidRequest, Message: "failed to read request body", Data: err.Error()})
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, &RPCError{Code: codeInvalidRequest, Message: "request body required"})
		return
	}
	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, &RPCError{Code: codeParseError, Message: "invalid JSON payload", Data: err.Error()})
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, &RPCError{Code: codeInvalidRequest, Message: "unsupported jsonrpc version", Data: req.JSONRPC})
		return
	}
	m, ok := s.methods[req.Method]
	if !ok {
		writeError(w, http.StatusNotFound, req.ID, &RPCError{Code: codeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)})
		return
	}
	if m.mutates {
		if rpcErr := s.auth.check(r); rpcErr != nil {
			observability.Marketplace().RecordThrottle("unauthorized")
			writeError(w, http.StatusUnauthorized, req.ID, rpcErr)
			return
		}
	}
	signers, rpcErr := verifySignatures(req)
	if rpcErr != nil {
		writeError(w, http.StatusUnauthorized, req.ID, rpcErr)
		return
	}

	ctx, span := otel.Tracer("auctionhouse/rpc").Start(r.Context(), req.Method)
	defer span.End()
	span.SetAttributes(attribute.String("rpc.request_id", requestID), attribute.Int("rpc.signers", len(signers)))

	start := time.Now()
	result, err := s.dispatch(ctx, m, req, signers)
	elapsed := time.Since(start)

	attrs := []any{
		slog.String("requestId", requestID),
		slog.String("method", req.Method),
		slog.String("remote", source),
		slog.Duration("elapsed", elapsed),
		slog.Int("signers", len(signers)),
	}
	if auth := r.Header.Get("Authorization"); auth != "" {
		attrs = append(attrs, logging.MaskField("authorization", auth))
	}
	if err != nil {
		rpcErr, outcome := toRPCError(err)
		span.SetStatus(codes.Error, outcome)
		observability.Marketplace().ObserveOperation(req.Method, outcome, elapsed)
		s.logger.Warn("rpc call failed", append(attrs, slog.String("code", outcome), slog.String("error", err.Error()))...)
		status := http.StatusOK
		switch rpcErr.Code {
		case codeInvalidParams:
			status = http.StatusBadRequest
		case codeNonceUsed:
			status = http.StatusConflict
		}
		writeError(w, status, req.ID, rpcErr)
		return
	}
	observability.Marketplace().ObserveOperation(req.Method, "ok", elapsed)
	s.logger.Info("rpc call", attrs...)
	writeResult(w, req.ID, result)
}

// dispatch runs one call under the server lock. A mutating call first
// consumes the request nonce of every signer in the same unit, so a replayed
// body fails before touching funds. A call that succeeds is committed; a
// failed unit leaves no trace, its nonces included.
func (s *Server) dispatch(_ context.Context, m method, req *RPCRequest, signers []solana.PublicKey) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := auctionhouse.Call{Signers: signers, Auctioneer: req.Auctioneer}
	if !m.mutates {
		return m.query(s, req.Params)
	}
	var result interface{}
	err := s.state.Atomic(func(l state.Ledger) error {
		for _, signer := range signers {
			if err := state.UseNonce(l, signer, req.Nonce); err != nil {
				return fmt.Errorf("signer %s: %w", signer, err)
			}
		}
		var err error
		result, err = m.apply(s, l, call, req.Params)
		return err
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.state.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	observability.Marketplace().RecordCommit()
	return result, nil
}

// verifySignatures checks every signature over the method, nonce and raw
// params and returns the distinct verified keys.
func verifySignatures(req *RPCRequest) ([]solana.PublicKey, *RPCError) {
	signers := make([]solana.PublicKey, 0, len(req.Signatures))
	seen := make(map[solana.PublicKey]struct{}, len(req.Signatures))
	for _, sig := range req.Signatures {
		if err := crypto.VerifyRequest(sig.PubKey, sig.Signature, req.Method, req.Nonce, req.Params); err != nil {
			return nil, &RPCError{Code: codeUnauthorized, Message: "invalid signature", Data: sig.PubKey.String()}
		}
		if _, dup := seen[sig.PubKey]; dup {
			continue
		}
		seen[sig.PubKey] = struct{}{}
		signers = append(signers, sig.PubKey)
	}
	return signers, nil
}
