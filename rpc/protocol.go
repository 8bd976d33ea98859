package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/native/auctioneer"
	"auctionhouse/native/auctionhouse"
	"auctionhouse/native/system"
	"auctionhouse/native/token"
)

const jsonRPCVersion = "2.0"

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeServerError    = -32000
	codeUnauthorized   = -32001
	codeNonceUsed      = -32010
	codeRateLimited    = -32020
	codeMarketplace    = -32050
	codeAuction        = -32051
	codeAsset          = -32052
)

// SignatureJSON is one signer of a request.
type SignatureJSON struct {
	PubKey    solana.PublicKey `json:"pubkey"`
	Signature solana.Signature `json:"signature"`
}

// RPCRequest is a JSON-RPC 2.0 request. Params is an object signed together
// with the method and Nonce; Auctioneer names the auctioneer authority a
// delegated call acts for. A mutating call consumes Nonce for every signer.
type RPCRequest struct {
	JSONRPC    string            `json:"jsonrpc"`
	Method     string            `json:"method"`
	Params     json.RawMessage   `json:"params"`
	Nonce      uint64            `json:"nonce,omitempty"`
	Signatures []SignatureJSON   `json:"signatures,omitempty"`
	Auctioneer *solana.PublicKey `json:"auctioneer,omitempty"`
	ID         json.RawMessage   `json:"id"`
}

type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (e *RPCError) Error() string { return e.Message }

// ErrorData carries the numeric code and stable name of a domain error.
type ErrorData struct {
	Code uint32 `json:"code"`
	Name string `json:"name"`
}

func writeError(w http.ResponseWriter, status int, id json.RawMessage, rpcErr *RPCError) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: rpcErr})
}

func writeResult(w http.ResponseWriter, id json.RawMessage, result interface{}) {
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func invalidParams(err error) *RPCError {
	return &RPCError{Code: codeInvalidParams, Message: "invalid params", Data: err.Error()}
}

// toRPCError maps an operation failure onto a JSON-RPC error and returns the
// outcome label used for metrics.
func toRPCError(err error) (*RPCError, string) {
	var rpcErr *RPCError
	if errors.As(err, &rpcErr) {
		return rpcErr, "invalid_request"
	}
	if errors.Is(err, state.ErrNonceUsed) {
		return &RPCError{Code: codeNonceUsed, Message: err.Error()}, "nonce_used"
	}
	var ahErr auctionhouse.Error
	if errors.As(err, &ahErr) {
		return &RPCError{Code: codeMarketplace, Message: err.Error(), Data: ErrorData{Code: ahErr.Code(), Name: ahErr.Name()}}, ahErr.Name()
	}
	var auctionErr auctioneer.Error
	if errors.As(err, &auctionErr) {
		return &RPCError{Code: codeAuction, Message: err.Error(), Data: ErrorData{Code: auctionErr.Code(), Name: auctionErr.Name()}}, auctionErr.Name()
	}
	for _, assetErr := range []error{
		system.ErrInsufficientFunds, system.ErrAccountInUse, system.ErrNotOwned,
		token.ErrInsufficientFunds, token.ErrOwnerMismatch, token.ErrMintMismatch, token.ErrUninitialized,
	} {
		if errors.Is(err, assetErr) {
			return &RPCError{Code: codeAsset, Message: err.Error()}, "asset_error"
		}
	}
	return &RPCError{Code: codeServerError, Message: err.Error()}, "internal"
}
