package rpc

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/core/state"
	"auctionhouse/native/auctionhouse"
)

var errMissingSigner = errors.New("required signer missing")

// method is one JSON-RPC entry point. Mutating methods run inside an atomic
// unit; queries read committed state.
type method struct {
	mutates bool
	apply   func(s *Server, l state.Ledger, call auctionhouse.Call, params json.RawMessage) (interface{}, error)
	query   func(s *Server, params json.RawMessage) (interface{}, error)
}

func mutation[P any](fn func(s *Server, l state.Ledger, call auctionhouse.Call, p P) (interface{}, error)) method {
	return method{
		mutates: true,
		apply: func(s *Server, l state.Ledger, call auctionhouse.Call, raw json.RawMessage) (interface{}, error) {
			var p P
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			return fn(s, l, call, p)
		},
	}
}

func query[P any](fn func(s *Server, l state.Ledger, p P) (interface{}, error)) method {
	return method{
		query: func(s *Server, raw json.RawMessage) (interface{}, error) {
			var p P
			if err := decodeParams(raw, &p); err != nil {
				return nil, err
			}
			return fn(s, s.state, p)
		},
	}
}

// engineOp exposes a marketplace operation as-is: the call carries the
// verified signers and the claimed auctioneer.
func engineOp[P any](op func(*auctionhouse.Engine, state.Ledger, auctionhouse.Call, P) (*auctionhouse.Result, error)) method {
	return mutation(func(s *Server, l state.Ledger, call auctionhouse.Call, p P) (interface{}, error) {
		return op(s.engine, l, call, p)
	})
}

func decodeParams(raw json.RawMessage, out interface{}) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = json.RawMessage("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return invalidParams(err)
	}
	return nil
}

func requireSigner(call auctionhouse.Call, key solana.PublicKey) error {
	if !call.Signed(key) {
		return &RPCError{Code: codeUnauthorized, Message: errMissingSigner.Error(), Data: key.String()}
	}
	return nil
}

func (s *Server) routes() map[string]method {
	return map[string]method{
		"ah_createAuctionHouse":   engineOp((*auctionhouse.Engine).CreateAuctionHouse),
		"ah_delegateAuctioneer":   engineOp((*auctionhouse.Engine).DelegateAuctioneer),
		"ah_updateAuctioneer":     engineOp((*auctionhouse.Engine).UpdateAuctioneer),
		"ah_revokeAuctioneer":     engineOp((*auctionhouse.Engine).RevokeAuctioneer),
		"ah_deposit":              engineOp((*auctionhouse.Engine).Deposit),
		"ah_withdraw":             engineOp((*auctionhouse.Engine).Withdraw),
		"ah_withdrawFromFee":      engineOp((*auctionhouse.Engine).WithdrawFromFee),
		"ah_withdrawFromTreasury": engineOp((*auctionhouse.Engine).WithdrawFromTreasury),
		"ah_sell":                 engineOp((*auctionhouse.Engine).Sell),
		"ah_buy":                  engineOp((*auctionhouse.Engine).Buy),
		"ah_publicBuy":            engineOp((*auctionhouse.Engine).PublicBuy),
		"ah_cancel":               engineOp((*auctionhouse.Engine).Cancel),
		"ah_executeSale":          engineOp((*auctionhouse.Engine).ExecuteSale),
		"ah_getAuctionHouse":      query(getAuctionHouse),
		"ah_getAccount":           query(getAccount),
		"ah_findTradeState":       query(findTradeState),
		"ah_getSettlementTotals":  query(getSettlementTotals),

		"auction_authorize":   mutation(auctionAuthorize),
		"auction_deposit":     mutation(auctionDeposit),
		"auction_withdraw":    mutation(auctionWithdraw),
		"auction_sell":        mutation(auctionSell),
		"auction_buy":         mutation(auctionBuy),
		"auction_cancel":      mutation(auctionCancel),
		"auction_executeSale": mutation(auctionExecuteSale),
		"auction_getListing":  query(getListing),

		"token_createMint":              mutation(createMint),
		"token_mintTo":                  mutation(mintTo),
		"token_createAssociatedAccount": mutation(createAssociatedAccount),
		"token_createMetadata":          mutation(createMetadata),
		"token_transfer":                mutation(transferAsset),
		"sys_transfer":                  mutation(transferLamports),
		"sys_getNonce":                  query(getNonce),
	}
}
