package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"auctionhouse/crypto"
	"auctionhouse/native/auctionhouse"
	"auctionhouse/native/token"
	"auctionhouse/rpc"
)

type recordedCall struct {
	method  string
	params  json.RawMessage
	signers []solana.PublicKey
}

// stubRPC answers ah_getAuctionHouse with house and records every other call.
func stubRPC(t *testing.T, house auctionhouse.AuctionHouse) *[]recordedCall {
	t.Helper()
	var calls []recordedCall
	prev := callRPC
	callRPC = func(method string, params interface{}, signers ...*crypto.PrivateKey) (json.RawMessage, error) {
		raw, err := json.Marshal(params)
		require.NoError(t, err)
		rec := recordedCall{method: method, params: raw}
		for _, s := range signers {
			rec.signers = append(rec.signers, s.PubKey())
		}
		calls = append(calls, rec)
		if method == "ah_getAuctionHouse" {
			return json.Marshal(house)
		}
		return json.RawMessage(`{"ok":true}`), nil
	}
	t.Cleanup(func() { callRPC = prev })
	return &calls
}

// writeKeyFile stores key as a plain keygen byte array, which needs no
// passphrase.
func writeKeyFile(t *testing.T, key *crypto.PrivateKey) string {
	t.Helper()
	raw := key.Bytes()
	ints := make([]int, len(raw))
	for i, b := range raw {
		ints[i] = int(b)
	}
	data, err := json.Marshal(ints)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "wallet.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestSellDerivesTradeStateBumps(t *testing.T) {
	calls := stubRPC(t, auctionhouse.AuctionHouse{TreasuryMint: token.NativeMint})
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	keyPath := writeKeyFile(t, key)
	house, holding, mint := solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey()

	var stdout, stderr bytes.Buffer
	code := run([]string{"sell", "--key", keyPath, "--house", house.String(), "--token-account", holding.String(),
		"--mint", mint.String(), "--price", "500"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Len(t, *calls, 2)

	sell := (*calls)[1]
	require.Equal(t, "ah_sell", sell.method)
	require.Equal(t, []solana.PublicKey{key.PubKey()}, sell.signers)
	var p auctionhouse.SellParams
	require.NoError(t, json.Unmarshal(sell.params, &p))
	_, bump, err := auctionhouse.TradeStateKey{
		Wallet: key.PubKey(), AuctionHouse: house, TokenAccount: &holding,
		TreasuryMint: token.NativeMint, TokenMint: mint, Price: 500, Size: 1,
	}.Find()
	require.NoError(t, err)
	require.Equal(t, bump, p.TradeStateBump)
	metadata, _, _ := token.FindMetadataAddress(mint)
	require.Equal(t, metadata, p.Metadata)
}

func TestDepositPaysFromAssociatedAccountOnCustomMint(t *testing.T) {
	treasuryMint := solana.NewWallet().PublicKey()
	calls := stubRPC(t, auctionhouse.AuctionHouse{TreasuryMint: treasuryMint})
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	house := solana.NewWallet().PublicKey()

	var stdout, stderr bytes.Buffer
	code := run([]string{"deposit", "--key", writeKeyFile(t, key), "--house", house.String(), "--amount", "42"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var p auctionhouse.DepositParams
	require.NoError(t, json.Unmarshal((*calls)[1].params, &p))
	ata, _, _ := token.FindAssociatedAddress(key.PubKey(), treasuryMint)
	require.Equal(t, ata, p.PaymentAccount)
	require.Equal(t, key.PubKey(), p.TransferAuthority)
	require.Equal(t, uint64(42), p.Amount)
}

func TestHouseCreateRejectsFeeAboveMax(t *testing.T) {
	stubRPC(t, auctionhouse.AuctionHouse{})
	var stdout, stderr bytes.Buffer
	code := run([]string{"house", "create", "--fee-bps", "10001"}, &stdout, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "fee-bps")
}

func TestRawRequiresJSON(t *testing.T) {
	stubRPC(t, auctionhouse.AuctionHouse{})
	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, run([]string{"raw", "ah_getAccount", "{not json"}, &stdout, &stderr))
	require.Equal(t, 0, run([]string{"raw", "ah_getAccount", `{"address":"11111111111111111111111111111111"}`}, &stdout, &stderr))
	require.True(t, strings.Contains(stdout.String(), `"ok": true`))
}

func TestGlobalRPCFlag(t *testing.T) {
	prev := rpcEndpoint
	t.Cleanup(func() { rpcEndpoint = prev })
	rest, err := applyGlobalFlags([]string{"--rpc", "http://node:8899", "balance", "x"})
	require.NoError(t, err)
	require.Equal(t, "http://node:8899", rpcEndpoint)
	require.Equal(t, []string{"balance", "x"}, rest)

	_, err = applyGlobalFlags([]string{"--rpc"})
	require.Error(t, err)
}

func TestUnknownCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.Equal(t, 1, run([]string{"frobnicate"}, &stdout, &stderr))
	require.Contains(t, stderr.String(), "Unknown command")
}

func TestYAMLOutput(t *testing.T) {
	stubRPC(t, auctionhouse.AuctionHouse{})
	prev := outputFormat
	t.Cleanup(func() { outputFormat = prev })
	_, err := applyGlobalFlags([]string{"--output", "yaml"})
	require.NoError(t, err)

	var stdout, stderr bytes.Buffer
	require.Equal(t, 0, run([]string{"raw", "ah_getAccount", `{}`}, &stdout, &stderr))
	require.Equal(t, "ok: true\n", stdout.String())

	_, err = applyGlobalFlags([]string{"--output", "xml"})
	require.Error(t, err)
}

func TestPostRPCSignsUnderNextNonce(t *testing.T) {
	alice, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	bob, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	used := map[solana.PublicKey]uint64{alice.PubKey(): 4, bob.PubKey(): 9}

	var signed rpc.RPCRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpc.RPCRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Method == "sys_getNonce" {
			var p struct {
				Address solana.PublicKey `json:"address"`
			}
			require.NoError(t, json.Unmarshal(req.Params, &p))
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": map[string]uint64{"nonce": used[p.Address]}})
			return
		}
		signed = req
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"result": map[string]bool{"ok": true}})
	}))
	defer srv.Close()
	prev := rpcEndpoint
	rpcEndpoint = srv.URL
	t.Cleanup(func() { rpcEndpoint = prev })

	_, err = postRPC("sys_transfer", map[string]uint64{"lamports": 1}, alice, bob)
	require.NoError(t, err)
	require.Equal(t, uint64(10), signed.Nonce)
	require.Len(t, signed.Signatures, 2)
	for _, sig := range signed.Signatures {
		require.NoError(t, crypto.VerifyRequest(sig.PubKey, sig.Signature, "sys_transfer", signed.Nonce, signed.Params))
	}
}
