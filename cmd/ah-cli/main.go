package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"gopkg.in/yaml.v3"

	"auctionhouse/cmd/internal/passphrase"
	"auctionhouse/crypto"
	"auctionhouse/rpc"
)

const (
	rpcURLEnv   = "AH_RPC_URL"
	rpcTokenEnv = "AH_RPC_TOKEN"
	keyPassEnv  = "AH_KEY_PASS"
)

var (
	rpcEndpoint  = defaultRPCEndpoint()
	rpcAuthToken = os.Getenv(rpcTokenEnv)
	outputFormat = "json"

	// callRPC is swapped out in tests.
	callRPC = postRPC

	passSource = passphrase.NewSource(keyPassEnv, "wallet keystore")
)

func main() {
	args, err := applyGlobalFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(run(args, os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usage())
		return 1
	}
	switch args[0] {
	case "generate-key":
		return runGenerateKey(args[1:], stdout, stderr)
	case "pubkey":
		return runPubkey(args[1:], stdout, stderr)
	case "balance":
		return runBalance(args[1:], stdout, stderr)
	case "house":
		return runHouseCommand(args[1:], stdout, stderr)
	case "deposit":
		return runDeposit(args[1:], stdout, stderr)
	case "withdraw":
		return runWithdraw(args[1:], stdout, stderr)
	case "sell":
		return runSell(args[1:], stdout, stderr)
	case "buy":
		return runBuy(args[1:], stdout, stderr)
	case "cancel":
		return runCancel(args[1:], stdout, stderr)
	case "execute":
		return runExecute(args[1:], stdout, stderr)
	case "raw":
		return runRaw(args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprintln(stdout, usage())
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[0])
		fmt.Fprintln(stderr, usage())
		return 1
	}
}

func usage() string {
	return strings.Join([]string{
		"Usage: ah-cli [--rpc URL] [--output json|yaml] <command> [flags]",
		"",
		"Commands:",
		"  generate-key --out FILE            create a wallet keystore",
		"  pubkey --key FILE                  print the wallet address",
		"  balance ADDRESS                    show lamports and holdings",
		"  house create|show|fees|treasury    manage a marketplace instance",
		"  deposit|withdraw                   move funds through a buyer escrow",
		"  sell|buy|cancel|execute            trade an asset",
		"  raw METHOD JSON [--key FILE]...    send any JSON-RPC call",
	}, "\n")
}

func defaultRPCEndpoint() string {
	if url := strings.TrimSpace(os.Getenv(rpcURLEnv)); url != "" {
		return url
	}
	return "http://127.0.0.1:8899"
}

func applyGlobalFlags(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--rpc":
			if i+1 >= len(args) {
				return nil, errors.New("--rpc requires a URL")
			}
			rpcEndpoint = args[i+1]
			i++
		case strings.HasPrefix(arg, "--rpc="):
			rpcEndpoint = strings.TrimPrefix(arg, "--rpc=")
		case arg == "--output":
			if i+1 >= len(args) {
				return nil, errors.New("--output requires json or yaml")
			}
			if err := setOutput(args[i+1]); err != nil {
				return nil, err
			}
			i++
		default:
			out = append(out, arg)
		}
	}
	return out, nil
}

func loadKey(path string) (*crypto.PrivateKey, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("--key is required")
	}
	pass := ""
	if raw, err := os.ReadFile(path); err == nil && !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		if pass, err = passSource.Get(); err != nil {
			return nil, err
		}
	}
	return crypto.LoadFromKeystore(path, pass)
}

// postRPC signs params with every key under a fresh nonce and posts the
// call.
func postRPC(method string, params interface{}, signers ...*crypto.PrivateKey) (json.RawMessage, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}
	req := rpc.RPCRequest{JSONRPC: "2.0", Method: method, Params: raw, ID: json.RawMessage("1")}
	if len(signers) > 0 {
		if req.Nonce, err = nextNonce(signers); err != nil {
			return nil, err
		}
	}
	for _, key := range signers {
		sig, err := key.SignRequest(method, req.Nonce, raw)
		if err != nil {
			return nil, err
		}
		req.Signatures = append(req.Signatures, rpc.SignatureJSON{PubKey: key.PubKey(), Signature: sig})
	}
	return sendRPC(req)
}

// nextNonce returns one above the highest nonce any signer has used.
func nextNonce(signers []*crypto.PrivateKey) (uint64, error) {
	var next uint64
	for _, key := range signers {
		params, err := json.Marshal(map[string]solana.PublicKey{"address": key.PubKey()})
		if err != nil {
			return 0, err
		}
		result, err := sendRPC(rpc.RPCRequest{JSONRPC: "2.0", Method: "sys_getNonce", Params: params, ID: json.RawMessage("1")})
		if err != nil {
			return 0, err
		}
		var view struct {
			Nonce uint64 `json:"nonce"`
		}
		if err := json.Unmarshal(result, &view); err != nil {
			return 0, fmt.Errorf("decode nonce of %s: %w", key.PubKey(), err)
		}
		if view.Nonce >= next {
			next = view.Nonce + 1
		}
	}
	return next, nil
}

func sendRPC(req rpc.RPCRequest) (json.RawMessage, error) {
	method := req.Method
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequest(http.MethodPost, rpcEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if rpcAuthToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+rpcAuthToken)
	}
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var reply struct {
		Result json.RawMessage `json:"result"`
		Error  *rpc.RPCError   `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", method, err)
	}
	if reply.Error != nil {
		if reply.Error.Data != nil {
			detail, _ := json.Marshal(reply.Error.Data)
			return nil, fmt.Errorf("%s: %s (%s)", method, reply.Error.Message, detail)
		}
		return nil, fmt.Errorf("%s: %s", method, reply.Error.Message)
	}
	return reply.Result, nil
}

func setOutput(format string) error {
	switch format {
	case "json", "yaml":
		outputFormat = format
		return nil
	}
	return fmt.Errorf("unsupported output format %q", format)
}

func printResult(stdout io.Writer, result json.RawMessage) {
	if outputFormat == "yaml" {
		var doc interface{}
		if err := json.Unmarshal(result, &doc); err == nil {
			if out, err := yaml.Marshal(doc); err == nil {
				fmt.Fprint(stdout, string(out))
				return
			}
		}
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result, "", "  "); err != nil {
		fmt.Fprintln(stdout, string(result))
		return
	}
	fmt.Fprintln(stdout, pretty.String())
}

func printError(stderr io.Writer, msg string) int {
	fmt.Fprintf(stderr, "Error: %s\n", msg)
	return 1
}
