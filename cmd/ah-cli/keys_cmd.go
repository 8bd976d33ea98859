package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/gagliardetto/solana-go"

	"auctionhouse/crypto"
)

func newFlagSet(name string, stderr io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func runGenerateKey(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("generate-key", stderr)
	out := fs.String("out", "wallet.keystore", "keystore file to write")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return printError(stderr, err.Error())
	}
	pass, err := passSource.Get()
	if err != nil {
		return printError(stderr, err.Error())
	}
	if err := crypto.SaveToKeystore(*out, key, pass); err != nil {
		return printError(stderr, err.Error())
	}
	fmt.Fprintf(stdout, "%s\n", key.PubKey())
	return 0
}

func runPubkey(args []string, stdout, stderr io.Writer) int {
	fs := newFlagSet("pubkey", stderr)
	keyPath := fs.String("key", "", "wallet keystore")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	key, err := loadKey(*keyPath)
	if err != nil {
		return printError(stderr, err.Error())
	}
	fmt.Fprintf(stdout, "%s\n", key.PubKey())
	return 0
}

func runBalance(args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		return printError(stderr, "balance takes exactly one address")
	}
	addr, err := solana.PublicKeyFromBase58(strings.TrimSpace(args[0]))
	if err != nil {
		return printError(stderr, "invalid address: "+err.Error())
	}
	result, err := callRPC("ah_getAccount", map[string]solana.PublicKey{"address": addr})
	if err != nil {
		return printError(stderr, err.Error())
	}
	printResult(stdout, result)
	return 0
}

type keyList []string

func (k *keyList) String() string     { return strings.Join(*k, ",") }
func (k *keyList) Set(v string) error { *k = append(*k, v); return nil }

// runRaw sends METHOD with a literal JSON params object, signed by every
// --key given.
func runRaw(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		return printError(stderr, "raw requires METHOD and JSON params")
	}
	method, params := args[0], args[1]
	fs := newFlagSet("raw", stderr)
	var keys keyList
	fs.Var(&keys, "key", "keystore of a signer (repeatable)")
	if err := fs.Parse(args[2:]); err != nil {
		return 1
	}
	if !json.Valid([]byte(params)) {
		return printError(stderr, "params must be valid JSON")
	}
	signers := make([]*crypto.PrivateKey, 0, len(keys))
	for _, path := range keys {
		key, err := loadKey(path)
		if err != nil {
			return printError(stderr, err.Error())
		}
		signers = append(signers, key)
	}
	result, err := callRPC(method, json.RawMessage(params), signers...)
	if err != nil {
		return printError(stderr, err.Error())
	}
	printResult(stdout, result)
	return 0
}
