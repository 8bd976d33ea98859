package config

import (
	"fmt"

	"auctionhouse/core/state"
)

// Pauses switches modules off without restarting the node. Keys are module
// names as passed to native/common.Guard.
type Pauses struct {
	AuctionHouse bool `toml:"AuctionHouse"`
	Auctioneer   bool `toml:"Auctioneer"`
}

// IsPaused implements native/common.PauseView.
func (p Pauses) IsPaused(module string) bool {
	switch module {
	case "auctionhouse":
		return p.AuctionHouse
	case "auctioneer":
		return p.Auctioneer
	}
	return false
}

// Rent is the rent-exempt schedule applied to every allocated account.
type Rent struct {
	LamportsPerByteYear uint64 `toml:"LamportsPerByteYear"`
	ExemptionYears      uint64 `toml:"ExemptionYears"`
}

// Schedule converts the configured rent into the ledger's schedule.
func (r Rent) Schedule() state.Rent {
	return state.Rent{LamportsPerByteYear: r.LamportsPerByteYear, ExemptionYears: r.ExemptionYears}
}

// Allocation credits an address at first start.
type Allocation struct {
	Address  string `toml:"Address"`
	Lamports uint64 `toml:"Lamports"`
}

// RateLimit throttles RPC calls per client address.
type RateLimit struct {
	RequestsPerSecond float64 `toml:"RequestsPerSecond"`
	Burst             int     `toml:"Burst"`
}

// Telemetry configures OTLP export of traces and metrics.
type Telemetry struct {
	Endpoint string `toml:"Endpoint"`
	Insecure bool   `toml:"Insecure"`
	Headers  string `toml:"Headers"`
	Traces   bool   `toml:"Traces"`
	Metrics  bool   `toml:"Metrics"`
}

// JWT enables HS256 bearer tokens on mutating RPC calls. The secret is read
// from the named environment variable, never from the file.
type JWT struct {
	SecretEnv        string `toml:"SecretEnv"`
	Issuer           string `toml:"Issuer"`
	ClockSkewSeconds int    `toml:"ClockSkewSeconds"`
}

// Secret resolves the signing secret. An empty result disables JWT auth.
func (j JWT) Secret(lookup func(string) (string, bool)) ([]byte, error) {
	if j.SecretEnv == "" {
		return nil, nil
	}
	value, ok := lookup(j.SecretEnv)
	if !ok || value == "" {
		return nil, fmt.Errorf("rpc_jwt: %s is not set", j.SecretEnv)
	}
	return []byte(value), nil
}
