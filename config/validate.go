package config

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Validate rejects configurations the node cannot run with.
func (c *Config) Validate() error {
	if c.RPCAddress == "" {
		return fmt.Errorf("RPCAddress is required")
	}
	if c.DataDir == "" {
		return fmt.Errorf("DataDir is required")
	}
	if c.RateLimit.RequestsPerSecond < 0 || c.RateLimit.Burst < 0 {
		return fmt.Errorf("rate_limit: negative limits")
	}
	if c.Rent.LamportsPerByteYear == 0 || c.Rent.ExemptionYears == 0 {
		return fmt.Errorf("rent: LamportsPerByteYear and ExemptionYears must be non-zero")
	}
	for i, alloc := range c.Genesis {
		if _, err := solana.PublicKeyFromBase58(alloc.Address); err != nil {
			return fmt.Errorf("genesis[%d]: invalid address %q: %w", i, alloc.Address, err)
		}
	}
	return nil
}
