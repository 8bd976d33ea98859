package logging

import (
	"log/slog"
	"sort"
	"strings"
)

// RedactedValue is the placeholder logged in place of sensitive fields.
const RedactedValue = "[REDACTED]"

// Keys logged verbatim. Wallets, instances and trade states are public
// addresses; tokens, signatures and keys never are.
var redactionAllowlist = map[string]struct{}{
	"service":      {},
	"env":          {},
	"message":      {},
	"severity":     {},
	"timestamp":    {},
	"error":        {},
	"component":    {},
	"method":       {},
	"requestid":    {},
	"remote":       {},
	"code":         {},
	"auctionhouse": {},
	"wallet":       {},
	"tradestate":   {},
	"signers":      {},
}

// IsAllowlisted reports whether key is exempt from redaction.
func IsAllowlisted(key string) bool {
	_, ok := redactionAllowlist[strings.ToLower(strings.TrimSpace(key))]
	return ok
}

// RedactionAllowlist returns the allowlisted keys in sorted order.
func RedactionAllowlist() []string {
	keys := make([]string, 0, len(redactionAllowlist))
	for key := range redactionAllowlist {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// MaskField returns a slog.Attr that redacts value unless key is allowlisted.
// Empty values pass through.
func MaskField(key, value string) slog.Attr {
	if strings.TrimSpace(value) == "" || IsAllowlisted(key) {
		return slog.String(key, value)
	}
	return slog.String(key, RedactedValue)
}

// MaskSecret keeps a short prefix of a secret so operators can tell values
// apart without exposing them.
func MaskSecret(value string) string {
	value = strings.TrimSpace(value)
	if len(value) <= 8 {
		if value == "" {
			return value
		}
		return RedactedValue
	}
	return value[:4] + "…" + RedactedValue
}
