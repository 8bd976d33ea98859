package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSetupRenamesKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := setup(&buf, "auctionhoused", "test", slog.LevelInfo)
	logger.Info("rpc call", slog.String("method", "ah_buy"))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "rpc call", line["message"])
	require.Equal(t, "INFO", line["severity"])
	require.Equal(t, "auctionhoused", line["service"])
	require.Equal(t, "test", line["env"])
	require.Equal(t, "ah_buy", line["method"])
	require.Contains(t, line, "timestamp")
}

func TestMaskField(t *testing.T) {
	require.Equal(t, RedactedValue, MaskField("signature", "5xyz").Value.String())
	require.Equal(t, RedactedValue, MaskField("authToken", "secret").Value.String())
	require.Equal(t, "ah_buy", MaskField("Method", "ah_buy").Value.String())
	require.Equal(t, "", MaskField("signature", "").Value.String())
	require.Contains(t, RedactionAllowlist(), "wallet")
}

func TestMaskSecret(t *testing.T) {
	require.Equal(t, "", MaskSecret(" "))
	require.Equal(t, RedactedValue, MaskSecret("short"))
	require.Equal(t, "abcd…"+RedactedValue, MaskSecret("abcdefghijkl"))
}
