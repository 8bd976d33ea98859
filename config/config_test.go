package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"auctionhouse/crypto"
)

func TestLoadCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "node", "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:8899", cfg.RPCAddress)
	require.Equal(t, "dev", cfg.Environment)
	require.Equal(t, uint64(3480), cfg.Rent.LamportsPerByteYear)
	require.Len(t, cfg.Genesis, 1)
	require.FileExists(t, path)
	require.FileExists(t, cfg.OperatorKeystorePath)

	key, err := crypto.LoadFromKeystore(cfg.OperatorKeystorePath, "")
	require.NoError(t, err)
	require.Equal(t, key.PubKey().String(), cfg.Genesis[0].Address)

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.OperatorKeystorePath, again.OperatorKeystorePath)
	require.Equal(t, cfg.Genesis, again.Genesis)
}

func TestLoadParsesSettings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	key, err := crypto.GeneratePrivateKey()
	require.NoError(t, err)
	keystorePath := filepath.Join(dir, "operator.json")
	require.NoError(t, crypto.SaveToKeystore(keystorePath, key, ""))

	contents := `RPCAddress = "0.0.0.0:9000"
MetricsAddress = "0.0.0.0:9100"
DataDir = "./data"
Environment = "prod"
LogFile = "/var/log/auctionhouse.log"
OperatorKeystorePath = "` + keystorePath + `"
RPCAuthToken = "secret"

[rate_limit]
RequestsPerSecond = 2.5
Burst = 5

[rent]
LamportsPerByteYear = 10
ExemptionYears = 1

[pauses]
Auctioneer = true

[[genesis]]
Address = "` + key.PubKey().String() + `"
Lamports = 42
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:9000", cfg.RPCAddress)
	require.Equal(t, "prod", cfg.Environment)
	require.Equal(t, "secret", cfg.RPCAuthToken)
	require.Equal(t, 2.5, cfg.RateLimit.RequestsPerSecond)
	require.Equal(t, 5, cfg.RateLimit.Burst)
	require.Equal(t, uint64(10*128), cfg.Rent.Schedule().MinimumBalance(0))
	require.True(t, cfg.Pauses.IsPaused("auctioneer"))
	require.False(t, cfg.Pauses.IsPaused("auctionhouse"))
	require.Equal(t, uint64(42), cfg.Genesis[0].Lamports)
	require.Equal(t, 15, cfg.RPCReadTimeout)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("RPCAddress = \":1\"\nDataDir = \"d\"\nValidatorKey = \"x\"\n"), 0o644))
	_, err := Load(path)
	require.ErrorContains(t, err, "ValidatorKey")
}

func TestValidate(t *testing.T) {
	cfg := &Config{RPCAddress: ":1", DataDir: "d"}
	applyDefaults(cfg)
	require.NoError(t, cfg.Validate())

	bad := *cfg
	bad.Genesis = []Allocation{{Address: "not-a-key"}}
	require.Error(t, bad.Validate())

	bad = *cfg
	bad.Rent = Rent{LamportsPerByteYear: 1}
	require.Error(t, bad.Validate())

	bad = *cfg
	bad.DataDir = ""
	require.Error(t, bad.Validate())
}

func TestKeystorePassphraseSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path, WithKeystorePassphraseSource(func() (string, error) { return "hunter2", nil }))
	require.NoError(t, err)

	_, err = crypto.LoadFromKeystore(cfg.OperatorKeystorePath, "")
	require.Error(t, err)
	key, err := crypto.LoadFromKeystore(cfg.OperatorKeystorePath, "hunter2")
	require.NoError(t, err)
	require.Equal(t, key.PubKey().String(), cfg.Genesis[0].Address)
}

func TestJWTSecret(t *testing.T) {
	env := map[string]string{"AH_JWT": "s3cret"}
	lookup := func(k string) (string, bool) { v, ok := env[k]; return v, ok }

	secret, err := JWT{}.Secret(lookup)
	require.NoError(t, err)
	require.Nil(t, secret)

	secret, err = JWT{SecretEnv: "AH_JWT"}.Secret(lookup)
	require.NoError(t, err)
	require.Equal(t, []byte("s3cret"), secret)

	_, err = JWT{SecretEnv: "MISSING"}.Secret(lookup)
	require.Error(t, err)
}
