package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"auctionhouse/core/state"
	"auctionhouse/crypto"
)

type Config struct {
	RPCAddress           string       `toml:"RPCAddress"`
	MetricsAddress       string       `toml:"MetricsAddress"`
	DataDir              string       `toml:"DataDir"`
	Environment          string       `toml:"Environment"`
	LogFile              string       `toml:"LogFile"`
	OperatorKeystorePath string       `toml:"OperatorKeystorePath"`
	RPCAuthToken         string       `toml:"RPCAuthToken"`
	RPCReadTimeout       int          `toml:"RPCReadTimeout"`
	RPCWriteTimeout      int          `toml:"RPCWriteTimeout"`
	RPCMaxBodyBytes      int64        `toml:"RPCMaxBodyBytes"`
	RPCJWT               JWT          `toml:"rpc_jwt"`
	RateLimit            RateLimit    `toml:"rate_limit"`
	Rent                 Rent         `toml:"rent"`
	Pauses               Pauses       `toml:"pauses"`
	Telemetry            Telemetry    `toml:"telemetry"`
	Genesis              []Allocation `toml:"genesis"`
}

// Option customises how Load resolves secrets.
type Option func(*loadOptions)

type loadOptions struct {
	passphrase func() (string, error)
}

// WithKeystorePassphraseSource supplies the passphrase protecting a freshly
// generated operator keystore. Without it the keystore is written with an
// empty passphrase.
func WithKeystorePassphraseSource(source func() (string, error)) Option {
	return func(o *loadOptions) { o.passphrase = source }
}

// Load loads the configuration from the given path. A missing file is
// replaced by a default configuration together with a fresh operator key.
func Load(path string, opts ...Option) (*Config, error) {
	options := loadOptions{passphrase: func() (string, error) { return "", nil }}
	for _, opt := range opts {
		opt(&options)
	}
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path, options)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	applyDefaults(cfg)
	if err := ensureKeystore(path, cfg, options); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Environment) == "" {
		cfg.Environment = "dev"
	}
	if cfg.RPCReadTimeout == 0 {
		cfg.RPCReadTimeout = 15
	}
	if cfg.RPCWriteTimeout == 0 {
		cfg.RPCWriteTimeout = 15
	}
	if cfg.RPCMaxBodyBytes == 0 {
		cfg.RPCMaxBodyBytes = 1 << 20
	}
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 20
	}
	if cfg.RateLimit.Burst == 0 {
		cfg.RateLimit.Burst = 40
	}
	if cfg.Rent == (Rent{}) {
		def := state.DefaultRent()
		cfg.Rent = Rent{LamportsPerByteYear: def.LamportsPerByteYear, ExemptionYears: def.ExemptionYears}
	}
}

func ensureKeystore(configPath string, cfg *Config, options loadOptions) error {
	keystorePath := cfg.OperatorKeystorePath
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
	}

	if _, err := os.Stat(keystorePath); os.IsNotExist(err) {
		key, genErr := crypto.GeneratePrivateKey()
		if genErr != nil {
			return genErr
		}
		pass, passErr := options.passphrase()
		if passErr != nil {
			return passErr
		}
		if err := crypto.SaveToKeystore(keystorePath, key, pass); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if cfg.OperatorKeystorePath != keystorePath {
		cfg.OperatorKeystorePath = keystorePath
		return persist(configPath, cfg)
	}
	return nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string, options loadOptions) (*Config, error) {
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	pass, err := options.passphrase()
	if err != nil {
		return nil, err
	}
	keystorePath := defaultKeystorePath(path)
	if err := crypto.SaveToKeystore(keystorePath, key, pass); err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:           "127.0.0.1:8899",
		MetricsAddress:       "127.0.0.1:9100",
		DataDir:              "./auctionhouse-data",
		OperatorKeystorePath: keystorePath,
		Genesis: []Allocation{
			{Address: key.PubKey().String(), Lamports: 1_000_000_000_000},
		},
	}
	applyDefaults(cfg)

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

func defaultKeystorePath(configPath string) string {
	dir := filepath.Dir(configPath)
	if dir == "." || dir == "" {
		dir = ""
	}
	return filepath.Join(dir, "operator.keystore")
}
