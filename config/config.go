package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"refpool/crypto"
	"refpool/native/referral"
	"refpool/observability/logging"
	"refpool/observability/tracing"
	"refpool/runtime"
)

const (
	DefaultNetworkName = "refpool-local"
	DefaultDataDir     = "./refpool-data"
)

type Config struct {
	DataDir           string    `toml:"DataDir"`
	NetworkName       string    `toml:"NetworkName"`
	KeystorePath      string    `toml:"KeystorePath"`
	RecentBlockhashes int       `toml:"RecentBlockhashes"`
	Engine            Engine    `toml:"Engine"`
	Log               Log       `toml:"Log"`
	Telemetry         Telemetry `toml:"Telemetry"`
}

// Load loads the configuration from the given path, creating a default file
// with fresh program identities and an operator keystore when it is missing.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, key := range undecoded {
			keys[i] = key.String()
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = DefaultNetworkName
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = DefaultDataDir
	}
	if cfg.Engine.DelegateSeed == "" {
		cfg.Engine.DelegateSeed = referral.DefaultDelegateSeed
	}
	if cfg.RecentBlockhashes == 0 {
		cfg.RecentBlockhashes = runtime.DefaultRecentBlockhashes
	}
	if err := ensureKeystore(path, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ensureKeystore(configPath string, cfg *Config) error {
	keystorePath := cfg.KeystorePath
	if keystorePath == "" {
		keystorePath = defaultKeystorePath(configPath)
	}

	if _, err := os.Stat(keystorePath); os.IsNotExist(err) {
		key, genErr := crypto.GeneratePrivateKey()
		if genErr != nil {
			return genErr
		}
		if err := crypto.SaveToKeystore(keystorePath, key, ""); err != nil {
			return err
		}
	} else if err != nil {
		return err
	}

	if cfg.KeystorePath != keystorePath {
		cfg.KeystorePath = keystorePath
		return persist(configPath, cfg)
	}
	return nil
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	program, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	custodyProgram, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:           DefaultDataDir,
		NetworkName:       DefaultNetworkName,
		RecentBlockhashes: runtime.DefaultRecentBlockhashes,
		Engine: Engine{
			ProgramID:        program.Address().String(),
			CustodyProgramID: custodyProgram.Address().String(),
			DelegateSeed:     referral.DefaultDelegateSeed,
		},
		Log: Log{Level: "info", MaxSizeMB: 100, MaxBackups: 3, MaxAgeDays: 28},
	}
	if err := ensureKeystore(path, cfg); err != nil {
		return nil, err
	}
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
	return filepath.Join(filepath.Dir(configPath), "operator.keystore")
}

// Referral converts the engine section into the engine configuration.
func (c *Config) Referral() (referral.Config, error) {
	program, err := crypto.ParseAddress(c.Engine.ProgramID)
	if err != nil {
		return referral.Config{}, fmt.Errorf("engine.ProgramID: %w", err)
	}
	custodyProgram, err := crypto.ParseAddress(c.Engine.CustodyProgramID)
	if err != nil {
		return referral.Config{}, fmt.Errorf("engine.CustodyProgramID: %w", err)
	}
	return referral.Config{
		ProgramID:        program,
		CustodyProgramID: custodyProgram,
		DelegateSeed:     c.Engine.DelegateSeed,
	}, nil
}

// Bank returns the runtime settings.
func (c *Config) Bank() runtime.BankConfig {
	return runtime.BankConfig{NetworkName: c.NetworkName, RecentBlockhashes: c.RecentBlockhashes}
}

// Logging returns the logger options for service.
func (c *Config) Logging(service string) logging.Options {
	return logging.Options{
		Service:    service,
		Env:        c.Log.Env,
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}

// Tracing returns the trace exporter settings for service.
func (c *Config) Tracing(service string) tracing.Config {
	return tracing.Config{
		ServiceName: service,
		Environment: c.Log.Env,
		Endpoint:    c.Telemetry.Endpoint,
		Insecure:    c.Telemetry.Insecure,
		Headers:     tracing.ParseHeaders(c.Telemetry.Headers),
		SampleRatio: c.Telemetry.SampleRatio,
	}
}
