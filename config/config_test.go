package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"refpool/native/referral"
)

func newAddress(t *testing.T) string {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey().String()
}

func TestLoadCreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, DefaultNetworkName, cfg.NetworkName)
	require.Equal(t, referral.DefaultDelegateSeed, cfg.Engine.DelegateSeed)
	require.Equal(t, filepath.Join(dir, "operator.keystore"), cfg.KeystorePath)
	require.FileExists(t, cfg.KeystorePath)

	rc, err := cfg.Referral()
	require.NoError(t, err)
	require.NotEqual(t, rc.ProgramID, rc.CustodyProgramID)

	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadParsesEngineAndLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	keystorePath := filepath.Join(dir, "operator.keystore")
	program, custodyProgram := newAddress(t), newAddress(t)
	contents := fmt.Sprintf(`DataDir = "./data"
NetworkName = "testnet"
KeystorePath = "%s"

[Engine]
ProgramID = "%s"
CustodyProgramID = "%s"

[Log]
Level = "debug"
File = "./refpool.log"
MaxBackups = 5

[Telemetry]
Endpoint = "collector:4318"
Headers = "authorization=Bearer abc"
SampleRatio = 0.5
`, keystorePath, program, custodyProgram)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "testnet", cfg.NetworkName)
	require.Equal(t, "./data", cfg.DataDir)
	require.Equal(t, referral.DefaultDelegateSeed, cfg.Engine.DelegateSeed)
	require.Equal(t, 5, cfg.Log.MaxBackups)

	rc, err := cfg.Referral()
	require.NoError(t, err)
	require.Equal(t, program, rc.ProgramID.String())
	require.Equal(t, custodyProgram, rc.CustodyProgramID.String())

	opts := cfg.Logging("refpoolctl")
	require.Equal(t, "debug", opts.Level)
	require.Equal(t, "./refpool.log", opts.File)
	require.Equal(t, "testnet", cfg.Bank().NetworkName)

	tc := cfg.Tracing("refpoolctl")
	require.True(t, tc.Enabled())
	require.Equal(t, "collector:4318", tc.Endpoint)
	require.Equal(t, map[string]string{"authorization": "Bearer abc"}, tc.Headers)
	require.Equal(t, 0.5, tc.SampleRatio)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("ListenAddress = \":6001\"\n"), 0o644))
	_, err := Load(path)
	require.ErrorContains(t, err, "unknown keys")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Engine: Engine{ProgramID: newAddress(t), CustodyProgramID: newAddress(t), DelegateSeed: "game_seed"},
			Log:    Log{Level: "info"},
		}
	}
	require.NoError(t, base().Validate())

	tests := map[string]func(*Config){
		"missing program":   func(c *Config) { c.Engine.ProgramID = "" },
		"invalid custody":   func(c *Config) { c.Engine.CustodyProgramID = "0OIl" },
		"same programs":     func(c *Config) { c.Engine.CustodyProgramID = c.Engine.ProgramID },
		"empty seed":        func(c *Config) { c.Engine.DelegateSeed = "" },
		"long seed":         func(c *Config) { c.Engine.DelegateSeed = string(make([]byte, 33)) },
		"unknown log level": func(c *Config) { c.Log.Level = "chatty" },
		"negative rotation": func(c *Config) { c.Log.MaxBackups = -1 },
		"sample ratio":      func(c *Config) { c.Telemetry.SampleRatio = 1.5 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := base()
			mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}

	cfg := base()
	cfg.Log.Level = "Warning"
	require.NoError(t, cfg.Validate())
}
