package main

import (
	"bytes"
	"encoding/hex"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := rootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEncodeDecodeDistribute(t *testing.T) {
	out, err := execute(t, "encode", "distribute", "100")
	require.NoError(t, err)
	require.Equal(t, "026400000000000000", strings.TrimSpace(out))

	out, err = execute(t, "decode", strings.TrimSpace(out))
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	require.Equal(t, "distribute_reward", decoded["command"])
	require.Equal(t, 100, decoded["amount"])
}

func TestEncodeRegisterForms(t *testing.T) {
	out, err := execute(t, "encode", "register")
	require.NoError(t, err)
	require.Equal(t, "01", strings.TrimSpace(out))

	out, err = execute(t, "encode", "register", "--referrer", "none")
	require.NoError(t, err)
	require.Equal(t, "01"+strings.Repeat("00", 36), strings.TrimSpace(out))

	referrer := solana.PublicKey{7}
	out, err = execute(t, "encode", "register", "--referrer", referrer.String())
	require.NoError(t, err)
	out, err = execute(t, "decode", strings.TrimSpace(out))
	require.NoError(t, err)
	require.Contains(t, out, referrer.String())
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	_, err := execute(t, "decode", "09")
	require.ErrorContains(t, err, "unknown tag 9")

	_, err = execute(t, "decode", "--record", "pool", "00")
	require.Error(t, err)

	_, err = execute(t, "decode", "zz")
	require.ErrorContains(t, err, "invalid hex")
}

func TestDecodeParticipantRecord(t *testing.T) {
	owner := solana.PublicKey{3}
	data := make([]byte, 77)
	data[0] = 1
	copy(data[1:], owner[:])
	data[33] = 42

	out, err := execute(t, "decode", "--record", "participant", hex.EncodeToString(data))
	require.NoError(t, err)
	require.Contains(t, out, "rewardBalance: 42")
	require.Contains(t, out, "referrer: none")
	require.Contains(t, out, owner.String())
}

func TestDelegateIsDeterministic(t *testing.T) {
	program := solana.PublicKey{9}
	first, err := execute(t, "delegate", "--program", program.String())
	require.NoError(t, err)
	second, err := execute(t, "delegate", "--program", program.String(), "--seed", "game_seed")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Contains(t, first, "seed: game_seed")
}

func TestKeygenAndShow(t *testing.T) {
	t.Setenv(defaultPassEnv, "correct horse")
	path := filepath.Join(t.TempDir(), "operator.keystore")

	created, err := execute(t, "keygen", "--out", path)
	require.NoError(t, err)

	shown, err := execute(t, "keygen", "show", path)
	require.NoError(t, err)
	require.Equal(t, created, shown)

	_, err = execute(t, "keygen", "--out", path)
	require.ErrorContains(t, err, "already exists")
}

func TestSimulateScenario(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "refpool.toml")
	scenarioPath := filepath.Join("..", "..", "runtime", "scenario", "testdata", "referral.yaml")

	out, err := execute(t, "--config", cfgPath, "simulate", "--memory", scenarioPath)
	require.NoError(t, err)
	require.Contains(t, out, "vault: 890")
	require.Contains(t, out, "stateroot:")
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	require.Equal(t, version, strings.TrimSpace(out))
}
