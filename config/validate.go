package config

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"refpool/observability/logging"
)

// MaxDelegateSeedLen is the longest seed a program address can be derived
// from.
const MaxDelegateSeedLen = solana.MaxSeedLength

// Validate rejects configurations the runtime cannot start with.
func (c *Config) Validate() error {
	rc, err := c.Referral()
	if err != nil {
		return err
	}
	if rc.ProgramID.Equals(rc.CustodyProgramID) {
		return fmt.Errorf("engine: ProgramID and CustodyProgramID must differ")
	}
	if c.Engine.DelegateSeed == "" {
		return fmt.Errorf("engine: DelegateSeed is empty")
	}
	if len(c.Engine.DelegateSeed) > MaxDelegateSeedLen {
		return fmt.Errorf("engine: DelegateSeed longer than %d bytes", MaxDelegateSeedLen)
	}
	if c.RecentBlockhashes < 0 {
		return fmt.Errorf("RecentBlockhashes must not be negative")
	}
	if lvl := strings.TrimSpace(c.Log.Level); lvl != "" && logging.ParseLevel(lvl).String() != strings.ToUpper(normalizeLevel(lvl)) {
		return fmt.Errorf("log: unknown Level %q", c.Log.Level)
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return fmt.Errorf("log: rotation limits must not be negative")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry: SampleRatio must be within [0, 1]")
	}
	return nil
}

func normalizeLevel(level string) string {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "warning" {
		return "warn"
	}
	return level
}
