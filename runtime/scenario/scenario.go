// Package scenario drives a referral deployment through a scripted sequence
// of registrations, distributions and claims described in YAML.
package scenario

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ActionRegister   = "register"
	ActionDistribute = "distribute"
	ActionClaim      = "claim"
)

// AdminActor is the implicit administrator that funds and initialises the
// pool.
const AdminActor = "admin"

var ErrInvalidScenario = errors.New("scenario: invalid scenario")

// Scenario is the YAML document accepted by Run.
type Scenario struct {
	Name    string       `yaml:"name"`
	Funding uint64       `yaml:"funding"`
	Steps   []Step       `yaml:"steps"`
	Expect  Expectations `yaml:"expect"`
}

// Step is one command. Holder names the participant's owner, which doubles
// as the participant name. Signer overrides the identity signing the
// command.
type Step struct {
	Action      string `yaml:"action"`
	Holder      string `yaml:"holder,omitempty"`
	Referrer    string `yaml:"referrer,omitempty"`
	Amount      uint64 `yaml:"amount,omitempty"`
	Signer      string `yaml:"signer,omitempty"`
	ExpectError string `yaml:"expect_error,omitempty"`
}

// Expectations are checked after the last step.
type Expectations struct {
	Balances map[string]uint64 `yaml:"balances,omitempty"`
	Wallets  map[string]uint64 `yaml:"wallets,omitempty"`
	Vault    *uint64           `yaml:"vault,omitempty"`
}

// Load reads and validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a scenario document.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidScenario, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Validate checks that every step names a known action and the actors it
// needs.
func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalidScenario)
	}
	for i, step := range sc.Steps {
		switch strings.ToLower(step.Action) {
		case ActionRegister, ActionClaim:
			if step.Holder == "" {
				return fmt.Errorf("%w: step %d: holder required", ErrInvalidScenario, i)
			}
			if step.Holder == AdminActor {
				return fmt.Errorf("%w: step %d: %q is reserved", ErrInvalidScenario, i, AdminActor)
			}
		case ActionDistribute:
			if step.Holder == "" {
				return fmt.Errorf("%w: step %d: holder required", ErrInvalidScenario, i)
			}
		default:
			return fmt.Errorf("%w: step %d: unknown action %q", ErrInvalidScenario, i, step.Action)
		}
	}
	return nil
}
