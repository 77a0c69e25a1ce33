package referral

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"refpool/core/types"
)

// Process decodes an instruction buffer and routes it to the matching
// handler. It is the single entry point the host runtime invokes.
func (e *Engine) Process(programID solana.PublicKey, accounts []*types.AccountInfo, data []byte) error {
	if !programID.Equals(e.cfg.ProgramID) {
		return fmt.Errorf("%w: invoked as %s, configured as %s", ErrWrongOwner, programID, e.cfg.ProgramID)
	}
	cmd, err := DecodeCommand(data)
	if err != nil {
		e.telemetry.ObserveCommand("invalid", outcome(err))
		return err
	}
	err = e.dispatch(cmd, accounts)
	e.telemetry.ObserveCommand(cmd.Tag().String(), outcome(err))
	if err != nil {
		e.logger.Debug("referral command rejected",
			slog.String("command", cmd.Tag().String()),
			slog.Any("error", err))
	}
	return err
}

func (e *Engine) dispatch(cmd Command, accounts []*types.AccountInfo) error {
	switch c := cmd.(type) {
	case Initialize:
		return e.Initialize(accounts)
	case Register:
		return e.Register(accounts, c)
	case DistributeReward:
		return e.DistributeReward(accounts, c.Amount)
	case Claim:
		return e.Claim(accounts)
	default:
		return fmt.Errorf("%w: unsupported command %T", ErrInvalidCommand, cmd)
	}
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	for _, entry := range codes {
		if errors.Is(err, entry.err) {
			return entry.err.Error()[len("referral: "):]
		}
	}
	return "external"
}

// ID returns the program id the engine is bound to.
func (e *Engine) ID() solana.PublicKey { return e.cfg.ProgramID }

// ErrorCode exposes Code so the host can render custom error codes.
func (e *Engine) ErrorCode(err error) (uint32, bool) { return Code(err) }
