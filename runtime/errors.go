package runtime

import (
	"errors"
	"fmt"
)

var (
	ErrBlockhashNotFound     = errors.New("runtime: blockhash not found")
	ErrSignatureVerification = errors.New("runtime: signature verification failed")
	ErrAlreadyProcessed      = errors.New("runtime: transaction already processed")
	ErrProgramNotFound       = errors.New("runtime: program not found")
	ErrProgramExists         = errors.New("runtime: program already registered")
	ErrReadonlyModified      = errors.New("runtime: read-only account modified")
	ErrAccountResized        = errors.New("runtime: account data size changed")
	ErrOwnerChanged          = errors.New("runtime: account owner changed")
	ErrAccountInUse          = errors.New("runtime: account already in use")
	ErrInvalidSpace          = errors.New("runtime: invalid account space")
	ErrInvalidInstruction    = errors.New("runtime: invalid instruction data")
)

// TransactionError reports the instruction that aborted a transaction. Code
// is set when the failing program mapped the error to a custom error code.
type TransactionError struct {
	Index   int
	Code    uint32
	HasCode bool
	Err     error
}

func (e *TransactionError) Error() string {
	if e.HasCode {
		return fmt.Sprintf("instruction %d: custom program error: 0x%x (%v)", e.Index, e.Code, e.Err)
	}
	return fmt.Sprintf("instruction %d: %v", e.Index, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// CustomCode extracts the custom program error code from err, if any.
func CustomCode(err error) (uint32, bool) {
	var txErr *TransactionError
	if errors.As(err, &txErr) && txErr.HasCode {
		return txErr.Code, true
	}
	return 0, false
}
