package custody

import "errors"

var (
	ErrInvalidInstruction = errors.New("custody: invalid instruction")
	ErrInvalidAccountData = errors.New("custody: invalid account data")
	ErrAlreadyInitialized = errors.New("custody: account already initialized")
	ErrNotInitialized     = errors.New("custody: account not initialized")
	ErrInsufficientFunds  = errors.New("custody: insufficient funds")
	ErrAuthorityMismatch  = errors.New("custody: authority mismatch")
	ErrMintMismatch       = errors.New("custody: mint mismatch")
	ErrAmountOverflow     = errors.New("custody: amount overflow")
	ErrWrongOwner         = errors.New("custody: wrong account owner")
	ErrMissingSignature   = errors.New("custody: missing required signature")
	ErrNotEnoughAccounts  = errors.New("custody: not enough account keys")
)

var codes = []struct {
	err  error
	code uint32
}{
	{ErrInsufficientFunds, 1},
	{ErrMintMismatch, 3},
	{ErrAuthorityMismatch, 4},
	{ErrAmountOverflow, 14},
	{ErrNotInitialized, 15},
	{ErrAlreadyInitialized, 6},
	{ErrInvalidInstruction, 12},
	{ErrInvalidAccountData, 16},
	{ErrWrongOwner, 17},
	{ErrMissingSignature, 18},
	{ErrNotEnoughAccounts, 19},
}

// Code maps a custody error to its custom error code.
func Code(err error) (uint32, bool) {
	if err == nil {
		return 0, false
	}
	for _, entry := range codes {
		if errors.Is(err, entry.err) {
			return entry.code, true
		}
	}
	return 0, false
}
