package referral

import "errors"

var (
	ErrInvalidCommand       = errors.New("referral: invalid command")
	ErrAlreadyInitialized   = errors.New("referral: account already initialized")
	ErrNotInitialized       = errors.New("referral: account not initialized")
	ErrRewardAmountOverflow = errors.New("referral: reward amount overflow")
	ErrInvalidUpline        = errors.New("referral: invalid upline")
	ErrUnclaimableAmount    = errors.New("referral: unclaimable amount")
	ErrSelfReferral         = errors.New("referral: self referral")
	ErrWrongOwner           = errors.New("referral: wrong account owner")
	ErrMissingAuthorization = errors.New("referral: missing required signature")
	ErrUnauthorized         = errors.New("referral: unauthorized")
	ErrInvalidRecordData    = errors.New("referral: invalid record data")
	ErrNotEnoughAccounts    = errors.New("referral: not enough account keys")
	ErrInvalidCustody       = errors.New("referral: invalid custody account")
	ErrNilCustodian         = errors.New("referral: custodian not configured")
)

// CodeUnknown is reported for errors that did not originate in this package,
// e.g. failures returned by the custodian.
const CodeUnknown uint32 = 0xffffffff

var codes = []struct {
	err  error
	code uint32
}{
	{ErrInvalidCommand, 0},
	{ErrAlreadyInitialized, 1},
	{ErrNotInitialized, 2},
	{ErrRewardAmountOverflow, 3},
	{ErrInvalidUpline, 4},
	{ErrUnclaimableAmount, 5},
	{ErrSelfReferral, 6},
	{ErrWrongOwner, 7},
	{ErrMissingAuthorization, 8},
	{ErrUnauthorized, 9},
	{ErrInvalidRecordData, 10},
	{ErrNotEnoughAccounts, 11},
	{ErrInvalidCustody, 12},
}

// Code maps an engine error to its stable custom error code. The second
// return value is false when err does not wrap one of the engine sentinels.
func Code(err error) (uint32, bool) {
	if err == nil {
		return 0, false
	}
	for _, entry := range codes {
		if errors.Is(err, entry.err) {
			return entry.code, true
		}
	}
	return CodeUnknown, false
}
