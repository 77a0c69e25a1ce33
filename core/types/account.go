package types

import (
	"github.com/gagliardetto/solana-go"
)

// AccountInfo is the handle the runtime passes to a program for every account
// referenced by an instruction. Data aliases the slot bytes for the duration of
// the instruction; programs mutate it in place and the runtime persists the
// result only when the whole transaction succeeds.
type AccountInfo struct {
	Key        solana.PublicKey
	Owner      solana.PublicKey
	IsSigner   bool
	IsWritable bool
	Data       []byte
}

// DataLen reports the size of the account slot.
func (a *AccountInfo) DataLen() int {
	if a == nil {
		return 0
	}
	return len(a.Data)
}

// IsOwnedBy reports whether the account slot is assigned to the given program.
func (a *AccountInfo) IsOwnedBy(program solana.PublicKey) bool {
	return a != nil && a.Owner.Equals(program)
}

// Account is the persisted form of an account slot.
type Account struct {
	Owner solana.PublicKey `json:"owner"`
	Data  []byte           `json:"data"`
}

// Clone returns a deep copy so callers can mutate the copy without touching the
// stored instance.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	return &Account{Owner: a.Owner, Data: append([]byte(nil), a.Data...)}
}
