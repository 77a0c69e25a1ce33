// Package referral implements the referral reward ledger: a single pool
// administered by one identity, participant records linked to at most one
// referrer, a fixed 90/10 reward split between a participant and its
// immediate referrer, and claims paid out of a custodied token account
// through a program-derived delegate.
//
// The engine never moves funds itself. Initialization hands control of the
// custody account to the delegate and claims ask the custodian to transfer on
// the delegate's behalf.
package referral

import (
	"github.com/gagliardetto/solana-go"

	"refpool/core/types"
)

const (
	// DefaultDelegateSeed is the seed the custody delegate is derived from
	// when the configuration leaves it empty.
	DefaultDelegateSeed = "game_seed"

	// ParticipantSharePercent and ReferrerSharePercent describe the reward
	// split applied when a participant has a referrer.
	ParticipantSharePercent = 90
	ReferrerSharePercent    = 10
)

// Config binds an engine instance to its program identity, the custodian it
// delegates transfers to and the seed used to derive the custody delegate.
type Config struct {
	ProgramID        solana.PublicKey
	CustodyProgramID solana.PublicKey
	DelegateSeed     string
}

func (c Config) seed() string {
	if c.DelegateSeed == "" {
		return DefaultDelegateSeed
	}
	return c.DelegateSeed
}

// Custodian is the external asset service the engine requests transfers from.
// Both calls are atomic: on error no balance or authority has changed.
type Custodian interface {
	ProgramID() solana.PublicKey
	// SetAuthority reassigns control of account to newAuthority. The
	// current authority handle must carry a signature.
	SetAuthority(account, currentAuthority *types.AccountInfo, newAuthority solana.PublicKey) error
	// Transfer moves amount units from source to destination, authorised by
	// a program-derived authority proven through signerSeeds.
	Transfer(source, destination, authority *types.AccountInfo, amount uint64, signerSeeds [][]byte) error
}
