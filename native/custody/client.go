package custody

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"refpool/core/types"
)

// Client is the view of the custody program handed to another program. It
// satisfies the referral engine's custodian contract.
type Client struct {
	program *Program
	caller  solana.PublicKey
}

// Client returns a custodian bound to the calling program. Delegated
// transfers are accepted only for authorities derived from caller.
func (p *Program) Client(caller solana.PublicKey) *Client {
	return &Client{program: p, caller: caller}
}

func (c *Client) ProgramID() solana.PublicKey { return c.program.id }

// SetAuthority reassigns control of account. The current authority must have
// signed the enclosing transaction.
func (c *Client) SetAuthority(account, currentAuthority *types.AccountInfo, newAuthority solana.PublicKey) error {
	return c.program.setAuthority(account, currentAuthority, newAuthority)
}

// Transfer moves amount from source to destination on behalf of a
// program-derived authority. signerSeeds must derive authority from the
// calling program.
func (c *Client) Transfer(source, destination, authority *types.AccountInfo, amount uint64, signerSeeds [][]byte) error {
	derived, err := solana.CreateProgramAddress(signerSeeds, c.caller)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAuthorityMismatch, err)
	}
	if !derived.Equals(authority.Key) {
		return fmt.Errorf("%w: seeds derive %s, not %s", ErrAuthorityMismatch, derived, authority.Key)
	}
	return c.program.transfer(source, destination, derived, amount, true)
}
