package referral

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Delegate is the program-derived identity holding transfer authority over
// the custody account. It has no private key; the seeds and bump are the
// proof the custodian checks against the calling program.
type Delegate struct {
	Address solana.PublicKey
	Bump    uint8
	Seeds   [][]byte
}

// DeriveDelegate computes the custody delegate for programID and seed. The
// result depends only on its inputs and is recomputed on every use.
func DeriveDelegate(programID solana.PublicKey, seed string) (Delegate, error) {
	seeds := [][]byte{[]byte(seed)}
	addr, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return Delegate{}, fmt.Errorf("referral: derive delegate: %w", err)
	}
	return Delegate{Address: addr, Bump: bump, Seeds: seeds}, nil
}

// SignerSeeds returns the seeds including the bump byte, in the form
// CreateProgramAddress expects.
func (d Delegate) SignerSeeds() [][]byte {
	out := make([][]byte, 0, len(d.Seeds)+1)
	for _, s := range d.Seeds {
		out = append(out, append([]byte(nil), s...))
	}
	return append(out, []byte{d.Bump})
}
