package referral

import (
	"github.com/gagliardetto/solana-go"

	"refpool/core/types"
)

// InitializeInstruction builds the pool initialisation instruction.
func InitializeInstruction(cfg Config, admin, pool, custodyAccount solana.PublicKey) types.Instruction {
	return types.Instruction{
		ProgramID: cfg.ProgramID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(admin, false, true),
			types.NewAccountMeta(pool, true, false),
			types.NewAccountMeta(custodyAccount, true, false),
			types.NewAccountMeta(cfg.CustodyProgramID, false, false),
		},
		Data: Initialize{}.Pack(),
	}
}

// RegisterInstruction builds a registration. A nil referrer registers a
// top-level participant. The referrer is conveyed by the account list only.
func RegisterInstruction(cfg Config, holder, participant, pool solana.PublicKey, referrer *solana.PublicKey) types.Instruction {
	metas := []types.AccountMeta{
		types.NewAccountMeta(holder, false, true),
		types.NewAccountMeta(participant, true, false),
		types.NewAccountMeta(pool, false, false),
	}
	if referrer != nil {
		metas = append(metas, types.NewAccountMeta(*referrer, false, false))
	}
	return types.Instruction{ProgramID: cfg.ProgramID, Accounts: metas, Data: Register{}.Pack()}
}

// DistributeRewardInstruction builds a reward credit. referrer must be the
// participant's stored referrer, or nil when it has none.
func DistributeRewardInstruction(cfg Config, admin, pool, participant solana.PublicKey, referrer *solana.PublicKey, amount uint64) types.Instruction {
	metas := []types.AccountMeta{
		types.NewAccountMeta(admin, false, true),
		types.NewAccountMeta(pool, false, false),
		types.NewAccountMeta(participant, true, false),
	}
	if referrer != nil {
		metas = append(metas, types.NewAccountMeta(*referrer, true, false))
	}
	return types.Instruction{ProgramID: cfg.ProgramID, Accounts: metas, Data: DistributeReward{Amount: amount}.Pack()}
}

// ClaimInstruction builds a claim paying the participant balance into
// destination.
func ClaimInstruction(cfg Config, holder, pool, participant, custodyAccount, destination solana.PublicKey) (types.Instruction, error) {
	delegate, err := DeriveDelegate(cfg.ProgramID, cfg.seed())
	if err != nil {
		return types.Instruction{}, err
	}
	return types.Instruction{
		ProgramID: cfg.ProgramID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(holder, false, true),
			types.NewAccountMeta(pool, false, false),
			types.NewAccountMeta(participant, true, false),
			types.NewAccountMeta(custodyAccount, true, false),
			types.NewAccountMeta(delegate.Address, false, false),
			types.NewAccountMeta(destination, true, false),
			types.NewAccountMeta(cfg.CustodyProgramID, false, false),
		},
		Data: Claim{}.Pack(),
	}, nil
}
