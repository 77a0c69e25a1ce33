package referral

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"refpool/core/types"
	"refpool/observability/metrics"
)

func handlesFor(t *testing.T, ix types.Instruction, slots map[solana.PublicKey]*types.AccountInfo) []*types.AccountInfo {
	t.Helper()
	out := make([]*types.AccountInfo, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		slot, ok := slots[meta.PublicKey]
		if !ok {
			slot = &types.AccountInfo{Key: meta.PublicKey}
			slots[meta.PublicKey] = slot
		}
		slot.IsSigner = meta.IsSigner
		slot.IsWritable = meta.IsWritable
		out[i] = slot
	}
	return out
}

func TestProcessRoutesBuiltInstructions(t *testing.T) {
	f := newFixture(t)
	h1, p1 := f.holder(), f.participantSlot()
	h2, p2 := f.holder(), f.participantSlot()
	slots := map[solana.PublicKey]*types.AccountInfo{
		f.admin.Key: f.admin, f.pool.Key: f.pool, f.custody.Key: f.custody,
		f.destination.Key: f.destination, f.custodyProgram.Key: f.custodyProgram,
		h1.Key: h1, p1.Key: p1, h2.Key: h2, p2.Key: p2,
	}
	run := func(ix types.Instruction) error {
		return f.engine.Process(ix.ProgramID, handlesFor(t, ix, slots), ix.Data)
	}

	require.NoError(t, run(InitializeInstruction(f.cfg, f.admin.Key, f.pool.Key, f.custody.Key)))
	require.NoError(t, run(RegisterInstruction(f.cfg, h1.Key, p1.Key, f.pool.Key, nil)))
	require.NoError(t, run(RegisterInstruction(f.cfg, h2.Key, p2.Key, f.pool.Key, &p1.Key)))
	require.NoError(t, run(DistributeRewardInstruction(f.cfg, f.admin.Key, f.pool.Key, p2.Key, &p1.Key, 100)))
	require.NoError(t, run(DistributeRewardInstruction(f.cfg, f.admin.Key, f.pool.Key, p1.Key, nil, 100)))

	claim, err := ClaimInstruction(f.cfg, h1.Key, f.pool.Key, p1.Key, f.custody.Key, f.destination.Key)
	require.NoError(t, err)
	require.NoError(t, run(claim))
	require.Equal(t, uint64(0), balanceOf(t, p1))
	require.Equal(t, uint64(90), balanceOf(t, p2))
	require.Len(t, f.custodian.transfers, 1)
	require.Equal(t, uint64(110), f.custodian.transfers[0].amount)

	err = run(claim)
	require.ErrorIs(t, err, ErrUnclaimableAmount)
}

func TestProcessRejectsForeignProgramAndBadData(t *testing.T) {
	f := newFixture(t)
	err := f.engine.Process(randomKey(t), nil, []byte{0})
	require.ErrorIs(t, err, ErrWrongOwner)

	before := testutil.ToFloat64(metrics.Referral().Commands().WithLabelValues("invalid", "invalid command"))
	err = f.engine.Process(f.cfg.ProgramID, nil, []byte{9})
	require.ErrorIs(t, err, ErrInvalidCommand)
	after := testutil.ToFloat64(metrics.Referral().Commands().WithLabelValues("invalid", "invalid command"))
	require.Equal(t, before+1, after)

	err = f.engine.Process(f.cfg.ProgramID, []*types.AccountInfo{f.admin}, []byte{3})
	require.ErrorIs(t, err, ErrNotEnoughAccounts)
}

func TestCode(t *testing.T) {
	tests := []struct {
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
	for _, tc := range tests {
		code, ok := Code(fmt.Errorf("context: %w", tc.err))
		require.True(t, ok)
		require.Equal(t, tc.code, code, tc.err.Error())
	}

	code, ok := Code(errors.New("custody: insufficient funds"))
	require.False(t, ok)
	require.Equal(t, CodeUnknown, code)

	_, ok = Code(nil)
	require.False(t, ok)
}

func TestDeriveDelegateIsDeterministic(t *testing.T) {
	program := randomKey(t)
	first, err := DeriveDelegate(program, DefaultDelegateSeed)
	require.NoError(t, err)
	second, err := DeriveDelegate(program, DefaultDelegateSeed)
	require.NoError(t, err)
	require.Equal(t, first, second)

	proof, err := solana.CreateProgramAddress(first.SignerSeeds(), program)
	require.NoError(t, err)
	require.Equal(t, first.Address, proof)

	other, err := DeriveDelegate(program, "other_seed")
	require.NoError(t, err)
	require.NotEqual(t, first.Address, other.Address)

	engine := NewEngine(Config{ProgramID: program}, nil)
	fromEngine, err := engine.Delegate()
	require.NoError(t, err)
	require.Equal(t, first.Address, fromEngine.Address)
}

func TestBuilderAccountOrders(t *testing.T) {
	cfg := Config{ProgramID: randomKey(t), CustodyProgramID: randomKey(t)}
	admin, pool, participant, referrer := randomKey(t), randomKey(t), randomKey(t), randomKey(t)

	ix := DistributeRewardInstruction(cfg, admin, pool, participant, &referrer, 7)
	require.Equal(t, cfg.ProgramID, ix.ProgramID)
	require.Len(t, ix.Accounts, 4)
	require.True(t, ix.Accounts[0].IsSigner)
	require.True(t, ix.Accounts[2].IsWritable)
	require.True(t, ix.Accounts[3].IsWritable)
	require.Equal(t, referrer, ix.Accounts[3].PublicKey)

	reg := RegisterInstruction(cfg, admin, participant, pool, nil)
	require.Len(t, reg.Accounts, 3)
	require.Equal(t, []byte{1}, reg.Data)

	initIx := InitializeInstruction(cfg, admin, pool, participant)
	require.Equal(t, cfg.CustodyProgramID, initIx.Accounts[3].PublicKey)
}
