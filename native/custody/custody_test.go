package custody

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"refpool/core/events"
	"refpool/core/types"
	"refpool/native/referral"
)

var _ referral.Custodian = (*Client)(nil)

type ledger struct {
	t       *testing.T
	program *Program
	slots   map[solana.PublicKey]*types.AccountInfo
}

func newKey(t *testing.T) solana.PublicKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey()
}

func newLedger(t *testing.T) *ledger {
	return &ledger{t: t, program: NewProgram(newKey(t)), slots: make(map[solana.PublicKey]*types.AccountInfo)}
}

func (l *ledger) slot(size int) solana.PublicKey {
	key := newKey(l.t)
	l.slots[key] = &types.AccountInfo{Key: key, Owner: l.program.ID(), Data: make([]byte, size)}
	return key
}

func (l *ledger) run(ix types.Instruction, signers ...solana.PublicKey) error {
	signed := make(map[solana.PublicKey]bool)
	for _, s := range signers {
		signed[s] = true
	}
	accounts := make([]*types.AccountInfo, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		info, ok := l.slots[meta.PublicKey]
		if !ok {
			info = &types.AccountInfo{Key: meta.PublicKey}
			l.slots[meta.PublicKey] = info
		}
		info.IsSigner = meta.IsSigner && signed[meta.PublicKey]
		info.IsWritable = meta.IsWritable
		accounts[i] = info
	}
	return l.program.Process(ix.ProgramID, accounts, ix.Data)
}

func (l *ledger) balance(key solana.PublicKey) uint64 {
	amount, err := ReadBalance(l.slots[key].Data)
	require.NoError(l.t, err)
	return amount
}

// setup creates a mint and two token accounts, funding the first.
func (l *ledger) setup(owner, other solana.PublicKey, funding uint64) (mint, source, dest solana.PublicKey) {
	id := l.program.ID()
	mintAuthority := newKey(l.t)
	mint = l.slot(MintSize)
	source = l.slot(AccountSize)
	dest = l.slot(AccountSize)
	require.NoError(l.t, l.run(InitializeMintInstruction(id, mint, mintAuthority)))
	require.NoError(l.t, l.run(InitializeAccountInstruction(id, source, mint, owner)))
	require.NoError(l.t, l.run(InitializeAccountInstruction(id, dest, mint, other)))
	require.NoError(l.t, l.run(MintToInstruction(id, mint, source, mintAuthority, funding), mintAuthority))
	return mint, source, dest
}

func TestMintAndTransfer(t *testing.T) {
	l := newLedger(t)
	rec := &events.Recorder{}
	l.program.SetEmitter(rec)
	owner, other := newKey(t), newKey(t)
	mint, source, dest := l.setup(owner, other, 1000)

	m, err := UnpackMint(l.slots[mint].Data)
	require.NoError(t, err)
	require.Equal(t, uint64(1000), m.Supply)

	require.NoError(t, l.run(TransferInstruction(l.program.ID(), source, dest, owner, 400), owner))
	require.Equal(t, uint64(600), l.balance(source))
	require.Equal(t, uint64(400), l.balance(dest))

	err = l.run(TransferInstruction(l.program.ID(), source, dest, owner, 601), owner)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	err = l.run(TransferInstruction(l.program.ID(), source, dest, other, 1), other)
	require.ErrorIs(t, err, ErrAuthorityMismatch)

	err = l.run(TransferInstruction(l.program.ID(), source, dest, owner, 1))
	require.ErrorIs(t, err, ErrMissingSignature)

	require.Equal(t, uint64(600), l.balance(source))
	require.Len(t, rec.Events(), 2)
	require.Equal(t, events.TypeCustodyTransfer, rec.Events()[1].Type)
}

func TestInitializeTwiceAndMintMismatch(t *testing.T) {
	l := newLedger(t)
	owner := newKey(t)
	mint, source, _ := l.setup(owner, owner, 10)
	id := l.program.ID()

	require.ErrorIs(t, l.run(InitializeMintInstruction(id, mint, owner)), ErrAlreadyInitialized)
	require.ErrorIs(t, l.run(InitializeAccountInstruction(id, source, mint, owner)), ErrAlreadyInitialized)

	_, foreign, _ := l.setup(owner, owner, 10)
	require.ErrorIs(t, l.run(TransferInstruction(id, source, foreign, owner, 1), owner), ErrMintMismatch)

	stray := newKey(t)
	l.slots[stray] = &types.AccountInfo{Key: stray, Owner: newKey(t), Data: make([]byte, AccountSize)}
	require.ErrorIs(t, l.run(TransferInstruction(id, source, stray, owner, 1), owner), ErrWrongOwner)

	require.ErrorIs(t, l.run(types.Instruction{ProgramID: id, Data: []byte{9}}), ErrInvalidInstruction)
}

func TestDelegatedTransferThroughClient(t *testing.T) {
	l := newLedger(t)
	admin, holder := newKey(t), newKey(t)
	_, custody, dest := l.setup(admin, holder, 500)

	caller := newKey(t)
	delegate, err := referral.DeriveDelegate(caller, referral.DefaultDelegateSeed)
	require.NoError(t, err)
	client := l.program.Client(caller)
	require.Equal(t, l.program.ID(), client.ProgramID())

	adminHandle := &types.AccountInfo{Key: admin, IsSigner: true}
	require.NoError(t, client.SetAuthority(l.slots[custody], adminHandle, delegate.Address))

	delegateHandle := &types.AccountInfo{Key: delegate.Address}
	require.NoError(t, client.Transfer(l.slots[custody], l.slots[dest], delegateHandle, 110, delegate.SignerSeeds()))
	require.Equal(t, uint64(390), l.balance(custody))
	require.Equal(t, uint64(110), l.balance(dest))

	// A different caller cannot reuse the seeds.
	intruder := l.program.Client(newKey(t))
	err = intruder.Transfer(l.slots[custody], l.slots[dest], delegateHandle, 1, delegate.SignerSeeds())
	require.ErrorIs(t, err, ErrAuthorityMismatch)

	// The admin lost control after handing authority over.
	err = l.run(TransferInstruction(l.program.ID(), custody, dest, admin, 1), admin)
	require.ErrorIs(t, err, ErrAuthorityMismatch)

	require.ErrorIs(t, client.Transfer(l.slots[custody], l.slots[dest], delegateHandle, 391, delegate.SignerSeeds()), ErrInsufficientFunds)
	require.Equal(t, uint64(390), l.balance(custody))
}

func TestInstructionRoundTrip(t *testing.T) {
	key := newKey(t)
	for _, ix := range []Instruction{
		{Tag: TagInitializeMint, Key: key},
		{Tag: TagInitializeAccount, Key: key},
		{Tag: TagMintTo, Amount: 12},
		{Tag: TagTransfer, Amount: 1 << 40},
		{Tag: TagSetAuthority, Key: key},
	} {
		decoded, err := DecodeInstruction(ix.Pack())
		require.NoError(t, err)
		require.Equal(t, ix, decoded)
	}
	_, err := DecodeInstruction([]byte{TagTransfer, 1, 2})
	require.ErrorIs(t, err, ErrInvalidInstruction)

	code, ok := Code(ErrInsufficientFunds)
	require.True(t, ok)
	require.Equal(t, uint32(1), code)
}
