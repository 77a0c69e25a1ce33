package runtime

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"refpool/core/types"
)

// MaxAccountSpace bounds the slot size a single CreateAccount may allocate.
const MaxAccountSpace = 10 * 1024

const systemCreateAccount uint32 = 0

// SystemProgram allocates zeroed account slots and assigns them to a
// program. Accounts not yet created are owned by it with no data.
type SystemProgram struct{}

func (SystemProgram) ID() solana.PublicKey { return solana.SystemProgramID }

// Process handles CreateAccount. Accounts: funder [signer], new account
// [signer, writable].
func (SystemProgram) Process(programID solana.PublicKey, accounts []*types.AccountInfo, data []byte) error {
	dec := bin.NewBorshDecoder(data)
	tag, err := dec.ReadUint32(bin.LE)
	if err != nil || tag != systemCreateAccount {
		return fmt.Errorf("%w: system instruction", ErrInvalidInstruction)
	}
	space, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	rawOwner, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
	}
	if len(accounts) < 2 {
		return fmt.Errorf("%w: create account needs 2 accounts", ErrInvalidInstruction)
	}
	funder, created := accounts[0], accounts[1]
	if !funder.IsSigner || !created.IsSigner {
		return fmt.Errorf("%w: create account requires funder and new account signatures", ErrSignatureVerification)
	}
	if len(created.Data) != 0 || !created.IsOwnedBy(solana.SystemProgramID) {
		return fmt.Errorf("%w: %s", ErrAccountInUse, created.Key)
	}
	if space == 0 || space > MaxAccountSpace {
		return fmt.Errorf("%w: %d", ErrInvalidSpace, space)
	}
	created.Data = make([]byte, space)
	created.Owner = solana.PublicKeyFromBytes(rawOwner)
	return nil
}

// CreateAccountInstruction allocates space bytes for account and assigns it
// to owner.
func CreateAccountInstruction(funder, account solana.PublicKey, space uint64, owner solana.PublicKey) types.Instruction {
	buf := bytes.NewBuffer(make([]byte, 0, 4+8+32))
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteUint32(systemCreateAccount, bin.LE); err != nil {
		panic(err)
	}
	if err := enc.WriteUint64(space, bin.LE); err != nil {
		panic(err)
	}
	if err := enc.WriteBytes(owner[:], false); err != nil {
		panic(err)
	}
	return types.Instruction{
		ProgramID: solana.SystemProgramID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(funder, true, true),
			types.NewAccountMeta(account, true, true),
		},
		Data: buf.Bytes(),
	}
}
