package custody

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"refpool/core/types"
)

const (
	TagInitializeMint    uint8 = 0
	TagInitializeAccount uint8 = 1
	TagMintTo            uint8 = 2
	TagTransfer          uint8 = 3
	TagSetAuthority      uint8 = 4
)

// Instruction is a decoded custody instruction. Key carries the authority
// argument of InitializeMint, InitializeAccount and SetAuthority; Amount the
// argument of MintTo and Transfer.
type Instruction struct {
	Tag    uint8
	Key    solana.PublicKey
	Amount uint64
}

func (ix Instruction) Pack() []byte {
	buf := bytes.NewBuffer([]byte{ix.Tag})
	enc := bin.NewBorshEncoder(buf)
	var err error
	switch ix.Tag {
	case TagInitializeMint, TagInitializeAccount, TagSetAuthority:
		err = enc.WriteBytes(ix.Key[:], false)
	case TagMintTo, TagTransfer:
		err = enc.WriteUint64(ix.Amount, bin.LE)
	}
	if err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func DecodeInstruction(data []byte) (Instruction, error) {
	if len(data) == 0 {
		return Instruction{}, fmt.Errorf("%w: empty", ErrInvalidInstruction)
	}
	ix := Instruction{Tag: data[0]}
	dec := bin.NewBorshDecoder(data[1:])
	switch ix.Tag {
	case TagInitializeMint, TagInitializeAccount, TagSetAuthority:
		raw, err := dec.ReadNBytes(solana.PublicKeyLength)
		if err != nil {
			return Instruction{}, fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		ix.Key = solana.PublicKeyFromBytes(raw)
	case TagMintTo, TagTransfer:
		amount, err := dec.ReadUint64(bin.LE)
		if err != nil {
			return Instruction{}, fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		ix.Amount = amount
	default:
		return Instruction{}, fmt.Errorf("%w: unknown tag %d", ErrInvalidInstruction, ix.Tag)
	}
	return ix, nil
}

// InitializeMintInstruction accounts: mint [writable].
func InitializeMintInstruction(programID, mint, authority solana.PublicKey) types.Instruction {
	return types.Instruction{
		ProgramID: programID,
		Accounts:  []types.AccountMeta{types.NewAccountMeta(mint, true, false)},
		Data:      Instruction{Tag: TagInitializeMint, Key: authority}.Pack(),
	}
}

// InitializeAccountInstruction accounts: account [writable], mint.
func InitializeAccountInstruction(programID, account, mint, authority solana.PublicKey) types.Instruction {
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(account, true, false),
			types.NewAccountMeta(mint, false, false),
		},
		Data: Instruction{Tag: TagInitializeAccount, Key: authority}.Pack(),
	}
}

// MintToInstruction accounts: mint [writable], destination [writable], mint
// authority [signer].
func MintToInstruction(programID, mint, destination, authority solana.PublicKey, amount uint64) types.Instruction {
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(mint, true, false),
			types.NewAccountMeta(destination, true, false),
			types.NewAccountMeta(authority, false, true),
		},
		Data: Instruction{Tag: TagMintTo, Amount: amount}.Pack(),
	}
}

// TransferInstruction accounts: source [writable], destination [writable],
// authority [signer].
func TransferInstruction(programID, source, destination, authority solana.PublicKey, amount uint64) types.Instruction {
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(source, true, false),
			types.NewAccountMeta(destination, true, false),
			types.NewAccountMeta(authority, false, true),
		},
		Data: Instruction{Tag: TagTransfer, Amount: amount}.Pack(),
	}
}

// SetAuthorityInstruction accounts: account [writable], current authority
// [signer].
func SetAuthorityInstruction(programID, account, current, next solana.PublicKey) types.Instruction {
	return types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			types.NewAccountMeta(account, true, false),
			types.NewAccountMeta(current, false, true),
		},
		Data: Instruction{Tag: TagSetAuthority, Key: next}.Pack(),
	}
}
