package custody

import (
	"bytes"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

const (
	// MintSize covers the initialized flag, mint authority and supply.
	MintSize = 1 + 32 + 8
	// AccountSize covers the initialized flag, mint, authority and amount.
	AccountSize = 1 + 32 + 32 + 8
)

type Mint struct {
	Initialized   bool
	MintAuthority solana.PublicKey
	Supply        uint64
}

func (m *Mint) pack(dst []byte) error {
	if len(dst) != MintSize {
		return fmt.Errorf("%w: mint expects %d bytes, got %d", ErrInvalidAccountData, MintSize, len(dst))
	}
	buf := bytes.NewBuffer(make([]byte, 0, MintSize))
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteBool(m.Initialized); err != nil {
		return err
	}
	if err := enc.WriteBytes(m.MintAuthority[:], false); err != nil {
		return err
	}
	if err := enc.WriteUint64(m.Supply, bin.LE); err != nil {
		return err
	}
	copy(dst, buf.Bytes())
	return nil
}

// UnpackMint decodes a mint record of exactly MintSize bytes.
func UnpackMint(data []byte) (*Mint, error) {
	if len(data) != MintSize {
		return nil, fmt.Errorf("%w: mint expects %d bytes, got %d", ErrInvalidAccountData, MintSize, len(data))
	}
	dec := bin.NewBorshDecoder(data)
	initialized, err := dec.ReadBool()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	authority, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	supply, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	return &Mint{Initialized: initialized, MintAuthority: solana.PublicKeyFromBytes(authority), Supply: supply}, nil
}

// TokenAccount holds a balance of a single mint controlled by Authority.
type TokenAccount struct {
	Initialized bool
	Mint        solana.PublicKey
	Authority   solana.PublicKey
	Amount      uint64
}

func (a *TokenAccount) pack(dst []byte) error {
	if len(dst) != AccountSize {
		return fmt.Errorf("%w: token account expects %d bytes, got %d", ErrInvalidAccountData, AccountSize, len(dst))
	}
	buf := bytes.NewBuffer(make([]byte, 0, AccountSize))
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteBool(a.Initialized); err != nil {
		return err
	}
	if err := enc.WriteBytes(a.Mint[:], false); err != nil {
		return err
	}
	if err := enc.WriteBytes(a.Authority[:], false); err != nil {
		return err
	}
	if err := enc.WriteUint64(a.Amount, bin.LE); err != nil {
		return err
	}
	copy(dst, buf.Bytes())
	return nil
}

// UnpackAccount decodes a token account of exactly AccountSize bytes.
func UnpackAccount(data []byte) (*TokenAccount, error) {
	if len(data) != AccountSize {
		return nil, fmt.Errorf("%w: token account expects %d bytes, got %d", ErrInvalidAccountData, AccountSize, len(data))
	}
	dec := bin.NewBorshDecoder(data)
	initialized, err := dec.ReadBool()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	mint, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	authority, err := dec.ReadNBytes(solana.PublicKeyLength)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	amount, err := dec.ReadUint64(bin.LE)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	return &TokenAccount{
		Initialized: initialized,
		Mint:        solana.PublicKeyFromBytes(mint),
		Authority:   solana.PublicKeyFromBytes(authority),
		Amount:      amount,
	}, nil
}
