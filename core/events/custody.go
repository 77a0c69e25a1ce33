package events

import (
	"github.com/gagliardetto/solana-go"

	"refpool/core/types"
)

const (
	TypeCustodyMinted       = "custody.minted"
	TypeCustodyTransfer     = "custody.transfer"
	TypeCustodyAuthoritySet = "custody.authority.set"
)

type CustodyMinted struct {
	Mint        solana.PublicKey
	Destination solana.PublicKey
	Amount      uint64
}

func (CustodyMinted) EventType() string { return TypeCustodyMinted }

func (e CustodyMinted) Event() *types.Event {
	return &types.Event{
		Type: TypeCustodyMinted,
		Attributes: map[string]string{
			"mint":        e.Mint.String(),
			"destination": e.Destination.String(),
			"amount":      formatUint(e.Amount),
		},
	}
}

type CustodyTransfer struct {
	Source      solana.PublicKey
	Destination solana.PublicKey
	Authority   solana.PublicKey
	Amount      uint64
	// Delegated marks transfers authorised by a program-derived delegate.
	Delegated bool
}

func (CustodyTransfer) EventType() string { return TypeCustodyTransfer }

func (e CustodyTransfer) Event() *types.Event {
	delegated := "false"
	if e.Delegated {
		delegated = "true"
	}
	return &types.Event{
		Type: TypeCustodyTransfer,
		Attributes: map[string]string{
			"source":      e.Source.String(),
			"destination": e.Destination.String(),
			"authority":   e.Authority.String(),
			"amount":      formatUint(e.Amount),
			"delegated":   delegated,
		},
	}
}

type CustodyAuthoritySet struct {
	Account      solana.PublicKey
	OldAuthority solana.PublicKey
	NewAuthority solana.PublicKey
}

func (CustodyAuthoritySet) EventType() string { return TypeCustodyAuthoritySet }

func (e CustodyAuthoritySet) Event() *types.Event {
	return &types.Event{
		Type: TypeCustodyAuthoritySet,
		Attributes: map[string]string{
			"account":      e.Account.String(),
			"oldAuthority": e.OldAuthority.String(),
			"newAuthority": e.NewAuthority.String(),
		},
	}
}
