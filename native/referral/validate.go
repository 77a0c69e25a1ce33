package referral

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"refpool/core/types"
)

func requireAccounts(accounts []*types.AccountInfo, n int) error {
	if len(accounts) < n {
		return fmt.Errorf("%w: need %d, got %d", ErrNotEnoughAccounts, n, len(accounts))
	}
	for i := 0; i < n; i++ {
		if accounts[i] == nil {
			return fmt.Errorf("%w: account %d missing", ErrNotEnoughAccounts, i)
		}
	}
	return nil
}

func requireSigner(account *types.AccountInfo) error {
	if !account.IsSigner {
		return fmt.Errorf("%w: %s", ErrMissingAuthorization, account.Key)
	}
	return nil
}

func requireOwned(account *types.AccountInfo, program solana.PublicKey) error {
	if !account.IsOwnedBy(program) {
		return fmt.Errorf("%w: %s owned by %s", ErrWrongOwner, account.Key, account.Owner)
	}
	return nil
}

func requireKey(account *types.AccountInfo, want solana.PublicKey, sentinel error) error {
	if !account.Key.Equals(want) {
		return fmt.Errorf("%w: expected %s, got %s", sentinel, want, account.Key)
	}
	return nil
}

// optionalAccount returns the handle at index i, or nil when the caller did
// not supply it.
func optionalAccount(accounts []*types.AccountInfo, i int) *types.AccountInfo {
	if i < len(accounts) {
		return accounts[i]
	}
	return nil
}

func loadPool(account *types.AccountInfo) (*Pool, error) {
	pool, err := UnpackPool(account.Data)
	if err != nil {
		return nil, err
	}
	if !pool.Initialized {
		return nil, fmt.Errorf("%w: pool %s", ErrNotInitialized, account.Key)
	}
	return pool, nil
}

func loadParticipant(account *types.AccountInfo) (*Participant, error) {
	participant, err := UnpackParticipant(account.Data)
	if err != nil {
		return nil, err
	}
	if !participant.Initialized {
		return nil, fmt.Errorf("%w: participant %s", ErrNotInitialized, account.Key)
	}
	return participant, nil
}

// resolveReferral checks the referrer handle supplied with a distribution
// against the link stored in the participant record.
func resolveReferral(participant *Participant, handle *types.AccountInfo) (*Participant, error) {
	stored, linked := participant.Referrer.Get()
	if !linked {
		if handle != nil {
			return nil, fmt.Errorf("%w: participant has no referrer but %s was supplied", ErrInvalidUpline, handle.Key)
		}
		return nil, nil
	}
	if handle == nil {
		return nil, fmt.Errorf("%w: referrer %s not supplied", ErrInvalidUpline, stored)
	}
	if err := requireKey(handle, stored, ErrInvalidUpline); err != nil {
		return nil, err
	}
	return loadParticipant(handle)
}
