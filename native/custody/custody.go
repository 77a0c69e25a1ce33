// Package custody is a minimal fungible token ledger. It holds the reward
// funds of a referral pool and moves them only on instructions signed by an
// account authority, or on behalf of a calling program that proves a
// program-derived authority.
package custody

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"refpool/core/events"
	"refpool/core/types"
)

// Program executes custody instructions against account handles owned by
// its program id.
type Program struct {
	id      solana.PublicKey
	emitter events.Emitter
}

func NewProgram(id solana.PublicKey) *Program {
	return &Program{id: id, emitter: events.NoopEmitter{}}
}

func (p *Program) ID() solana.PublicKey { return p.id }

// SetEmitter configures the event emitter used by the program.
func (p *Program) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		p.emitter = events.NoopEmitter{}
		return
	}
	p.emitter = emitter
}

// ErrorCode exposes Code so the host can render custom error codes.
func (p *Program) ErrorCode(err error) (uint32, bool) { return Code(err) }

// Process decodes and executes a custody instruction.
func (p *Program) Process(programID solana.PublicKey, accounts []*types.AccountInfo, data []byte) error {
	if !programID.Equals(p.id) {
		return fmt.Errorf("%w: invoked as %s", ErrWrongOwner, programID)
	}
	ix, err := DecodeInstruction(data)
	if err != nil {
		return err
	}
	switch ix.Tag {
	case TagInitializeMint:
		if err := requireAccounts(accounts, 1); err != nil {
			return err
		}
		return p.initializeMint(accounts[0], ix.Key)
	case TagInitializeAccount:
		if err := requireAccounts(accounts, 2); err != nil {
			return err
		}
		return p.initializeAccount(accounts[0], accounts[1], ix.Key)
	case TagMintTo:
		if err := requireAccounts(accounts, 3); err != nil {
			return err
		}
		return p.mintTo(accounts[0], accounts[1], accounts[2], ix.Amount)
	case TagTransfer:
		if err := requireAccounts(accounts, 3); err != nil {
			return err
		}
		if !accounts[2].IsSigner {
			return fmt.Errorf("%w: %s", ErrMissingSignature, accounts[2].Key)
		}
		return p.transfer(accounts[0], accounts[1], accounts[2].Key, ix.Amount, false)
	case TagSetAuthority:
		if err := requireAccounts(accounts, 2); err != nil {
			return err
		}
		return p.setAuthority(accounts[0], accounts[1], ix.Key)
	default:
		return fmt.Errorf("%w: tag %d", ErrInvalidInstruction, ix.Tag)
	}
}

func (p *Program) initializeMint(mintAcc *types.AccountInfo, authority solana.PublicKey) error {
	if err := p.requireOwned(mintAcc); err != nil {
		return err
	}
	if current, err := UnpackMint(mintAcc.Data); err != nil {
		return err
	} else if current.Initialized {
		return fmt.Errorf("%w: mint %s", ErrAlreadyInitialized, mintAcc.Key)
	}
	mint := &Mint{Initialized: true, MintAuthority: authority}
	return mint.pack(mintAcc.Data)
}

func (p *Program) initializeAccount(account, mintAcc *types.AccountInfo, authority solana.PublicKey) error {
	if err := p.requireOwned(account); err != nil {
		return err
	}
	if err := p.requireOwned(mintAcc); err != nil {
		return err
	}
	if current, err := UnpackAccount(account.Data); err != nil {
		return err
	} else if current.Initialized {
		return fmt.Errorf("%w: account %s", ErrAlreadyInitialized, account.Key)
	}
	mint, err := UnpackMint(mintAcc.Data)
	if err != nil {
		return err
	}
	if !mint.Initialized {
		return fmt.Errorf("%w: mint %s", ErrNotInitialized, mintAcc.Key)
	}
	state := &TokenAccount{Initialized: true, Mint: mintAcc.Key, Authority: authority}
	return state.pack(account.Data)
}

func (p *Program) mintTo(mintAcc, destination, authority *types.AccountInfo, amount uint64) error {
	if err := p.requireOwned(mintAcc); err != nil {
		return err
	}
	mint, err := UnpackMint(mintAcc.Data)
	if err != nil {
		return err
	}
	if !mint.Initialized {
		return fmt.Errorf("%w: mint %s", ErrNotInitialized, mintAcc.Key)
	}
	if !authority.IsSigner {
		return fmt.Errorf("%w: %s", ErrMissingSignature, authority.Key)
	}
	if !authority.Key.Equals(mint.MintAuthority) {
		return fmt.Errorf("%w: mint authority is %s", ErrAuthorityMismatch, mint.MintAuthority)
	}
	dest, err := p.loadAccount(destination)
	if err != nil {
		return err
	}
	if !dest.Mint.Equals(mintAcc.Key) {
		return fmt.Errorf("%w: %s holds %s", ErrMintMismatch, destination.Key, dest.Mint)
	}
	if mint.Supply+amount < mint.Supply || dest.Amount+amount < dest.Amount {
		return ErrAmountOverflow
	}
	mint.Supply += amount
	dest.Amount += amount

	mintScratch := make([]byte, len(mintAcc.Data))
	if err := mint.pack(mintScratch); err != nil {
		return err
	}
	destScratch := make([]byte, len(destination.Data))
	if err := dest.pack(destScratch); err != nil {
		return err
	}
	copy(mintAcc.Data, mintScratch)
	copy(destination.Data, destScratch)
	p.emitter.Emit(events.CustodyMinted{Mint: mintAcc.Key, Destination: destination.Key, Amount: amount})
	return nil
}

// transfer moves amount from source to destination. The caller has already
// established that authority approved the transfer.
func (p *Program) transfer(sourceAcc, destinationAcc *types.AccountInfo, authority solana.PublicKey, amount uint64, delegated bool) error {
	source, err := p.loadAccount(sourceAcc)
	if err != nil {
		return err
	}
	destination, err := p.loadAccount(destinationAcc)
	if err != nil {
		return err
	}
	if !source.Authority.Equals(authority) {
		return fmt.Errorf("%w: %s is controlled by %s", ErrAuthorityMismatch, sourceAcc.Key, source.Authority)
	}
	if !source.Mint.Equals(destination.Mint) {
		return fmt.Errorf("%w: %s != %s", ErrMintMismatch, source.Mint, destination.Mint)
	}
	if source.Amount < amount {
		return fmt.Errorf("%w: balance %d, requested %d", ErrInsufficientFunds, source.Amount, amount)
	}
	if !sourceAcc.Key.Equals(destinationAcc.Key) {
		if destination.Amount+amount < destination.Amount {
			return ErrAmountOverflow
		}
		source.Amount -= amount
		destination.Amount += amount

		sourceScratch := make([]byte, len(sourceAcc.Data))
		if err := source.pack(sourceScratch); err != nil {
			return err
		}
		destScratch := make([]byte, len(destinationAcc.Data))
		if err := destination.pack(destScratch); err != nil {
			return err
		}
		copy(sourceAcc.Data, sourceScratch)
		copy(destinationAcc.Data, destScratch)
	}
	p.emitter.Emit(events.CustodyTransfer{
		Source:      sourceAcc.Key,
		Destination: destinationAcc.Key,
		Authority:   authority,
		Amount:      amount,
		Delegated:   delegated,
	})
	return nil
}

func (p *Program) setAuthority(account, current *types.AccountInfo, next solana.PublicKey) error {
	state, err := p.loadAccount(account)
	if err != nil {
		return err
	}
	if !current.IsSigner {
		return fmt.Errorf("%w: %s", ErrMissingSignature, current.Key)
	}
	if !current.Key.Equals(state.Authority) {
		return fmt.Errorf("%w: %s is controlled by %s", ErrAuthorityMismatch, account.Key, state.Authority)
	}
	previous := state.Authority
	state.Authority = next
	if err := state.pack(account.Data); err != nil {
		return err
	}
	p.emitter.Emit(events.CustodyAuthoritySet{Account: account.Key, OldAuthority: previous, NewAuthority: next})
	return nil
}

func (p *Program) loadAccount(account *types.AccountInfo) (*TokenAccount, error) {
	if err := p.requireOwned(account); err != nil {
		return nil, err
	}
	state, err := UnpackAccount(account.Data)
	if err != nil {
		return nil, err
	}
	if !state.Initialized {
		return nil, fmt.Errorf("%w: account %s", ErrNotInitialized, account.Key)
	}
	return state, nil
}

func (p *Program) requireOwned(account *types.AccountInfo) error {
	if !account.IsOwnedBy(p.id) {
		return fmt.Errorf("%w: %s owned by %s", ErrWrongOwner, account.Key, account.Owner)
	}
	return nil
}

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

// ReadBalance decodes the amount held by a token account slot.
func ReadBalance(data []byte) (uint64, error) {
	state, err := UnpackAccount(data)
	if err != nil {
		return 0, err
	}
	if !state.Initialized {
		return 0, ErrNotInitialized
	}
	return state.Amount, nil
}
