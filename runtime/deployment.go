package runtime

import (
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"

	"refpool/native/custody"
	"refpool/native/referral"
	"refpool/storage"
)

// Deployment is a bank with the custody program and a referral engine bound
// to it.
type Deployment struct {
	*Bank
	Engine  *referral.Engine
	Custody *custody.Program
}

// New opens a bank over db and registers the custody program and the
// referral engine described by cfg.
func New(db storage.Database, bankCfg BankConfig, cfg referral.Config, logger *slog.Logger) (*Deployment, error) {
	if cfg.ProgramID == (solana.PublicKey{}) || cfg.CustodyProgramID == (solana.PublicKey{}) {
		return nil, fmt.Errorf("runtime: referral and custody program ids are required")
	}
	bank, err := NewBank(db, bankCfg)
	if err != nil {
		return nil, err
	}
	if logger != nil {
		bank.SetLogger(logger)
	}

	custodyProgram := custody.NewProgram(cfg.CustodyProgramID)
	custodyProgram.SetEmitter(bank.Emitter())
	engine := referral.NewEngine(cfg, custodyProgram.Client(cfg.ProgramID))
	engine.SetEmitter(bank.Emitter())
	if logger != nil {
		engine.SetLogger(logger)
	}

	if err := bank.RegisterProgram(custodyProgram); err != nil {
		return nil, err
	}
	if err := bank.RegisterProgram(engine); err != nil {
		return nil, err
	}
	return &Deployment{Bank: bank, Engine: engine, Custody: custodyProgram}, nil
}

// TokenBalance reads the amount held by a custody token account.
func (b *Bank) TokenBalance(key solana.PublicKey) (uint64, error) {
	account, err := b.Account(key)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, fmt.Errorf("%w: %s", custody.ErrNotInitialized, key)
	}
	return custody.ReadBalance(account.Data)
}

// Participant decodes a participant record from the store.
func (b *Bank) Participant(key solana.PublicKey) (*referral.Participant, error) {
	account, err := b.Account(key)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", referral.ErrNotInitialized, key)
	}
	return referral.UnpackParticipant(account.Data)
}

// Pool decodes a pool record from the store.
func (b *Bank) Pool(key solana.PublicKey) (*referral.Pool, error) {
	account, err := b.Account(key)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%w: %s", referral.ErrNotInitialized, key)
	}
	return referral.UnpackPool(account.Data)
}
