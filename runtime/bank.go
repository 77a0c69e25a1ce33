// Package runtime hosts ledger programs: it stores account slots, verifies
// signed transactions, hands account handles to programs and commits the
// resulting writes atomically.
package runtime

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"refpool/core/events"
	"refpool/core/types"
	"refpool/observability/metrics"
	"refpool/storage"
)

// Program is executed by the bank for instructions addressed to its id.
type Program interface {
	ID() solana.PublicKey
	Process(programID solana.PublicKey, accounts []*types.AccountInfo, data []byte) error
}

type errorCoder interface {
	ErrorCode(err error) (uint32, bool)
}

// Receipt describes a committed transaction.
type Receipt struct {
	Signature solana.Signature
	Blockhash solana.Hash
	Events    []types.Event
	Logs      []string
}

// BankConfig tunes a bank.
type BankConfig struct {
	NetworkName       string
	RecentBlockhashes int
}

// Bank is the single-threaded host for ledger programs. Transactions are
// serialised; each either commits every account write or none.
type Bank struct {
	mu        sync.Mutex
	store     *accountStore
	cfg       BankConfig
	programs  map[solana.PublicKey]Program
	recorder  *events.Recorder
	logger    *slog.Logger
	tracer    trace.Tracer
	telemetry *metrics.RuntimeMetrics
}

// NewBank opens a bank over db, seeding the blockhash chain on first use.
func NewBank(db storage.Database, cfg BankConfig) (*Bank, error) {
	if db == nil {
		return nil, errors.New("runtime: nil database")
	}
	if cfg.RecentBlockhashes <= 0 {
		cfg.RecentBlockhashes = DefaultRecentBlockhashes
	}
	b := &Bank{
		store:     &accountStore{db: db},
		cfg:       cfg,
		programs:  make(map[solana.PublicKey]Program),
		recorder:  &events.Recorder{},
		logger:    slog.Default(),
		tracer:    otel.Tracer("refpool/runtime"),
		telemetry: metrics.Runtime(),
	}
	hashes, err := b.store.blockhashes()
	if err != nil {
		return nil, err
	}
	if len(hashes) == 0 {
		if err := b.store.writeBlockhashes([]solana.Hash{genesisBlockhash(cfg.NetworkName)}); err != nil {
			return nil, err
		}
	}
	if err := b.RegisterProgram(SystemProgram{}); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bank) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	b.logger = logger
}

// Emitter returns the emitter programs should publish events to. Events are
// attached to the receipt of the transaction that produced them.
func (b *Bank) Emitter() events.Emitter { return b.recorder }

// RegisterProgram makes p executable under its id.
func (b *Bank) RegisterProgram(p Program) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := p.ID()
	if _, ok := b.programs[id]; ok {
		return fmt.Errorf("%w: %s", ErrProgramExists, id)
	}
	b.programs[id] = p
	return nil
}

// LatestBlockhash returns the blockhash new transactions should reference.
func (b *Bank) LatestBlockhash() (solana.Hash, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hashes, err := b.store.blockhashes()
	if err != nil {
		return solana.Hash{}, err
	}
	if len(hashes) == 0 {
		return solana.Hash{}, ErrBlockhashNotFound
	}
	return hashes[len(hashes)-1], nil
}

// Account returns the stored slot for key, or nil when it was never created.
func (b *Bank) Account(key solana.PublicKey) (*types.Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.get(key)
}

// StateRoot fingerprints every stored account.
func (b *Bank) StateRoot() (common.Hash, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return computeStateRoot(b.store)
}

// ProcessTransaction verifies and executes tx.
func (b *Bank) ProcessTransaction(ctx context.Context, tx *types.Transaction) (*Receipt, error) {
	_, span := b.tracer.Start(ctx, "runtime.ProcessTransaction",
		trace.WithAttributes(attribute.Int("instructions", len(tx.Instructions))))
	defer span.End()
	start := time.Now()

	receipt, err := b.process(tx)
	outcome := "committed"
	if err != nil {
		outcome = "failed"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.logger.Info("transaction failed", slog.String("signature", tx.Signature().String()), slog.Any("error", err))
	} else {
		span.SetAttributes(attribute.String("signature", receipt.Signature.String()))
		b.logger.Debug("transaction committed",
			slog.String("signature", receipt.Signature.String()),
			slog.Int("events", len(receipt.Events)))
	}
	b.telemetry.ObserveTransaction(outcome, time.Since(start))
	return receipt, err
}

func (b *Bank) process(tx *types.Transaction) (*Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	hashes, err := b.store.blockhashes()
	if err != nil {
		return nil, err
	}
	if !containsHash(hashes, tx.RecentBlockhash) {
		return nil, fmt.Errorf("%w: %s", ErrBlockhashNotFound, tx.RecentBlockhash)
	}
	signed, err := b.verifySignatures(tx)
	if err != nil {
		return nil, err
	}
	sig := tx.Signature()
	done, err := b.store.processed(sig)
	if err != nil {
		return nil, err
	}
	if done {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyProcessed, sig)
	}

	b.recorder.Reset()
	state := newOverlay(b.store)
	logs := make([]string, 0, 2*len(tx.Instructions))
	for i, ix := range tx.Instructions {
		program, ok := b.programs[ix.ProgramID]
		if !ok {
			return nil, &TransactionError{Index: i, Err: fmt.Errorf("%w: %s", ErrProgramNotFound, ix.ProgramID)}
		}
		logs = append(logs, fmt.Sprintf("Program %s invoke", ix.ProgramID))
		if err := b.execute(state, program, ix, signed); err != nil {
			txErr := &TransactionError{Index: i, Err: err}
			if coder, ok := program.(errorCoder); ok {
				txErr.Code, txErr.HasCode = coder.ErrorCode(err)
			}
			return nil, txErr
		}
		logs = append(logs, fmt.Sprintf("Program %s success", ix.ProgramID))
	}

	if err := state.commit(); err != nil {
		return nil, err
	}
	if err := b.store.markProcessed(sig); err != nil {
		return nil, err
	}
	next := nextBlockhash(hashes[len(hashes)-1], sig)
	hashes = append(hashes, next)
	if len(hashes) > b.cfg.RecentBlockhashes {
		hashes = hashes[len(hashes)-b.cfg.RecentBlockhashes:]
	}
	if err := b.store.writeBlockhashes(hashes); err != nil {
		return nil, err
	}
	if keys, err := b.store.keys(); err == nil {
		b.telemetry.SetAccounts(len(keys))
	}
	return &Receipt{Signature: sig, Blockhash: next, Events: b.recorder.Events(), Logs: logs}, nil
}

// verifySignatures requires a valid fee payer signature and rejects any
// present but invalid signature. Signers that did not sign are reported to
// programs as unsigned handles.
func (b *Bank) verifySignatures(tx *types.Transaction) (map[solana.PublicKey]bool, error) {
	verified, err := tx.VerifiedSigners()
	if err != nil {
		return nil, err
	}
	for i, signer := range tx.Signers() {
		present := i < len(tx.Signatures) && tx.Signatures[i] != (solana.Signature{})
		if present && !verified[signer] {
			return nil, fmt.Errorf("%w: %s", ErrSignatureVerification, signer)
		}
	}
	if !verified[tx.FeePayer] {
		return nil, fmt.Errorf("%w: fee payer %s", ErrSignatureVerification, tx.FeePayer)
	}
	return verified, nil
}

type snapshot struct {
	owner solana.PublicKey
	data  []byte
}

// execute runs one instruction against handles built from the overlay and
// folds the writes back into it.
func (b *Bank) execute(state *overlay, program Program, ix types.Instruction, signed map[solana.PublicKey]bool) error {
	handles := make(map[solana.PublicKey]*types.AccountInfo, len(ix.Accounts))
	before := make(map[solana.PublicKey]snapshot, len(ix.Accounts))
	order := make([]solana.PublicKey, 0, len(ix.Accounts))
	accounts := make([]*types.AccountInfo, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		handle, ok := handles[meta.PublicKey]
		if !ok {
			account, err := state.get(meta.PublicKey)
			if err != nil {
				return err
			}
			if account == nil {
				account = &types.Account{Owner: solana.SystemProgramID}
			}
			handle = &types.AccountInfo{Key: meta.PublicKey, Owner: account.Owner, Data: account.Data}
			handles[meta.PublicKey] = handle
			before[meta.PublicKey] = snapshot{owner: account.Owner, data: append([]byte(nil), account.Data...)}
			order = append(order, meta.PublicKey)
		}
		handle.IsSigner = handle.IsSigner || (meta.IsSigner && signed[meta.PublicKey])
		handle.IsWritable = handle.IsWritable || meta.IsWritable
		accounts[i] = handle
	}

	if err := program.Process(ix.ProgramID, accounts, ix.Data); err != nil {
		return err
	}

	_, isSystem := program.(SystemProgram)
	for _, key := range order {
		handle, prev := handles[key], before[key]
		changed := !handle.Owner.Equals(prev.owner) || !bytes.Equal(handle.Data, prev.data)
		if !changed {
			continue
		}
		if !handle.IsWritable {
			return fmt.Errorf("%w: %s", ErrReadonlyModified, key)
		}
		if !isSystem {
			if len(handle.Data) != len(prev.data) {
				return fmt.Errorf("%w: %s", ErrAccountResized, key)
			}
			if !handle.Owner.Equals(prev.owner) {
				return fmt.Errorf("%w: %s", ErrOwnerChanged, key)
			}
		}
		state.set(key, &types.Account{Owner: handle.Owner, Data: handle.Data})
	}
	return nil
}
