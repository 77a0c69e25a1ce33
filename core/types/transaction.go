package types

import (
	"bytes"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrNoInstructions = errors.New("transaction: no instructions")
	ErrUnknownSigner  = errors.New("transaction: key is not a required signer")
)

// AccountMeta describes how an instruction references an account.
type AccountMeta struct {
	PublicKey  solana.PublicKey
	IsSigner   bool
	IsWritable bool
}

// NewAccountMeta is a small constructor mirroring the ordering used by client
// builders: key, writable, signer.
func NewAccountMeta(key solana.PublicKey, writable, signer bool) AccountMeta {
	return AccountMeta{PublicKey: key, IsWritable: writable, IsSigner: signer}
}

// Instruction is a single command addressed to a program together with the
// ordered account handles it expects.
type Instruction struct {
	ProgramID solana.PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

// Transaction is a signed batch of instructions. All instructions commit
// together or not at all.
type Transaction struct {
	FeePayer        solana.PublicKey
	RecentBlockhash solana.Hash
	Instructions    []Instruction
	// Signatures is aligned with Signers().
	Signatures []solana.Signature
}

// NewTransaction builds an unsigned transaction.
func NewTransaction(feePayer solana.PublicKey, blockhash solana.Hash, instructions ...Instruction) *Transaction {
	return &Transaction{
		FeePayer:        feePayer,
		RecentBlockhash: blockhash,
		Instructions:    append([]Instruction(nil), instructions...),
	}
}

// Signers returns the keys that must sign the transaction: the fee payer first,
// followed by every signer meta in order of first appearance.
func (tx *Transaction) Signers() []solana.PublicKey {
	seen := make(map[solana.PublicKey]struct{})
	out := []solana.PublicKey{tx.FeePayer}
	seen[tx.FeePayer] = struct{}{}
	for _, ix := range tx.Instructions {
		for _, meta := range ix.Accounts {
			if !meta.IsSigner {
				continue
			}
			if _, ok := seen[meta.PublicKey]; ok {
				continue
			}
			seen[meta.PublicKey] = struct{}{}
			out = append(out, meta.PublicKey)
		}
	}
	return out
}

// Message returns the canonical bytes covered by the signatures.
func (tx *Transaction) Message() ([]byte, error) {
	if len(tx.Instructions) == 0 {
		return nil, ErrNoInstructions
	}
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)
	if err := enc.WriteBytes(tx.FeePayer[:], false); err != nil {
		return nil, err
	}
	if err := enc.WriteBytes(tx.RecentBlockhash[:], false); err != nil {
		return nil, err
	}
	if err := enc.WriteUint32(uint32(len(tx.Instructions)), bin.LE); err != nil {
		return nil, err
	}
	for _, ix := range tx.Instructions {
		if err := enc.WriteBytes(ix.ProgramID[:], false); err != nil {
			return nil, err
		}
		if err := enc.WriteUint32(uint32(len(ix.Accounts)), bin.LE); err != nil {
			return nil, err
		}
		for _, meta := range ix.Accounts {
			if err := enc.WriteBytes(meta.PublicKey[:], false); err != nil {
				return nil, err
			}
			var flags byte
			if meta.IsSigner {
				flags |= 1
			}
			if meta.IsWritable {
				flags |= 2
			}
			if err := enc.WriteByte(flags); err != nil {
				return nil, err
			}
		}
		if err := enc.WriteBytes(ix.Data, true); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Sign adds signatures for the supplied keys. It may be called repeatedly to
// collect signatures from several parties.
func (tx *Transaction) Sign(keys ...solana.PrivateKey) error {
	msg, err := tx.Message()
	if err != nil {
		return err
	}
	signers := tx.Signers()
	if len(tx.Signatures) != len(signers) {
		resized := make([]solana.Signature, len(signers))
		copy(resized, tx.Signatures)
		tx.Signatures = resized
	}
	for _, key := range keys {
		pub := key.PublicKey()
		idx := -1
		for i, signer := range signers {
			if signer.Equals(pub) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownSigner, pub)
		}
		sig, err := key.Sign(msg)
		if err != nil {
			return err
		}
		tx.Signatures[idx] = sig
	}
	return nil
}

// Signature returns the fee payer signature, which identifies the
// transaction.
func (tx *Transaction) Signature() solana.Signature {
	if len(tx.Signatures) == 0 {
		return solana.Signature{}
	}
	return tx.Signatures[0]
}

// VerifiedSigners checks every signature against the message and returns the
// set of keys with a valid signature.
func (tx *Transaction) VerifiedSigners() (map[solana.PublicKey]bool, error) {
	msg, err := tx.Message()
	if err != nil {
		return nil, err
	}
	signers := tx.Signers()
	verified := make(map[solana.PublicKey]bool, len(signers))
	for i, signer := range signers {
		if i >= len(tx.Signatures) {
			break
		}
		sig := tx.Signatures[i]
		if sig == (solana.Signature{}) {
			continue
		}
		if sig.Verify(signer, msg) {
			verified[signer] = true
		}
	}
	return verified, nil
}
