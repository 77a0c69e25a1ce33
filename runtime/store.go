package runtime

import (
	"bytes"
	"errors"
	"sort"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/gagliardetto/solana-go"

	"refpool/core/types"
	"refpool/storage"
)

var (
	accountPrefix   = []byte("account:")
	signaturePrefix = []byte("signature:")
	accountIndexKey = ethcrypto.Keccak256([]byte("account-index"))
	blockhashesKey  = ethcrypto.Keccak256([]byte("recent-blockhashes"))
)

// storedAccount is the RLP form of an account slot.
type storedAccount struct {
	Owner [32]byte
	Data  []byte
}

func accountKey(key solana.PublicKey) []byte {
	buf := make([]byte, len(accountPrefix)+len(key))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], key[:])
	return ethcrypto.Keccak256(buf)
}

func signatureKey(sig solana.Signature) []byte {
	buf := make([]byte, len(signaturePrefix)+len(sig))
	copy(buf, signaturePrefix)
	copy(buf[len(signaturePrefix):], sig[:])
	return ethcrypto.Keccak256(buf)
}

// accountStore persists account slots and an index of every key ever
// written so the state root can be recomputed.
type accountStore struct {
	db storage.Database
}

func (s *accountStore) get(key solana.PublicKey) (*types.Account, error) {
	data, err := s.db.Get(accountKey(key))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var stored storedAccount
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, err
	}
	return &types.Account{Owner: solana.PublicKeyFromBytes(stored.Owner[:]), Data: stored.Data}, nil
}

func (s *accountStore) put(key solana.PublicKey, account *types.Account) error {
	exists, err := s.db.Has(accountKey(key))
	if err != nil {
		return err
	}
	encoded, err := rlp.EncodeToBytes(storedAccount{Owner: [32]byte(account.Owner), Data: account.Data})
	if err != nil {
		return err
	}
	if err := s.db.Put(accountKey(key), encoded); err != nil {
		return err
	}
	if exists {
		return nil
	}
	index, err := s.keys()
	if err != nil {
		return err
	}
	return s.writeIndex(append(index, key))
}

// keys returns every stored account key in ascending byte order.
func (s *accountStore) keys() ([]solana.PublicKey, error) {
	data, err := s.db.Get(accountIndexKey)
	if errors.Is(err, storage.ErrNotFound) {
		return []solana.PublicKey{}, nil
	}
	if err != nil {
		return nil, err
	}
	var raw [][32]byte
	if err := rlp.DecodeBytes(data, &raw); err != nil {
		return nil, err
	}
	out := make([]solana.PublicKey, len(raw))
	for i := range raw {
		out[i] = solana.PublicKey(raw[i])
	}
	return out, nil
}

func (s *accountStore) writeIndex(keys []solana.PublicKey) error {
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
	raw := make([][32]byte, len(keys))
	for i := range keys {
		raw[i] = [32]byte(keys[i])
	}
	encoded, err := rlp.EncodeToBytes(raw)
	if err != nil {
		return err
	}
	return s.db.Put(accountIndexKey, encoded)
}

func (s *accountStore) processed(sig solana.Signature) (bool, error) {
	return s.db.Has(signatureKey(sig))
}

func (s *accountStore) markProcessed(sig solana.Signature) error {
	return s.db.Put(signatureKey(sig), []byte{1})
}

func (s *accountStore) blockhashes() ([]solana.Hash, error) {
	data, err := s.db.Get(blockhashesKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var raw [][32]byte
	if err := rlp.DecodeBytes(data, &raw); err != nil {
		return nil, err
	}
	out := make([]solana.Hash, len(raw))
	for i := range raw {
		out[i] = solana.Hash(raw[i])
	}
	return out, nil
}

func (s *accountStore) writeBlockhashes(hashes []solana.Hash) error {
	raw := make([][32]byte, len(hashes))
	for i := range hashes {
		raw[i] = [32]byte(hashes[i])
	}
	encoded, err := rlp.EncodeToBytes(raw)
	if err != nil {
		return err
	}
	return s.db.Put(blockhashesKey, encoded)
}

// overlay buffers account writes of a transaction until commit.
type overlay struct {
	store   *accountStore
	pending map[solana.PublicKey]*types.Account
	order   []solana.PublicKey
}

func newOverlay(store *accountStore) *overlay {
	return &overlay{store: store, pending: make(map[solana.PublicKey]*types.Account)}
}

func (o *overlay) get(key solana.PublicKey) (*types.Account, error) {
	if account, ok := o.pending[key]; ok {
		return account.Clone(), nil
	}
	return o.store.get(key)
}

func (o *overlay) set(key solana.PublicKey, account *types.Account) {
	if _, ok := o.pending[key]; !ok {
		o.order = append(o.order, key)
	}
	o.pending[key] = account.Clone()
}

func (o *overlay) commit() error {
	for _, key := range o.order {
		if err := o.store.put(key, o.pending[key]); err != nil {
			return err
		}
	}
	return nil
}
