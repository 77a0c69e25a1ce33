package runtime

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	gethtrie "github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/triedb"
)

// computeStateRoot builds a Merkle-Patricia trie over every stored account,
// keyed by account key, and returns its root.
func computeStateRoot(store *accountStore) (common.Hash, error) {
	keys, err := store.keys()
	if err != nil {
		return common.Hash{}, err
	}
	backend := memorydb.New()
	db := rawdb.NewDatabase(backend)
	trieDB := triedb.NewDatabase(db, triedb.HashDefaults)
	trie, err := gethtrie.New(gethtrie.TrieID(gethtypes.EmptyRootHash), trieDB)
	if err != nil {
		return common.Hash{}, err
	}
	for _, key := range keys {
		account, err := store.get(key)
		if err != nil {
			return common.Hash{}, err
		}
		if account == nil {
			continue
		}
		payload, err := rlp.EncodeToBytes(storedAccount{Owner: [32]byte(account.Owner), Data: account.Data})
		if err != nil {
			return common.Hash{}, err
		}
		if err := trie.Update(key[:], payload); err != nil {
			return common.Hash{}, err
		}
	}
	return trie.Hash(), nil
}
