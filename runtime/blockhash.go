package runtime

import (
	"github.com/gagliardetto/solana-go"
	"lukechampine.com/blake3"
)

// DefaultRecentBlockhashes is how many blockhashes a transaction may
// reference before it expires.
const DefaultRecentBlockhashes = 150

func genesisBlockhash(network string) solana.Hash {
	return solana.Hash(blake3.Sum256([]byte("refpool-genesis:" + network)))
}

// nextBlockhash chains the previous blockhash with the signature of the
// transaction that advanced it.
func nextBlockhash(prev solana.Hash, sig solana.Signature) solana.Hash {
	buf := make([]byte, 0, len(prev)+len(sig))
	buf = append(buf, prev[:]...)
	buf = append(buf, sig[:]...)
	return solana.Hash(blake3.Sum256(buf))
}

func containsHash(hashes []solana.Hash, h solana.Hash) bool {
	for _, candidate := range hashes {
		if candidate == h {
			return true
		}
	}
	return false
}
