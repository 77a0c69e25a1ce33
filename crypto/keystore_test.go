package crypto

import (
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/stretchr/testify/require"
)

func TestKeystoreRoundTrip(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "keys", "operator.json")

	require.NoError(t, SaveToKeystore(path, key, "correct horse"))
	loaded, err := LoadFromKeystore(path, "correct horse")
	require.NoError(t, err)
	require.Equal(t, key.Address(), loaded.Address())
	require.Equal(t, key.Bytes(), loaded.Bytes())

	_, err = LoadFromKeystore(path, "wrong")
	require.ErrorIs(t, err, keystore.ErrDecrypt)
}

func TestPrivateKeyFromBytesRejectsGarbage(t *testing.T) {
	_, err := PrivateKeyFromBytes(make([]byte, 10))
	require.Error(t, err)
}

func TestParseAddress(t *testing.T) {
	key, err := GeneratePrivateKey()
	require.NoError(t, err)
	parsed, err := ParseAddress(key.Address().String())
	require.NoError(t, err)
	require.Equal(t, key.Address(), parsed)

	_, err = ParseAddress("")
	require.Error(t, err)
	_, err = ParseAddress("not-base58-0OIl")
	require.Error(t, err)
}
