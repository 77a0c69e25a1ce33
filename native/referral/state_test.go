package referral

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

func filledKey(b byte) solana.PublicKey {
	var key solana.PublicKey
	for i := range key {
		key[i] = b
	}
	return key
}

func TestPoolLayout(t *testing.T) {
	pool := &Pool{Initialized: true, Administrator: filledKey(0xaa), CustodyAccount: filledKey(0xbb)}
	raw := pool.Bytes()
	require.Len(t, raw, PoolSize)
	require.Equal(t, byte(1), raw[0])
	require.Equal(t, bytes.Repeat([]byte{0xaa}, 32), raw[1:33])
	require.Equal(t, bytes.Repeat([]byte{0xbb}, 32), raw[33:65])
}

func TestParticipantLayout(t *testing.T) {
	referrer := filledKey(0x22)
	participant := &Participant{
		Initialized:   true,
		Owner:         filledKey(0x11),
		RewardBalance: 0x0102030405060708,
		Referrer:      ReferrerOf(referrer),
	}
	raw := participant.Bytes()
	require.Len(t, raw, ParticipantSize)
	require.Equal(t, byte(1), raw[0])
	require.Equal(t, uint64(0x0102030405060708), binary.LittleEndian.Uint64(raw[33:41]))
	require.Equal(t, uint32(1), binary.LittleEndian.Uint32(raw[41:45]))
	require.Equal(t, referrer[:], raw[45:77])

	participant.Referrer = NoReferrer()
	raw = participant.Bytes()
	require.Equal(t, uint32(0), binary.LittleEndian.Uint32(raw[41:45]))
	require.Equal(t, make([]byte, 32), raw[45:77])
}

func TestRecordRoundTrip(t *testing.T) {
	pools := []Pool{
		{},
		{Initialized: true, Administrator: filledKey(0xff), CustodyAccount: filledKey(0x01)},
	}
	for _, pool := range pools {
		raw := pool.Bytes()
		decoded, err := UnpackPool(raw)
		require.NoError(t, err)
		require.Equal(t, pool, *decoded)
		require.Equal(t, raw, decoded.Bytes())
	}

	participants := []Participant{
		{},
		{Initialized: true, Owner: filledKey(0x07), RewardBalance: math.MaxUint64, Referrer: NoReferrer()},
		{Initialized: true, Owner: solana.PublicKey{}, RewardBalance: 1, Referrer: ReferrerOf(filledKey(0x09))},
		{Initialized: true, Owner: filledKey(0x03), Referrer: ReferrerOf(solana.PublicKey{})},
	}
	for _, participant := range participants {
		raw := participant.Bytes()
		decoded, err := UnpackParticipant(raw)
		require.NoError(t, err)
		require.Equal(t, participant, *decoded)
		require.Equal(t, raw, decoded.Bytes())
	}
}

func TestUnpackRejectsMalformed(t *testing.T) {
	_, err := UnpackPool(make([]byte, PoolSize-1))
	require.ErrorIs(t, err, ErrInvalidRecordData)
	_, err = UnpackParticipant(make([]byte, ParticipantSize+1))
	require.ErrorIs(t, err, ErrInvalidRecordData)

	raw := make([]byte, PoolSize)
	raw[0] = 2
	_, err = UnpackPool(raw)
	require.ErrorIs(t, err, ErrInvalidRecordData)

	raw = make([]byte, ParticipantSize)
	binary.LittleEndian.PutUint32(raw[41:45], 7)
	_, err = UnpackParticipant(raw)
	require.ErrorIs(t, err, ErrInvalidRecordData)

	require.ErrorIs(t, (&Pool{}).Pack(make([]byte, 10)), ErrInvalidRecordData)
}

func TestUncheckedDecodeFallsBackToDefault(t *testing.T) {
	require.Equal(t, &Pool{}, UnpackPoolUnchecked(nil))
	require.Equal(t, &Pool{}, UnpackPoolUnchecked([]byte{9, 9, 9}))
	require.Equal(t, &Participant{}, UnpackParticipantUnchecked(make([]byte, 3)))

	stored := &Participant{Initialized: true, Owner: filledKey(0x05), RewardBalance: 42}
	require.Equal(t, stored, UnpackParticipantUnchecked(stored.Bytes()))
}
