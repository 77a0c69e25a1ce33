package events

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
)

type bareEvent struct{}

func (bareEvent) EventType() string { return "bare" }

func TestRecorderRendersTypedEvents(t *testing.T) {
	participant := solana.PublicKey{1}
	referrer := solana.PublicKey{2}

	rec := &Recorder{}
	rec.Emit(ReferralRewardDistributed{
		Participant:      participant,
		Referrer:         &referrer,
		Amount:           101,
		ParticipantShare: 90,
		ReferrerShare:    10,
		Dropped:          1,
	})
	rec.Emit(bareEvent{})
	rec.Emit(nil)

	got := rec.Events()
	require.Len(t, got, 2)
	require.Equal(t, TypeReferralRewardDistributed, got[0].Type)
	require.Equal(t, "90", got[0].Attributes["participantShare"])
	require.Equal(t, "10", got[0].Attributes["referrerShare"])
	require.Equal(t, "1", got[0].Attributes["dropped"])
	require.Equal(t, referrer.String(), got[0].Attributes["referrer"])
	require.Equal(t, "bare", got[1].Type)

	rec.Reset()
	require.Empty(t, rec.Events())
}

func TestRegisteredOmitsAbsentReferrer(t *testing.T) {
	evt := ReferralParticipantRegistered{Participant: solana.PublicKey{1}, Owner: solana.PublicKey{2}}.Event()
	_, ok := evt.Attributes["referrer"]
	require.False(t, ok)
}

func TestCustodyTransferDelegatedFlag(t *testing.T) {
	evt := CustodyTransfer{Amount: 5, Delegated: true}.Event()
	require.Equal(t, "true", evt.Attributes["delegated"])
	require.Equal(t, "5", evt.Attributes["amount"])
}
