package events

import (
	"github.com/gagliardetto/solana-go"

	"refpool/core/types"
)

const (
	// TypeReferralPoolInitialized is emitted once the pool record binds its
	// administrator and custody account.
	TypeReferralPoolInitialized = "referral.pool.initialized"
	// TypeReferralParticipantRegistered is emitted when a participant record
	// is initialised, optionally under a referrer.
	TypeReferralParticipantRegistered = "referral.participant.registered"
	// TypeReferralRewardDistributed is emitted for every administrator credit,
	// including the referrer share and the truncation remainder.
	TypeReferralRewardDistributed = "referral.reward.distributed"
	// TypeReferralRewardClaimed is emitted after a participant withdraws its
	// balance through the custodian.
	TypeReferralRewardClaimed = "referral.reward.claimed"
)

type ReferralPoolInitialized struct {
	Pool           solana.PublicKey
	Administrator  solana.PublicKey
	CustodyAccount solana.PublicKey
	Delegate       solana.PublicKey
}

func (ReferralPoolInitialized) EventType() string { return TypeReferralPoolInitialized }

func (e ReferralPoolInitialized) Event() *types.Event {
	return &types.Event{
		Type: TypeReferralPoolInitialized,
		Attributes: map[string]string{
			"pool":          e.Pool.String(),
			"administrator": e.Administrator.String(),
			"custody":       e.CustodyAccount.String(),
			"delegate":      e.Delegate.String(),
		},
	}
}

type ReferralParticipantRegistered struct {
	Participant solana.PublicKey
	Owner       solana.PublicKey
	Referrer    *solana.PublicKey
}

func (ReferralParticipantRegistered) EventType() string { return TypeReferralParticipantRegistered }

func (e ReferralParticipantRegistered) Event() *types.Event {
	attrs := map[string]string{
		"participant": e.Participant.String(),
		"owner":       e.Owner.String(),
	}
	if e.Referrer != nil {
		attrs["referrer"] = e.Referrer.String()
	}
	return &types.Event{Type: TypeReferralParticipantRegistered, Attributes: attrs}
}

type ReferralRewardDistributed struct {
	Participant      solana.PublicKey
	Referrer         *solana.PublicKey
	Amount           uint64
	ParticipantShare uint64
	ReferrerShare    uint64
	// Dropped is the unit count lost to integer truncation of the split.
	Dropped uint64
}

func (ReferralRewardDistributed) EventType() string { return TypeReferralRewardDistributed }

func (e ReferralRewardDistributed) Event() *types.Event {
	attrs := map[string]string{
		"participant":      e.Participant.String(),
		"amount":           formatUint(e.Amount),
		"participantShare": formatUint(e.ParticipantShare),
		"referrerShare":    formatUint(e.ReferrerShare),
		"dropped":          formatUint(e.Dropped),
	}
	if e.Referrer != nil {
		attrs["referrer"] = e.Referrer.String()
	}
	return &types.Event{Type: TypeReferralRewardDistributed, Attributes: attrs}
}

type ReferralRewardClaimed struct {
	Participant solana.PublicKey
	Owner       solana.PublicKey
	Destination solana.PublicKey
	Amount      uint64
}

func (ReferralRewardClaimed) EventType() string { return TypeReferralRewardClaimed }

func (e ReferralRewardClaimed) Event() *types.Event {
	return &types.Event{
		Type: TypeReferralRewardClaimed,
		Attributes: map[string]string{
			"participant": e.Participant.String(),
			"owner":       e.Owner.String(),
			"destination": e.Destination.String(),
			"amount":      formatUint(e.Amount),
		},
	}
}
