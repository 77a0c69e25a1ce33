package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type ReferralMetrics struct {
	commands     *prometheus.CounterVec
	distributed  prometheus.Counter
	referrerPaid prometheus.Counter
	claimed      prometheus.Counter
	roundingDust prometheus.Counter
}

var (
	referralOnce     sync.Once
	referralRegistry *ReferralMetrics
)

// Referral returns the process-wide reward ledger metrics.
func Referral() *ReferralMetrics {
	referralOnce.Do(func() {
		referralRegistry = &ReferralMetrics{
			commands: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "refpool_engine_commands_total",
				Help: "Count of processed ledger commands by command and outcome.",
			}, []string{"command", "outcome"}),
			distributed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "refpool_engine_rewards_distributed_total",
				Help: "Reward units credited to participants and referrers.",
			}),
			referrerPaid: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "refpool_engine_referrer_rewards_total",
				Help: "Reward units credited to referrers.",
			}),
			claimed: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "refpool_engine_rewards_claimed_total",
				Help: "Reward units withdrawn through the custodian.",
			}),
			roundingDust: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "refpool_engine_rounding_dust_total",
				Help: "Reward units dropped by truncation of the referral split.",
			}),
		}
		prometheus.MustRegister(
			referralRegistry.commands,
			referralRegistry.distributed,
			referralRegistry.referrerPaid,
			referralRegistry.claimed,
			referralRegistry.roundingDust,
		)
	})
	return referralRegistry
}

func (m *ReferralMetrics) ObserveCommand(command, outcome string) {
	if m == nil {
		return
	}
	if command == "" {
		command = "unknown"
	}
	if outcome == "" {
		outcome = "unknown"
	}
	m.commands.WithLabelValues(command, outcome).Inc()
}

// ObserveDistribution records the credited shares and the truncation
// remainder of a single distribution.
func (m *ReferralMetrics) ObserveDistribution(participantShare, referrerShare, dust uint64) {
	if m == nil {
		return
	}
	m.distributed.Add(float64(participantShare) + float64(referrerShare))
	m.referrerPaid.Add(float64(referrerShare))
	m.roundingDust.Add(float64(dust))
}

func (m *ReferralMetrics) ObserveClaim(amount uint64) {
	if m == nil {
		return
	}
	m.claimed.Add(float64(amount))
}

// Commands exposes the command counter for tests and exporters.
func (m *ReferralMetrics) Commands() *prometheus.CounterVec {
	if m == nil {
		return nil
	}
	return m.commands
}
