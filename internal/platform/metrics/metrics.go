package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	VerificationsStarted  prometheus.Counter
	VotesCast             prometheus.Counter
	MembersMarkedDeceased prometheus.Counter
	VerificationsDenied   prometheus.Counter

	UnlockRequests     prometheus.Counter
	CooldownRejections prometheus.Counter
	AutoUnlocks        prometheus.Counter
	GrantsCreated      prometheus.Counter

	DecryptFailures prometheus.Counter
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		VerificationsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_deceased_verifications_started_total",
			Help: "Total number of deceased verification batches opened",
		}),
		VotesCast: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_deceased_votes_cast_total",
			Help: "Total number of votes cast across all verification batches",
		}),
		MembersMarkedDeceased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_members_marked_deceased_total",
			Help: "Total number of members marked deceased by unanimous consensus",
		}),
		VerificationsDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_deceased_verifications_denied_total",
			Help: "Total number of verification batches resolved not-deceased",
		}),
		UnlockRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_unlock_requests_total",
			Help: "Total number of accepted unlock requests (first or repeat)",
		}),
		CooldownRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_unlock_cooldown_rejections_total",
			Help: "Total number of unlock requests rejected by the cooldown",
		}),
		AutoUnlocks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_unlock_auto_promotions_total",
			Help: "Total number of requests auto-promoted at the repeat threshold",
		}),
		GrantsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_access_grants_created_total",
			Help: "Total number of access grants created (any path)",
		}),
		DecryptFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "heirloom_payload_decrypt_failures_total",
			Help: "Total number of payload decryption failures (corrupted or rotated key)",
		}),
	}
}

func (m *Metrics) IncrementVerificationsStarted() {
	if m != nil {
		m.VerificationsStarted.Inc()
	}
}

func (m *Metrics) IncrementVotesCast() {
	if m != nil {
		m.VotesCast.Inc()
	}
}

func (m *Metrics) IncrementMembersMarkedDeceased() {
	if m != nil {
		m.MembersMarkedDeceased.Inc()
	}
}

func (m *Metrics) IncrementVerificationsDenied() {
	if m != nil {
		m.VerificationsDenied.Inc()
	}
}

func (m *Metrics) IncrementUnlockRequests() {
	if m != nil {
		m.UnlockRequests.Inc()
	}
}

func (m *Metrics) IncrementCooldownRejections() {
	if m != nil {
		m.CooldownRejections.Inc()
	}
}

func (m *Metrics) IncrementAutoUnlocks() {
	if m != nil {
		m.AutoUnlocks.Inc()
	}
}

func (m *Metrics) IncrementGrantsCreated() {
	if m != nil {
		m.GrantsCreated.Inc()
	}
}

func (m *Metrics) IncrementDecryptFailures() {
	if m != nil {
		m.DecryptFailures.Inc()
	}
}
