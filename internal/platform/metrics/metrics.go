package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	CredentialsIssued   prometheus.Counter
	CredentialsVerified *prometheus.CounterVec
	CredentialsRevoked  prometheus.Counter

	PresentationsSubmitted prometheus.Counter
	PresentationsVerified  *prometheus.CounterVec

	ProofsCreated  *prometheus.CounterVec
	ProofsVerified *prometheus.CounterVec

	CryptoDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		CredentialsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sphyre_credentials_issued_total",
			Help: "Total number of verifiable credentials issued",
		}),
		CredentialsVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sphyre_credentials_verified_total",
			Help: "Total number of credential verifications, by outcome",
		}, []string{"outcome"}),
		CredentialsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sphyre_credentials_revoked_total",
			Help: "Total number of credentials revoked",
		}),
		PresentationsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "sphyre_presentations_submitted_total",
			Help: "Total number of presentations submitted",
		}),
		PresentationsVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sphyre_presentations_verified_total",
			Help: "Total number of presentation verifications, by outcome",
		}, []string{"outcome"}),
		ProofsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sphyre_proofs_created_total",
			Help: "Total number of zero-knowledge proofs created, by kind",
		}, []string{"kind"}),
		ProofsVerified: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "sphyre_proofs_verified_total",
			Help: "Total number of zero-knowledge proofs verified, by kind and outcome",
		}, []string{"kind", "outcome"}),
		CryptoDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sphyre_crypto_operation_seconds",
			Help:    "Duration of signature and proof operations",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
		}, []string{"operation"}),
	}
}

// Outcome label values for the *_verified counters.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
)

// ObserveCrypto records the duration of one crypto operation.
func (m *Metrics) ObserveCrypto(operation string, d time.Duration) {
	m.CryptoDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// VerificationOutcome maps a boolean result to the outcome label.
func VerificationOutcome(valid bool) string {
	if valid {
		return OutcomeValid
	}
	return OutcomeInvalid
}
