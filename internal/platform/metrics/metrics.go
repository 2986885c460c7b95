package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	CredentialsIssued  prometheus.Counter
	IssuanceFailures   *prometheus.CounterVec
	CredentialsRevoked prometheus.Counter

	Verifications       *prometheus.CounterVec
	VerificationLatency prometheus.Histogram

	BlocksAppended  prometheus.Counter
	BatchSize       prometheus.Histogram
	AppendConflicts prometheus.Counter

	ChainValidations *prometheus.CounterVec

	EndpointLatency *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		CredentialsIssued: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certledger_credentials_issued_total",
			Help: "Total number of credentials issued",
		}),
		IssuanceFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certledger_issuance_failures_total",
			Help: "Total number of failed issuance attempts by error code",
		}, []string{"code"}),
		CredentialsRevoked: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certledger_credentials_revoked_total",
			Help: "Total number of credentials revoked",
		}),
		Verifications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certledger_verifications_total",
			Help: "Total number of verification requests by outcome",
		}, []string{"outcome"}),
		VerificationLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "certledger_verification_duration_seconds",
			Help:    "Time taken to verify a credential end to end",
			Buckets: prometheus.DefBuckets,
		}),
		BlocksAppended: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certledger_blocks_appended_total",
			Help: "Total number of blocks appended to the chain",
		}),
		BatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "certledger_batch_size",
			Help:    "Number of commitments anchored per appended block",
			Buckets: []float64{1, 2, 4, 8, 16, 32, 64, 128},
		}),
		AppendConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "certledger_append_conflicts_total",
			Help: "Total number of block append races lost to a concurrent writer",
		}),
		ChainValidations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "certledger_chain_validations_total",
			Help: "Total number of full chain validations by result",
		}, []string{"result"}),
		EndpointLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "certledger_endpoint_duration_seconds",
			Help:    "HTTP endpoint latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),
	}
}
