// Package metrics holds the prometheus collectors exported by the signer
// service. Collectors register with the default registry on import.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ClaimsSigned = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_claims_signed_total",
			Help: "Total number of signed attestations by kind",
		},
		[]string{"kind"},
	)

	ClaimFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_claim_failures_total",
			Help: "Claim runs that ended in a hard error, by stage",
		},
		[]string{"stage"},
	)

	EligibilityScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "airdrop_eligibility_score",
			Help:    "Distribution of capped eligibility totals",
			Buckets: []float64{0, 250, 500, 1000, 2000, 5000, 10000, 15000, 20000},
		},
	)

	OwnershipConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_ownership_conflicts_total",
			Help: "Objects withheld because another wallet owns them",
		},
		[]string{"stage"},
	)

	SourceFetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airdrop_source_fetch_errors_total",
			Help: "Failed holdings sub-fetches by source",
		},
		[]string{"source"},
	)

	LedgerRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airdrop_ledger_request_duration_seconds",
			Help:    "Duration of ledger JSON-RPC calls",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airdrop_api_request_duration_seconds",
			Help:    "Duration of HTTP API requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "code"},
	)
)

func init() {
	prometheus.MustRegister(ClaimsSigned)
	prometheus.MustRegister(ClaimFailures)
	prometheus.MustRegister(EligibilityScore)
	prometheus.MustRegister(OwnershipConflicts)
	prometheus.MustRegister(SourceFetchErrors)
	prometheus.MustRegister(LedgerRequestDuration)
	prometheus.MustRegister(APIRequestDuration)
}

// ObserveLedger records one ledger call.
func ObserveLedger(method string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	LedgerRequestDuration.WithLabelValues(method, status).Observe(time.Since(start).Seconds())
}
