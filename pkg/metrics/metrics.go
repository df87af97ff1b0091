package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	LeaderStatus = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "leaselock_leader_status",
		Help: "1 while this instance holds the lease, 0 otherwise",
	}, []string{"identity"})
	ElectionsWon = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leaselock_elections_won_total",
		Help: "Total number of times this instance acquired leadership",
	})
	LeadershipLost = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leaselock_leadership_lost_total",
		Help: "Total number of times this instance lost leadership",
	})
	LeaseRenewals = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leaselock_lease_renewals_total",
		Help: "Total number of successful lease renewals while leader",
	})
	AcquireConflicts = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leaselock_acquire_conflicts_total",
		Help: "Total number of lease updates lost to another writer (optimistic concurrency)",
	})
	StoreErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "leaselock_store_errors_total",
		Help: "Total number of lease store errors by class",
	}, []string{"class"})
	LoopRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leaselock_loop_retries_total",
		Help: "Total number of election loop iterations that ended in a retryable error",
	})
	ForcedDemotions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leaselock_forced_demotions_total",
		Help: "Total number of times the loop gave up leadership after exhausting retries",
	})
	NotLeaderRejections = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "leaselock_not_leader_rejections_total",
		Help: "Total number of guarded calls rejected because this instance is not the leader",
	})
)

func init() {
	prometheus.MustRegister(LeaderStatus)
	prometheus.MustRegister(ElectionsWon)
	prometheus.MustRegister(LeadershipLost)
	prometheus.MustRegister(LeaseRenewals)
	prometheus.MustRegister(AcquireConflicts)
	prometheus.MustRegister(StoreErrors)
	prometheus.MustRegister(LoopRetries)
	prometheus.MustRegister(ForcedDemotions)
	prometheus.MustRegister(NotLeaderRejections)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
