package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLeaderStatusGaugePerIdentity(t *testing.T) {
	id := "test-pod-1"
	LeaderStatus.WithLabelValues(id).Set(1)
	if v := testutil.ToFloat64(LeaderStatus.WithLabelValues(id)); v != 1 {
		t.Fatalf("expected LeaderStatus 1 after promotion, got %v", v)
	}

	LeaderStatus.WithLabelValues(id).Set(0)
	if v := testutil.ToFloat64(LeaderStatus.WithLabelValues(id)); v != 0 {
		t.Fatalf("expected LeaderStatus 0 after demotion, got %v", v)
	}
}

func TestCountersIncrement(t *testing.T) {
	before := testutil.ToFloat64(ElectionsWon)
	ElectionsWon.Inc()
	if v := testutil.ToFloat64(ElectionsWon); v != before+1 {
		t.Fatalf("expected ElectionsWon %v, got %v", before+1, v)
	}

	before = testutil.ToFloat64(LeaseRenewals)
	LeaseRenewals.Add(3)
	if v := testutil.ToFloat64(LeaseRenewals); v != before+3 {
		t.Fatalf("expected LeaseRenewals %v, got %v", before+3, v)
	}
}

func TestStoreErrorsLabelledByClass(t *testing.T) {
	for _, class := range []string{"transient", "permission"} {
		before := testutil.ToFloat64(StoreErrors.WithLabelValues(class))
		StoreErrors.WithLabelValues(class).Inc()
		if v := testutil.ToFloat64(StoreErrors.WithLabelValues(class)); v != before+1 {
			t.Fatalf("expected StoreErrors{class=%q} %v, got %v", class, before+1, v)
		}
	}
}

func TestMetricsHandlerExposesElectionMetrics(t *testing.T) {
	ElectionsWon.Inc()
	// Vector metrics only appear once a label value exists
	LeaderStatus.WithLabelValues("test-pod-exposition").Set(0)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	MetricsHandler().ServeHTTP(w, req)

	if w.Code != 200 {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	for _, name := range []string{
		"leaselock_leader_status",
		"leaselock_elections_won_total",
		"leaselock_leadership_lost_total",
		"leaselock_forced_demotions_total",
		"leaselock_not_leader_rejections_total",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("metrics exposition is missing %s", name)
		}
	}
}
