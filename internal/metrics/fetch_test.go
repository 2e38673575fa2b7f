package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegisterFetchMetrics_Idempotent(t *testing.T) {
	RegisterFetchMetrics()
	RegisterFetchMetrics()
	if !fetchMetricsRegistered {
		t.Fatal("expected metrics to be registered")
	}
}

func TestCacheCounter_CurriesKind(t *testing.T) {
	c := CacheCounter("json")
	before := testutil.ToFloat64(FetchCacheTotal.WithLabelValues("json", "hit"))

	c.WithLabelValues("hit").Inc()

	after := testutil.ToFloat64(FetchCacheTotal.WithLabelValues("json", "hit"))
	if after-before != 1 {
		t.Errorf("hit delta = %v, want 1", after-before)
	}
	if got := testutil.ToFloat64(FetchCacheTotal.WithLabelValues("corpus", "hit")); got != 0 {
		t.Errorf("corpus hits = %v, want 0", got)
	}
}
