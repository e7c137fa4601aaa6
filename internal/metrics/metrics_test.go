package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorsRegisterAndCount(t *testing.T) {
	m := New()

	m.ProxyRequests.WithLabelValues("200").Inc()
	m.ProxyRequests.WithLabelValues("502").Inc()
	m.Injections.Inc()
	m.ReloadSignals.Inc()
	m.ReloadClients.Set(3)
	m.TaskRuns.WithLabelValues("build", "failure").Inc()

	if got := testutil.ToFloat64(m.ProxyRequests.WithLabelValues("502")); got != 1 {
		t.Errorf("502 counter = %v", got)
	}
	if got := testutil.ToFloat64(m.ReloadClients); got != 3 {
		t.Errorf("clients gauge = %v", got)
	}

	// Two instances must not collide: each carries its own registry.
	other := New()
	if got := testutil.ToFloat64(other.Injections); got != 0 {
		t.Errorf("fresh instance injections = %v", got)
	}
}
