package telemetry

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountersRegisterAndIncrement(t *testing.T) {
	counters, reg := NewCounters()

	counters.FlowsProcessed.Inc()
	counters.FlowsProcessed.Inc()
	counters.FlowsDropped.Inc()
	counters.AttacksDetected.WithLabelValues("syn_flooding").Inc()

	if got := testutil.ToFloat64(counters.FlowsProcessed); got != 2 {
		t.Errorf("flows_processed_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(counters.FlowsDropped); got != 1 {
		t.Errorf("flows_dropped_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(counters.AttacksDetected.WithLabelValues("syn_flooding")); got != 1 {
		t.Errorf("attacks_detected_total{kind=syn_flooding} = %v, want 1", got)
	}

	gathered, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	var names []string
	for _, mf := range gathered {
		names = append(names, mf.GetName())
	}
	joined := strings.Join(names, ",")
	for _, want := range []string{"flows_processed_total", "flows_dropped_total", "attacks_detected_total"} {
		if !strings.Contains(joined, want) {
			t.Errorf("registry missing metric %q, got %q", want, joined)
		}
	}
}

func TestTwoCounterSetsUseIndependentRegistries(t *testing.T) {
	c1, reg1 := NewCounters()
	_, reg2 := NewCounters()

	c1.FlowsProcessed.Inc()

	if got := testutil.ToFloat64(c1.FlowsProcessed); got != 1 {
		t.Errorf("flows_processed_total = %v, want 1", got)
	}
	if reg1 == reg2 {
		t.Error("each NewCounters call should own a distinct registry")
	}
}
