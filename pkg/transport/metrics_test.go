package transport

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewMetricsWithRegistryRegistersDistinctInstances(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()

	m1 := NewMetricsWithRegistry(reg1)
	m2 := NewMetricsWithRegistry(reg2)

	m1.KexTotal.WithLabelValues("curve25519-sha256").Inc()
	m2.ChannelsOpen.Set(3)

	if count := testutilGatherCount(t, reg1); count == 0 {
		t.Fatal("expected metrics registered against reg1")
	}
	if count := testutilGatherCount(t, reg2); count == 0 {
		t.Fatal("expected metrics registered against reg2")
	}
}

func testutilGatherCount(t *testing.T, reg *prometheus.Registry) int {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	return len(families)
}
