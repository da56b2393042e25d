package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	l := Noop()
	l.Info(context.Background(), "hello", String("k", "v"))
	l.With(Int("n", 1)).Warn(context.Background(), "warn")
}

func TestNewCollectorRegistersAgainstIsolatedRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatal(err)
	}
	c.ObserveTick(0.01)
	c.SetLiveAgents(42)
	c.IncRemoved(3)
	c.IncDoorCrossing("7")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	names := map[string]*dto.MetricFamily{}
	for _, mf := range mfs {
		names[mf.GetName()] = mf
	}
	if g := names["pedsim_live_agents"]; g == nil || g.Metric[0].GetGauge().GetValue() != 42 {
		t.Fatalf("expected live agents gauge to read 42, got %v", names["pedsim_live_agents"])
	}
	if c := names["pedsim_removed_agents_total"]; c == nil || c.Metric[0].GetCounter().GetValue() != 3 {
		t.Fatalf("expected removed agents counter to read 3, got %v", names["pedsim_removed_agents_total"])
	}
}

func TestRateLimiterSuppressesWithinWindow(t *testing.T) {
	r := NewRateLimiter(time.Minute)
	fakeNow := time.Unix(0, 0)
	r.nowFn = func() time.Time { return fakeNow }

	if !r.Allow("wall-7") {
		t.Fatal("expected the first call to be allowed")
	}
	if r.Allow("wall-7") {
		t.Fatal("expected a repeat call within the window to be suppressed")
	}
	fakeNow = fakeNow.Add(2 * time.Minute)
	if !r.Allow("wall-7") {
		t.Fatal("expected a call after the window to be allowed again")
	}
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	r := NewRateLimiter(time.Minute)
	if !r.Allow("a") || !r.Allow("b") {
		t.Fatal("expected distinct keys to be independently rate limited")
	}
}
