package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector exposes the simulation loop's Prometheus metrics: how long a
// whole tick (one Iterate call) takes, how many agents are live, and door flow
// counters keyed lazily by transition id.
type Collector struct {
	TickDuration  prometheus.Histogram
	LiveAgents    prometheus.Gauge
	RemovedAgents prometheus.Counter
	DoorFlow      *prometheus.CounterVec
}

// NewCollector registers the simulation's metrics against reg, defaulting
// to the global registry when reg is nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	tickDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pedsim_tick_duration_seconds",
		Help:    "Duration of one whole simulation tick (Iterate call).",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5},
	})
	tickDuration, err := registerHistogram(reg, tickDuration, "pedsim_tick_duration_seconds")
	if err != nil {
		return nil, err
	}

	liveAgents := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "pedsim_live_agents",
		Help: "Number of agents currently present in the simulation.",
	})
	liveAgents, err = registerGauge(reg, liveAgents, "pedsim_live_agents")
	if err != nil {
		return nil, err
	}

	removedAgents := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "pedsim_removed_agents_total",
		Help: "Cumulative number of agents removed (exit reached, out of bounds, explicit removal).",
	})
	removedAgents, err = registerCounter(reg, removedAgents, "pedsim_removed_agents_total")
	if err != nil {
		return nil, err
	}

	doorFlow := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pedsim_door_crossings_total",
		Help: "Cumulative number of agents that crossed each transition.",
	}, []string{"transition_id"})
	if err := reg.Register(doorFlow); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				doorFlow = existing
			} else {
				return nil, fmt.Errorf("pedsim_door_crossings_total already registered with incompatible type")
			}
		} else {
			return nil, err
		}
	}

	return &Collector{
		TickDuration:  tickDuration,
		LiveAgents:    liveAgents,
		RemovedAgents: removedAgents,
		DoorFlow:      doorFlow,
	}, nil
}

// ObserveTick records how long one tick took.
func (c *Collector) ObserveTick(seconds float64) {
	if c == nil || c.TickDuration == nil {
		return
	}
	c.TickDuration.Observe(seconds)
}

// SetLiveAgents updates the live-agent gauge.
func (c *Collector) SetLiveAgents(n int) {
	if c == nil || c.LiveAgents == nil {
		return
	}
	c.LiveAgents.Set(float64(n))
}

// IncRemoved increments the removed-agent counter by n.
func (c *Collector) IncRemoved(n int) {
	if c == nil || c.RemovedAgents == nil || n <= 0 {
		return
	}
	c.RemovedAgents.Add(float64(n))
}

// IncDoorCrossing increments the crossing counter for one transition.
func (c *Collector) IncDoorCrossing(transitionID string) {
	if c == nil || c.DoorFlow == nil {
		return
	}
	c.DoorFlow.WithLabelValues(transitionID).Inc()
}

func registerHistogram(reg prometheus.Registerer, hist prometheus.Histogram, name string) (prometheus.Histogram, error) {
	if err := reg.Register(hist); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return hist, nil
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}
