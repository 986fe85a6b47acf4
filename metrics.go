package confscope

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-confscope/layering"
)

// Metrics holds the Prometheus collectors for loading and resolution. A nil
// *Metrics records nothing.
type Metrics struct {
	fragments   *prometheus.CounterVec
	slots       *prometheus.CounterVec
	resolutions *prometheus.CounterVec
	misses      *prometheus.CounterVec
	loadSeconds prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. Collectors
// already registered by an earlier call are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		fragments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "confscope",
			Name:      "fragments_total",
			Help:      "Configuration fragments discovered, by type.",
		}, []string{"type"}),
		slots: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "confscope",
			Name:      "slots_total",
			Help:      "Registry slots installed, by type and level.",
		}, []string{"type", "level"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "confscope",
			Name:      "resolutions_total",
			Help:      "Successful resolutions, by type and level.",
		}, []string{"type", "level"}),
		misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "confscope",
			Name:      "resolution_misses_total",
			Help:      "Resolutions that found no entry, by type.",
		}, []string{"type"}),
		loadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "confscope",
			Name:      "load_duration_seconds",
			Help:      "Time spent loading a catalog.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.fragments, err = register(reg, m.fragments); err != nil {
		return nil, err
	}
	if m.slots, err = register(reg, m.slots); err != nil {
		return nil, err
	}
	if m.resolutions, err = register(reg, m.resolutions); err != nil {
		return nil, err
	}
	if m.misses, err = register(reg, m.misses); err != nil {
		return nil, err
	}
	if m.loadSeconds, err = register(reg, m.loadSeconds); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, collector C) (C, error) {
	if err := reg.Register(collector); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return collector, err
	}
	return collector, nil
}

func (m *Metrics) observeFragments(typeName string, count int) {
	if m == nil {
		return
	}
	m.fragments.WithLabelValues(typeName).Add(float64(count))
}

func (m *Metrics) observeSlot(typeName string, level layering.Level) {
	if m == nil {
		return
	}
	m.slots.WithLabelValues(typeName, level.String()).Inc()
}

func (m *Metrics) observeResolution(typeName string, level layering.Level) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(typeName, level.String()).Inc()
}

func (m *Metrics) observeMiss(typeName string) {
	if m == nil {
		return
	}
	m.misses.WithLabelValues(typeName).Inc()
}

func (m *Metrics) observeLoad(seconds float64) {
	if m == nil {
		return
	}
	m.loadSeconds.Observe(seconds)
}
