package runner

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/agentcrew/core"
)

// Metrics exports runner activity as Prometheus collectors. It implements Observer.
type Metrics struct {
	turns        *prometheus.CounterVec
	handoffs     *prometheus.CounterVec
	toolCalls    *prometheus.CounterVec
	turnDuration *prometheus.HistogramVec
	stops        *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg (the default
// registerer when nil). Collectors already registered under the same name are
// reused so several runners can share one registry.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentcrew",
			Subsystem: "runner",
			Name:      "turns_total",
			Help:      "Agent turns taken.",
		}, []string{"agent"}),
		handoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentcrew",
			Subsystem: "runner",
			Name:      "handoffs_total",
			Help:      "Control transfers between agents.",
		}, []string{"from", "to"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentcrew",
			Subsystem: "runner",
			Name:      "tool_calls_total",
			Help:      "Tool calls dispatched.",
		}, []string{"agent"}),
		turnDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agentcrew",
			Subsystem: "runner",
			Name:      "turn_duration_seconds",
			Help:      "Duration of agent turns including tool dispatch.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"agent"}),
		stops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agentcrew",
			Subsystem: "runner",
			Name:      "stops_total",
			Help:      "Finished runs by stop reason.",
		}, []string{"reason"}),
	}

	var err error
	if m.turns, err = registerCounter(reg, m.turns); err != nil {
		return nil, err
	}
	if m.handoffs, err = registerCounter(reg, m.handoffs); err != nil {
		return nil, err
	}
	if m.toolCalls, err = registerCounter(reg, m.toolCalls); err != nil {
		return nil, err
	}
	if m.stops, err = registerCounter(reg, m.stops); err != nil {
		return nil, err
	}
	if err := reg.Register(m.turnDuration); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		m.turnDuration = already.ExistingCollector.(*prometheus.HistogramVec)
	}

	return m, nil
}

func registerCounter(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return nil, err
		}
		return already.ExistingCollector.(*prometheus.CounterVec), nil
	}
	return c, nil
}

// OnTurnStart implements Observer.
func (m *Metrics) OnTurnStart(string, int) {}

// OnTurnEnd implements Observer.
func (m *Metrics) OnTurnEnd(agent string, res core.TurnResult, dur time.Duration) {
	m.turns.WithLabelValues(agent).Inc()
	m.turnDuration.WithLabelValues(agent).Observe(dur.Seconds())
	if res.ToolCalls > 0 {
		m.toolCalls.WithLabelValues(agent).Add(float64(res.ToolCalls))
	}
	if res.Handoff {
		m.handoffs.WithLabelValues(agent, res.Next).Inc()
	}
}

// OnStop implements Observer.
func (m *Metrics) OnStop(reason StopReason, _ error) {
	m.stops.WithLabelValues(string(reason)).Inc()
}
