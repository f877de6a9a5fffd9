// Package metrics defines the payment counters exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Payments counts payment session activity. A nil *Payments is valid and records nothing.
type Payments struct {
	transitions  *prometheus.CounterVec
	webhooks     *prometheus.CounterVec
	gatewayCalls *prometheus.CounterVec
	sweeps       *prometheus.CounterVec
}

// NewPayments creates the payment counters and registers them with reg.
func NewPayments(reg prometheus.Registerer) (*Payments, error) {
	p := &Payments{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_session_transitions_total",
				Help: "Payment sessions moved to a terminal status, by status and source.",
			},
			[]string{"status", "source"},
		),
		webhooks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_webhooks_total",
				Help: "Gateway webhooks received, by outcome.",
			},
			[]string{"outcome"},
		),
		gatewayCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_gateway_requests_total",
				Help: "Outbound gateway calls, by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		sweeps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_sweep_sessions_total",
				Help: "Sessions examined by recovery and expiry sweeps, by sweep.",
			},
			[]string{"sweep"},
		),
	}
	for _, c := range []prometheus.Collector{p.transitions, p.webhooks, p.gatewayCalls, p.sweeps} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Payments) Transition(status, source string) {
	if p == nil {
		return
	}
	p.transitions.WithLabelValues(status, source).Inc()
}

func (p *Payments) Webhook(outcome string) {
	if p == nil {
		return
	}
	p.webhooks.WithLabelValues(outcome).Inc()
}

// GatewayCall records one outbound call; err decides the outcome label.
func (p *Payments) GatewayCall(operation string, err error) {
	if p == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.gatewayCalls.WithLabelValues(operation, outcome).Inc()
}

func (p *Payments) Swept(sweep string, n int) {
	if p == nil || n <= 0 {
		return
	}
	p.sweeps.WithLabelValues(sweep).Add(float64(n))
}
