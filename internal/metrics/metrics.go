// Package metrics provides Prometheus collectors for the tontine engine.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeReplay   = "replay"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Collector holds the engine's collectors on a private registry.
// A nil *Collector records nothing.
type Collector struct {
	registry *prometheus.Registry

	operations    *prometheus.CounterVec
	walletLatency *prometheus.HistogramVec
	escrow        *prometheus.GaugeVec
	rpcRejected   *prometheus.CounterVec
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "tontine"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Engine operations by name and outcome",
		},
		[]string{"operation", "outcome"},
	)

	c.walletLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "wallet",
			Name:      "call_duration_seconds",
			Help:      "Latency of wallet debit and credit calls",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
		},
		[]string{"direction", "result"},
	)

	c.escrow = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "group",
			Name:      "escrow_balance",
			Help:      "Escrow balance per group in minor units after the last commit",
		},
		[]string{"group_id"},
	)

	c.rpcRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rpc",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"procedure"},
	)

	c.registry.MustRegister(
		c.operations,
		c.walletLatency,
		c.escrow,
		c.rpcRejected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Operation counts one engine operation.
func (c *Collector) Operation(name, outcome string) {
	if c == nil {
		return
	}
	c.operations.WithLabelValues(name, outcome).Inc()
}

// WalletCall records the latency of one wallet call.
func (c *Collector) WalletCall(direction string, start time.Time, err error) {
	if c == nil {
		return
	}
	result := OutcomeOK
	if err != nil {
		result = OutcomeFailed
	}
	c.walletLatency.WithLabelValues(direction, result).Observe(time.Since(start).Seconds())
}

// Escrow sets the escrow gauge of a group.
func (c *Collector) Escrow(groupID string, balance int64) {
	if c == nil {
		return
	}
	c.escrow.WithLabelValues(groupID).Set(float64(balance))
}

// RateLimited counts one rejected request.
func (c *Collector) RateLimited(procedure string) {
	if c == nil {
		return
	}
	c.rpcRejected.WithLabelValues(procedure).Inc()
}
