// SPDX-License-Identifier: MPL-2.0

// Package telemetry turns host transaction events into Prometheus metrics.
package telemetry

import (
	"errors"
	"net/http"
	"sync"

	"github.com/abstractsdk/abstract/internal/account"
	"github.com/abstractsdk/abstract/internal/host"

	"github.com/asaskevich/EventBus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "abstract"

// Collector counts transactions, contract actions and module upgrades.
type Collector struct {
	registry *prometheus.Registry

	txTotal       *prometheus.CounterVec
	actionsTotal  *prometheus.CounterVec
	upgradesTotal *prometheus.CounterVec
	verifyFailed  prometheus.Counter
	height        prometheus.Gauge

	mu          sync.Mutex
	bus         EventBus.Bus
	onCommitted func(host.TxEvent)
	onFailed    func(host.TxEvent)
}

// NewCollector creates a collector with its own registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	c := &Collector{registry: prometheus.NewRegistry()}

	c.txTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "host",
			Name:      "transactions_total",
			Help:      "Top-level transactions by result",
		},
		[]string{"result"},
	)
	c.actionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "contract",
			Name:      "actions_total",
			Help:      "Committed contract actions by event type and action attribute",
		},
		[]string{"type", "action"},
	)
	c.upgradesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "account",
			Name:      "module_upgrades_total",
			Help:      "Modules upgraded on accounts by module kind",
		},
		[]string{"kind"},
	)
	c.verifyFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "account",
		Name:      "migration_verification_failures_total",
		Help:      "Upgrade batches reverted by post-migration verification",
	})
	c.height = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "host",
		Name:      "height",
		Help:      "Height of the last committed transaction",
	})

	c.registry.MustRegister(c.txTotal, c.actionsTotal, c.upgradesTotal, c.verifyFailed, c.height)

	c.onCommitted = c.recordCommitted
	c.onFailed = c.recordFailed
	return c
}

// Registry returns the Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Attach subscribes the collector to the transaction topics of bus.
func (c *Collector) Attach(bus EventBus.Bus) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bus != nil {
		return errors.New("collector already attached")
	}
	if err := bus.Subscribe(host.TopicTxCommitted, c.onCommitted); err != nil {
		return err
	}
	if err := bus.Subscribe(host.TopicTxFailed, c.onFailed); err != nil {
		_ = bus.Unsubscribe(host.TopicTxCommitted, c.onCommitted)
		return err
	}
	c.bus = bus
	return nil
}

// Detach stops listening. It is a no-op when not attached.
func (c *Collector) Detach() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.bus == nil {
		return
	}
	_ = c.bus.Unsubscribe(host.TopicTxCommitted, c.onCommitted)
	_ = c.bus.Unsubscribe(host.TopicTxFailed, c.onFailed)
	c.bus = nil
}

func (c *Collector) recordCommitted(ev host.TxEvent) {
	c.txTotal.WithLabelValues("committed").Inc()
	c.height.Set(float64(ev.Height))
	for _, e := range ev.Events {
		action, ok := e.Attr("action")
		if !ok {
			continue
		}
		c.actionsTotal.WithLabelValues(e.Type, action).Inc()
		if e.Type == account.EventType && action == "upgrade" {
			kind, _ := e.Attr("kind")
			c.upgradesTotal.WithLabelValues(kind).Inc()
		}
	}
}

func (c *Collector) recordFailed(ev host.TxEvent) {
	c.txTotal.WithLabelValues("failed").Inc()
	if errors.Is(ev.Err, account.ErrMigrationVerification) {
		c.verifyFailed.Inc()
	}
}
