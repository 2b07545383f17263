// Package metrics exposes Prometheus instrumentation for the procthread
// primitives.
//
// A nil *Collector is valid and records nothing, so primitives can hold one
// unconditionally and pay only a nil check when metrics are disabled.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "procthread"

// Collector groups the counters and gauges recorded by the primitives.
type Collector struct {
	mailboxSent     prometheus.Counter
	mailboxReceived prometheus.Counter
	mailboxBlocked  *prometheus.CounterVec
	threadsSpawned  prometheus.Counter
	threadsExited   prometheus.Counter
	threadsLive     prometheus.Gauge
	rwlockContended *prometheus.CounterVec
}

// New registers the procthread metrics on reg and returns a Collector.
// Registering twice on the same registry panics, as with promauto.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		mailboxSent: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mailbox_sent_total",
			Help:      "Messages enqueued into any mailbox.",
		}),
		mailboxReceived: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mailbox_received_total",
			Help:      "Messages dequeued from any mailbox.",
		}),
		mailboxBlocked: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mailbox_blocked_total",
			Help:      "Mailbox operations that had to wait (send on full, recv on empty).",
		}, []string{"op"}),
		threadsSpawned: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threads_spawned_total",
			Help:      "Threads started through Spawn or registered with Main.",
		}),
		threadsExited: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "threads_exited_total",
			Help:      "Spawned threads whose entry function returned.",
		}),
		threadsLive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "threads_live",
			Help:      "Spawned threads currently running.",
		}),
		rwlockContended: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rwlock_contended_total",
			Help:      "Try or timed reader/writer lock attempts that failed.",
		}, []string{"backend", "mode"}),
	}
}

// MailboxSent records an enqueued message.
func (c *Collector) MailboxSent() {
	if c == nil {
		return
	}
	c.mailboxSent.Inc()
}

// MailboxReceived records a dequeued message.
func (c *Collector) MailboxReceived() {
	if c == nil {
		return
	}
	c.mailboxReceived.Inc()
}

// MailboxBlocked records a send or recv that had to wait. op is "send" or "recv".
func (c *Collector) MailboxBlocked(op string) {
	if c == nil {
		return
	}
	c.mailboxBlocked.WithLabelValues(op).Inc()
}

// ThreadStarted records a thread entering its entry function.
func (c *Collector) ThreadStarted() {
	if c == nil {
		return
	}
	c.threadsSpawned.Inc()
	c.threadsLive.Inc()
}

// ThreadExited records a thread returning from its entry function.
func (c *Collector) ThreadExited() {
	if c == nil {
		return
	}
	c.threadsExited.Inc()
	c.threadsLive.Dec()
}

// RWLockContended records a failed try or timed lock attempt.
// mode is "read" or "write".
func (c *Collector) RWLockContended(backend, mode string) {
	if c == nil {
		return
	}
	c.rwlockContended.WithLabelValues(backend, mode).Inc()
}
