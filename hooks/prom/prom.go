// Package promhook exports zerocas hook events as Prometheus counters.
package promhook

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/zerocas"
)

// Hooks counts events per namespace. Register it (it is a prometheus.Collector)
// with the registry of your choice.
type Hooks struct {
	ns string

	selfHeal       *prometheus.CounterVec
	bulkRejected   *prometheus.CounterVec
	setRejected    *prometheus.CounterVec
	genSnapshotErr prometheus.Counter
	genBumpErr     prometheus.Counter
	outage         prometheus.Counter
	localGenBulk   prometheus.Counter
}

var (
	_ zerocas.Hooks        = (*Hooks)(nil)
	_ prometheus.Collector = (*Hooks)(nil)
)

// New creates counters labelled with namespace. Metric names are prefixed
// with "zerocas_".
func New(namespace string) *Hooks {
	constLabels := prometheus.Labels{"namespace": namespace}
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zerocas", Name: name, Help: help, ConstLabels: constLabels,
		})
	}
	vec := func(name, help string, labels ...string) *prometheus.CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zerocas", Name: name, Help: help, ConstLabels: constLabels,
		}, labels)
	}
	return &Hooks{
		ns:             namespace,
		selfHeal:       vec("self_heal_total", "Single entries deleted on read.", "reason"),
		bulkRejected:   vec("bulk_rejected_total", "Bulk entries rejected on read.", "reason"),
		setRejected:    vec("provider_set_rejected_total", "Writes refused by the provider.", "kind"),
		genSnapshotErr: counter("gen_snapshot_errors_total", "Generation snapshot failures."),
		genBumpErr:     counter("gen_bump_errors_total", "Generation bump failures."),
		outage:         counter("invalidate_outage_total", "Invalidations where both bump and delete failed."),
		localGenBulk:   counter("local_gen_with_bulk_total", "Caches created with bulk on a local generation store."),
	}
}

func (h *Hooks) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		h.selfHeal, h.bulkRejected, h.setRejected,
		h.genSnapshotErr, h.genBumpErr, h.outage, h.localGenBulk,
	}
}

func (h *Hooks) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range h.collectors() {
		c.Describe(ch)
	}
}

func (h *Hooks) Collect(ch chan<- prometheus.Metric) {
	for _, c := range h.collectors() {
		c.Collect(ch)
	}
}

func (h *Hooks) SelfHealSingle(_ string, reason string) {
	h.selfHeal.WithLabelValues(reason).Inc()
}

func (h *Hooks) BulkRejected(_ string, _ int, reason string) {
	h.bulkRejected.WithLabelValues(reason).Inc()
}

func (h *Hooks) ProviderSetRejected(_ string, isBulk bool) {
	kind := "single"
	if isBulk {
		kind = "bulk"
	}
	h.setRejected.WithLabelValues(kind).Inc()
}

func (h *Hooks) GenSnapshotError(count int, _ error) { h.genSnapshotErr.Add(float64(count)) }
func (h *Hooks) GenBumpError(string, error)          { h.genBumpErr.Inc() }
func (h *Hooks) InvalidateOutage(string, error, error) {
	h.outage.Inc()
}
func (h *Hooks) LocalGenWithBulk() { h.localGenBulk.Inc() }
