package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "drawbridge"

// Prometheus implements every hook interface on top of a private registry.
// A CLI run has nothing to scrape it, so the collected values are flushed
// with [Prometheus.WriteTextfile] for the node exporter textfile collector.
type Prometheus struct {
	registry *prometheus.Registry

	commands        *prometheus.HistogramVec
	rulesChanged    *prometheus.CounterVec
	firewallErrors  *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	settleDuration  *prometheus.HistogramVec
	dnsChanges      *prometheus.CounterVec
	cacheOps        *prometheus.CounterVec
	cacheBytes      prometheus.Counter
	httpRequests    *prometheus.CounterVec
	httpLatency     *prometheus.HistogramVec
	lastRunUnixTime prometheus.Gauge
}

// NewPrometheus creates the collectors and registers them.
func NewPrometheus() *Prometheus {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Prometheus{
		registry: reg,
		commands: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Wall time of drawbridge commands",
			Buckets:   []float64{0.5, 1, 5, 15, 30, 60, 120, 300},
		}, []string{"command", "status"}),
		rulesChanged: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "firewall_rules_changed_total",
			Help:      "Ingress rules added or removed",
		}, []string{"firewall", "change"}),
		firewallErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "firewall_errors_total",
			Help:      "Failed firewall reconciliations",
		}, []string{"firewall"}),
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "instance_transitions_total",
			Help:      "Observed instance state changes",
		}, []string{"instance", "to"}),
		settleDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "instance_settle_seconds",
			Help:      "Time for an instance to reach its goal state",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"instance", "goal", "status"}),
		dnsChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dns_changes_total",
			Help:      "DNS bind and unbind operations",
		}, []string{"action", "status"}),
		cacheOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_operations_total",
			Help:      "Cache lookups and writes",
		}, []string{"key_type", "result"}),
		cacheBytes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_written_bytes_total",
			Help:      "Bytes written to the cache",
		}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Outgoing HTTP requests",
		}, []string{"host", "code"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Outgoing HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"host"}),
		lastRunUnixTime: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the metrics file was written",
		}),
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

// WriteTextfile writes all metrics to path in the text exposition format.
// The write goes through a temporary file so collectors never see a partial file.
func (p *Prometheus) WriteTextfile(path string) error {
	p.lastRunUnixTime.SetToCurrentTime()
	return prometheus.WriteToTextfile(path, p.registry)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (p *Prometheus) OnCommand(_ context.Context, command string, d time.Duration, err error) {
	p.commands.WithLabelValues(command, status(err)).Observe(d.Seconds())
}

func (p *Prometheus) OnFirewallReconciled(_ context.Context, firewall string, added, removed int, err error) {
	if err != nil {
		p.firewallErrors.WithLabelValues(firewall).Inc()
		return
	}
	p.rulesChanged.WithLabelValues(firewall, "added").Add(float64(added))
	p.rulesChanged.WithLabelValues(firewall, "removed").Add(float64(removed))
}

func (p *Prometheus) OnInstanceTransition(_ context.Context, instance, _, to string) {
	p.transitions.WithLabelValues(instance, to).Inc()
}

func (p *Prometheus) OnInstanceSettled(_ context.Context, instance, goal string, d time.Duration, err error) {
	p.settleDuration.WithLabelValues(instance, goal, status(err)).Observe(d.Seconds())
}

func (p *Prometheus) OnDNSChange(_ context.Context, action, _ string, err error) {
	p.dnsChanges.WithLabelValues(action, status(err)).Inc()
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheOps.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, size int) {
	p.cacheOps.WithLabelValues(keyType, "set").Inc()
	p.cacheBytes.Add(float64(size))
}

func (p *Prometheus) OnRequest(context.Context, string, string, string) {}

func (p *Prometheus) OnResponse(_ context.Context, _, host, _ string, code int, d time.Duration) {
	p.httpRequests.WithLabelValues(host, strconv.Itoa(code)).Inc()
	p.httpLatency.WithLabelValues(host).Observe(d.Seconds())
}

func (p *Prometheus) OnError(_ context.Context, _, host, _ string, _ error) {
	p.httpRequests.WithLabelValues(host, "error").Inc()
}

var (
	_ DispatchHooks = (*Prometheus)(nil)
	_ CacheHooks    = (*Prometheus)(nil)
	_ HTTPHooks     = (*Prometheus)(nil)
)
