package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "splitkar"

// PrometheusRecorder exports metrics through a dedicated Prometheus registry.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	groupsCreated      prometheus.Counter
	groupJoins         *prometheus.CounterVec
	magicLinks         *prometheus.CounterVec
	sessionResolutions *prometheus.CounterVec
	gateRedirects      *prometheus.CounterVec
}

// NewPrometheus returns a Recorder backed by a fresh registry that also
// carries the Go runtime and process collectors.
func NewPrometheus() *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &PrometheusRecorder{
		registry: reg,
		groupsCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "groups_created_total",
			Help:      "Total number of groups created",
		}),
		groupJoins: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "group_joins_total",
			Help:      "Total number of join attempts by outcome",
		}, []string{"outcome"}),
		magicLinks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "magic_links_total",
			Help:      "Total number of magic link deliveries by status",
		}, []string{"status"}),
		sessionResolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_resolutions_total",
			Help:      "Total number of session cookie resolutions by result",
		}, []string{"result"}),
		gateRedirects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gate_redirects_total",
			Help:      "Total number of Session Gate redirects by target",
		}, []string{"target"}),
	}
}

// Handler returns the HTTP handler serving the registry for /metrics.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{Registry: p.registry})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}

// IncGroupCreated increments the group created counter.
func (p *PrometheusRecorder) IncGroupCreated() {
	p.groupsCreated.Inc()
}

// IncGroupJoin increments the join counter for outcome.
func (p *PrometheusRecorder) IncGroupJoin(outcome string) {
	p.groupJoins.WithLabelValues(outcome).Inc()
}

// IncMagicLink increments the magic link counter for status.
func (p *PrometheusRecorder) IncMagicLink(status string) {
	p.magicLinks.WithLabelValues(status).Inc()
}

// IncSessionResolution increments the session resolution counter for result.
func (p *PrometheusRecorder) IncSessionResolution(result string) {
	p.sessionResolutions.WithLabelValues(result).Inc()
}

// IncGateRedirect increments the gate redirect counter for target.
func (p *PrometheusRecorder) IncGateRedirect(target string) {
	p.gateRedirects.WithLabelValues(target).Inc()
}
