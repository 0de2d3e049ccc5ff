package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/MrEthical07/pwhash"
	"github.com/MrEthical07/pwhash/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() pwhash.MetricsSnapshot
	AuditDropped() uint64
}

// costSource is implemented by *pwhash.Service. Sources without it export no
// cost gauges.
type costSource interface {
	Config() pwhash.Config
}

// PrometheusExporter renders service metrics in Prometheus text exposition format.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates a Prometheus exporter that reads from svc.
func NewPrometheusExporter(svc *pwhash.Service) *PrometheusExporter {
	if svc == nil {
		return &PrometheusExporter{}
	}
	return &PrometheusExporter{source: svc}
}

// NewPrometheusExporterFromSource creates a Prometheus exporter from any
// snapshot source.
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler returns an http.Handler that serves Prometheus metrics.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the current metrics in Prometheus text exposition format,
// or "" when the source has metrics disabled.
func (p *PrometheusExporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && len(snapshot.Histograms) == 0 && dropped == 0 {
		return ""
	}

	var w textWriter
	w.Grow(4096)

	for _, def := range internaldefs.CounterDefs {
		w.counter(def.Name, def.Help, snapshot.Counters[def.ID])
	}
	for _, def := range internaldefs.HistogramDefs {
		raw, ok := snapshot.Histograms[def.ID]
		if !ok {
			continue
		}
		w.histogram(def.Name, def.Help, internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(raw)))
	}
	w.counter(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, dropped)

	if cs, ok := p.source.(costSource); ok {
		cfg := cs.Config()
		ops, mem := cfg.Password.Cost()
		w.gauge(internaldefs.CostOpsName, internaldefs.CostOpsHelp, uint64(ops))
		w.gauge(internaldefs.CostMemName, internaldefs.CostMemHelp, uint64(mem))
		w.gauge(internaldefs.MemoryBudgetName, internaldefs.MemoryBudgetHelp, uint64(cfg.Resources.MemoryBudget))
	}

	return w.String()
}

// textWriter appends exposition-format families to a strings.Builder.
type textWriter struct {
	strings.Builder
}

func (w *textWriter) header(name, help, typ string) {
	w.WriteString("# HELP ")
	w.WriteString(name)
	w.WriteByte(' ')
	w.WriteString(escapeHelp(help))
	w.WriteString("\n# TYPE ")
	w.WriteString(name)
	w.WriteByte(' ')
	w.WriteString(typ)
	w.WriteByte('\n')
}

func (w *textWriter) sample(name, le string, value uint64) {
	w.WriteString(name)
	if le != "" {
		w.WriteString(`{le="`)
		w.WriteString(le)
		w.WriteString(`"}`)
	}
	w.WriteByte(' ')
	w.WriteString(strconv.FormatUint(value, 10))
	w.WriteByte('\n')
}

func (w *textWriter) counter(name, help string, value uint64) {
	w.header(name, help, "counter")
	w.sample(name, "", value)
}

func (w *textWriter) gauge(name, help string, value uint64) {
	w.header(name, help, "gauge")
	w.sample(name, "", value)
}

// histogram writes cumulative buckets and _count. Snapshots do not track the
// sum of observations, so _sum is always 0.
func (w *textWriter) histogram(name, help string, cumulative [8]uint64) {
	w.header(name, help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		w.sample(name+"_bucket", le, cumulative[i])
	}
	w.sample(name+"_sum", "", 0)
	w.sample(name+"_count", "", cumulative[len(cumulative)-1])
}

func escapeHelp(help string) string {
	return strings.NewReplacer(`\`, `\\`, "\n", `\n`).Replace(help)
}
