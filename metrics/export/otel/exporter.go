package otel

import (
	"context"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrEthical07/pwhash"
	"github.com/MrEthical07/pwhash/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() pwhash.MetricsSnapshot
	AuditDropped() uint64
}

// costSource is implemented by *pwhash.Service.
type costSource interface {
	Config() pwhash.Config
}

type latencyGauges struct {
	id      pwhash.MetricID
	buckets [8]metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
}

type costGauges struct {
	ops    metric.Int64ObservableGauge
	mem    metric.Int64ObservableGauge
	budget metric.Int64ObservableGauge
}

// OTelExporter publishes a metrics source through OpenTelemetry observable
// instruments. Histograms are exposed as one cumulative gauge per bucket.
type OTelExporter struct {
	source       metricsSource
	registration metric.Registration

	counters     map[pwhash.MetricID]metric.Int64ObservableCounter
	latency      []latencyGauges
	auditDropped metric.Int64ObservableCounter
	cost         *costGauges
}

// NewOTelExporter registers observable instruments on meter that read svc.
func NewOTelExporter(meter metric.Meter, svc *pwhash.Service) (*OTelExporter, error) {
	if svc == nil {
		return nil, ErrNilSource
	}
	return NewOTelExporterFromSource(meter, svc)
}

// NewOTelExporterFromSource is NewOTelExporter for any snapshot source.
func NewOTelExporterFromSource(meter metric.Meter, source metricsSource) (*OTelExporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &OTelExporter{
		source:   source,
		counters: make(map[pwhash.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
		latency:  make([]latencyGauges, 0, len(internaldefs.HistogramDefs)),
	}
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, errors.Wrapf(err, "create observable counter %s", def.Name)
		}
		e.counters[def.ID] = ins
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		g := latencyGauges{id: def.ID}
		for i, suffix := range internaldefs.HistogramBoundSuffix {
			name := def.Name + "_bucket_le_" + suffix
			ins, err := meter.Int64ObservableGauge(name, metric.WithDescription("Cumulative histogram bucket count."), metric.WithUnit("1"))
			if err != nil {
				return nil, errors.Wrapf(err, "create histogram bucket gauge %s", name)
			}
			g.buckets[i] = ins
			observables = append(observables, ins)
		}
		countName := def.Name + "_count"
		count, err := meter.Int64ObservableGauge(countName, metric.WithDescription("Histogram total sample count."))
		if err != nil {
			return nil, errors.Wrapf(err, "create histogram count gauge %s", countName)
		}
		g.count = count
		observables = append(observables, count)
		e.latency = append(e.latency, g)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName, metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, errors.Wrap(err, "create audit dropped counter")
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	if _, ok := source.(costSource); ok {
		cost, err := newCostGauges(meter)
		if err != nil {
			return nil, err
		}
		e.cost = cost
		observables = append(observables, cost.ops, cost.mem, cost.budget)
	}

	e.registration, err = meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, errors.Wrap(err, "register callback")
	}
	return e, nil
}

func newCostGauges(meter metric.Meter) (*costGauges, error) {
	var (
		g   costGauges
		err error
	)
	if g.ops, err = meter.Int64ObservableGauge(internaldefs.CostOpsName, metric.WithDescription(internaldefs.CostOpsHelp)); err != nil {
		return nil, errors.Wrap(err, "create cost ops gauge")
	}
	if g.mem, err = meter.Int64ObservableGauge(internaldefs.CostMemName, metric.WithDescription(internaldefs.CostMemHelp), metric.WithUnit("By")); err != nil {
		return nil, errors.Wrap(err, "create cost mem gauge")
	}
	if g.budget, err = meter.Int64ObservableGauge(internaldefs.MemoryBudgetName, metric.WithDescription(internaldefs.MemoryBudgetHelp), metric.WithUnit("By")); err != nil {
		return nil, errors.Wrap(err, "create memory budget gauge")
	}
	return &g, nil
}

// observe reads one snapshot per collection cycle.
func (e *OTelExporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()

	for id, ins := range e.counters {
		o.ObserveInt64(ins, int64(snapshot.Counters[id]))
	}
	for _, g := range e.latency {
		cumulative := internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snapshot.Histograms[g.id]))
		for i, v := range cumulative {
			o.ObserveInt64(g.buckets[i], int64(v))
		}
		o.ObserveInt64(g.count, int64(cumulative[len(cumulative)-1]))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))

	if e.cost != nil {
		cfg := e.source.(costSource).Config()
		ops, mem := cfg.Password.Cost()
		o.ObserveInt64(e.cost.ops, int64(ops))
		o.ObserveInt64(e.cost.mem, int64(mem))
		o.ObserveInt64(e.cost.budget, int64(cfg.Resources.MemoryBudget))
	}
	return nil
}

// Close unregisters the collection callback.
func (e *OTelExporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
