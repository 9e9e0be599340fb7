// Package metrics provides Prometheus metrics for CMS adapter operations
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Docker-Hunterpedia/StatusDock/core"
	"github.com/Docker-Hunterpedia/StatusDock/logger"
)

// Operation outcomes used as the status label
const (
	StatusOK          = "ok"
	StatusNotFound    = "not_found"
	StatusUnsupported = "unsupported"
	StatusError       = "error"
)

// Metrics holds the Prometheus collectors for adapter operations
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	AdaptersCreated   *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statusdock_cms_operations_total",
				Help: "Total number of CMS adapter operations",
			},
			[]string{"provider", "operation", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "statusdock_cms_operation_duration_seconds",
				Help:    "Duration of CMS adapter operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "operation"},
		),
		AdaptersCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "statusdock_cms_adapters_created_total",
				Help: "Number of CMS adapters constructed",
			},
			[]string{"provider"},
		),
	}
}

// RecordOperation records one adapter operation
func (m *Metrics) RecordOperation(provider core.Provider, op string, err error, duration time.Duration) {
	m.OperationsTotal.WithLabelValues(string(provider), op, Status(err)).Inc()
	m.OperationDuration.WithLabelValues(string(provider), op).Observe(duration.Seconds())
}

// RecordAdapterCreated counts an adapter construction
func (m *Metrics) RecordAdapterCreated(provider core.Provider) {
	m.AdaptersCreated.WithLabelValues(string(provider)).Inc()
}

// Status maps an operation error to a status label
func Status(err error) string {
	var unsupported *core.UnsupportedOperationError
	switch {
	case err == nil:
		return StatusOK
	case core.IsNotFound(err):
		return StatusNotFound
	case errors.As(err, &unsupported):
		return StatusUnsupported
	default:
		return StatusError
	}
}

// InstrumentedAdapter records metrics and debug logs for every call to the wrapped adapter
type InstrumentedAdapter struct {
	next    core.Adapter
	metrics *Metrics
	log     *logger.Logger
}

// Instrument wraps next. The result also implements core.Counter.
func Instrument(next core.Adapter, m *Metrics, log *logger.Logger) *InstrumentedAdapter {
	return &InstrumentedAdapter{
		next:    next,
		metrics: m,
		log:     logger.OrNop(log).AdapterLogger(string(next.Provider())),
	}
}

// Unwrap returns the wrapped adapter
func (a *InstrumentedAdapter) Unwrap() core.Adapter {
	return a.next
}

func (a *InstrumentedAdapter) observe(op, collection string, start time.Time, err error) {
	duration := time.Since(start)
	a.metrics.RecordOperation(a.next.Provider(), op, err, duration)
	a.log.LogOperation(op, collection, duration, err)
}

func (a *InstrumentedAdapter) Provider() core.Provider {
	return a.next.Provider()
}

func (a *InstrumentedAdapter) Find(ctx context.Context, collection string, query *core.Query) (*core.PaginatedResult, error) {
	start := time.Now()
	result, err := a.next.Find(ctx, collection, query)
	a.observe("find", collection, start, err)
	return result, err
}

func (a *InstrumentedAdapter) Count(ctx context.Context, collection string, query *core.Query) (*core.CountResult, error) {
	start := time.Now()
	result, err := core.Count(ctx, a.next, collection, query)
	a.observe("count", collection, start, err)
	return result, err
}

func (a *InstrumentedAdapter) FindByID(ctx context.Context, collection string, id any, depth int) (core.Document, error) {
	start := time.Now()
	doc, err := a.next.FindByID(ctx, collection, id, depth)
	a.observe("findByID", collection, start, err)
	return doc, err
}

func (a *InstrumentedAdapter) FindOne(ctx context.Context, collection string, where core.Where, depth int) (core.Document, error) {
	start := time.Now()
	doc, err := a.next.FindOne(ctx, collection, where, depth)
	a.observe("findOne", collection, start, err)
	return doc, err
}

func (a *InstrumentedAdapter) Create(ctx context.Context, collection string, data core.Document) (core.Document, error) {
	start := time.Now()
	doc, err := a.next.Create(ctx, collection, data)
	a.observe("create", collection, start, err)
	return doc, err
}

func (a *InstrumentedAdapter) Update(ctx context.Context, collection string, id any, data core.Document) (core.Document, error) {
	start := time.Now()
	doc, err := a.next.Update(ctx, collection, id, data)
	a.observe("update", collection, start, err)
	return doc, err
}

func (a *InstrumentedAdapter) Delete(ctx context.Context, collection string, id any) error {
	start := time.Now()
	err := a.next.Delete(ctx, collection, id)
	a.observe("delete", collection, start, err)
	return err
}

func (a *InstrumentedAdapter) FindGlobal(ctx context.Context, slug string, depth int) (core.Document, error) {
	start := time.Now()
	doc, err := a.next.FindGlobal(ctx, slug, depth)
	a.observe("findGlobal", slug, start, err)
	return doc, err
}

func (a *InstrumentedAdapter) UpdateGlobal(ctx context.Context, slug string, data core.Document) (core.Document, error) {
	start := time.Now()
	doc, err := a.next.UpdateGlobal(ctx, slug, data)
	a.observe("updateGlobal", slug, start, err)
	return doc, err
}

func (a *InstrumentedAdapter) QueueJob(ctx context.Context, task string, input map[string]any) error {
	start := time.Now()
	err := a.next.QueueJob(ctx, task, input)
	a.observe("queueJob", task, start, err)
	return err
}
