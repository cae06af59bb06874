package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/projmerge/projmerge/internal/diff"
	"github.com/projmerge/projmerge/internal/merge"
)

const engineScopeName = "github.com/projmerge/projmerge/engine"

// engineInstruments are created on first use, after Init has installed the
// real meter provider.
type engineInstruments struct {
	tracer    trace.Tracer
	ops       metric.Int64Counter
	dur       metric.Float64Histogram
	errs      metric.Int64Counter
	conflicts metric.Int64Counter
	fixes     metric.Int64Counter
	changes   metric.Int64Counter
}

var (
	instrumentsOnce sync.Once
	instruments     *engineInstruments
)

func engine() *engineInstruments {
	instrumentsOnce.Do(func() {
		m := Meter(engineScopeName)
		ops, _ := m.Int64Counter("pm.merge.operations",
			metric.WithDescription("Total merge and diff operations executed"),
		)
		dur, _ := m.Float64Histogram("pm.merge.duration",
			metric.WithDescription("Operation duration in milliseconds"),
			metric.WithUnit("ms"),
		)
		errs, _ := m.Int64Counter("pm.merge.errors",
			metric.WithDescription("Total failed operations"),
		)
		conflicts, _ := m.Int64Counter("pm.merge.conflicts",
			metric.WithDescription("Conflicts recorded on merged nodes and variants"),
		)
		fixes, _ := m.Int64Counter("pm.validation.fixes",
			metric.WithDescription("Structural repairs applied to merged documents"),
		)
		changes, _ := m.Int64Counter("pm.diff.changes",
			metric.WithDescription("Created, deleted and changed entries found by diffs"),
		)
		instruments = &engineInstruments{
			tracer:    Tracer(engineScopeName),
			ops:       ops,
			dur:       dur,
			errs:      errs,
			conflicts: conflicts,
			fixes:     fixes,
			changes:   changes,
		}
	})
	return instruments
}

// op starts a span and counts the named operation.
func (e *engineInstruments) op(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span, time.Time) {
	all := append([]attribute.KeyValue{attribute.String("pm.operation", name)}, attrs...)
	ctx, span := e.tracer.Start(ctx, "engine."+name, trace.WithAttributes(all...))
	e.ops.Add(ctx, 1, metric.WithAttributes(all...))
	return ctx, span, time.Now()
}

// done ends the span, records duration and optional error.
func (e *engineInstruments) done(ctx context.Context, span trace.Span, start time.Time, err error, attrs ...attribute.KeyValue) {
	ms := float64(time.Since(start).Milliseconds())
	e.dur.Record(ctx, ms, metric.WithAttributes(attrs...))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		e.errs.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
	span.End()
}

// TrackMerge runs fn inside a span and records conflict and repair counts
// of its result. When telemetry is disabled fn is called directly.
func TrackMerge(ctx context.Context, fn func(context.Context) (*merge.Result, error)) (*merge.Result, error) {
	if !Enabled() {
		return fn(ctx)
	}
	e := engine()
	ctx, span, t := e.op(ctx, "merge")
	res, err := fn(ctx)
	if res != nil {
		n := merge.CountConflicts(res.Conflicts)
		e.conflicts.Add(ctx, int64(n))
		span.SetAttributes(
			attribute.Int("pm.merge.conflicts", n),
			attribute.Int("pm.merge.promoted", len(res.Promoted)),
		)
		if res.Validation != nil {
			fixed := len(res.Validation.Issues) - len(res.Validation.Remaining())
			e.fixes.Add(ctx, int64(fixed))
			span.SetAttributes(attribute.Int("pm.validation.fixes", fixed))
		}
	}
	e.done(ctx, span, t, err, attribute.String("pm.operation", "merge"))
	return res, err
}

// TrackDiff runs fn inside a span and records the number of changes found.
func TrackDiff(ctx context.Context, fn func(context.Context) (*diff.Report, error)) (*diff.Report, error) {
	if !Enabled() {
		return fn(ctx)
	}
	e := engine()
	ctx, span, t := e.op(ctx, "diff")
	r, err := fn(ctx)
	if r != nil {
		n := r.Summary().Total()
		e.changes.Add(ctx, int64(n))
		span.SetAttributes(attribute.Int("pm.diff.changes", n))
	}
	e.done(ctx, span, t, err, attribute.String("pm.operation", "diff"))
	return r, err
}
