package observe

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// OperationMeta identifies a cache operation for telemetry purposes.
type OperationMeta struct {
	Feature string // Feature slice the operation belongs to (may be empty)
	Name    string // Operation name (required)
	Key     string // Cache key of the run (optional)
}

// ParseOperation splits a qualified "feature/operation" name.
func ParseOperation(qualified string) OperationMeta {
	feature, name, ok := strings.Cut(qualified, "/")
	if !ok {
		return OperationMeta{Name: qualified}
	}
	return OperationMeta{Feature: feature, Name: name}
}

// SpanName returns the deterministic span name for this operation.
// Format: ems.op.<feature>.<name> or ems.op.<name>
func (m OperationMeta) SpanName() string {
	if m.Feature != "" {
		return "ems.op." + m.Feature + "." + m.Name
	}
	return "ems.op." + m.Name
}

// OperationID returns the qualified operation name.
func (m OperationMeta) OperationID() string {
	if m.Feature != "" {
		return m.Feature + "/" + m.Name
	}
	return m.Name
}

func (m OperationMeta) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("op.id", m.OperationID()),
		attribute.String("op.name", m.Name),
	}
	if m.Feature != "" {
		attrs = append(attrs, attribute.String("op.feature", m.Feature))
	}
	return attrs
}

// Tracer wraps OpenTelemetry tracing with operation span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for an operation run.
	StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

type tracerImpl struct {
	tracer trace.Tracer
}

func newTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with operation metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span) {
	attrs := append(meta.attributes(), attribute.Bool("op.error", false))
	if meta.Key != "" {
		attrs = append(attrs, attribute.String("op.key", meta.Key))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan ends the span. Cancellation is not an error: the run was superseded.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, context.Canceled):
		span.SetAttributes(attribute.Bool("op.cancelled", true))
	default:
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.Bool("op.error", true))
		span.RecordError(err)
	}
	span.End()
}

type noopTracer struct {
	noop trace.Tracer
}

func newNoopTracer() Tracer {
	return &noopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("noop"),
	}
}

func (t *noopTracer) StartSpan(ctx context.Context, meta OperationMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *noopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
