package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ajitpratap0/widecol"

// Span wraps an OpenTelemetry span with batched attributes
type Span struct {
	span       trace.Span
	attributes []attribute.KeyValue
}

// OperationTracer starts spans for operations submitted to one driver.
type OperationTracer struct {
	driver string
}

// NewOperationTracer creates a tracer labelled with the driver name.
func NewOperationTracer(driver string) *OperationTracer {
	return &OperationTracer{driver: driver}
}

// Start starts a span named "<driver>.<kind>" using the current global provider.
func (ot *OperationTracer) Start(ctx context.Context, kind, path string) (context.Context, *Span) {
	name := fmt.Sprintf("%s.%s", ot.driver, kind)
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient))

	s := &Span{span: span}
	s.SetAttribute("db.system", ot.driver)
	s.SetAttribute("widecol.operation", kind)
	s.SetAttribute("widecol.path", path)
	return ctx, s
}

// SetAttribute adds an attribute to the span
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// End records err on the span, flushes attributes and ends it.
func (s *Span) End(err error) {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		s.span.SetStatus(codes.Ok, "")
	}
	s.span.End()
}
