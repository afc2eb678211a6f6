package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OperationContext tracks one producer operation across its span and metrics.
type OperationContext struct {
	OperationName string
	RequestID     string
	StartTime     time.Time
	Metrics       *Metrics
}

// NewOperationContext creates a new operation context.
// If metrics is nil, metric recording is silently skipped.
func NewOperationContext(operationName, requestID string, metrics *Metrics) *OperationContext {
	return &OperationContext{
		OperationName: operationName,
		RequestID:     requestID,
		StartTime:     time.Now(),
		Metrics:       metrics,
	}
}

type operationContextKey struct{}

// WithOperationContext stores an OperationContext in the context.
func WithOperationContext(ctx context.Context, oc *OperationContext) context.Context {
	return context.WithValue(ctx, operationContextKey{}, oc)
}

// OperationContextFromContext retrieves the OperationContext from context, or nil.
func OperationContextFromContext(ctx context.Context) *OperationContext {
	if oc, ok := ctx.Value(operationContextKey{}).(*OperationContext); ok {
		return oc
	}
	return nil
}

// Start opens the operation's span and stores oc in the returned context.
func (oc *OperationContext) Start(ctx context.Context, spanName string) (context.Context, trace.Span) {
	ctx, span := StartSpan(ctx, spanName)
	span.SetAttributes(attribute.String(AttrOperationName, oc.OperationName))
	if oc.RequestID != "" {
		span.SetAttributes(attribute.String(AttrRequestID, oc.RequestID))
	}
	return WithOperationContext(ctx, oc), span
}

// End finishes the span and records the operation. A non-empty errKind is
// recorded as an error of that kind for component.
func (oc *OperationContext) End(ctx context.Context, span trace.Span, component, errKind string, err error) {
	duration := time.Since(oc.StartTime)
	status := "ok"

	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
		if errKind != "" {
			span.SetAttributes(attribute.String(AttrErrorKind, errKind))
		}
	}

	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()

	if oc.Metrics != nil {
		oc.Metrics.RecordOperation(ctx, oc.OperationName, status, duration)
		if err != nil {
			oc.Metrics.RecordError(ctx, errKind, component)
		}
	}
}

// Duration returns the elapsed time since operation start.
func (oc *OperationContext) Duration() time.Duration {
	return time.Since(oc.StartTime)
}
