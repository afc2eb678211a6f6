// Package observability wires OpenTelemetry metrics and tracing.
//
// The hub and producers record through the global providers, so telemetry
// is a no-op until the Component starts with Enabled set:
//
//	obs := observability.NewComponent(cfg.Observability, observability.Resource{ServiceName: "eventhub"})
//	registry.Register(obs)
//
// Producer operations pair a span with metrics:
//
//	oc := observability.NewOperationContext("command", requestID, metrics)
//	ctx, span := oc.Start(ctx, observability.SpanCommandRun)
//	defer oc.End(ctx, span, "producer", kind, err)
package observability
