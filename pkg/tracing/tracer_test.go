package tracing

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func TestStart_ReturnsNonNilSpan(t *testing.T) {
	ctx, span := Start(context.Background(), "test.op", attribute.Int64("fraudcore.transaction_id", 1))
	defer span.End()

	if span == nil {
		t.Fatal("Start() returned a nil span")
	}
	if ctx == nil {
		t.Fatal("Start() returned a nil context")
	}
}

func TestStart_ChildJoinsParentSpanContext(t *testing.T) {
	ctx, parent := Start(context.Background(), "test.parent")
	defer parent.End()

	_, child := Start(ctx, "test.child")
	defer child.End()

	if child.SpanContext().TraceID() != parent.SpanContext().TraceID() {
		t.Error("child span does not share the parent's trace id")
	}
}
