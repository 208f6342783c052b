package tracing_test

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/vectorazul/aws-config/tracing"
	"github.com/vectorazul/aws-config/types"
)

const traceHeader = "Root=1-5759e988-bd862e3fe1be46a994272793;Sampled=1;Parent=53995c3f42cd8ad8"

func TestAttributes(t *testing.T) {
	testCases := []struct {
		name string
		opts tracing.Options
		want map[attribute.Key]any
	}{
		{
			name: "minimal",
			opts: tracing.Options{},
			want: map[attribute.Key]any{
				"cloud.provider": "aws",
				"cloud.platform": "aws_lambda",
			},
		},
		{
			name: "full",
			opts: tracing.Options{
				FunctionName:    "vectorAzul-dev-configuracion-lambda",
				FunctionVersion: "$LATEST",
				Region:          "us-west-2",
				Project:         &types.Project{Name: "vectorAzul", Environment: "dev"},
			},
			want: map[attribute.Key]any{
				"cloud.provider":         "aws",
				"cloud.platform":         "aws_lambda",
				"service.name":           "vectorAzul-dev-configuracion-lambda",
				"faas.name":              "vectorAzul-dev-configuracion-lambda",
				"faas.version":           "$LATEST",
				"cloud.region":           "us-west-2",
				"service.namespace":      "vectorAzul",
				"deployment.environment": "dev",
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := map[attribute.Key]any{}
			for _, kv := range tracing.Attributes(tc.opts) {
				got[kv.Key] = kv.Value.AsInterface()
			}
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("-want, +got:\n%s", diff)
			}
		})
	}
}

func TestContextWithHeader(t *testing.T) {
	ctx := tracing.ContextWithHeader(context.Background(), traceHeader)
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsRemote() {
		t.Fatal("expected a remote span context")
	}
	if got := sc.TraceID().String(); got != "5759e988bd862e3fe1be46a994272793" {
		t.Errorf("trace id = %s", got)
	}
	if got := sc.SpanID().String(); got != "53995c3f42cd8ad8" {
		t.Errorf("span id = %s", got)
	}
	if !sc.IsSampled() {
		t.Error("expected sampled")
	}
}

func TestContextWithHeader_empty(t *testing.T) {
	ctx := context.Background()
	if got := tracing.ContextWithHeader(ctx, ""); got != ctx {
		t.Error("expected the same context for an empty header")
	}
}

func TestContextWithParent(t *testing.T) {
	t.Run("environment", func(t *testing.T) {
		t.Setenv("_X_AMZN_TRACE_ID", traceHeader)
		sc := trace.SpanContextFromContext(tracing.ContextWithParent(context.Background()))
		if got := sc.TraceID().String(); got != "5759e988bd862e3fe1be46a994272793" {
			t.Errorf("trace id = %s", got)
		}
	})
	t.Run("context value wins", func(t *testing.T) {
		t.Setenv("_X_AMZN_TRACE_ID", traceHeader)
		ctx := context.WithValue(context.Background(), "x-amzn-trace-id", "Root=1-5f84c7a6-0f0c4c9d1e3b8a7c5d2e1f00;Sampled=1;Parent=0f0c4c9d1e3b8a7c")
		sc := trace.SpanContextFromContext(tracing.ContextWithParent(ctx))
		if got := sc.TraceID().String(); got != "5f84c7a60f0c4c9d1e3b8a7c5d2e1f00" {
			t.Errorf("trace id = %s", got)
		}
	})
}

func TestNewProvider(t *testing.T) {
	ctx := context.Background()
	exporter := tracetest.NewInMemoryExporter()
	tp, err := tracing.NewProvider(ctx, tracing.Options{FunctionName: "fn", Exporter: exporter})
	if err != nil {
		t.Fatal(err)
	}
	defer tp.Shutdown(ctx)

	_, span := tp.Tracer("test").Start(ctx, "op")
	span.End()
	if err := tp.ForceFlush(ctx); err != nil {
		t.Fatal(err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("got %d spans, want 1", len(spans))
	}
	if got := spans[0].Resource.Set(); !got.HasValue("service.name") {
		t.Errorf("resource lacks service.name: %v", spans[0].Resource)
	}
	// X-Ray trace ids start with the epoch seconds of the trace.
	if id := spans[0].SpanContext.TraceID().String(); id[:8] == "00000000" {
		t.Errorf("unexpected trace id %s", id)
	}
}

func TestNewProvider_noExporter(t *testing.T) {
	tp, err := tracing.NewProvider(context.Background(), tracing.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if err := tp.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
}
