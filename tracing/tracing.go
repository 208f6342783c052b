// Package tracing builds the OpenTelemetry pipeline of the function.
//
// Trace and span ids are generated in the X-Ray format so that the spans join
// the trace the Lambda service opened for the invocation.
package tracing

import (
	"context"
	"os"

	"go.opentelemetry.io/contrib/propagators/aws/xray"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/vectorazul/aws-config/types"
)

const (
	Scope = "github.com/vectorazul/aws-config"

	envTraceID    = "_X_AMZN_TRACE_ID"
	headerXrayID  = "X-Amzn-Trace-Id"
	ctxKeyTraceID = "x-amzn-trace-id"
)

// Options configures NewProvider.
type Options struct {
	FunctionName    string
	FunctionVersion string
	Region          string
	Project         *types.Project

	// OTLPEndpoint is the collector address; spans are not exported when empty.
	OTLPEndpoint string
	OTLPInsecure bool

	// Exporter overrides the OTLP exporter.
	Exporter sdktrace.SpanExporter
}

// NewProvider creates a tracer provider with X-Ray compatible ids.
func NewProvider(ctx context.Context, opts Options) (*sdktrace.TracerProvider, error) {
	providerOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithIDGenerator(xray.NewIDGenerator()),
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL, Attributes(opts)...)),
	}

	exporter := opts.Exporter
	if exporter == nil && opts.OTLPEndpoint != "" {
		clientOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(opts.OTLPEndpoint)}
		if opts.OTLPInsecure {
			clientOpts = append(clientOpts, otlptracegrpc.WithInsecure())
		}

		var err error
		exporter, err = otlptracegrpc.New(ctx, clientOpts...)
		if err != nil {
			return nil, err
		}
	}

	if exporter != nil {
		providerOpts = append(providerOpts, sdktrace.WithBatcher(exporter))
	}

	return sdktrace.NewTracerProvider(providerOpts...), nil
}

// Attributes describes the function as a trace resource.
func Attributes(opts Options) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		semconv.CloudProviderAWS,
		semconv.CloudPlatformAWSLambda,
	}

	if opts.FunctionName != "" {
		attrs = append(attrs, semconv.ServiceName(opts.FunctionName), semconv.FaaSName(opts.FunctionName))
	}
	if opts.FunctionVersion != "" {
		attrs = append(attrs, semconv.FaaSVersion(opts.FunctionVersion))
	}
	if opts.Region != "" {
		attrs = append(attrs, semconv.CloudRegion(opts.Region))
	}
	if opts.Project != nil {
		if opts.Project.Name != "" {
			attrs = append(attrs, semconv.ServiceNamespace(opts.Project.Name))
		}
		if opts.Project.Environment != "" {
			attrs = append(attrs, semconv.DeploymentEnvironment(opts.Project.Environment))
		}
	}

	return attrs
}

// ContextWithParent returns ctx carrying the remote span described by the
// X-Ray trace header of the invocation. The runtime publishes the header both
// as a context value and as the _X_AMZN_TRACE_ID variable; the context value
// wins.
func ContextWithParent(ctx context.Context) context.Context {
	header, _ := ctx.Value(ctxKeyTraceID).(string)
	if header == "" {
		header = os.Getenv(envTraceID)
	}

	return ContextWithHeader(ctx, header)
}

// ContextWithHeader extracts the remote span from an X-Ray trace header.
func ContextWithHeader(ctx context.Context, header string) context.Context {
	if header == "" {
		return ctx
	}

	carrier := propagation.MapCarrier{}
	carrier.Set(headerXrayID, header)
	return xray.Propagator{}.Extract(ctx, carrier)
}
