package tracing

import (
	"strings"

	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/request"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	handlerStartSpan = Scope + "/tracing.StartSpan"
	handlerEndSpan   = Scope + "/tracing.EndSpan"
)

var (
	KeyAWSErrorCode = attribute.Key("aws.error.code")

	attrRPCSystemAWSAPI = semconv.RPCSystemKey.String("aws-api")
)

// InstrumentClient makes every request of the SDK client a client span,
// child of the span found in the request context.
//
// A nil provider means the global one.
func InstrumentClient(c *client.Client, tp trace.TracerProvider) {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	tracer := tp.Tracer(Scope)

	// Validate is the first list run by Send, Complete the last one; both run once.
	c.Handlers.Validate.PushFrontNamed(request.NamedHandler{
		Name: handlerStartSpan,
		Fn: func(r *request.Request) {
			ctx, _ := tracer.Start(r.Context(), SpanName(r.ClientInfo.ServiceID, r.Operation.Name),
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					attrRPCSystemAWSAPI,
					semconv.RPCService(r.ClientInfo.ServiceID),
					semconv.RPCMethod(r.Operation.Name),
				))
			r.SetContext(ctx)
		},
	})
	c.Handlers.Complete.PushBackNamed(request.NamedHandler{
		Name: handlerEndSpan,
		Fn: func(r *request.Request) {
			span := trace.SpanFromContext(r.Context())
			defer span.End()

			if r.RequestID != "" {
				span.SetAttributes(semconv.AWSRequestID(r.RequestID))
			}
			if r.HTTPResponse != nil && r.HTTPResponse.StatusCode > 0 {
				span.SetAttributes(semconv.HTTPResponseStatusCode(r.HTTPResponse.StatusCode))
			}

			if r.Error != nil {
				if awsErr, ok := r.Error.(awserr.Error); ok {
					span.SetAttributes(KeyAWSErrorCode.String(awsErr.Code()))
				}
				span.RecordError(r.Error)
				span.SetStatus(codes.Error, r.Error.Error())
			}
		},
	})
}

// SpanName is "<service>.<operation>".
func SpanName(serviceID, operation string) string {
	b := new(strings.Builder)
	b.WriteString(serviceID)
	if operation != "" {
		b.Grow(len(operation) + 1)
		b.WriteRune('.')
		b.WriteString(operation)
	}
	return b.String()
}
