// Package handler reports the account usage of the function service.
//
// Every invocation logs what it was called with (environment, event and
// runtime context), queries the account settings once and returns the usage
// part of the answer. The work is wrapped in a segment span and a nested
// subsegment span sharing one fixed name.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/lambda"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/vectorazul/aws-config/invocation"
	"github.com/vectorazul/aws-config/tracing"
	"github.com/vectorazul/aws-config/types"
)

const DefaultSegmentName = "account-settings"

// ErrNoAccountUsage is returned when the account settings carry no usage.
var ErrNoAccountUsage = errors.New("account settings response has no AccountUsage")

type flusher interface {
	ForceFlush(ctx context.Context) error
}

type Handler struct {
	log      *log.Entry
	settings types.AccountSettingsReader
	tracer   trace.Tracer
	flusher  flusher
	name     string
	redact   []string
	environ  func() []string
}

type Option func(*Handler)

// WithSegmentName names the segment and the subsegment.
func WithSegmentName(name string) Option {
	return func(h *Handler) { h.name = name }
}

// WithRedactKeys sets the key fragments whose values are hidden in the
// environment log line.
func WithRedactKeys(keys []string) Option {
	return func(h *Handler) { h.redact = keys }
}

// WithEnviron replaces os.Environ as the source of the logged environment.
func WithEnviron(environ func() []string) Option {
	return func(h *Handler) { h.environ = environ }
}

// New creates a Handler. When tp can be flushed, it is flushed after every
// invocation so that spans leave the execution environment before it freezes.
func New(log *log.Entry, settings types.AccountSettingsReader, tp trace.TracerProvider, opts ...Option) *Handler {
	h := &Handler{
		log:      log,
		settings: settings,
		tracer:   tp.Tracer(tracing.Scope),
		name:     DefaultSegmentName,
		environ:  os.Environ,
	}
	if f, ok := tp.(flusher); ok {
		h.flusher = f
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Handle serves one invocation. The event is only logged.
func (h *Handler) Handle(ctx context.Context, event json.RawMessage) (usage *lambda.AccountUsage, err error) {
	ic := invocation.FromContext(ctx)
	logger := h.log.WithField("aws_request_id", ic.AwsRequestID)

	ctx = tracing.ContextWithParent(ctx)
	ctx, segment := h.tracer.Start(ctx, h.name,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(segmentAttributes(ic)...))
	defer h.flush(ctx, logger)
	defer func() { end(segment, err) }()

	ctx, subsegment := h.tracer.Start(ctx, h.name)
	defer func() { end(subsegment, err) }()

	if err = h.logInvocation(logger, event, ic); err != nil {
		return nil, err
	}

	out, err := h.settings.AccountSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("get account settings: %w", err)
	}

	if out == nil || out.AccountUsage == nil {
		return nil, ErrNoAccountUsage
	}

	return out.AccountUsage, nil
}

func (h *Handler) logInvocation(logger *log.Entry, event json.RawMessage, ic types.InvocationContext) error {
	env, err := invocation.Encode(invocation.Environment(h.environ(), h.redact))
	if err != nil {
		return fmt.Errorf("encode environment: %w", err)
	}
	logger.Infoln(types.LabelEnvironment, env)

	ev, err := invocation.EncodeEvent(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	logger.Infoln(types.LabelEvent, ev)

	c, err := invocation.Encode(ic)
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}
	logger.Infoln(types.LabelContext, c)

	return nil
}

// Warmup makes one account settings call ahead of the first invocation.
// The outcome is logged; callers are free to ignore the returned error.
func (h *Handler) Warmup(ctx context.Context) error {
	out, err := h.settings.AccountSettings(ctx)
	if err != nil {
		h.log.Warnln("warm-up account settings call failed:", err.Error())
		return err
	}

	if out == nil || out.AccountUsage == nil {
		h.log.Warnln("warm-up account settings call:", ErrNoAccountUsage.Error())
		return ErrNoAccountUsage
	}

	h.log.WithFields(log.Fields{
		"function_count":  aws.Int64Value(out.AccountUsage.FunctionCount),
		"total_code_size": aws.Int64Value(out.AccountUsage.TotalCodeSize),
	}).Infoln("warm-up account settings call succeeded")
	return nil
}

func (h *Handler) flush(ctx context.Context, logger *log.Entry) {
	if h.flusher == nil {
		return
	}

	if err := h.flusher.ForceFlush(ctx); err != nil {
		logger.Warnln("unable to flush spans", err.Error())
	}
}

func segmentAttributes(ic types.InvocationContext) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 2)
	if ic.AwsRequestID != "" {
		attrs = append(attrs, semconv.FaaSInvocationID(ic.AwsRequestID))
	}
	if ic.InvokedFunctionArn != "" {
		attrs = append(attrs, semconv.CloudResourceID(ic.InvokedFunctionArn))
	}
	return attrs
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
