// Package invocation captures what a single function invocation sees:
// its process environment, its event and its runtime context.
package invocation

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/vectorazul/aws-config/types"
)

// Environment maps KEY=VALUE pairs (as returned by os.Environ) into a map.
// Values of keys containing any of the redact fragments, compared
// case-insensitively, are replaced.
func Environment(environ []string, redact []string) map[string]string {
	env := make(map[string]string, len(environ))
	for _, kv := range environ {
		key, value, _ := strings.Cut(kv, "=")
		if key == "" {
			continue
		}

		if sensitive(key, redact) {
			value = types.RedactedValue
		}

		env[key] = value
	}

	return env
}

func sensitive(key string, redact []string) bool {
	upper := strings.ToUpper(key)
	for _, fragment := range redact {
		if fragment == "" {
			continue
		}

		if strings.Contains(upper, strings.ToUpper(fragment)) {
			return true
		}
	}

	return false
}

// FromContext collects the invocation metadata the runtime attached to ctx
// together with the function-wide values published by lambdacontext.
func FromContext(ctx context.Context) types.InvocationContext {
	ic := types.InvocationContext{
		FunctionName:    lambdacontext.FunctionName,
		FunctionVersion: lambdacontext.FunctionVersion,
		MemoryLimitInMB: lambdacontext.MemoryLimitInMB,
		LogGroupName:    lambdacontext.LogGroupName,
		LogStreamName:   lambdacontext.LogStreamName,
	}

	if lc, ok := lambdacontext.FromContext(ctx); ok {
		ic.AwsRequestID = lc.AwsRequestID
		ic.InvokedFunctionArn = lc.InvokedFunctionArn
		ic.Identity = lc.Identity
		ic.ClientContext = lc.ClientContext
	}

	if deadline, ok := ctx.Deadline(); ok {
		ic.Deadline = deadline
	}

	return ic
}

// Encode serializes v to a JSON string.
func Encode(v interface{}) (string, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	return string(encoded), nil
}

// EncodeEvent compacts the raw event, or returns "null" for an empty payload.
func EncodeEvent(event json.RawMessage) (string, error) {
	if len(event) == 0 {
		return "null", nil
	}

	var compact bytes.Buffer
	if err := json.Compact(&compact, event); err != nil {
		return "", err
	}

	return compact.String(), nil
}
