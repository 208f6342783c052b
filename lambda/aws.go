package lambda

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/lambda"
	"github.com/aws/aws-sdk-go/service/lambda/lambdaiface"
	"go.opentelemetry.io/otel/trace"

	"github.com/vectorazul/aws-config/tracing"
)

// FunctionError is returned by Invoke when the function itself failed.
// Payload holds the error document produced by the runtime.
type FunctionError struct {
	Kind    string
	Payload []byte
}

func (e *FunctionError) Error() string {
	return fmt.Sprintf("function error (%s): %s", e.Kind, e.Payload)
}

type AWSLambdaManager struct {
	client lambdaiface.LambdaAPI
}

// NewAWSLambdaManager creates a manager whose requests are traced with tp.
// Requests are sent once; the session's retry settings are overridden.
func NewAWSLambdaManager(session *session.Session, tp trace.TracerProvider) *AWSLambdaManager {
	client := lambda.New(session, aws.NewConfig().WithMaxRetries(0))
	tracing.InstrumentClient(client.Client, tp)

	return NewAWSLambdaManagerWithClient(client)
}

func NewAWSLambdaManagerWithClient(client lambdaiface.LambdaAPI) *AWSLambdaManager {
	return &AWSLambdaManager{
		client: client,
	}
}

// AccountSettings returns the account limits and usage in the session's region.
func (m *AWSLambdaManager) AccountSettings(ctx context.Context) (*lambda.GetAccountSettingsOutput, error) {
	return m.client.GetAccountSettingsWithContext(ctx, &lambda.GetAccountSettingsInput{})
}

// Invoke runs the function synchronously and returns its response payload.
func (m *AWSLambdaManager) Invoke(ctx context.Context, name string, payload interface{}) ([]byte, error) {
	// encode the payload to JSON
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	resp, err := m.client.InvokeWithContext(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(name),
		InvocationType: aws.String(lambda.InvocationTypeRequestResponse),
		Payload:        encoded,
	})

	if err != nil {
		return nil, err
	}

	if resp.FunctionError != nil {
		return nil, &FunctionError{Kind: *(resp.FunctionError), Payload: resp.Payload}
	}

	if code := aws.Int64Value(resp.StatusCode); code != 200 {
		return nil, fmt.Errorf("lambda invocation resulted in status code: %d", code)
	}

	return resp.Payload, nil
}
