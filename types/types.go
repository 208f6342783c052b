package types

import (
	"context"
	"time"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/aws-sdk-go/service/lambda"
)

const (
	LabelEnvironment = "## ENVIRONMENT VARIABLES"
	LabelEvent       = "## EVENT"
	LabelContext     = "## CONTEXT"

	RedactedValue = "********"

	KeyProjectName  = "ProjectName"
	KeyEnvironments = "environments"
)

// AccountSettingsReader provides read access to the account level
// limits and usage of the function service.
type AccountSettingsReader interface {
	AccountSettings(ctx context.Context) (*lambda.GetAccountSettingsOutput, error)
}

// FunctionInvoker runs a deployed function and returns its response payload.
type FunctionInvoker interface {
	Invoke(ctx context.Context, name string, payload interface{}) ([]byte, error)
}

// ParameterStore accesses (possibly encrypted) configuration parameters.
type ParameterStore interface {
	Get(ctx context.Context, key string) (string, error)
}

// Project identifies the deployment the function belongs to.
type Project struct {
	Name        string `json:"name"`
	Environment string `json:"environment"`
}

// InvocationContext is the runtime metadata of a single invocation,
// as it is written to the log.
type InvocationContext struct {
	AwsRequestID       string                        `json:"aws_request_id"`
	InvokedFunctionArn string                        `json:"invoked_function_arn"`
	FunctionName       string                        `json:"function_name"`
	FunctionVersion    string                        `json:"function_version"`
	MemoryLimitInMB    int                           `json:"memory_limit_in_mb"`
	LogGroupName       string                        `json:"log_group_name"`
	LogStreamName      string                        `json:"log_stream_name"`
	Deadline           time.Time                     `json:"deadline,omitempty"`
	Identity           lambdacontext.CognitoIdentity `json:"identity"`
	ClientContext      lambdacontext.ClientContext   `json:"client_context"`
}
