package parameters

import (
	"context"
	"errors"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
	"go.opentelemetry.io/otel/trace"

	"github.com/vectorazul/aws-config/tracing"
	"github.com/vectorazul/aws-config/types"
)

// ErrNoParameter is returned when a lookup succeeds without a parameter.
var ErrNoParameter = errors.New("parameter store response has no parameter")

type AWSParameterStore struct {
	client ssmiface.SSMAPI
}

func NewAWSParameterStore(session *session.Session, tp trace.TracerProvider) *AWSParameterStore {
	client := ssm.New(session)
	tracing.InstrumentClient(client.Client, tp)

	return NewAWSParameterStoreWithClient(client)
}

func NewAWSParameterStoreWithClient(client ssmiface.SSMAPI) *AWSParameterStore {
	return &AWSParameterStore{
		client: client,
	}
}

func (store *AWSParameterStore) Get(ctx context.Context, key string) (string, error) {
	resp, err := store.client.GetParameterWithContext(ctx, &ssm.GetParameterInput{
		Name: aws.String(key), WithDecryption: aws.Bool(true)})

	if err != nil {
		return "", err
	}

	if resp == nil || resp.Parameter == nil {
		return "", ErrNoParameter
	}

	return aws.StringValue(resp.Parameter.Value), nil
}

// Project reads the project name and environment published under prefix.
func Project(ctx context.Context, store types.ParameterStore, prefix string) (*types.Project, error) {
	name, err := store.Get(ctx, path.Join(prefix, types.KeyProjectName))
	if err != nil {
		return nil, err
	}

	environment, err := store.Get(ctx, path.Join(prefix, types.KeyEnvironments))
	if err != nil {
		return nil, err
	}

	return &types.Project{Name: name, Environment: environment}, nil
}
