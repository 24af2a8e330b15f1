package lambdautils

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/client"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/ssm"
	"github.com/aws/aws-sdk-go/service/ssm/ssmiface"
	"github.com/pkg/errors"
)

// maxParametersPerCall is the ssm GetParameters batch limit.
const maxParametersPerCall = 10

// ParameterStore reads secrets from ssm parameter store. Parameters are read
// with decryption so SecureString values come back in plain text.
type ParameterStore struct {
	Region string `json:"region"`

	svcFunc func(client.ConfigProvider) ssmiface.SSMAPI
}

// NewParameterStore returns a parameter store for the given region.
func NewParameterStore(region string) *ParameterStore {
	store := new(ParameterStore)
	store.Region = region

	if store.Region == "" {
		store.Region = "us-east-1"
	}

	return store
}

// svc is used internally to assist stubs on ssm for testing
func (store *ParameterStore) svc(p client.ConfigProvider) ssmiface.SSMAPI {
	if store.svcFunc != nil {
		return store.svcFunc(p)
	}

	return ssm.New(p)
}

// Parameter returns the decrypted value of a single parameter.
func (store *ParameterStore) Parameter(ctx context.Context, name string) (string, error) {
	values, err := store.Parameters(ctx, name)
	if err != nil {
		return "", err
	}

	return values[name], nil
}

// Parameters returns the decrypted values of the named parameters keyed by
// name. Any parameter that does not exist fails the whole lookup.
func (store *ParameterStore) Parameters(ctx context.Context, names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))

	if len(names) == 0 {
		return values, nil
	}

	s, err := session.NewSession(&aws.Config{
		Region: aws.String(store.Region),
	})

	if err != nil {
		return nil, errors.Wrap(err, "failed getting session")
	}

	svc := store.svc(s)

	for start := 0; start < len(names); start += maxParametersPerCall {
		end := start + maxParametersPerCall
		if end > len(names) {
			end = len(names)
		}

		output, err := svc.GetParametersWithContext(ctx, &ssm.GetParametersInput{
			Names:          aws.StringSlice(names[start:end]),
			WithDecryption: aws.Bool(true),
		})

		if err != nil {
			if aerr, ok := err.(awserr.Error); ok {
				return nil, errors.Wrapf(err, "failed reading parameters (%s)", aerr.Code())
			}
			return nil, errors.Wrap(err, "failed reading parameters")
		}

		if len(output.InvalidParameters) > 0 {
			return nil, errors.Errorf("parameters not found: %v", aws.StringValueSlice(output.InvalidParameters))
		}

		for _, p := range output.Parameters {
			values[aws.StringValue(p.Name)] = aws.StringValue(p.Value)
		}
	}

	return values, nil
}
