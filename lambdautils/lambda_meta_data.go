package lambdautils

import (
	"context"

	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/rs/zerolog"
)

// LambdaMetaData stored details about the current lambda context.
type LambdaMetaData struct {
	FunctionName    string
	FunctionVersion string
	LogGroupName    string
	LogStreamName   string
	MemoryLimitInMB int
	Context         *lambdacontext.LambdaContext
}

// GetLambdaMetaData returns MetaData extracted from the current lambda context.
func GetLambdaMetaData(ctx context.Context) LambdaMetaData {
	lm := LambdaMetaData{
		FunctionName:    lambdacontext.FunctionName,
		FunctionVersion: lambdacontext.FunctionVersion,
		LogGroupName:    lambdacontext.LogGroupName,
		LogStreamName:   lambdacontext.LogStreamName,
		MemoryLimitInMB: lambdacontext.MemoryLimitInMB,
	}

	lm.Context, _ = lambdacontext.FromContext(ctx)
	return lm
}

// Logger returns base enriched with the function name, version and, when
// running inside lambda, the invocation's aws request id. Outside lambda the
// fields are omitted.
func (lm LambdaMetaData) Logger(base zerolog.Logger) zerolog.Logger {
	c := base.With()

	if lm.FunctionName != "" {
		c = c.Str("function", lm.FunctionName).Str("version", lm.FunctionVersion)
	}

	if lm.Context != nil && lm.Context.AwsRequestID != "" {
		c = c.Str("aws_request_id", lm.Context.AwsRequestID)
	}

	return c.Logger()
}
