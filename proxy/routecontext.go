package proxy

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
)

// RouteContext contains all the request information for a route when matched.
type RouteContext struct {
	Context context.Context
	Request events.APIGatewayV2HTTPRequest
	Params  map[string]string
}

// Body returns a string representation of the request body
func (ctx *RouteContext) Body() (string, error) {
	return decodeBody(ctx.Request)
}

// Header returns the named request header. Header names are matched case
// insensitively since api gateway v2 lower cases them.
func (ctx *RouteContext) Header(name string) string {
	return header(ctx.Request.Headers, name)
}

// Method returns the http method of the request.
func (ctx *RouteContext) Method() string {
	return ctx.Request.RequestContext.HTTP.Method
}

// RequestID returns the api gateway request id.
func (ctx *RouteContext) RequestID() string {
	return ctx.Request.RequestContext.RequestID
}

func decodeBody(request events.APIGatewayV2HTTPRequest) (string, error) {
	if request.IsBase64Encoded {
		b, err := base64.StdEncoding.DecodeString(request.Body)
		if err != nil {
			return "", errors.Wrapf(err, "unable to decode request body for request %v", request.RequestContext.RequestID)
		}

		return string(b), nil
	}

	return request.Body, nil
}

func header(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}

	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}

	return ""
}
