// Package catalog is the table of operation descriptors served by the proxy
// and their registration on the router.
package catalog

import (
	"context"
	"net/http"
	"regexp"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
	"github.com/prognoshealth/integrationproxy/engine"
	"github.com/prognoshealth/integrationproxy/envelope"
	"github.com/prognoshealth/integrationproxy/operation"
	"github.com/prognoshealth/integrationproxy/proxy"
	"github.com/rs/zerolog/log"
)

// All returns every descriptor. Each call builds a fresh table.
func All() []*operation.Descriptor {
	var all []*operation.Descriptor

	all = append(all, CRM()...)
	all = append(all, Telephony()...)
	all = append(all, Messaging()...)
	all = append(all, Files()...)

	return all
}

// Register adds a route for every descriptor and inbound method, the cors
// preflight on any path and the not found and error handlers.
func Register(router *proxy.Router, eng *engine.Engine, descriptors ...*operation.Descriptor) {
	if len(descriptors) == 0 {
		descriptors = All()
	}

	seen := map[string]bool{}

	for _, d := range descriptors {
		if seen[d.Name] {
			router.AddBuildError(errors.Errorf("duplicate operation %s", d.Name))
			continue
		}
		seen[d.Name] = true

		for _, name := range d.InboundMethods() {
			method, err := proxy.ParseHttpMethod(name)
			if err != nil {
				router.AddBuildError(errors.Wrapf(err, "operation %s", d.Name))
				continue
			}

			router.Handle(method, regexp.QuoteMeta(d.Route), eng.Handler(d))
		}
	}

	router.OPTIONS(".*", func(*proxy.RouteContext) (events.APIGatewayProxyResponse, error) {
		return envelope.Preflight(), nil
	})

	router.AddCatchAllHandler(func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayProxyResponse, error) {
		return envelope.Failure(http.StatusNotFound, "Not found", nil).Response()
	})

	router.AddErrorHandler(func(_ context.Context, request events.APIGatewayV2HTTPRequest, err error) (events.APIGatewayProxyResponse, error) {
		if errors.Cause(err) == proxy.ErrMalformedForm {
			log.Warn().
				Err(err).
				Str("request_id", request.RequestContext.RequestID).
				Str("path", request.RawPath).
				Msg("malformed form body")

			return envelope.Failure(http.StatusBadRequest, "Invalid form body", nil).Response()
		}

		log.Error().
			Err(err).
			Str("request_id", request.RequestContext.RequestID).
			Str("method", request.RequestContext.HTTP.Method).
			Str("path", request.RawPath).
			Msg("request failed")

		return envelope.Failure(http.StatusInternalServerError, "Internal server error", nil).Response()
	})
}

// NewRouter returns a router serving every descriptor through eng.
func NewRouter(eng *engine.Engine) (*proxy.Router, error) {
	router := &proxy.Router{}
	Register(router, eng)

	if !router.Valid() {
		return nil, router.BuildErrors()
	}

	return router, nil
}
