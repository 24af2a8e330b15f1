package engine

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
	"github.com/prognoshealth/integrationproxy/envelope"
	"github.com/prognoshealth/integrationproxy/operation"
	"github.com/prognoshealth/integrationproxy/proxy"
	"github.com/rs/zerolog/log"
)

// Handler returns a route handler running d.
func (engine *Engine) Handler(d *operation.Descriptor) proxy.RouteHandler {
	return func(rctx *proxy.RouteContext) (events.APIGatewayProxyResponse, error) {
		return engine.Handle(rctx, d)
	}
}

// Handle decodes the routed request into a payload, invokes d and converts
// the envelope into the api gateway response.
func (engine *Engine) Handle(rctx *proxy.RouteContext, d *operation.Descriptor) (events.APIGatewayProxyResponse, error) {
	payload, err := DecodePayload(rctx, d.Inbound)
	if err != nil {
		log.Warn().
			Err(err).
			Str("request_id", rctx.RequestID()).
			Str("operation", d.Name).
			Msg("rejected request body")

		return envelope.Failure(http.StatusBadRequest, "Invalid JSON body", nil).Response()
	}

	result := engine.Invoke(rctx.Context, Request{
		Descriptor:    d,
		Payload:       payload,
		Authorization: rctx.Header("Authorization"),
		RequestID:     rctx.RequestID(),
	})

	return result.Response()
}

// DecodePayload builds the payload of a routed request. JSON bodies must be
// an object; route params fill keys the body does not set. Form posts were
// already merged into the route params.
func DecodePayload(rctx *proxy.RouteContext, inbound operation.Inbound) (*operation.Payload, error) {
	values := map[string]any{}

	if inbound == operation.InboundJSON {
		body, err := rctx.Body()
		if err != nil {
			return nil, err
		}

		if strings.TrimSpace(body) != "" {
			dec := json.NewDecoder(strings.NewReader(body))
			dec.UseNumber()

			if err := dec.Decode(&values); err != nil {
				return nil, errors.Wrap(err, "failed decoding json body")
			}
		}

		if values == nil {
			values = map[string]any{}
		}
	}

	for k, v := range rctx.Params {
		if _, ok := values[k]; !ok {
			values[k] = v
		}
	}

	return operation.NewPayload(values), nil
}
