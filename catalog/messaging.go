package catalog

import (
	"context"
	"net/http"
	"net/url"

	"github.com/prognoshealth/integrationproxy/envelope"
	"github.com/prognoshealth/integrationproxy/operation"
	"github.com/rs/zerolog/log"
)

// Messaging returns the Twilio descriptors.
func Messaging() []*operation.Descriptor {
	return []*operation.Descriptor{
		{
			Name:          "messaging.sms.send",
			Route:         "/messaging/sms/send",
			Platform:      operation.Messaging,
			Kind:          operation.Create,
			Auth:          operation.AuthTwilio,
			RequireCaller: true,
			Method:        http.MethodPost,
			Path:          "/Messages.json",
			Required: []operation.Requirement{
				{Field: "to", Message: "Recipient phone number is required"},
				{Field: "body", Message: "Message body is required"},
			},
			Body: func(inv *operation.Invocation) (any, error) {
				from := inv.Payload.String("from")
				if from == "" {
					from = inv.Config.TwilioFromNumber
				}

				if from == "" {
					return nil, operation.Misconfigured("Twilio from number not configured")
				}

				form := url.Values{
					"To":   {inv.Payload.String("to")},
					"From": {from},
					"Body": {inv.Payload.String("body")},
				}

				if callback := inv.Payload.String("statusCallback"); callback != "" {
					form.Set("StatusCallback", callback)
				}

				return form, nil
			},
			Shape: operation.Shape{
				Fields: []operation.Field{
					{From: "sid", To: "sid"},
					{From: "status", To: "status"},
				},
				Success: true,
			},
			FailureMessage: "Failed to send SMS",
		},
		{
			Name:     "messaging.status.callback",
			Route:    "/messaging/status-callback",
			Inbound:  operation.InboundForm,
			Platform: operation.Messaging,
			Kind:     operation.Callback,
			Auth:     operation.AuthNone,
			Required: []operation.Requirement{
				{Field: "MessageSid", Message: "MessageSid is required"},
				{Field: "MessageStatus", Message: "MessageStatus is required"},
			},
			Action: statusCallback,
		},
	}
}

// statusCallback records a delivery status report. Reports are logged only.
func statusCallback(_ context.Context, inv *operation.Invocation) (envelope.Envelope, error) {
	code := inv.Payload.String("ErrorCode")

	event := log.Info()
	if code != "" {
		event = log.Warn().Str("error_code", code)
	}

	event.
		Str("message_sid", inv.Payload.String("MessageSid")).
		Str("message_status", inv.Payload.String("MessageStatus")).
		Msg("sms status callback")

	return envelope.Success(map[string]any{"success": true}), nil
}
