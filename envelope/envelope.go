// Package envelope holds the normalized response returned by every
// integration operation and its conversion into an api gateway response.
package envelope

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
)

// Kind discriminates the variants of an Envelope.
type Kind int

const (
	KindSuccess Kind = iota
	KindFailure
	KindBinary
)

// Envelope is the outcome of one operation. Success carries the shaped
// fields, Failure an error message with optional downstream details, and
// Binary raw content passed through from the downstream.
type Envelope struct {
	Kind       Kind
	StatusCode int

	Fields map[string]any

	Error   string
	Details any

	Content     []byte
	ContentType string
	Disposition string
}

// Success returns a 200 envelope carrying fields.
func Success(fields map[string]any) Envelope {
	if fields == nil {
		fields = map[string]any{}
	}

	return Envelope{Kind: KindSuccess, StatusCode: http.StatusOK, Fields: fields}
}

// Failure returns a failure envelope. A zero status becomes 500 and an empty
// message is replaced so the error field is always populated.
func Failure(status int, message string, details any) Envelope {
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if message == "" {
		message = http.StatusText(status)
	}

	return Envelope{Kind: KindFailure, StatusCode: status, Error: message, Details: details}
}

// Binary returns a 200 envelope carrying raw content.
func Binary(content []byte, contentType, disposition string) Envelope {
	return Envelope{
		Kind:        KindBinary,
		StatusCode:  http.StatusOK,
		Content:     content,
		ContentType: contentType,
		Disposition: disposition,
	}
}

// IsSuccess reports whether the envelope is a success or binary variant.
func (e Envelope) IsSuccess() bool {
	return e.Kind != KindFailure
}

// Payload returns the JSON document the caller receives. It is nil for the
// binary variant.
func (e Envelope) Payload() map[string]any {
	switch e.Kind {
	case KindSuccess:
		return e.Fields
	case KindFailure:
		payload := map[string]any{"error": e.Error}
		if e.Details != nil {
			payload["details"] = e.Details
		}
		return payload
	}

	return nil
}

// Response converts the envelope into an api gateway proxy response with the
// cors headers attached.
func (e Envelope) Response() (events.APIGatewayProxyResponse, error) {
	headers := CORSHeaders()

	if e.Kind == KindBinary {
		headers["Content-Type"] = e.ContentType
		if e.Disposition != "" {
			headers["Content-Disposition"] = e.Disposition
		}

		return events.APIGatewayProxyResponse{
			StatusCode:      e.StatusCode,
			Headers:         headers,
			Body:            base64.StdEncoding.EncodeToString(e.Content),
			IsBase64Encoded: true,
		}, nil
	}

	b, err := json.Marshal(e.Payload())
	if err != nil {
		return events.APIGatewayProxyResponse{}, errors.Wrap(err, "failed marshalling envelope")
	}

	headers["Content-Type"] = "application/json"

	return events.APIGatewayProxyResponse{
		StatusCode: e.StatusCode,
		Headers:    headers,
		Body:       string(b),
	}, nil
}
