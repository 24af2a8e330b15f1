package engine

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/prognoshealth/integrationproxy/envelope"
	"github.com/prognoshealth/integrationproxy/operation"
)

// MaxResponseBytes bounds a downstream body. Lambda responses cannot exceed
// 6MB.
const MaxResponseBytes = 6 << 20

// MaxBinaryBytes bounds a binary downstream body. It is base64 encoded into
// the Lambda response, leaving responseOverhead for headers and framing.
const MaxBinaryBytes = (MaxResponseBytes - responseOverhead) / 4 * 3

const responseOverhead = 16 << 10

// Normalize maps a downstream response onto the envelope declared by d.
func Normalize(d *operation.Descriptor, resp *http.Response) (envelope.Envelope, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseBytes+1))
	if err != nil {
		return envelope.Envelope{}, errors.Wrapf(err, "failed reading %s response", d.Name)
	}

	if len(body) > MaxResponseBytes {
		return envelope.Envelope{}, errors.Errorf("%s response exceeds %d bytes", d.Name, MaxResponseBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return DownstreamFailure(d, resp.StatusCode, body), nil
	}

	if d.Shape.Binary != nil {
		if len(body) > MaxBinaryBytes {
			return envelope.Envelope{}, errors.Errorf("%s response exceeds %d bytes", d.Name, MaxBinaryBytes)
		}

		return envelope.Binary(body, d.Shape.Binary.ContentType, d.Shape.Binary.Disposition), nil
	}

	var doc any
	if len(bytes.TrimSpace(body)) > 0 {
		if doc, err = decodeJSON(body); err != nil {
			return envelope.Envelope{}, errors.Wrapf(err, "failed decoding %s response", d.Name)
		}
	}

	return envelope.Success(Shape(d.Shape, doc)), nil
}

// Shape extracts the declared fields from doc. Missing or null values take
// the field's default.
func Shape(shape operation.Shape, doc any) map[string]any {
	fields := make(map[string]any, len(shape.Fields)+1)

	for _, f := range shape.Fields {
		v, ok := extract(doc, f.From)
		if !ok || v == nil {
			v = f.Default
		}

		fields[f.To] = v
	}

	if _, ok := fields["success"]; shape.Success && !ok {
		fields["success"] = true
	}

	return fields
}

// DownstreamFailure mirrors a non-2xx downstream status. Passthrough
// descriptors return the downstream text as the error; the others return
// their fixed message with the downstream body as details.
func DownstreamFailure(d *operation.Descriptor, status int, body []byte) envelope.Envelope {
	text := strings.TrimSpace(string(body))

	if d.PassthroughError {
		return envelope.Failure(status, text, nil)
	}

	var details any
	if text != "" {
		if doc, err := decodeJSON(body); err == nil {
			details = doc
		} else {
			details = text
		}
	}

	return envelope.Failure(status, d.FailureMessage, details)
}

func extract(doc any, path string) (any, bool) {
	if path == "" {
		return doc, doc != nil
	}

	current := doc
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		if current, ok = m[part]; !ok {
			return nil, false
		}
	}

	return current, true
}

func decodeJSON(b []byte) (any, error) {
	var doc any

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}

	if dec.More() {
		return nil, errors.New("trailing data after json document")
	}

	return doc, nil
}
