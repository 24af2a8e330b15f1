package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"regexp"

	"github.com/pkg/errors"
	"github.com/prognoshealth/integrationproxy/operation"
)

var placeholder = regexp.MustCompile(`\{([A-Za-z0-9_.]+)\}`)

// Build constructs the single outbound request for inv.
func Build(ctx context.Context, inv *operation.Invocation) (*http.Request, error) {
	d := inv.Descriptor

	target, err := targetURL(inv)
	if err != nil {
		return nil, err
	}

	if d.Query != nil {
		query, err := d.Query(inv)
		if err != nil {
			return nil, err
		}

		if len(query) > 0 {
			target += "?" + query.Encode()
		}
	}

	var body io.Reader
	contentType := ""

	if d.Body != nil {
		value, err := d.Body(inv)
		if err != nil {
			return nil, err
		}

		switch v := value.(type) {
		case nil:
		case url.Values:
			body = bytes.NewBufferString(v.Encode())
			contentType = "application/x-www-form-urlencoded"
		default:
			b, err := json.Marshal(v)
			if err != nil {
				return nil, errors.Wrapf(err, "failed encoding %s request body", d.Name)
			}
			body = bytes.NewReader(b)
			contentType = "application/json"
		}
	}

	method := d.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed building %s request", d.Name)
	}

	if auth := inv.Credential.Authorization(); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if d.Shape.Binary == nil {
		req.Header.Set("Accept", "application/json")
	}

	return req, nil
}

func targetURL(inv *operation.Invocation) (string, error) {
	if inv.Descriptor.Target != nil {
		return inv.Descriptor.Target(inv)
	}

	path, err := ExpandPath(inv.Descriptor.Path, inv.Payload)
	if err != nil {
		return "", err
	}

	return inv.Credential.BaseURL + path, nil
}

// ExpandPath replaces each {field} in template with the path escaped payload
// value. An empty value is a ValidationError.
func ExpandPath(template string, p *operation.Payload) (string, error) {
	var missing error

	path := placeholder.ReplaceAllStringFunc(template, func(match string) string {
		field := placeholder.FindStringSubmatch(match)[1]

		value := p.String(field)
		if value == "" && missing == nil {
			missing = operation.Invalid(field + " is required")
		}

		return url.PathEscape(value)
	})

	if missing != nil {
		return "", missing
	}

	return path, nil
}
