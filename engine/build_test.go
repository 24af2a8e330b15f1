package engine

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/prognoshealth/integrationproxy/operation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invocation(d *operation.Descriptor, p *operation.Payload, credential operation.Credential) *operation.Invocation {
	return &operation.Invocation{
		Descriptor: d,
		Payload:    p,
		Credential: credential,
		Config:     testConfig(),
	}
}

func TestBuild_json(t *testing.T) {
	inv := invocation(crmCreate(), payload(t, `{"objectType": "Invoice__c", "data": {"Name": "Acme", "Amount": 12.5}}`),
		operation.Credential{Scheme: operation.SchemeBearer, Token: "t", BaseURL: "https://x/services/data/v59.0"})

	req, err := Build(context.Background(), inv)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "https://x/services/data/v59.0/sobjects/Invoice__c", req.URL.String())
	assert.Equal(t, "Bearer t", req.Header.Get("Authorization"))
	assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
	assert.Equal(t, "application/json", req.Header.Get("Accept"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Name": "Acme", "Amount": 12.5}`, string(body))
}

func TestBuild_form(t *testing.T) {
	d := &operation.Descriptor{
		Name:   "test.form",
		Method: http.MethodPost,
		Path:   "/Messages.json",
		Body: func(inv *operation.Invocation) (any, error) {
			return url.Values{"To": {inv.Payload.String("to")}, "Body": {"a&b"}}, nil
		},
	}

	inv := invocation(d, payload(t, `{"to": "+15550100001"}`),
		operation.Credential{Scheme: operation.SchemeBasic, Username: "AC1", Token: "secret", BaseURL: "https://api.test/Accounts/AC1"})

	req, err := Build(context.Background(), inv)
	require.NoError(t, err)

	assert.Equal(t, "https://api.test/Accounts/AC1/Messages.json", req.URL.String())
	assert.Equal(t, "application/x-www-form-urlencoded", req.Header.Get("Content-Type"))
	assert.Equal(t, "Basic QUMxOnNlY3JldA==", req.Header.Get("Authorization"))

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	assert.Equal(t, "Body=a%26b&To=%2B15550100001", string(body))
}

func TestBuild_queryWithoutBody(t *testing.T) {
	d := &operation.Descriptor{
		Name:   "test.query",
		Method: http.MethodGet,
		Path:   "/query",
		Query: func(inv *operation.Invocation) (url.Values, error) {
			return url.Values{"q": {inv.Payload.String("query")}}, nil
		},
	}

	inv := invocation(d, payload(t, `{"query": "SELECT Id FROM Account WHERE Name = 'A&B'"}`),
		operation.Credential{Scheme: operation.SchemeBearer, Token: "t", BaseURL: "https://x/services/data/v59.0"})

	req, err := Build(context.Background(), inv)
	require.NoError(t, err)

	assert.Nil(t, req.Body)
	assert.Empty(t, req.Header.Get("Content-Type"))
	assert.Equal(t, "/services/data/v59.0/query", req.URL.Path)
	assert.Equal(t, "SELECT Id FROM Account WHERE Name = 'A&B'", req.URL.Query().Get("q"))
	assert.Equal(t, "q=SELECT+Id+FROM+Account+WHERE+Name+%3D+%27A%26B%27", req.URL.RawQuery)
}

func TestBuild_target(t *testing.T) {
	d := &operation.Descriptor{
		Name:   "test.target",
		Method: http.MethodGet,
		Target: func(inv *operation.Invocation) (string, error) {
			return inv.Payload.String("url"), nil
		},
		Shape: operation.Shape{Binary: &operation.BinaryShape{ContentType: "application/pdf"}},
	}

	req, err := Build(context.Background(), invocation(d, payload(t, `{"url": "https://files.example.com/a.pdf"}`), operation.Credential{}))
	require.NoError(t, err)

	assert.Equal(t, "https://files.example.com/a.pdf", req.URL.String())
	assert.Empty(t, req.Header.Get("Authorization"))
	assert.Empty(t, req.Header.Get("Accept"))
}

func TestExpandPath(t *testing.T) {
	path, err := ExpandPath("/sobjects/{objectType}/{recordId}", payload(t, `{"objectType": "Account", "recordId": "a/b c"}`))
	require.NoError(t, err)
	assert.Equal(t, "/sobjects/Account/a%2Fb%20c", path)

	_, err = ExpandPath("/sobjects/{objectType}/{recordId}", payload(t, `{"objectType": "Account"}`))
	assert.EqualError(t, err, "recordId is required")

	path, err = ExpandPath("/query", operation.NewPayload(nil))
	require.NoError(t, err)
	assert.Equal(t, "/query", path)
}
