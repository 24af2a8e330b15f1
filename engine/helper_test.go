package engine

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/prognoshealth/integrationproxy/config"
	"github.com/prognoshealth/integrationproxy/identity"
	"github.com/prognoshealth/integrationproxy/operation"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	cfg, _ := config.FromLookup(func(string) string { return "" })
	return cfg
}

// failingTransport fails the test on any downstream call.
type failingTransport struct {
	t *testing.T
}

func (transport failingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	transport.t.Errorf("unexpected downstream call %s %s", req.Method, req.URL)
	return nil, errors.New("network disabled")
}

func offlineClient(t *testing.T) *http.Client {
	return &http.Client{Transport: failingTransport{t: t}}
}

type brokenTransport struct{}

func (brokenTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) Verify(ctx context.Context, authorization string) (*identity.Caller, error) {
	args := m.Called(ctx, authorization)
	caller, _ := args.Get(0).(*identity.Caller)
	return caller, args.Error(1)
}

func payload(t *testing.T, s string) *operation.Payload {
	values := map[string]any{}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&values))
	return operation.NewPayload(values)
}

// crmCreate is a minimal caller authenticated descriptor.
func crmCreate() *operation.Descriptor {
	return &operation.Descriptor{
		Name:     "test.create",
		Platform: operation.CRM,
		Kind:     operation.Create,
		Auth:     operation.AuthCaller,
		Method:   http.MethodPost,
		Path:     "/sobjects/{objectType}",
		Required: []operation.Requirement{
			{Field: "objectType", Message: "Object type is required", Format: FormatAPIName, Invalid: "Invalid object type"},
			{Field: "data.Name", Message: "Name is required"},
		},
		Body: func(inv *operation.Invocation) (any, error) {
			return inv.Payload.Object("data"), nil
		},
		Shape: operation.Shape{
			Fields: []operation.Field{
				{From: "id", To: "id"},
				{From: "success", To: "success", Default: true},
			},
		},
		PassthroughError: true,
	}
}
