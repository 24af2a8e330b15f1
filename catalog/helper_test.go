package catalog

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
	"github.com/prognoshealth/integrationproxy/config"
	"github.com/prognoshealth/integrationproxy/engine"
	"github.com/prognoshealth/integrationproxy/operation"
	"github.com/prognoshealth/integrationproxy/proxy"
	"github.com/stretchr/testify/require"
)

// samples holds a complete payload for every descriptor. Caller credentials
// and file urls are added by samplePayload.
var samples = map[string]string{
	"crm.account.create":          `{"data": {"Name": "Acme"}}`,
	"crm.contact.create":          `{"data": {"LastName": "Lovelace", "FirstName": "Ada"}}`,
	"crm.task.create":             `{"data": {"Subject": "Call back", "Priority": "High", "Ignored": "x"}}`,
	"crm.record.create":           `{"objectType": "Invoice__c", "data": {"Amount__c": 10}}`,
	"crm.record.get":              `{"objectType": "Account", "recordId": "001000000000001AAA", "fields": ["Name", "Phone"]}`,
	"crm.record.update":           `{"objectType": "Account", "recordId": "001000000000001AAA", "data": {"Phone": "555"}}`,
	"crm.record.delete":           `{"objectType": "Account", "recordId": "001000000000001AAA"}`,
	"crm.file.delete":             `{"documentId": "069000000000001AAA"}`,
	"crm.accounts.list":           `{"ownerId": "005000000000001AAA"}`,
	"crm.opportunities.list":      `{"ownerId": "005000000000001AAA", "limit": 10}`,
	"crm.tasks.list":              `{"ownerId": "005000000000001AAA", "includeClosed": true}`,
	"crm.contacts.search":         `{"searchTerm": "O'Brien", "accountId": "001000000000001AAA"}`,
	"crm.query":                   `{"query": "SELECT Id FROM Account"}`,
	"telephony.call.initiate":     `{"phoneNumber": "+15550100001", "userId": 5629499534213120}`,
	"telephony.sms.send":          `{"phoneNumber": "+15550100001", "message": "hi", "userId": "5629499534213120"}`,
	"telephony.sms.conversations": `{"phoneNumber": "+15550100001", "limit": 20}`,
	"telephony.oauth.authorize":   `{"redirectUri": "https://app.example.com/callback"}`,
	"telephony.oauth.exchange":    `{"code": "abc", "redirectUri": "https://app.example.com/callback"}`,
	"messaging.sms.send":          `{"to": "+15550100001", "body": "hi", "from": "+15550100002"}`,
	"messaging.status.callback":   `{"MessageSid": "SM1", "MessageStatus": "delivered"}`,
	"files.proxy":                 `{}`,
}

func decode(t *testing.T, s string) map[string]any {
	values := map[string]any{}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&values))
	return values
}

func samplePayload(t *testing.T, d *operation.Descriptor, base string) map[string]any {
	sample, ok := samples[d.Name]
	require.True(t, ok, "no sample for %s", d.Name)

	values := decode(t, sample)

	switch {
	case d.Auth == operation.AuthCaller:
		values["token"] = "t"
		values["instanceUrl"] = base
	case d.Platform == operation.Files:
		values["url"] = base + "/docs/a.pdf"
	}

	return values
}

// remove deletes a dot separated path from values.
func remove(values map[string]any, path string) {
	parts := strings.Split(path, ".")
	current := values

	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			return
		}
		current = next
	}

	delete(current, parts[len(parts)-1])
}

func emptyConfig() *config.Config {
	cfg, _ := config.FromLookup(func(string) string { return "" })
	return cfg
}

// fullConfig points every process-held platform at base.
func fullConfig(base string) *config.Config {
	cfg := emptyConfig()
	cfg.DialpadAPIKey = "dp-key"
	cfg.DialpadClientID = "dp-client"
	cfg.DialpadClientSecret = "dp-secret"
	cfg.DialpadBaseURL = base + "/api/v2"
	cfg.DialpadOAuthURL = base + "/oauth2"
	cfg.TwilioAccountSID = "AC123"
	cfg.TwilioAuthToken = "tw-token"
	cfg.TwilioBaseURL = base + "/2010-04-01"
	return cfg
}

// downstream answers every platform with an empty success.
func downstream() *httptest.Server {
	return httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/token"):
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"access_token": "at", "token_type": "Bearer", "refresh_token": "rt", "expires_in": 3600}`))
		case strings.HasSuffix(r.URL.Path, ".pdf"):
			w.Write([]byte("%PDF-1.4"))
		case r.Method == http.MethodDelete || r.Method == http.MethodPatch:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.Write([]byte(`{}`))
		}
	}))
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

func newRouter(t *testing.T, cfg *config.Config, client *http.Client) *proxy.Router {
	router := &proxy.Router{}
	Register(router, engine.New(cfg, engine.WithHTTPClient(client)))
	require.True(t, router.Valid())
	return router
}

func request(method, path, body string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath: path,
		Body:    body,
		Headers: map[string]string{"content-type": "application/json"},
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RequestID: "req-1",
			HTTP:      events.APIGatewayV2HTTPRequestContextHTTPDescription{Method: method},
		},
	}
}

func responseBody(t *testing.T, response events.APIGatewayProxyResponse) map[string]any {
	body := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(response.Body), &body), response.Body)
	return body
}
