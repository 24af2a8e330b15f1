package catalog

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessaging_send(t *testing.T) {
	server, last := capture(http.StatusCreated, `{"sid": "SM123", "status": "queued", "body": "hi"}`)
	defer server.Close()

	cfg := fullConfig(server.URL)
	cfg.TwilioFromNumber = "+15550100009"

	router := newRouter(t, cfg, server.Client())

	status, body := route(t, router, "/messaging/sms/send",
		`{"to": "+15550100001", "body": "hi & bye", "statusCallback": "https://hooks.example.com/messaging/status-callback"}`)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"sid": "SM123", "status": "queued", "success": true}, body)
	assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", last.path)
	assert.Equal(t, "application/x-www-form-urlencoded", last.header.Get("Content-Type"))
	assert.Equal(t, "Basic QUMxMjM6dHctdG9rZW4=", last.header.Get("Authorization"))

	form, err := url.ParseQuery(last.body)
	assert.NoError(t, err)
	assert.Equal(t, url.Values{
		"To":             {"+15550100001"},
		"From":           {"+15550100009"},
		"Body":           {"hi & bye"},
		"StatusCallback": {"https://hooks.example.com/messaging/status-callback"},
	}, form)
}

func TestMessaging_sendWithoutFrom(t *testing.T) {
	router := newRouter(t, fullConfig("https://twilio.test"), offlineClient(t))

	status, body := route(t, router, "/messaging/sms/send", `{"to": "+15550100001", "body": "hi"}`)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, map[string]any{"error": "Twilio from number not configured"}, body)
}

func TestMessaging_sendFailure(t *testing.T) {
	server, _ := capture(http.StatusBadRequest, `{"code": 21211, "message": "The 'To' number is not a valid phone number.", "status": 400}`)
	defer server.Close()

	router := newRouter(t, fullConfig(server.URL), server.Client())

	status, body := route(t, router, "/messaging/sms/send", `{"to": "+1", "body": "hi", "from": "+15550100009"}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Failed to send SMS", body["error"])
	assert.Equal(t, float64(21211), body["details"].(map[string]any)["code"])
}
