// Package identity verifies the caller of an operation against the external
// session service before any process-held credential is used on its behalf.
package identity

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// ErrUnauthorized is the cause of every verification failure attributable to
// the caller's token.
var ErrUnauthorized = errors.New("unauthorized")

// Caller is the authenticated user behind a request.
type Caller struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Verifier checks the inbound Authorization header.
type Verifier interface {
	Verify(ctx context.Context, authorization string) (*Caller, error)
}

// HTTPVerifier asks the session service who owns a bearer token by calling
// {BaseURL}/auth/v1/user.
type HTTPVerifier struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewHTTPVerifier returns a verifier for the session service at baseURL.
func NewHTTPVerifier(baseURL, apiKey string, client *http.Client) *HTTPVerifier {
	if client == nil {
		client = http.DefaultClient
	}

	return &HTTPVerifier{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		Client:  client,
	}
}

// BearerToken extracts the token from an "Authorization: Bearer" value.
func BearerToken(authorization string) string {
	const prefix = "bearer "

	if len(authorization) < len(prefix) || !strings.EqualFold(authorization[:len(prefix)], prefix) {
		return ""
	}

	return strings.TrimSpace(authorization[len(prefix):])
}

// Verify returns the caller owning the bearer token in authorization.
func (verifier *HTTPVerifier) Verify(ctx context.Context, authorization string) (*Caller, error) {
	token := BearerToken(authorization)
	if token == "" {
		return nil, errors.Wrap(ErrUnauthorized, "missing bearer token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, verifier.BaseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed building identity request")
	}

	req.Header.Set("Authorization", "Bearer "+token)
	if verifier.APIKey != "" {
		req.Header.Set("apikey", verifier.APIKey)
	}

	resp, err := verifier.Client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "identity request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, errors.Wrapf(ErrUnauthorized, "identity service returned %d", resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, errors.Errorf("identity service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	caller := new(Caller)
	if err := json.NewDecoder(resp.Body).Decode(caller); err != nil {
		return nil, errors.Wrap(err, "failed decoding identity response")
	}

	if caller.ID == "" {
		return nil, errors.Wrap(ErrUnauthorized, "identity service returned no user")
	}

	return caller, nil
}
