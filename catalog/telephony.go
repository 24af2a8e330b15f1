package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prognoshealth/integrationproxy/envelope"
	"github.com/prognoshealth/integrationproxy/operation"
	"golang.org/x/oauth2"
)

var phoneNumber = operation.Requirement{Field: "phoneNumber", Message: "Phone number is required"}

// Telephony returns the Dialpad descriptors.
func Telephony() []*operation.Descriptor {
	return []*operation.Descriptor{
		{
			Name:          "telephony.call.initiate",
			Route:         "/telephony/calls/initiate",
			Platform:      operation.Telephony,
			Kind:          operation.Create,
			Auth:          operation.AuthDialpadKey,
			RequireCaller: true,
			Method:        http.MethodPost,
			Path:          "/call",
			Required:      []operation.Requirement{phoneNumber},
			Body: func(inv *operation.Invocation) (any, error) {
				user, err := dialpadUser(inv)
				if err != nil {
					return nil, err
				}

				return map[string]any{
					"phone_number": inv.Payload.String("phoneNumber"),
					"user_id":      user,
				}, nil
			},
			Shape: operation.Shape{
				Fields:  []operation.Field{{From: "call_id", To: "callId"}},
				Success: true,
			},
			FailureMessage: "Failed to initiate call",
		},
		{
			Name:          "telephony.sms.send",
			Route:         "/telephony/sms/send",
			Platform:      operation.Telephony,
			Kind:          operation.Create,
			Auth:          operation.AuthDialpadKey,
			RequireCaller: true,
			Method:        http.MethodPost,
			Path:          "/sms",
			Required: []operation.Requirement{
				phoneNumber,
				{Field: "message", Message: "Message text is required"},
			},
			Body: func(inv *operation.Invocation) (any, error) {
				user, err := dialpadUser(inv)
				if err != nil {
					return nil, err
				}

				return map[string]any{
					"to_numbers": []string{inv.Payload.String("phoneNumber")},
					"text":       inv.Payload.String("message"),
					"user_id":    user,
				}, nil
			},
			Shape: operation.Shape{
				Fields: []operation.Field{
					{From: "id", To: "messageId"},
					{From: "message_status", To: "status"},
				},
				Success: true,
			},
			FailureMessage: "Failed to send SMS",
		},
		{
			Name:          "telephony.sms.conversations",
			Route:         "/telephony/sms/conversations",
			Platform:      operation.Telephony,
			Kind:          operation.Query,
			Auth:          operation.AuthDialpadKey,
			RequireCaller: true,
			Method:        http.MethodGet,
			Path:          "/conversations",
			Query: func(inv *operation.Invocation) (url.Values, error) {
				query := url.Values{}

				if user := userID(inv); user != "" {
					query.Set("user_id", user)
				}

				if phone := inv.Payload.String("phoneNumber"); phone != "" {
					query.Set("target_number", phone)
				}

				if cursor := inv.Payload.String("cursor"); cursor != "" {
					query.Set("cursor", cursor)
				}

				if n, err := strconv.Atoi(inv.Payload.String("limit")); err == nil && n > 0 {
					query.Set("limit", strconv.Itoa(n))
				}

				return query, nil
			},
			Shape: operation.Shape{
				Fields: []operation.Field{
					{From: "items", To: "messages", Default: []any{}},
					{From: "cursor", To: "cursor"},
				},
			},
			FailureMessage: "Failed to fetch conversations",
		},
		{
			// The state is returned for the caller to check on the redirect. It
			// is not kept here.
			Name:          "telephony.oauth.authorize",
			Route:         "/telephony/oauth/authorize",
			Platform:      operation.Telephony,
			Kind:          operation.SpecialAction,
			Auth:          operation.AuthDialpadOAuth,
			RequireCaller: true,
			Action:        authorize,
		},
		{
			Name:          "telephony.oauth.exchange",
			Route:         "/telephony/oauth/exchange",
			Platform:      operation.Telephony,
			Kind:          operation.SpecialAction,
			Auth:          operation.AuthDialpadOAuth,
			RequireCaller: true,
			Required: []operation.Requirement{
				{Field: "code", Message: "Authorization code is required"},
			},
			Action:         exchange,
			FailureMessage: "Failed to exchange authorization code",
		},
	}
}

// userID is the Dialpad user acting for the call, from the payload or the
// configured default.
func userID(inv *operation.Invocation) string {
	if user := inv.Payload.String("userId"); user != "" {
		return user
	}

	return inv.Config.DialpadUserID
}

// dialpadUser returns the user id for a request body. Dialpad ids are
// integers too large for float64 so they are sent as json.Number.
func dialpadUser(inv *operation.Invocation) (any, error) {
	user := userID(inv)
	if user == "" {
		return nil, operation.Misconfigured("Dialpad user ID not configured")
	}

	if _, err := strconv.ParseUint(user, 10, 64); err == nil {
		return json.Number(user), nil
	}

	return user, nil
}

func oauthConfig(inv *operation.Invocation, redirectURI string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     inv.Credential.Username,
		ClientSecret: inv.Credential.Token,
		RedirectURL:  redirectURI,
		Scopes:       inv.Config.DialpadScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   inv.Credential.BaseURL + "/authorize",
			TokenURL:  inv.Credential.BaseURL + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func redirectURI(inv *operation.Invocation) (string, error) {
	redirect := inv.Payload.String("redirectUri")
	if redirect == "" {
		redirect = inv.Config.DialpadRedirectURI
	}

	if redirect == "" {
		return "", operation.Misconfigured("Dialpad redirect URI not configured")
	}

	return redirect, nil
}

func authorize(_ context.Context, inv *operation.Invocation) (envelope.Envelope, error) {
	redirect, err := redirectURI(inv)
	if err != nil {
		return envelope.Envelope{}, err
	}

	// state is the anti-forgery token the caller checks on the redirect back.
	state := uuid.NewString()

	return envelope.Success(map[string]any{
		"url":   oauthConfig(inv, redirect).AuthCodeURL(state),
		"state": state,
	}), nil
}

func exchange(ctx context.Context, inv *operation.Invocation) (envelope.Envelope, error) {
	if inv.Credential.Token == "" {
		return envelope.Envelope{}, operation.Misconfigured("Dialpad client secret not configured")
	}

	redirect, err := redirectURI(inv)
	if err != nil {
		return envelope.Envelope{}, err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, inv.Client)

	token, err := oauthConfig(inv, redirect).Exchange(ctx, inv.Payload.String("code"))
	if err != nil {
		var retrieve *oauth2.RetrieveError
		if errors.As(err, &retrieve) && retrieve.Response != nil {
			status := retrieve.Response.StatusCode

			// An error document under a 2xx status is still a failed exchange.
			if status >= 200 && status <= 299 {
				status = http.StatusBadGateway
			}

			return envelope.Envelope{}, &operation.DownstreamError{
				StatusCode: status,
				Body:       retrieve.Body,
			}
		}

		return envelope.Envelope{}, errors.Wrap(err, "dialpad token exchange failed")
	}

	fields := map[string]any{
		"accessToken": token.AccessToken,
		"tokenType":   token.Type(),
		"success":     true,
	}

	if token.RefreshToken != "" {
		fields["refreshToken"] = token.RefreshToken
	}

	if !token.Expiry.IsZero() {
		fields["expiresAt"] = token.Expiry.UTC().Format(time.RFC3339)
	}

	return envelope.Success(fields), nil
}
