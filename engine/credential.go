package engine

import (
	"net/url"
	"strings"

	"github.com/prognoshealth/integrationproxy/config"
	"github.com/prognoshealth/integrationproxy/operation"
)

// Resolve selects the credential for d. Caller credentials come from the
// payload, everything else from cfg. Missing process-held credentials are a
// ConfigurationError and nothing is sent.
func Resolve(d *operation.Descriptor, p *operation.Payload, cfg *config.Config) (operation.Credential, error) {
	switch d.Auth {
	case operation.AuthCaller:
		return operation.Credential{
			Scheme:  operation.SchemeBearer,
			Token:   p.String("token"),
			BaseURL: strings.TrimRight(p.String("instanceUrl"), "/") + "/services/data/" + cfg.SalesforceAPIVersion,
		}, nil

	case operation.AuthDialpadKey:
		if cfg.DialpadAPIKey == "" {
			return operation.Credential{}, operation.Misconfigured("Dialpad API key not configured")
		}

		return operation.Credential{
			Scheme:  operation.SchemeBearer,
			Token:   cfg.DialpadAPIKey,
			BaseURL: cfg.DialpadBaseURL,
		}, nil

	case operation.AuthDialpadOAuth:
		if cfg.DialpadClientID == "" {
			return operation.Credential{}, operation.Misconfigured("Dialpad client ID not configured")
		}

		return operation.Credential{
			Username: cfg.DialpadClientID,
			Token:    cfg.DialpadClientSecret,
			BaseURL:  cfg.DialpadOAuthURL,
		}, nil

	case operation.AuthTwilio:
		if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" {
			return operation.Credential{}, operation.Misconfigured("Twilio credentials not configured")
		}

		return operation.Credential{
			Scheme:   operation.SchemeBasic,
			Username: cfg.TwilioAccountSID,
			Token:    cfg.TwilioAuthToken,
			BaseURL:  cfg.TwilioBaseURL + "/Accounts/" + url.PathEscape(cfg.TwilioAccountSID),
		}, nil
	}

	return operation.Credential{}, nil
}
