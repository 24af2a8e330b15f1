// Package config holds the process-wide settings injected into the proxy
// engine at start up. Settings come from the environment, optionally seeded
// from .env files, with secrets optionally materialized from ssm parameter
// store.
package config

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultDialpadBaseURL       = "https://dialpad.com/api/v2"
	DefaultDialpadOAuthURL      = "https://dialpad.com/oauth2"
	DefaultTwilioBaseURL        = "https://api.twilio.com/2010-04-01"
	DefaultSalesforceAPIVersion = "v59.0"
	DefaultDownstreamTimeout    = 25 * time.Second
	DefaultLogLevel             = "info"
)

// ParameterSuffix marks an environment key whose value names an ssm parameter
// holding the real value, e.g. DIALPAD_API_KEY_PARAMETER=/prod/dialpad/key.
const ParameterSuffix = "_PARAMETER"

// SecretKeys may be supplied through ssm using ParameterSuffix.
var SecretKeys = []string{
	"DIALPAD_API_KEY",
	"DIALPAD_CLIENT_SECRET",
	"TWILIO_AUTH_TOKEN",
	"IDENTITY_API_KEY",
}

// Config is immutable after Load.
type Config struct {
	DialpadAPIKey       string
	DialpadClientID     string
	DialpadClientSecret string
	DialpadRedirectURI  string
	DialpadScopes       []string
	DialpadBaseURL      string
	DialpadOAuthURL     string
	DialpadUserID       string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string
	TwilioBaseURL    string

	SalesforceAPIVersion string

	IdentityURL    string
	IdentityAPIKey string

	FileProxyAllowedHosts []string

	DownstreamTimeout time.Duration
	LogLevel          string
	Region            string
}

// Lookup returns the value of a setting or "" when unset.
type Lookup func(key string) string

// ParameterFetcher resolves ssm parameter names to their values.
type ParameterFetcher interface {
	Parameters(ctx context.Context, names ...string) (map[string]string, error)
}

// FromLookup builds a Config from lookup and applies defaults.
func FromLookup(lookup Lookup) (*Config, error) {
	cfg := &Config{
		DialpadAPIKey:         lookup("DIALPAD_API_KEY"),
		DialpadClientID:       lookup("DIALPAD_CLIENT_ID"),
		DialpadClientSecret:   lookup("DIALPAD_CLIENT_SECRET"),
		DialpadRedirectURI:    lookup("DIALPAD_REDIRECT_URI"),
		DialpadScopes:         splitList(lookup("DIALPAD_SCOPES"), " "),
		DialpadBaseURL:        strings.TrimRight(lookup("DIALPAD_BASE_URL"), "/"),
		DialpadOAuthURL:       strings.TrimRight(lookup("DIALPAD_OAUTH_URL"), "/"),
		DialpadUserID:         lookup("DIALPAD_USER_ID"),
		TwilioAccountSID:      lookup("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:       lookup("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:      lookup("TWILIO_FROM_NUMBER"),
		TwilioBaseURL:         strings.TrimRight(lookup("TWILIO_BASE_URL"), "/"),
		SalesforceAPIVersion:  lookup("SALESFORCE_API_VERSION"),
		IdentityURL:           strings.TrimRight(lookup("IDENTITY_URL"), "/"),
		IdentityAPIKey:        lookup("IDENTITY_API_KEY"),
		FileProxyAllowedHosts: splitList(strings.ToLower(lookup("FILE_PROXY_ALLOWED_HOSTS")), ","),
		LogLevel:              lookup("LOG_LEVEL"),
		Region:                lookup("AWS_REGION"),
	}

	if cfg.DialpadBaseURL == "" {
		cfg.DialpadBaseURL = DefaultDialpadBaseURL
	}

	if cfg.DialpadOAuthURL == "" {
		cfg.DialpadOAuthURL = DefaultDialpadOAuthURL
	}

	if cfg.TwilioBaseURL == "" {
		cfg.TwilioBaseURL = DefaultTwilioBaseURL
	}

	if cfg.SalesforceAPIVersion == "" {
		cfg.SalesforceAPIVersion = DefaultSalesforceAPIVersion
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	timeout, err := parseTimeout(lookup("DOWNSTREAM_TIMEOUT"))
	if err != nil {
		return nil, err
	}
	cfg.DownstreamTimeout = timeout

	return cfg, nil
}

// Load reads the given .env files (missing files are skipped, variables
// already in the environment win), resolves any *_PARAMETER secrets through
// fetcher and returns the resulting Config. fetcher may be nil when no
// parameters are referenced.
func Load(ctx context.Context, fetcher ParameterFetcher, files ...string) (*Config, error) {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			continue
		}

		if err := godotenv.Load(file); err != nil {
			return nil, errors.Wrapf(err, "failed loading %s", file)
		}

		log.Debug().Str("file", file).Msg("loaded env file")
	}

	lookup, err := ResolveParameters(ctx, os.Getenv, fetcher)
	if err != nil {
		return nil, err
	}

	return FromLookup(lookup)
}

// ResolveParameters returns a Lookup that answers SecretKeys from ssm when
// the key itself is unset but KEY_PARAMETER names a parameter. All referenced
// parameters are fetched in one pass.
func ResolveParameters(ctx context.Context, lookup Lookup, fetcher ParameterFetcher) (Lookup, error) {
	wanted := map[string]string{}
	names := []string{}

	for _, key := range SecretKeys {
		if lookup(key) != "" {
			continue
		}

		if name := lookup(key + ParameterSuffix); name != "" {
			wanted[key] = name
			names = append(names, name)
		}
	}

	if len(names) == 0 {
		return lookup, nil
	}

	if fetcher == nil {
		return nil, errors.Errorf("ssm parameters referenced but no parameter store available: %v", names)
	}

	values, err := fetcher.Parameters(ctx, names...)
	if err != nil {
		return nil, errors.Wrap(err, "failed resolving secret parameters")
	}

	resolved := make(map[string]string, len(wanted))
	for key, name := range wanted {
		resolved[key] = values[name]
	}

	return func(key string) string {
		if v, ok := resolved[key]; ok {
			return v
		}
		return lookup(key)
	}, nil
}

// HostAllowed reports whether host may be fetched by the file proxy. An empty
// allow list permits any host.
func (cfg *Config) HostAllowed(host string) bool {
	if len(cfg.FileProxyAllowedHosts) == 0 {
		return true
	}

	host = strings.ToLower(host)
	for _, allowed := range cfg.FileProxyAllowedHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return true
		}
	}

	return false
}

// Level returns the log level named by LogLevel, or info when it is unknown.
func (cfg *Config) Level() zerolog.Level {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}

	return level
}

func parseTimeout(value string) (time.Duration, error) {
	if value == "" {
		return DefaultDownstreamTimeout, nil
	}

	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0, errors.Errorf("DOWNSTREAM_TIMEOUT must be positive, got %q", value)
		}
		return time.Duration(seconds) * time.Second, nil
	}

	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid DOWNSTREAM_TIMEOUT %q", value)
	}

	if d <= 0 {
		return 0, errors.Errorf("DOWNSTREAM_TIMEOUT must be positive, got %q", value)
	}

	return d, nil
}

func splitList(value, sep string) []string {
	var out []string

	for _, part := range strings.Split(value, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
