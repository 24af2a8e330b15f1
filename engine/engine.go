// Package engine runs an operation descriptor as a single authenticated
// downstream call: validate the payload, verify the caller, resolve the
// credential, build the request, call once and normalize the response.
package engine

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/prognoshealth/integrationproxy/config"
	"github.com/prognoshealth/integrationproxy/envelope"
	"github.com/prognoshealth/integrationproxy/identity"
	"github.com/prognoshealth/integrationproxy/lambdautils"
	"github.com/prognoshealth/integrationproxy/operation"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Engine is safe for concurrent use. It holds only the injected config, the
// http client and the caller verifier.
type Engine struct {
	config   *config.Config
	client   *http.Client
	verifier identity.Verifier

	verifierSet bool
}

// Option customizes an Engine.
type Option func(*Engine)

// WithHTTPClient replaces the downstream http client.
func WithHTTPClient(client *http.Client) Option {
	return func(engine *Engine) {
		engine.client = client
	}
}

// WithVerifier replaces the caller verifier. A nil verifier disables caller
// verification.
func WithVerifier(verifier identity.Verifier) Option {
	return func(engine *Engine) {
		engine.verifier = verifier
		engine.verifierSet = true
	}
}

// New returns an engine for cfg. Unless overridden the client times out after
// cfg.DownstreamTimeout and callers are verified against cfg.IdentityURL when
// it is set.
func New(cfg *config.Config, opts ...Option) *Engine {
	engine := &Engine{
		config: cfg,
		client: &http.Client{Timeout: cfg.DownstreamTimeout},
	}

	for _, opt := range opts {
		opt(engine)
	}

	if !engine.verifierSet && cfg.IdentityURL != "" {
		engine.verifier = identity.NewHTTPVerifier(cfg.IdentityURL, cfg.IdentityAPIKey, engine.client)
	}

	return engine
}

// Config returns the injected configuration.
func (engine *Engine) Config() *config.Config {
	return engine.config
}

// Request is one inbound invocation of a descriptor.
type Request struct {
	Descriptor    *operation.Descriptor
	Payload       *operation.Payload
	Authorization string
	RequestID     string
}

// Invoke runs the request to completion. It never returns an error: every
// failure, including a panic, ends as a failure envelope.
func (engine *Engine) Invoke(ctx context.Context, request Request) (result envelope.Envelope) {
	start := time.Now()
	d := request.Descriptor

	inv := &operation.Invocation{
		Descriptor: d,
		Payload:    request.Payload,
		Config:     engine.config,
	}
	inv.Client = engine.clientFor(inv)

	if inv.Payload == nil {
		inv.Payload = operation.NewPayload(nil)
	}

	downstream := 0

	defer func() {
		if r := recover(); r != nil {
			result = envelope.Failure(http.StatusInternalServerError, fmt.Sprint(r), nil)
		}

		engine.logCompletion(ctx, request, downstream, result, time.Since(start))
	}()

	result, downstream = engine.run(ctx, inv, request.Authorization)
	return result
}

func (engine *Engine) run(ctx context.Context, inv *operation.Invocation, authorization string) (envelope.Envelope, int) {
	d := inv.Descriptor

	if err := Validate(d, inv.Payload); err != nil {
		return failureFor(d, err)
	}

	if d.RequireCaller && engine.verifier != nil {
		caller, err := engine.verifier.Verify(ctx, authorization)
		if err != nil {
			if errors.Cause(err) == identity.ErrUnauthorized {
				err = &operation.UnauthorizedError{Reason: err.Error()}
			}
			return failureFor(d, err)
		}

		inv.Caller = caller
	}

	credential, err := Resolve(d, inv.Payload, engine.config)
	if err != nil {
		return failureFor(d, err)
	}
	inv.Credential = credential

	if d.Action != nil {
		result, err := d.Action(ctx, inv)
		if err != nil {
			return failureFor(d, err)
		}
		return result, 0
	}

	req, err := Build(ctx, inv)
	if err != nil {
		return failureFor(d, err)
	}

	resp, err := inv.Client.Do(req)
	if err != nil {
		return failureFor(d, errors.Wrapf(err, "%s request failed", d.Name))
	}
	defer resp.Body.Close()

	result, err := Normalize(d, resp)
	if err != nil {
		return failureFor(d, err)
	}

	return result, resp.StatusCode
}

// clientFor returns the client for inv. Descriptors that vet redirects get a
// copy of the engine client whose CheckRedirect consults them first.
func (engine *Engine) clientFor(inv *operation.Invocation) *http.Client {
	d := inv.Descriptor
	if d.Redirect == nil {
		return engine.client
	}

	client := *engine.client
	next := engine.client.CheckRedirect

	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if err := d.Redirect(inv, req.URL); err != nil {
			return err
		}

		if next != nil {
			return next(req, via)
		}

		if len(via) >= maxRedirects {
			return errors.Errorf("stopped after %d redirects", maxRedirects)
		}

		return nil
	}

	return &client
}

const maxRedirects = 10

// failureFor classifies err into a failure envelope and reports the
// downstream status when one was received. Typed errors are found anywhere in
// the chain, including inside the *url.Error of a refused redirect.
func failureFor(d *operation.Descriptor, err error) (envelope.Envelope, int) {
	var (
		validation    *operation.ValidationError
		configuration *operation.ConfigurationError
		unauthorized  *operation.UnauthorizedError
		downstream    *operation.DownstreamError
	)

	switch {
	case errors.As(err, &validation):
		return envelope.Failure(http.StatusBadRequest, validation.Message, nil), 0
	case errors.As(err, &configuration):
		return envelope.Failure(http.StatusInternalServerError, configuration.Message, nil), 0
	case errors.As(err, &unauthorized):
		return envelope.Failure(http.StatusUnauthorized, "Unauthorized", nil), 0
	case errors.As(err, &downstream):
		return DownstreamFailure(d, downstream.StatusCode, downstream.Body), downstream.StatusCode
	}

	return envelope.Failure(http.StatusInternalServerError, err.Error(), nil), 0
}

func (engine *Engine) logCompletion(ctx context.Context, request Request, downstream int, result envelope.Envelope, elapsed time.Duration) {
	level := zerolog.InfoLevel
	switch {
	case result.StatusCode >= 500:
		level = zerolog.ErrorLevel
	case result.StatusCode >= 400:
		level = zerolog.WarnLevel
	}

	requestID := request.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	logger := lambdautils.GetLambdaMetaData(ctx).Logger(log.Logger)

	event := logger.WithLevel(level).
		Str("request_id", requestID).
		Str("operation", request.Descriptor.Name).
		Str("platform", request.Descriptor.Platform.String()).
		Int("status", result.StatusCode).
		Dur("duration", elapsed)

	if downstream != 0 {
		event = event.Int("downstream_status", downstream)
	}

	if !result.IsSuccess() {
		event = event.Str("error", result.Error)
	}

	event.Msg("operation complete")
}
