// Package operation describes the proxied capabilities: the static
// Descriptor of each one and the per-request Invocation built from it.
package operation

import (
	"context"
	"net/url"

	"github.com/prognoshealth/integrationproxy/envelope"
)

// Requirement is an inbound field that must be present before any downstream
// call. Format, when set, is a validator tag the field's string value must
// satisfy; Invalid is reported when it does not.
type Requirement struct {
	Field   string
	Message string

	Format  string
	Invalid string
}

// Field maps a downstream response path to an envelope field. An empty From
// selects the whole response document. Default replaces a missing or null
// value.
type Field struct {
	From    string
	To      string
	Default any
}

// Shape declares which parts of a successful downstream response reach the
// caller.
type Shape struct {
	Fields []Field

	// Success adds "success": true unless a Field already sets it.
	Success bool

	// Binary passes the raw downstream body through instead of JSON.
	Binary *BinaryShape
}

// BinaryShape fixes the content headers of a pass-through response.
type BinaryShape struct {
	ContentType string
	Disposition string
}

// Descriptor is the static definition of one proxied capability. Descriptors
// are built once at start up and never modified.
type Descriptor struct {
	Name     string
	Route    string
	Methods  []string
	Inbound  Inbound
	Platform Platform
	Kind     Kind
	Auth     Auth

	// RequireCaller verifies the inbound bearer token with the identity
	// service before the credential is resolved.
	RequireCaller bool

	Method   string
	Path     string
	Required []Requirement

	// Target overrides BaseURL+Path as the downstream url.
	Target func(inv *Invocation) (string, error)
	Query  func(inv *Invocation) (url.Values, error)
	// Body returns the request body. url.Values are form encoded, anything
	// else is JSON encoded.
	Body func(inv *Invocation) (any, error)

	// Redirect vets every redirect hop of the downstream call before it is
	// followed. A nil Redirect follows redirects the way http.Client does.
	Redirect func(inv *Invocation, target *url.URL) error

	Shape Shape

	// PassthroughError returns the downstream error text as the error
	// message. Otherwise FailureMessage is returned with the downstream
	// error in details.
	PassthroughError bool
	FailureMessage   string

	// Action replaces the build/call/normalize steps for operations that do
	// not map onto a single plain request.
	Action func(ctx context.Context, inv *Invocation) (envelope.Envelope, error)
}

// AllowsMethod reports whether the inbound method routes to this descriptor.
func (d *Descriptor) AllowsMethod(method string) bool {
	for _, m := range d.InboundMethods() {
		if m == method {
			return true
		}
	}

	return false
}

// InboundMethods returns Methods, defaulting to POST.
func (d *Descriptor) InboundMethods() []string {
	if len(d.Methods) == 0 {
		return []string{"POST"}
	}

	return d.Methods
}
