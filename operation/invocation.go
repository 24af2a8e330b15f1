package operation

import (
	"encoding/base64"
	"net/http"

	"github.com/prognoshealth/integrationproxy/config"
	"github.com/prognoshealth/integrationproxy/identity"
)

// Scheme is the Authorization header scheme of a Credential.
type Scheme int

const (
	SchemeNone Scheme = iota
	SchemeBearer
	SchemeBasic
)

// Credential is the resolved authentication material for one call.
type Credential struct {
	Scheme   Scheme
	Username string
	Token    string
	BaseURL  string
}

// Authorization returns the Authorization header value, or "" for
// SchemeNone.
func (c Credential) Authorization() string {
	switch c.Scheme {
	case SchemeBearer:
		return "Bearer " + c.Token
	case SchemeBasic:
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(c.Username+":"+c.Token))
	}

	return ""
}

// Invocation is the per-request state of one operation. It is never shared
// between requests.
type Invocation struct {
	Descriptor *Descriptor
	Payload    *Payload
	Credential Credential
	Caller     *identity.Caller

	Config *config.Config
	Client *http.Client
}
