package proxy

import (
	"fmt"

	"github.com/pkg/errors"
)

// HttpMethod is an enum of the standard Http Methods.
type HttpMethod int

const (
	GET HttpMethod = iota
	HEAD
	POST
	PUT
	DELETE
	CONNECT
	OPTIONS
	TRACE
	PATCH
)

var httpMethodNames = [...]string{"GET", "HEAD", "POST", "PUT", "DELETE", "CONNECT", "OPTIONS", "TRACE", "PATCH"}

// String returns the method as it appears on the wire.
func (method HttpMethod) String() string {
	if method < 0 || int(method) >= len(httpMethodNames) {
		return fmt.Sprintf("HttpMethod(%d)", int(method))
	}

	return httpMethodNames[method]
}

// ParseHttpMethod returns the HttpMethod for the given wire name.
func ParseHttpMethod(name string) (HttpMethod, error) {
	for i, n := range httpMethodNames {
		if n == name {
			return HttpMethod(i), nil
		}
	}

	return 0, errors.Errorf("unknown http method '%s'", name)
}
