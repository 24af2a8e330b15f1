package proxy

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
)

// ErrMalformedForm is the cause of every failure to read an url encoded form
// post. It is attributable to the caller rather than the route.
var ErrMalformedForm = errors.New("malformed form body")

// RouteHandler defines the function interface the route uses to execute a
// request when the route is matched.
type RouteHandler func(*RouteContext) (events.APIGatewayProxyResponse, error)

// Route defines a HttpMethod and Regex that are used in combination for
// matching against an incoming request. When a match occurs the configured
// handler is called.
type Route struct {
	Method  HttpMethod
	Regex   *regexp.Regexp
	Handler RouteHandler
}

// NewRoute returns a Route for the specified method, pattern and handler.
func NewRoute(method HttpMethod, pattern string, handler RouteHandler) (*Route, error) {
	rx, err := regexp.Compile("^" + pattern + "/?$")

	if err != nil {
		return nil, errors.Wrapf(err, "failed compiling regex pattern '%s'", pattern)
	}

	route := &Route{
		Method:  method,
		Regex:   rx,
		Handler: handler,
	}

	return route, nil
}

// String returns a string representation of this route.
func (route *Route) String() string {
	return fmt.Sprintf("%s %s", route.Method, route.Regex)
}

// IsMatch return true if there is a match otherwise false. The match groups are
// also returned.
func (route *Route) IsMatch(request events.APIGatewayV2HTTPRequest) (bool, []string) {
	if route.Method.String() != request.RequestContext.HTTP.Method {
		return false, nil
	}

	groups := route.Regex.FindStringSubmatch(request.RawPath)

	if len(groups) == 0 {
		return false, nil
	}

	return true, groups
}

// Context constructs a RouteContext for the route for passing to the handler.
//
// Params are merged from, in increasing precedence: aws path parameters, the
// query string, url encoded form posts and the named groups of the route regex.
func (route *Route) Context(ctx context.Context, request events.APIGatewayV2HTTPRequest, groups []string) (*RouteContext, error) {
	if len(groups) == 0 {
		return nil, errors.Errorf("No matches available, unabled to generate context for route %v", route)
	}

	params := make(map[string]string)

	for k, v := range request.PathParameters {
		params[k] = v
	}

	for k, v := range request.QueryStringParameters {
		params[k] = v
	}

	if err := route.extractParamsFromFormPost(params, request); err != nil {
		return nil, errors.Wrapf(err, "failed extracting form params for route %v", route)
	}

	for i, name := range route.Regex.SubexpNames() {
		if i != 0 && name != "" && groups[i] != "" {
			params[name] = groups[i]
		}
	}

	return &RouteContext{
		Context: ctx,
		Request: request,
		Params:  params,
	}, nil
}

// extractParamsFromFormPost adds the fields of an url encoded form post to
// params. Requests that are not form posts are ignored.
func (route *Route) extractParamsFromFormPost(params map[string]string, request events.APIGatewayV2HTTPRequest) error {
	if request.RequestContext.HTTP.Method != POST.String() {
		return nil
	}

	if !strings.HasPrefix(strings.ToLower(header(request.Headers, "content-type")), "application/x-www-form-urlencoded") {
		return nil
	}

	body, err := decodeBody(request)
	if err != nil {
		return err
	}

	for _, pair := range strings.Split(body, "&") {
		if pair == "" {
			continue
		}

		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return errors.Wrapf(ErrMalformedForm, "invalid key/value pair '%s'", pair)
		}

		key, err := url.QueryUnescape(kv[0])
		if err != nil {
			return errors.Wrapf(ErrMalformedForm, "unable to decode '%s': %v", kv[0], err)
		}

		value, err := url.QueryUnescape(kv[1])
		if err != nil {
			return errors.Wrapf(ErrMalformedForm, "unable to decode '%s': %v", kv[1], err)
		}

		params[key] = value
	}

	return nil
}

// Follow extracts the route context for the given request and executed the
// route's handler function.
func (route *Route) Follow(ctx context.Context, request events.APIGatewayV2HTTPRequest, groups []string) (events.APIGatewayProxyResponse, error) {
	rctx, err := route.Context(ctx, request, groups)

	if err != nil {
		return events.APIGatewayProxyResponse{}, errors.Wrapf(err, "failed getting context for route %v", route.Regex)
	}

	return route.Handler(rctx)
}
