package proxy

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrorHandler defines the function interface the router uses to handle any
// error that occurs while processing routes.
type ErrorHandler func(context.Context, events.APIGatewayV2HTTPRequest, error) (events.APIGatewayProxyResponse, error)

// CatchAllHandler defines the function interface the router uses to handle any
// request that doesn't match a route.
type CatchAllHandler func(context.Context, events.APIGatewayV2HTTPRequest) (events.APIGatewayProxyResponse, error)

// Router will route an incoming events.APIGatewayV2HTTPRequest to the
// appropriate route and return the resulting events.APIGatewayProxyResponse.
//
// Routes are checked in the order they were added and the first match wins.
// Requests that match nothing go to CatchAll when it is set. Errors returned by
// a route are passed to CatchError when it is set.
//
// Example:
//
//	router := &proxy.Router{}
//	router.POST("/crm/accounts/create", func(ctx *proxy.RouteContext) (events.APIGatewayProxyResponse, error) {
//		return engine.Handle(ctx, descriptor)
//	})
//
//	if !router.Valid() {
//		return router.BuildErrors()
//	}
//
//	lambda.Start(router.Route)
type Router struct {
	Routes     []*Route
	CatchAll   CatchAllHandler
	CatchError ErrorHandler

	errors []error
}

// Valid returns true if the routers' routes have all been built successfully.
// Otherwise false.
func (router *Router) Valid() bool {
	return len(router.errors) == 0
}

// AddRoute appends route to the list of routes used for request matching.
func (router *Router) AddRoute(route *Route) {
	router.Routes = append(router.Routes, route)
}

// AddBuildError appends an error to the list of router errors.
func (router *Router) AddBuildError(err error) {
	router.errors = append(router.errors, err)
}

// BuildErrors returns a single error that encapsulates all the route errors
// found during router construction.
func (router *Router) BuildErrors() error {
	topError := errors.New("failed building router")

	for _, err := range router.errors {
		topError = errors.Wrap(topError, err.Error())
	}

	return topError
}

// AddRouteIfNoError appends the provided route if no error is present.
// Otherwise it adds the error to the build errors.
func (router *Router) AddRouteIfNoError(route *Route, err error) {
	if err != nil {
		router.AddBuildError(err)
	} else {
		router.AddRoute(route)
	}
}

// Handle adds a new route for the given method, pattern match and handler.
func (router *Router) Handle(method HttpMethod, match string, handler RouteHandler) {
	router.AddRouteIfNoError(NewRoute(method, match, handler))
}

// GET adds a new GET route with the specified pattern match and handler.
func (router *Router) GET(match string, handler RouteHandler) {
	router.Handle(GET, match, handler)
}

// POST adds a new POST route with the specified pattern match and handler.
func (router *Router) POST(match string, handler RouteHandler) {
	router.Handle(POST, match, handler)
}

// OPTIONS adds a new OPTIONS route with the specified pattern match and handler.
func (router *Router) OPTIONS(match string, handler RouteHandler) {
	router.Handle(OPTIONS, match, handler)
}

// AddCatchAllHandler attaches a catchall handler to the router.
func (router *Router) AddCatchAllHandler(handler CatchAllHandler) {
	router.CatchAll = handler
}

// AddErrorHandler attaches a error handler to the router.
func (router *Router) AddErrorHandler(handler ErrorHandler) {
	router.CatchError = handler
}

// routeInternal loops through all routes and follows the first one matching
// the request, falling back to the catch all handler.
func (router *Router) routeInternal(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayProxyResponse, error) {
	for _, route := range router.Routes {
		matched, groups := route.IsMatch(request)

		if !matched {
			continue
		}

		return route.Follow(ctx, request, groups)
	}

	log.Debug().
		Str("method", request.RequestContext.HTTP.Method).
		Str("path", request.RawPath).
		Msg("no route matched")

	if router.CatchAll != nil {
		return router.CatchAll(ctx, request)
	}

	return events.APIGatewayProxyResponse{}, errors.Errorf("'%s %s' not found", request.RequestContext.HTTP.Method, request.RawPath)
}

// Route dispatches the request to the matching route. It has the signature
// lambda.Start expects for an api gateway v2 integration.
//
// If there is an error handler set and an error occurs the error handler is
// executed and its result returned.
func (router *Router) Route(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayProxyResponse, error) {
	if router.CatchError == nil {
		return router.routeInternal(ctx, request)
	}

	response, err := router.routeInternal(ctx, request)

	if err != nil {
		return router.CatchError(ctx, request, err)
	}

	return response, nil
}
