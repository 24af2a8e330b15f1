// Package proxy adapts aws api gateway v2 (http) requests to the integration
// operations. It routes an events.APIGatewayV2HTTPRequest to a handler by
// method and path regex, collects path, query and form parameters, and hands
// back the events.APIGatewayProxyResponse built by the handler.
//
// The router is designed to be as simplistic as possible and is not feature
// rich.
package proxy
