package envelope

import (
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// AllowedHeaders lists the request headers browsers may send.
const AllowedHeaders = "authorization, x-client-info, apikey, content-type"

// AllowedMethods lists the methods answered by the integration routes.
const AllowedMethods = "GET, POST, OPTIONS"

// CORSHeaders returns a fresh copy of the headers attached to every response.
func CORSHeaders() map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": AllowedHeaders,
		"Access-Control-Allow-Methods": AllowedMethods,
	}
}

// Preflight answers a cors preflight request.
func Preflight() events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    CORSHeaders(),
		Body:       "ok",
	}
}
