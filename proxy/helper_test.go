package proxy

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/aws/aws-lambda-go/events"
)

func testHandler(context *RouteContext) (events.APIGatewayProxyResponse, error) {
	return events.APIGatewayProxyResponse{StatusCode: 200}, nil
}

func testRequest(method HttpMethod, path string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath: path,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: method.String(),
			},
		},
		Headers: map[string]string{},
	}
}

// fixtureRequest loads testdata/<name>.json as an api gateway v2 request.
func fixtureRequest(name string) events.APIGatewayV2HTTPRequest {
	content, err := os.ReadFile(fmt.Sprintf("testdata/%s.json", name))
	if err != nil {
		log.Fatal(err)
	}

	request := events.APIGatewayV2HTTPRequest{}
	if err := json.Unmarshal(content, &request); err != nil {
		log.Fatal(err)
	}

	return request
}
