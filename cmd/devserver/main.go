// Command devserver serves the integration routes over plain http for local
// development. Requests are converted into api gateway events and answered by
// the same router the lambda uses.
package main

import (
	"context"
	"encoding/base64"
	"flag"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prognoshealth/integrationproxy/catalog"
	"github.com/prognoshealth/integrationproxy/config"
	"github.com/prognoshealth/integrationproxy/engine"
	"github.com/prognoshealth/integrationproxy/envelope"
	"github.com/prognoshealth/integrationproxy/lambdautils"
	"github.com/prognoshealth/integrationproxy/proxy"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	envFile := flag.String("env", ".env", "env file to load")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg, err := config.Load(context.Background(), lambdautils.NewParameterStore(os.Getenv("AWS_REGION")), *envFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed loading config")
	}

	zerolog.SetGlobalLevel(cfg.Level())

	router, err := catalog.NewRouter(engine.New(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("failed building router")
	}

	log.Info().Str("addr", *addr).Msg("dev server listening")

	if err := newServer(router).Run(*addr); err != nil {
		log.Fatal().Err(err).Msg("dev server stopped")
	}
}

func newServer(router *proxy.Router) *gin.Engine {
	server := gin.New()
	server.Use(gin.Recovery())

	server.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: strings.Split(envelope.AllowedMethods, ", "),
		AllowHeaders: strings.Split(envelope.AllowedHeaders, ", "),
		MaxAge:       12 * time.Hour,
	}))

	server.NoRoute(func(c *gin.Context) {
		request, err := toEvent(c.Request)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		response, err := router.Route(c.Request.Context(), request)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		writeResponse(c, response)
	})

	return server
}

// toEvent converts an http request into the event api gateway would deliver.
func toEvent(r *http.Request) (events.APIGatewayV2HTTPRequest, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return events.APIGatewayV2HTTPRequest{}, err
	}

	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		headers[strings.ToLower(name)] = strings.Join(values, ",")
	}

	var query map[string]string
	if values := r.URL.Query(); len(values) > 0 {
		query = make(map[string]string, len(values))
		for name, v := range values {
			query[name] = strings.Join(v, ",")
		}
	}

	return events.APIGatewayV2HTTPRequest{
		Version:               "2.0",
		RawPath:               r.URL.Path,
		RawQueryString:        r.URL.RawQuery,
		Headers:               headers,
		QueryStringParameters: query,
		Body:                  base64.StdEncoding.EncodeToString(body),
		IsBase64Encoded:       true,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RequestID: uuid.New().String(),
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:    r.Method,
				Path:      r.URL.Path,
				Protocol:  r.Proto,
				SourceIP:  r.RemoteAddr,
				UserAgent: r.UserAgent(),
			},
		},
	}, nil
}

func writeResponse(c *gin.Context, response events.APIGatewayProxyResponse) {
	body := []byte(response.Body)

	if response.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(response.Body)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid response encoding"})
			return
		}
		body = decoded
	}

	for name, value := range response.Headers {
		if strings.HasPrefix(name, "Access-Control-") {
			continue
		}
		c.Header(name, value)
	}

	c.Data(response.StatusCode, response.Headers["Content-Type"], body)
}
