// Command integrationproxy is the lambda entry point serving the integration
// operations behind an api gateway http api.
package main

import (
	"context"
	"os"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/prognoshealth/integrationproxy/catalog"
	"github.com/prognoshealth/integrationproxy/config"
	"github.com/prognoshealth/integrationproxy/engine"
	"github.com/prognoshealth/integrationproxy/lambdautils"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	store := lambdautils.NewParameterStore(os.Getenv("AWS_REGION"))

	cfg, err := config.Load(context.Background(), store, ".env")
	if err != nil {
		log.Fatal().Err(err).Msg("failed loading config")
	}

	zerolog.SetGlobalLevel(cfg.Level())

	router, err := catalog.NewRouter(engine.New(cfg))
	if err != nil {
		log.Fatal().Err(err).Msg("failed building router")
	}

	log.Info().
		Str("region", cfg.Region).
		Bool("caller_verification", cfg.IdentityURL != "").
		Msg("integration proxy ready")

	lambda.Start(router.Route)
}
