package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/iwvelando/mortgage-simulator/internal/config"
	"github.com/iwvelando/mortgage-simulator/internal/logging"
	"github.com/iwvelando/mortgage-simulator/internal/planpago"
	"github.com/iwvelando/mortgage-simulator/internal/repository"
	"github.com/iwvelando/mortgage-simulator/pkg/constants"
	"github.com/iwvelando/mortgage-simulator/pkg/loans"
	"github.com/iwvelando/mortgage-simulator/pkg/output"
	"github.com/iwvelando/mortgage-simulator/pkg/validation"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file (entities, properties, subsidy rules)")
	requestLocation := flag.String("request", constants.DefaultRequestFile, "path to the loan request file")
	entidadID := flag.Uint64("entidad", 0, "financial entity id whose terms fill the request")
	localID := flag.Uint64("local", 0, "property id whose price and costs fill the request")
	ingresos := flag.Float64("ingresos", 0, "declared monthly household income, checked against the subsidy ceiling")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// The web client reads amounts as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// CLI override takes precedence over config
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	req, err := config.LoadRequest(*requestLocation)
	if err != nil {
		logger.Fatal(fmt.Sprintf("failed to load loan request at %s", *requestLocation),
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	svc := planpago.NewService(logger, loans.NewEngine(logger, conf.EngineOptions()), conf.Catalog(),
		repository.NewMemory(), nil, planpago.Options{
			BonoRules:  conf.BonoRules(),
			TipoCambio: conf.DefaultTipoCambio(),
		})

	result, err := svc.Simulate(context.Background(), planpago.Solicitud{
		EntidadFinancieraID: *entidadID,
		LocalID:             *localID,
		IngresosMensuales:   decimal.NewFromFloat(*ingresos),
		LoanRequest:         *req,
	})
	if err != nil {
		logger.Fatal("failed to simulate loan",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if err := output.Write(os.Stdout, outputFormat, result); err != nil {
		logger.Fatal("failed to write results",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}
