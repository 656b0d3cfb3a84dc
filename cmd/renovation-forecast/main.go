package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/iwvelando/renovation-forecast/internal/config"
	"github.com/iwvelando/renovation-forecast/internal/logging"
	"github.com/iwvelando/renovation-forecast/internal/simulation"
	"github.com/iwvelando/renovation-forecast/pkg/constants"
	"github.com/iwvelando/renovation-forecast/pkg/output"
	"github.com/iwvelando/renovation-forecast/pkg/validation"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	referenceDate := flag.String("reference-date", "", "reference date override (YYYY-MM-DD)")
	flag.Parse()

	// Load the config file to get logging configuration
	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": %q}\n", *configLocation, err.Error())
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": %q}\n", err.Error())
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}

	err = validation.ValidateOutputFormat(outputFormat)
	if err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	if *referenceDate != "" {
		conf.ReferenceDate = *referenceDate
	}
	reference, err := conf.Reference(time.Now())
	if err != nil {
		logger.Fatal("invalid reference date",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Validate configuration and display any warnings
	warnings := conf.ValidateConfiguration()
	for _, warning := range warnings {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	engine, err := simulation.NewEngine(logger, conf.Regulation)
	if err != nil {
		logger.Fatal("invalid regulation",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	outcomes, err := engine.RunBatch(context.Background(), conf.ActiveProjects(), reference, conf.Concurrency)
	if err != nil {
		logger.Fatal("failed to simulate projects",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	rejected := 0
	for _, outcome := range outcomes {
		if outcome.Err != nil {
			rejected++
			logger.Error("project rejected",
				zap.String("op", "main"),
				zap.String("project", outcome.Name),
				zap.Error(outcome.Err),
			)
		}
	}

	if err := output.Write(os.Stdout, outputFormat, outcomes); err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if rejected > 0 {
		_ = logger.Sync()
		os.Exit(2)
	}
}
