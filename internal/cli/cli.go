package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/specialistvlad/pdfgrid/internal/app"
	"github.com/spf13/pflag"
)

// Environment variables consulted when the matching flag is not given.
const (
	EnvServiceURL  = "PDFGRID_SERVICE_URL"
	EnvProgressURL = "PDFGRID_PROGRESS_URL"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	return parse(args, output, os.LookupEnv)
}

func parse(args []string, output io.Writer, lookupEnv func(string) (string, bool)) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := pflag.NewFlagSet("pdfgrid", pflag.ContinueOnError)
	flagSet.SetOutput(output)
	flagSet.SortFlags = false

	flagSet.Usage = func() {
		fmt.Fprint(output, `
pdfgrid - Run declarative PDF workflows as concurrent operation trees.

Usage:
  pdfgrid --workflow FILE [options] INPUT.pdf [INPUT.pdf...]
  pdfgrid --workflow FILE --validate

Arguments:
  INPUT.pdf
    Input documents, handed to the workflow in the order given.

Options:
`)
		flagSet.PrintDefaults()
	}

	workflow := flagSet.StringP("workflow", "w", "", "Path to the workflow file (.hcl, .yaml, .yml or .json).")
	outputPath := flagSet.StringP("output", "o", "out", "Output directory, or a .zip file to bundle the results.")
	zipped := flagSet.Bool("zip", false, "Bundle multiple outputs into a single archive.")
	timeout := flagSet.Duration("timeout", 0, "Abort the run after this long, e.g. 90s. 0 disables.")
	workers := flagSet.Int("workers", 0, "Maximum concurrent operations. 0 uses the number of CPUs.")
	logLevel := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	logFormat := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	healthPort := flagSet.Int("healthcheck-port", 0, "Port for the health check and metrics server. 0 is disabled.")
	serviceURL := flagSet.String("service-url", "", "Base URL of the PDF service used by remote operations (env "+EnvServiceURL+").")
	progressURL := flagSet.String("progress-url", "", "Socket.IO endpoint that receives progress events (env "+EnvProgressURL+").")
	validate := flagSet.Bool("validate", false, "Load and check the workflow, print its plan and exit.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if *workflow == "" {
		slog.Debug("No workflow provided, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	if *serviceURL == "" {
		*serviceURL, _ = lookupEnv(EnvServiceURL)
	}
	if *progressURL == "" {
		*progressURL, _ = lookupEnv(EnvProgressURL)
	}

	var inputs []string
	if flagSet.NArg() > 0 {
		inputs = flagSet.Args()
	}

	config, err := app.NewConfig(app.Config{
		WorkflowPath:    *workflow,
		InputPaths:      inputs,
		OutputPath:      *outputPath,
		Zip:             *zipped,
		Timeout:         *timeout,
		Workers:         *workers,
		LogLevel:        strings.ToLower(*logLevel),
		LogFormat:       strings.ToLower(*logFormat),
		HealthcheckPort: *healthPort,
		ServiceURL:      *serviceURL,
		ProgressURL:     *progressURL,
		ValidateOnly:    *validate,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
