package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/specialistvlad/pdfgrid/internal/app"
	"github.com/specialistvlad/pdfgrid/internal/cli"
)

// main is the entrypoint for the pdfgrid application.
func main() {
	// Use a minimal logger until the full one is configured.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Stdout, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

// run encapsulates the main application logic for easier testing and error handling.
func run(ctx context.Context, outW io.Writer, args []string) (err error) {
	appConfig, shouldExit, err := cli.Parse(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("application panicked: %v", r)
		}
	}()

	return app.NewApp(outW, appConfig).Run(ctx)
}

// exitCode maps an error from run to the process exit status: 2 for usage
// and workflow problems, 1 for everything else.
func exitCode(err error) int {
	var exitErr *cli.ExitError
	switch {
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.Is(err, app.ErrInvalidWorkflow):
		return 2
	default:
		return 1
	}
}
