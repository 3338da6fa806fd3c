package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"expenses/internal/app"
	"expenses/internal/backend"
	"expenses/internal/cli"
	"expenses/internal/config"
	"expenses/internal/log"
	"expenses/internal/report"
	"expenses/internal/services"
)

// Exit codes
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run parses args, loads configuration and executes one plan. The report goes
// to stdout, logs and usage errors to stderr.
func run(args []string, stdout, stderr io.Writer) int {
	plan, err := app.ParseArgs(args)
	if errors.Is(err, app.ErrHelp) {
		fmt.Fprintln(stdout, app.Usage)
		return exitOK
	}
	if err != nil {
		return usageError(stderr, err)
	}

	if err := cli.LoadEnvFile(); err != nil {
		return configError(stderr, fmt.Errorf("load .env: %w", err))
	}
	cfg := config.Load()
	loc, err := cfg.Location()
	if err != nil {
		return configError(stderr, err)
	}

	// Reject a malformed range before anything is created on disk.
	if _, err := plan.DateRange(loc); err != nil {
		return usageError(stderr, err)
	}

	if err := cfg.Validate(); err != nil {
		return configError(stderr, err)
	}
	logger := cli.SetupLogger(cfg, stderr)

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := execute(ctx, cfg, logger, plan, stdout); err != nil {
		logger.Error("Run failed", log.NewFields().WithError(err).ToSlice()...)
		return exitError
	}
	return exitOK
}

func usageError(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "expenses: %v\n\n%s\n", err, app.Usage)
	return exitUsage
}

func configError(stderr io.Writer, err error) int {
	// The configured level is unknown until the config is valid.
	cli.SetupLogger(nil, stderr).Error("Configuration validation failed",
		log.NewFields().
			WithOperation(log.OpStartup).
			WithError(err).
			WithErrorType(log.ErrorTypeConfiguration).
			ToSlice()...)
	return exitError
}

func execute(ctx context.Context, cfg *config.Config, logger *log.Logger, plan app.Plan, stdout io.Writer) error {
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bc)
	if err != nil {
		return err
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Failed to close backend",
				log.NewFields().WithOperation(log.OpShutdown).WithError(err).ToSlice()...)
		}
	}()

	svc := services.NewLedgerService(res.Backend,
		services.WithPublishers(res.Publishers...),
		services.WithPublishTimeout(cfg.PublishTimeout),
		services.WithLogger(logger))
	defer func() {
		if err := svc.Close(); err != nil {
			logger.Warn("Failed to close publishers",
				log.NewFields().WithOperation(log.OpShutdown).WithError(err).ToSlice()...)
			return
		}
		logger.Debug("Publishers closed", log.FieldOperation, log.OpShutdown)
	}()

	runner := app.NewRunner(svc, report.New(stdout, cfg.CurrencySymbol), bc.Location)
	return runner.Run(ctx, plan)
}
