package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/quizbank/internal/config"
	"github.com/SAP-F-2025/quizbank/internal/events"
	"github.com/SAP-F-2025/quizbank/internal/repositories"
	"github.com/SAP-F-2025/quizbank/internal/services"
	"github.com/SAP-F-2025/quizbank/internal/utils"
	"github.com/SAP-F-2025/quizbank/internal/validator"
)

// app holds the dependencies shared by every subcommand
type app struct {
	cfg       *config.Config
	logger    utils.Logger
	repo      repositories.TableRepository
	validator *validator.Validator
	publisher events.EventPublisher
	progress  services.ProgressEventService
}

func newApp(stderr io.Writer) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := utils.NewLogger(stderr, cfg.Environment, cfg.LogLevel)
	publisher, err := cfg.Events.CreateEventPublisher(logger.Slog())
	if err != nil {
		return nil, fmt.Errorf("event publisher error: %w", err)
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		repo:      repositories.NewTableRepository(logger.Slog()),
		validator: validator.New(),
		publisher: publisher,
		progress:  services.NewProgressEventService(publisher, logger.Slog()),
	}, nil
}

func (a *app) slog() *slog.Logger {
	return a.logger.Slog()
}

func (a *app) conversionService() services.ConversionService {
	return services.NewConversionService(a.repo, a.slog(), a.validator, a.progress, a.cfg.Quiz.OutputSuffix)
}

func (a *app) loadBank(ctx context.Context, path, sheet string, threshold int) (*services.QuestionBank, error) {
	return services.LoadQuestionBank(ctx, a.repo, a.slog(), path, services.BankOptions{
		Threshold:     threshold,
		CorrectColumn: a.cfg.Quiz.CorrectColumn,
		Sheet:         sheet,
	})
}

func (a *app) Close() {
	if err := a.publisher.Close(); err != nil {
		a.logger.Warn("Failed to close event publisher", "error", err)
	}
}

// parseFlags parses args into flags and rejects positional arguments.
// It returns false with the exit code to use when the command should stop.
func parseFlags(cmd *Command, flags *flag.FlagSet, args []string, stdout, stderr io.Writer) (int, bool) {
	flags.SetOutput(stderr)
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printCommandUsage(cmd, stdout)
			return ExitOK, false
		}
		fmt.Fprintf(stderr, "invalid arguments: %v\n", err)
		printCommandUsage(cmd, stderr)
		return ExitUsage, false
	}
	if flags.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %s\n", strings.Join(flags.Args(), " "))
		printCommandUsage(cmd, stderr)
		return ExitUsage, false
	}
	return ExitOK, true
}

// describeError renders a service error for the terminal
func describeError(err error) string {
	var schemaErr *services.SchemaError
	switch {
	case errors.Is(err, services.ErrInputMissing):
		return fmt.Sprintf("input not found: %v", err)
	case errors.As(err, &schemaErr):
		return fmt.Sprintf("cannot resolve table layout: %s", schemaErr.Reason)
	case services.IsValidation(err):
		return fmt.Sprintf("invalid input: %v", err)
	default:
		return err.Error()
	}
}
