package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/quizbank/internal/events"
	"github.com/SAP-F-2025/quizbank/internal/handlers"
	"github.com/SAP-F-2025/quizbank/internal/services"
	"github.com/SAP-F-2025/quizbank/internal/utils"
	"github.com/gin-gonic/gin"
)

// runServe builds the handler for the serve command.
func runServe(cmd *Command) func(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return func(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		bankPath := flags.String("bank", "", "Question bank served by the study routes (default: QUIZBANK_BANK_PATH)")
		port := flags.String("port", "", "Listen port (default: PORT)")
		if code, ok := parseFlags(cmd, flags, args, stdout, stderr); !ok {
			return code
		}

		a, err := newApp(stderr)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return ExitError
		}
		defer a.Close()

		if *bankPath == "" {
			*bankPath = a.cfg.Quiz.BankPath
		}
		if *port == "" {
			*port = a.cfg.Port
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var study services.StudyService
		if *bankPath != "" {
			bank, err := a.loadBank(ctx, *bankPath, a.cfg.Quiz.Sheet, a.cfg.Quiz.MasteryThreshold)
			if err != nil {
				fmt.Fprintf(stderr, "Cannot load question bank: %s\n", describeError(err))
				return ExitError
			}
			study = services.NewStudyService(bank, rand.New(rand.NewSource(time.Now().UnixNano())), a.progress, a.slog())
		} else {
			a.logger.Warn("No question bank configured, study routes are disabled")
		}

		if channel, ok := a.publisher.(*events.ChannelEventPublisher); ok {
			if err := logProgressEvents(ctx, channel, a.logger); err != nil {
				a.logger.Warn("Progress event log disabled", "error", err)
			}
		}

		if a.cfg.Environment == "production" {
			gin.SetMode(gin.ReleaseMode)
		}
		serviceManager := services.NewServiceManager(a.conversionService(), study)
		router := handlers.NewRouter(handlers.NewHandlerManager(serviceManager, a.validator, a.logger), a.logger)

		server := &http.Server{
			Addr:              ":" + *port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			a.logger.Info("Starting HTTP server", "port", *port, "bank_path", *bankPath)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		code := ExitOK
		select {
		case <-ctx.Done():
		case err := <-errCh:
			fmt.Fprintf(stderr, "server error: %v\n", err)
			code = ExitError
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("Server shutdown failed", "error", err)
		}
		return code
	}
}

// logProgressEvents writes every in-process progress event to the log until ctx is done
func logProgressEvents(ctx context.Context, channel *events.ChannelEventPublisher, logger utils.Logger) error {
	received, err := channel.Subscribe(ctx)
	if err != nil {
		return err
	}
	go func() {
		for event := range received {
			logger.Info("Progress event",
				"event_id", event.ID,
				"event_type", event.Type,
				"data", event.Data)
		}
	}()
	return nil
}
