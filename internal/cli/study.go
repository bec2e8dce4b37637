package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/SAP-F-2025/quizbank/internal/models"
	"github.com/SAP-F-2025/quizbank/internal/services"
)

var quitWords = map[string]bool{"q": true, "quit": true, "exit": true}

// runStudy builds the handler for the study command.
func runStudy(cmd *Command) func(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return func(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		bankPath := flags.String("bank", "", "Path to a canonical question table (default: QUIZBANK_BANK_PATH)")
		threshold := flags.Int("threshold", 0, "Correct answers needed to master a question (default: QUIZBANK_MASTERY_THRESHOLD)")
		seed := flags.Int64("seed", 0, "Random seed (0 picks one from the clock)")
		sheet := flags.String("sheet", "", "Sheet name or zero-based index")
		reset := flags.Bool("reset", false, "Zero every mastery counter before starting")
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
		if *bankPath == "" {
			fmt.Fprintln(stderr, "--bank is required")
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}
		if *threshold == 0 {
			*threshold = a.cfg.Quiz.MasteryThreshold
		}
		if *sheet == "" {
			*sheet = a.cfg.Quiz.Sheet
		}
		if *seed == 0 {
			*seed = time.Now().UnixNano()
		}

		ctx := context.Background()
		bank, err := a.loadBank(ctx, *bankPath, *sheet, *threshold)
		if err != nil {
			fmt.Fprintf(stderr, "Cannot load question bank: %s\n", describeError(err))
			return ExitError
		}

		study := services.NewStudyService(bank, rand.New(rand.NewSource(*seed)), a.progress, a.slog())
		if *reset {
			stats, err := study.Reset(ctx)
			if err != nil {
				fmt.Fprintf(stderr, "Reset failed: %v\n", err)
				return ExitError
			}
			fmt.Fprintf(stdout, "Progress reset: %d questions\n", stats.Total)
		}

		if err := runSession(ctx, study, stdin, stdout); err != nil {
			fmt.Fprintf(stderr, "Study session failed: %v\n", err)
			return ExitError
		}
		return ExitOK
	}
}

// runSession drives the draw/answer loop until the bank is exhausted, the learner quits
// or stdin ends. Progress is saved after every correct answer.
func runSession(ctx context.Context, study services.StudyService, stdin io.Reader, stdout io.Writer) error {
	scanner := bufio.NewScanner(stdin)
	for {
		sel, ok := study.Next(ctx)
		if !ok {
			stats := study.Stats(ctx)
			fmt.Fprintf(stdout, "All %d questions mastered!\n", stats.Total)
			return nil
		}

		printQuestion(stdout, study.Describe(sel), sel)
		for {
			fmt.Fprint(stdout, "Answer (q to quit): ")
			if !scanner.Scan() {
				fmt.Fprintln(stdout)
				printProgress(stdout, study.Stats(ctx))
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if quitWords[strings.ToLower(line)] {
				printProgress(stdout, study.Stats(ctx))
				return nil
			}

			outcome, err := study.Submit(ctx, sel.Index, line)
			if errors.Is(err, services.ErrInvalidAnswer) {
				fmt.Fprintln(stdout, "Please answer with option letters (A-E) or digits (1-5).")
				continue
			}
			if err != nil {
				return err
			}

			if outcome.Correct {
				fmt.Fprintf(stdout, "Correct! (%d/%d)\n", outcome.MasteryCount, study.Stats(ctx).Threshold)
				if outcome.Mastered {
					fmt.Fprintln(stdout, "Mastered.")
				}
			} else {
				fmt.Fprintf(stdout, "Wrong. The answer is %s.\n", outcome.Expected)
			}
			fmt.Fprintln(stdout)
			break
		}
	}
}

func printQuestion(w io.Writer, view *models.QuestionView, sel *models.Selection) {
	header := view.Stem
	if view.Number != nil {
		header = fmt.Sprintf("%d. %s", *view.Number, view.Stem)
	}
	if view.Type != "" {
		header = fmt.Sprintf("[%s] %s", view.Type, header)
	}
	fmt.Fprintln(w, header)
	for _, opt := range view.Options {
		fmt.Fprintf(w, "  %s. %s\n", opt.Letter, opt.Text)
	}
	fmt.Fprintf(w, "(%d correct so far, %d questions left)\n", sel.MasteryCount, sel.RemainingCount)
}

func printProgress(w io.Writer, stats *models.BankStats) {
	fmt.Fprintf(w, "Progress saved: %d of %d questions mastered.\n", stats.Mastered, stats.Total)
}
