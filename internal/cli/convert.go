package cli

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/SAP-F-2025/quizbank/internal/models"
)

// runConvert builds the handler for the convert command.
func runConvert(cmd *Command) func(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return func(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
		if wantsHelp(args) {
			printCommandUsage(cmd, stdout)
			return ExitOK
		}

		flags := flag.NewFlagSet(cmd.Name, flag.ContinueOnError)
		strategy := flags.String("strategy", string(models.StrategyTabular), "tabular or embedded")
		input := flags.String("in", "", "Path to the raw question table (.xlsx, .xlsm, .csv)")
		output := flags.String("out", "", "Output path (default: input name with the configured suffix)")
		sheet := flags.String("sheet", "", "Sheet name or zero-based index (default: first sheet)")
		if code, ok := parseFlags(cmd, flags, args, stdout, stderr); !ok {
			return code
		}
		if *input == "" {
			fmt.Fprintln(stderr, "--in is required")
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}

		a, err := newApp(stderr)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return ExitError
		}
		defer a.Close()

		svc := a.conversionService()
		req := &models.ConversionRequest{InputPath: *input, OutputPath: *output, Sheet: *sheet}
		ctx := context.Background()

		var result *models.ConversionResult
		switch models.ConversionStrategy(*strategy) {
		case models.StrategyTabular:
			result, err = svc.ConvertTabular(ctx, req)
		case models.StrategyEmbedded:
			result, err = svc.ConvertEmbedded(ctx, req)
		default:
			fmt.Fprintf(stderr, "unknown strategy: %s\n", *strategy)
			printCommandUsage(cmd, stderr)
			return ExitUsage
		}
		if err != nil {
			fmt.Fprintf(stderr, "Conversion failed: %s\n", describeError(err))
			return ExitError
		}

		fmt.Fprintf(stdout, "Converted %d questions (%d rows skipped)\n", result.RetainedRows, result.SkippedRows)
		fmt.Fprintf(stdout, "Output: %s\n", result.OutputPath)
		for _, issue := range result.Issues {
			fmt.Fprintf(stdout, "  row %d: %s\n", issue.Row, issue.Message)
		}
		return ExitOK
	}
}
