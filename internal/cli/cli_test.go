package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SAP-F-2025/quizbank/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietEnv(t *testing.T) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("ENVIRONMENT", "test")
	t.Setenv("EVENTS_ENABLED", "false")
	t.Setenv("QUIZBANK_BANK_PATH", "")
	t.Setenv("QUIZBANK_SHEET", "")
	t.Setenv("QUIZBANK_MASTERY_THRESHOLD", "")
}

func writeTable(t *testing.T, path string, rows [][]any) {
	t.Helper()
	repo := repositories.NewTableRepository(slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, repo.WriteAll(context.Background(), path, "", rows))
}

func readTable(t *testing.T, path string) [][]string {
	t.Helper()
	repo := repositories.NewTableRepository(slog.New(slog.NewTextHandler(io.Discard, nil)))
	rows, err := repo.ReadAll(context.Background(), path, "")
	require.NoError(t, err)
	return rows
}

func run(stdin string, args ...string) (int, string, string) {
	var out, errOut bytes.Buffer
	code := Run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRootHelp(t *testing.T) {
	code, out, errOut := run("", "--help")
	assert.Equal(t, ExitOK, code)
	assert.Empty(t, errOut)
	assert.Contains(t, out, "Usage:")
	for _, cmd := range commands {
		assert.Contains(t, out, cmd.Name)
	}
}

func TestNoArgsShowsUsage(t *testing.T) {
	code, out, _ := run("")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, out, "Usage:")
}

func TestUnknownCommand(t *testing.T) {
	code, out, errOut := run("", "nope")
	assert.Equal(t, ExitUsage, code)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "Unknown command")
}

func TestCommandHelp(t *testing.T) {
	for _, cmd := range commands {
		code, out, _ := run("", cmd.Name, "--help")
		assert.Equal(t, ExitOK, code, cmd.Name)
		assert.Contains(t, out, "quizbank "+cmd.Name)
	}
}

func TestConvertRequiresInput(t *testing.T) {
	quietEnv(t)
	code, _, errOut := run("", "convert", "--strategy", "tabular")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, "--in is required")
}

func TestConvertTabular(t *testing.T) {
	quietEnv(t)
	dir := t.TempDir()
	input := filepath.Join(dir, "raw.xlsx")
	writeTable(t, input, [][]any{
		{"题目", "选项A", "选项B", "答案"},
		{"1+1=?", "1", "2", "B"},
		{"", "", "", ""},
		{"哪些是偶数", "2", "4", "AB"},
	})

	code, out, errOut := run("", "convert", "--in", input)
	require.Equal(t, ExitOK, code, errOut)
	assert.Contains(t, out, "Converted 2 questions")

	output := filepath.Join(dir, "raw_格式1.xlsx")
	rows := readTable(t, output)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"题目", "选项", "答案"}, rows[0])
	assert.Equal(t, "多选题  2. 哪些是偶数", rows[2][0])
}

func TestConvertFailures(t *testing.T) {
	quietEnv(t)
	dir := t.TempDir()

	code, _, errOut := run("", "convert", "--in", filepath.Join(dir, "missing.xlsx"))
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "input not found")

	code, _, errOut = run("", "convert", "--strategy", "docx", "--in", filepath.Join(dir, "missing.xlsx"))
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, "unknown strategy")
}

func writeStudyBank(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bank.xlsx")
	writeTable(t, path, [][]any{
		{"题目", "选项", "答案"},
		{"单选题  1. 1+1=?", "单选题, A.1, B.2", "B"},
	})
	return path
}

func TestStudySessionToMastery(t *testing.T) {
	quietEnv(t)
	bank := writeStudyBank(t)

	code, out, errOut := run("zzz\na\n2\n", "study", "--bank", bank, "--threshold", "1", "--seed", "7")
	require.Equal(t, ExitOK, code, errOut)

	assert.Contains(t, out, "[单选题] 1. 1+1=?")
	assert.Contains(t, out, "  B. 2")
	assert.Contains(t, out, "Please answer with option letters")
	assert.Contains(t, out, "Wrong. The answer is B.")
	assert.Contains(t, out, "Correct! (1/1)")
	assert.Contains(t, out, "All 1 questions mastered!")

	rows := readTable(t, bank)
	require.Len(t, rows, 2)
	assert.Equal(t, "正确次数", rows[0][3])
	assert.Equal(t, "1", rows[1][3])
}

func TestStudyQuitAndReset(t *testing.T) {
	quietEnv(t)
	bank := writeStudyBank(t)

	code, out, _ := run("b\n", "study", "--bank", bank, "--threshold", "2")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Correct! (1/2)")
	assert.Contains(t, out, "Progress saved: 0 of 1 questions mastered.")
	assert.Equal(t, "1", readTable(t, bank)[1][3])

	code, out, _ = run("quit\n", "study", "--bank", bank, "--threshold", "2", "--reset")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "Progress reset: 1 questions")
	assert.Equal(t, "0", readTable(t, bank)[1][3])
}

func TestStudyMissingBank(t *testing.T) {
	quietEnv(t)

	code, _, errOut := run("", "study")
	assert.Equal(t, ExitUsage, code)
	assert.Contains(t, errOut, "--bank is required")

	code, _, errOut = run("", "study", "--bank", filepath.Join(t.TempDir(), "none.xlsx"))
	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "Cannot load question bank")
}
