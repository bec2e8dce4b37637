package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/SAP-F-2025/quizbank/internal/events"
	"github.com/SAP-F-2025/quizbank/internal/repositories"
	"github.com/SAP-F-2025/quizbank/internal/validator"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRepo() repositories.TableRepository {
	return repositories.NewTableRepository(newTestLogger())
}

func writeTable(t *testing.T, path string, rows [][]any) {
	t.Helper()
	require.NoError(t, newTestRepo().WriteAll(context.Background(), path, "", rows))
}

func readTable(t *testing.T, path string) [][]string {
	t.Helper()
	rows, err := newTestRepo().ReadAll(context.Background(), path, "")
	require.NoError(t, err)
	return rows
}

func newTestConversionService(publisher events.EventPublisher) ConversionService {
	logger := newTestLogger()
	var progress ProgressEventService
	if publisher != nil {
		progress = NewProgressEventService(publisher, logger)
	}
	return NewConversionService(newTestRepo(), logger, validator.New(), progress, "")
}

// fixedSource replays a fixed sequence of draws
type fixedSource struct {
	values []float64
	next   int
}

func (f *fixedSource) Float64() float64 {
	v := f.values[f.next%len(f.values)]
	f.next++
	return v
}
