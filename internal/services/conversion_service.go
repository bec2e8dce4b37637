package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/SAP-F-2025/quizbank/internal/models"
	"github.com/SAP-F-2025/quizbank/internal/repositories"
	"github.com/SAP-F-2025/quizbank/internal/utils"
	"github.com/SAP-F-2025/quizbank/internal/validator"
)

// DefaultOutputSuffix is inserted before the extension of derived output paths
const DefaultOutputSuffix = "_格式1"

// ConversionService normalizes raw question tables into the canonical 题目/选项/答案 schema.
// Each call performs one full read and one full write; nothing is written when the layout
// cannot be resolved.
type ConversionService interface {
	// ConvertTabular infers title, option and answer columns from a header-anchored sheet
	ConvertTabular(ctx context.Context, req *models.ConversionRequest) (*models.ConversionResult, error)
	// ConvertEmbedded splits composite question cells (number, stem, inline options, type annotation)
	ConvertEmbedded(ctx context.Context, req *models.ConversionRequest) (*models.ConversionResult, error)
	// OutputPathFor returns the path a conversion of input writes to when no output path is given
	OutputPathFor(input string) string
}

type conversionService struct {
	repo          repositories.TableRepository
	logger        *slog.Logger
	serviceLogger *ServiceLogger
	validator     *validator.Validator
	progress      ProgressEventService
	outputSuffix  string
}

func NewConversionService(
	repo repositories.TableRepository,
	logger *slog.Logger,
	validator *validator.Validator,
	progress ProgressEventService,
	outputSuffix string,
) ConversionService {
	if outputSuffix == "" {
		outputSuffix = DefaultOutputSuffix
	}
	return &conversionService{
		repo:   repo,
		logger: logger,
		serviceLogger: NewServiceLogger(logger, LogConfig{
			Service:   "quizbank",
			Component: "conversion",
		}),
		validator:    validator,
		progress:     progress,
		outputSuffix: outputSuffix,
	}
}

// DefaultOutputPath inserts suffix before the extension of input, so the output keeps
// the input's format
func DefaultOutputPath(input, suffix string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + suffix + ext
}

func (s *conversionService) OutputPathFor(input string) string {
	return DefaultOutputPath(input, s.outputSuffix)
}

func (s *conversionService) ConvertTabular(ctx context.Context, req *models.ConversionRequest) (*models.ConversionResult, error) {
	return s.convert(ctx, models.StrategyTabular, req, s.normalizeTabular)
}

func (s *conversionService) ConvertEmbedded(ctx context.Context, req *models.ConversionRequest) (*models.ConversionResult, error) {
	return s.convert(ctx, models.StrategyEmbedded, req, s.normalizeEmbedded)
}

type normalizer func(rows [][]string, result *models.ConversionResult) error

func (s *conversionService) convert(ctx context.Context, strategy models.ConversionStrategy, req *models.ConversionRequest, normalize normalizer) (result *models.ConversionResult, err error) {
	op := s.serviceLogger.WithOperation(ctx, "convert_"+string(strategy))
	defer func() {
		op.LogResult(req.InputPath, "table", err, slog.String("strategy", string(strategy)))
	}()

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	// input-missing is reported before any parsing
	if _, statErr := os.Stat(req.InputPath); statErr != nil {
		if os.IsNotExist(statErr) {
			return nil, fmt.Errorf("%w: %s", ErrInputMissing, req.InputPath)
		}
		return nil, fmt.Errorf("failed to stat input: %w", statErr)
	}

	start := time.Now()
	outputPath := req.OutputPath
	if outputPath == "" {
		outputPath = s.OutputPathFor(req.InputPath)
	}

	rows, err := s.repo.ReadAll(ctx, req.InputPath, req.Sheet)
	if err != nil {
		return nil, translateRepositoryError(err, req.InputPath)
	}

	result = &models.ConversionResult{
		Strategy:     strategy,
		InputPath:    req.InputPath,
		OutputPath:   outputPath,
		HeaderRow:    -1,
		TitleColumn:  -1,
		AnswerColumn: -1,
		Records:      []models.Question{},
	}

	if err := normalize(rows, result); err != nil {
		if se, ok := err.(*SchemaError); ok {
			se.Path = req.InputPath
		}
		return nil, err
	}

	if err := s.writeCanonical(ctx, outputPath, result.Records); err != nil {
		return nil, err
	}

	result.RetainedRows = len(result.Records)
	result.Status = models.ConversionCompleted
	result.ProcessingTime = time.Since(start)

	s.logger.Info("Conversion completed",
		"strategy", strategy,
		"input_path", req.InputPath,
		"output_path", outputPath,
		"total_rows", result.TotalRows,
		"retained_rows", result.RetainedRows,
		"skipped_rows", result.SkippedRows,
		"issues", len(result.Issues))

	if s.progress != nil {
		s.progress.ConversionCompleted(ctx, result)
	}
	return result, nil
}

// normalizeTabular implements the header-anchored column inference strategy
func (s *conversionService) normalizeTabular(rows [][]string, result *models.ConversionResult) error {
	roles, reason := ResolveTabularColumns(rows)
	if roles == nil {
		return NewSchemaError(models.StrategyTabular, "", reason)
	}

	result.HeaderRow = roles.HeaderRow
	result.TitleColumn = roles.Title
	result.AnswerColumn = roles.Answer
	result.AnswerScore = roles.AnswerScore
	if roles.AnswerFallback {
		s.logger.Warn("No column looks like an answer key, using the fullest unclaimed column",
			"column", roles.Answer)
	}

	for i := roles.HeaderRow + 1; i < len(rows); i++ {
		row := rows[i]
		result.TotalRows++

		title := utils.CleanText(utils.CellAt(row, roles.Title))
		if title == "" {
			result.SkippedRows++
			continue
		}

		answer := utils.ExtractOptionLetters(utils.CleanText(utils.CellAt(row, roles.Answer)))
		qtype := models.QuestionTypeForAnswer(answer)

		options := make(map[string]string, len(roles.Options))
		for letter, col := range roles.Options {
			options[letter] = utils.CleanText(utils.CellAt(row, col))
		}

		record := models.Question{
			Index:   len(result.Records),
			Stem:    utils.FormatStem(qtype, len(result.Records)+1, title),
			Options: utils.FormatOptions(qtype, options),
			Answer:  answer,
		}
		if err := s.checkRecord(&record, true); err != nil {
			return err
		}

		s.collectIssues(result, i+1, row, roles.Answer, &record, qtype)
		result.Records = append(result.Records, record)
	}
	return nil
}

// normalizeEmbedded implements the composite-cell segmentation strategy
func (s *conversionService) normalizeEmbedded(rows [][]string, result *models.ConversionResult) error {
	if len(rows) == 0 {
		return NewSchemaError(models.StrategyEmbedded, "", "table has no header row")
	}

	header := rows[0]
	labels := make([]string, len(header))
	for i, cell := range header {
		labels[i] = utils.CleanText(cell)
	}

	questionCol := indexOf(labels, models.ColumnStem)
	if questionCol < 0 {
		questionCol = 0
	}
	answerCol := indexOf(labels, models.ColumnAnswer)
	if answerCol < 0 && len(labels) > 1 {
		answerCol = 1
	}

	result.HeaderRow = 0
	result.TitleColumn = questionCol
	result.AnswerColumn = answerCol

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		result.TotalRows++

		question := utils.CleanText(utils.CellAt(row, questionCol))
		if question == "" {
			result.SkippedRows++
			continue
		}

		answerCell := ""
		if answerCol >= 0 {
			answerCell = utils.CellAt(row, answerCol)
		}

		parts := SegmentBlob(question, answerCell, len(result.Records)+1)
		record := parts.Record()
		record.Index = len(result.Records)

		// the annotation may legitimately disagree with the key length here
		if err := s.checkRecord(&record, false); err != nil {
			return err
		}

		s.collectIssues(result, i+1, row, answerCol, &record, parts.Type)
		result.Records = append(result.Records, record)
	}
	return nil
}

func (s *conversionService) checkRecord(record *models.Question, labelDerived bool) error {
	if err := s.validator.Record().ValidateRecord(record); err != nil {
		return fmt.Errorf("normalized record %d is invalid: %w", record.Index+1, err)
	}
	if labelDerived {
		if err := s.validator.Record().ValidateTypeLabel(record); err != nil {
			return fmt.Errorf("normalized record %d is invalid: %w", record.Index+1, err)
		}
	}
	return nil
}

// collectIssues records malformed cells that were degraded rather than rejected
func (s *conversionService) collectIssues(result *models.ConversionResult, sourceRow int, row []string, answerCol int, record *models.Question, qtype models.QuestionType) {
	if record.Answer == "" {
		raw := ""
		if answerCol >= 0 {
			raw = utils.CleanText(utils.CellAt(row, answerCol))
		}
		result.Issues = append(result.Issues, models.RowIssue{
			Row:     sourceRow,
			Column:  models.ColumnAnswer,
			Message: "answer cell has no A-D letters",
			Value:   raw,
			Code:    models.IssueEmptyAnswer,
		})
	}
	if record.Options == string(qtype) {
		result.Issues = append(result.Issues, models.RowIssue{
			Row:     sourceRow,
			Column:  models.ColumnOptions,
			Message: "no options detected",
			Code:    models.IssueNoOptions,
		})
	}
}

func (s *conversionService) writeCanonical(ctx context.Context, path string, records []models.Question) error {
	rows := make([][]any, 0, len(records)+1)
	header := make([]any, len(models.CanonicalColumns))
	for i, name := range models.CanonicalColumns {
		header[i] = name
	}
	rows = append(rows, header)
	for _, r := range records {
		rows = append(rows, []any{r.Stem, r.Options, r.Answer})
	}

	if err := s.repo.WriteAll(ctx, path, repositories.DefaultSheetName, rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
