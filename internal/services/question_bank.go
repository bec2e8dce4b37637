package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/quizbank/internal/models"
	"github.com/SAP-F-2025/quizbank/internal/repositories"
	"github.com/SAP-F-2025/quizbank/internal/utils"
)

// DefaultMasteryThreshold is the number of correct answers after which a question is retired
const DefaultMasteryThreshold = 5

// RandomSource yields uniform draws in [0, 1). *math/rand.Rand satisfies it.
type RandomSource interface {
	Float64() float64
}

// WeightFunc maps a mastery count to an unnormalized selection weight
type WeightFunc func(masteryCount int) float64

// InverseMasteryWeight favors the least mastered questions: 1/(count+1)
func InverseMasteryWeight(masteryCount int) float64 {
	return 1 / float64(masteryCount+1)
}

// BankOptions configures a QuestionBank. Zero values select the defaults.
type BankOptions struct {
	Threshold     int
	CorrectColumn string
	Sheet         string
	Weight        WeightFunc
}

// QuestionBank owns one canonical table for the duration of a study session.
// It holds no lock: callers sharing a bank across goroutines must serialize access.
type QuestionBank struct {
	repo   repositories.TableRepository
	logger *slog.Logger
	path   string
	opts   BankOptions
	// sheet is the name the selector resolved to on the first load
	sheet string

	header     []string
	rows       [][]string
	records    []models.Question
	recordRows []int
	stemCol    int
	optionsCol int
	answerCol  int
	counterCol int
}

// LoadQuestionBank reads the canonical table at path. A missing counter column is added and
// filled with zeros; blank, negative or unparseable counters load as 0.
func LoadQuestionBank(ctx context.Context, repo repositories.TableRepository, logger *slog.Logger, path string, opts BankOptions) (*QuestionBank, error) {
	if opts.Threshold < 0 {
		return nil, NewValidationError("threshold", "must be a positive integer", opts.Threshold)
	}
	if opts.Threshold == 0 {
		opts.Threshold = DefaultMasteryThreshold
	}
	if opts.CorrectColumn == "" {
		opts.CorrectColumn = models.DefaultCorrectColumn
	}
	if opts.Weight == nil {
		opts.Weight = InverseMasteryWeight
	}

	b := &QuestionBank{
		repo:   repo,
		logger: logger.With("bank_path", path),
		path:   path,
		opts:   opts,
	}
	if err := b.Reload(ctx); err != nil {
		return nil, err
	}
	return b, nil
}

// Reload re-reads the table from storage, discarding unsaved counter changes. After the
// first load the sheet is addressed by its resolved name, so an index selector keeps
// pointing at the same sheet.
func (b *QuestionBank) Reload(ctx context.Context) error {
	selector := b.opts.Sheet
	if b.sheet != "" {
		selector = b.sheet
	}
	sheet, err := b.repo.ResolveSheet(ctx, b.path, selector)
	if err != nil {
		return translateRepositoryError(err, b.path)
	}
	rows, err := b.repo.ReadAll(ctx, b.path, sheet)
	if err != nil {
		return translateRepositoryError(err, b.path)
	}
	if len(rows) == 0 {
		return NewSchemaError("", b.path, "table is empty")
	}

	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = strings.TrimSpace(cell)
	}

	stemCol := indexOf(header, models.ColumnStem)
	if stemCol < 0 {
		return NewSchemaError("", b.path, fmt.Sprintf("missing %s column", models.ColumnStem))
	}
	counterCol := indexOf(header, b.opts.CorrectColumn)
	if counterCol < 0 {
		header = append(header, b.opts.CorrectColumn)
		counterCol = len(header) - 1
	}

	b.sheet = sheet
	b.header = header
	b.stemCol = stemCol
	b.optionsCol = indexOf(header, models.ColumnOptions)
	b.answerCol = indexOf(header, models.ColumnAnswer)
	b.counterCol = counterCol
	b.rows = b.rows[:0]
	b.records = b.records[:0]
	b.recordRows = b.recordRows[:0]

	// blank rows are kept for Save but never become records
	for i, raw := range rows[1:] {
		row := make([]string, len(header))
		copy(row, raw)
		b.rows = append(b.rows, row)
		if isBlankRow(raw) {
			continue
		}

		index := len(b.records)
		b.recordRows = append(b.recordRows, i)
		b.records = append(b.records, models.Question{
			Index:        index,
			Stem:         strings.TrimSpace(row[stemCol]),
			Options:      strings.TrimSpace(utils.CellAt(row, b.optionsCol)),
			Answer:       strings.TrimSpace(utils.CellAt(row, b.answerCol)),
			MasteryCount: b.parseCounter(row[counterCol], i+2),
		})
	}

	b.logger.Info("Question bank loaded",
		"questions", len(b.records),
		"remaining", b.RemainingCount(),
		"threshold", b.opts.Threshold)
	return nil
}

func (b *QuestionBank) parseCounter(cell string, sourceRow int) int {
	text := utils.CleanText(cell)
	if text == "" {
		return 0
	}
	if n, err := strconv.Atoi(text); err == nil && n >= 0 {
		return n
	}
	if f, err := strconv.ParseFloat(text, 64); err == nil && f >= 0 && !math.IsInf(f, 0) && f <= math.MaxInt32 {
		return int(f)
	}
	b.logger.Warn("Invalid mastery counter, using 0", "row", sourceRow, "value", text)
	return 0
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Path returns the storage location of the table
func (b *QuestionBank) Path() string {
	return b.path
}

// Threshold returns the mastery threshold T
func (b *QuestionBank) Threshold() int {
	return b.opts.Threshold
}

// Len returns the number of records
func (b *QuestionBank) Len() int {
	return len(b.records)
}

// Question returns a copy of the record at index
func (b *QuestionBank) Question(index int) (*models.Question, error) {
	if index < 0 || index >= len(b.records) {
		return nil, fmt.Errorf("%w: index %d", ErrQuestionNotFound, index)
	}
	q := b.records[index]
	return &q, nil
}

// Remaining returns the records whose counter is below the threshold, in table order
func (b *QuestionBank) Remaining() []models.Question {
	var out []models.Question
	for _, q := range b.records {
		if q.MasteryCount < b.opts.Threshold {
			out = append(out, q)
		}
	}
	return out
}

// RemainingCount returns len(Remaining()) without copying
func (b *QuestionBank) RemainingCount() int {
	n := 0
	for _, q := range b.records {
		if q.MasteryCount < b.opts.Threshold {
			n++
		}
	}
	return n
}

// Select draws one remaining record with probability proportional to its weight.
// ok is false when every record has reached the threshold.
func (b *QuestionBank) Select(rng RandomSource) (*models.Selection, bool) {
	remaining := b.Remaining()
	if len(remaining) == 0 {
		return nil, false
	}

	weights := make([]float64, len(remaining))
	total := 0.0
	for i, q := range remaining {
		w := b.opts.Weight(q.MasteryCount)
		if w < 0 || math.IsNaN(w) {
			w = 0
		}
		weights[i] = w
		total += w
	}

	pick := len(remaining) - 1
	if total > 0 {
		target := rng.Float64() * total
		cumulative := 0.0
		for i, w := range weights {
			cumulative += w
			if target < cumulative {
				pick = i
				break
			}
		}
	} else {
		pick = min(int(rng.Float64()*float64(len(remaining))), len(remaining)-1)
	}

	q := remaining[pick]
	return &models.Selection{
		Index:          q.Index,
		Stem:           q.Stem,
		Options:        q.Options,
		Answer:         q.Answer,
		MasteryCount:   q.MasteryCount,
		RemainingCount: len(remaining),
	}, true
}

// RecordCorrect adds one to the selected record's counter. It does not persist.
func (b *QuestionBank) RecordCorrect(sel *models.Selection) error {
	return b.RecordCorrectBy(sel, 1)
}

// RecordCorrectBy adds n to the selected record's counter. It does not persist.
func (b *QuestionBank) RecordCorrectBy(sel *models.Selection, n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidIncrement, n)
	}
	if sel == nil {
		return fmt.Errorf("%w: no selection", ErrQuestionNotFound)
	}
	if sel.Index < 0 || sel.Index >= len(b.records) {
		return fmt.Errorf("%w: index %d", ErrQuestionNotFound, sel.Index)
	}
	b.records[sel.Index].MasteryCount += n
	return nil
}

// Reset zeroes every counter. It does not persist.
func (b *QuestionBank) Reset() {
	for i := range b.records {
		b.records[i].MasteryCount = 0
	}
}

// Save writes the whole table back to the sheet it was loaded from. Columns other than the
// counter are written exactly as loaded, and blank rows stay where they were.
func (b *QuestionBank) Save(ctx context.Context) error {
	out := make([][]any, 0, len(b.rows)+1)

	header := make([]any, len(b.header))
	for i, name := range b.header {
		header[i] = name
	}
	out = append(out, header)

	for _, row := range b.rows {
		values := make([]any, len(row))
		for j, cell := range row {
			values[j] = cell
		}
		out = append(out, values)
	}
	for i, q := range b.records {
		out[b.recordRows[i]+1][b.counterCol] = q.MasteryCount
	}

	if err := b.repo.WriteAll(ctx, b.path, b.sheet, out); err != nil {
		return fmt.Errorf("failed to save question bank: %w", err)
	}
	b.logger.Debug("Question bank saved", "questions", len(b.records), "sheet", b.sheet)
	return nil
}

// Stats summarizes progress over the table
func (b *QuestionBank) Stats() *models.BankStats {
	remaining := b.RemainingCount()
	return &models.BankStats{
		Path:          b.path,
		Total:         len(b.records),
		Remaining:     remaining,
		Mastered:      len(b.records) - remaining,
		Threshold:     b.opts.Threshold,
		CorrectColumn: b.opts.CorrectColumn,
	}
}

// Describe decomposes a selection for display
func Describe(sel *models.Selection) *models.QuestionView {
	qtype, number, stem := utils.ParsePrompt(sel.Stem)
	optionsType, options := utils.ParseOptionsText(sel.Options)
	if qtype == "" {
		qtype = optionsType
	}
	if options == nil {
		options = []models.OptionEntry{}
	}
	return &models.QuestionView{
		Type:    qtype,
		Number:  number,
		Stem:    stem,
		Options: options,
	}
}
