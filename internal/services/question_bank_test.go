package services

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/SAP-F-2025/quizbank/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeBank(t *testing.T, counts ...any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bank.xlsx")
	rows := [][]any{{"题目", "选项", "答案", "正确次数", "备注"}}
	for i, c := range counts {
		rows = append(rows, []any{
			"单选题  " + string(rune('1'+i)) + ". question",
			"单选题, A.x, B.y",
			"B",
			c,
			"note",
		})
	}
	writeTable(t, path, rows)
	return path
}

func loadBank(t *testing.T, path string, opts BankOptions) *QuestionBank {
	t.Helper()
	bank, err := LoadQuestionBank(context.Background(), newTestRepo(), newTestLogger(), path, opts)
	require.NoError(t, err)
	return bank
}

func TestLoadQuestionBankAddsCounterColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canonical.xlsx")
	writeTable(t, path, [][]any{
		{"题目", "选项", "答案"},
		{"单选题  1. q1", "单选题, A.x", "A"},
		{},
		{"多选题  2. q2", "多选题, A.x, B.y", "AB"},
	})

	bank := loadBank(t, path, BankOptions{})
	assert.Equal(t, DefaultMasteryThreshold, bank.Threshold())
	require.Equal(t, 2, bank.Len())
	for _, q := range bank.Remaining() {
		assert.Zero(t, q.MasteryCount)
	}
	q, err := bank.Question(1)
	require.NoError(t, err)
	assert.Equal(t, 1, q.Index)
	assert.Equal(t, "AB", q.Answer)

	require.NoError(t, bank.Save(context.Background()))
	saved := readTable(t, path)
	assert.Equal(t, []string{"题目", "选项", "答案", "正确次数"}, saved[0])
	assert.Equal(t, []string{"单选题  1. q1", "单选题, A.x", "A", "0"}, saved[1])
	// the blank row keeps its place and gets no counter
	require.Len(t, saved, 4)
	assert.Equal(t, []string{"", "", "", ""}, saved[2])
	assert.Equal(t, []string{"多选题  2. q2", "多选题, A.x, B.y", "AB", "0"}, saved[3])

	reloaded := loadBank(t, path, BankOptions{})
	assert.Equal(t, 2, reloaded.Len())
}

func TestSaveKeepsSheetSelectedByIndex(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "workbook.xlsx")

	f := excelize.NewFile()
	_, err := f.NewSheet("题库")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "说明"))
	require.NoError(t, f.SetSheetRow("题库", "A1", &[]any{"题目", "选项", "答案", "正确次数"}))
	require.NoError(t, f.SetSheetRow("题库", "A2", &[]any{"单选题  1. q", "单选题, A.x, B.y", "A", 0}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	opts := BankOptions{Sheet: "1"}
	bank := loadBank(t, path, opts)
	require.NoError(t, bank.RecordCorrect(&models.Selection{Index: 0}))
	require.NoError(t, bank.Save(ctx))

	require.NoError(t, bank.Reload(ctx))
	q, _ := bank.Question(0)
	assert.Equal(t, 1, q.MasteryCount)

	reloaded := loadBank(t, path, opts)
	q, _ = reloaded.Question(0)
	assert.Equal(t, 1, q.MasteryCount)

	// the other sheet is untouched
	first, err := newTestRepo().ReadAll(ctx, path, "0")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"说明"}}, first)
}

func TestLoadQuestionBankCoercesCounters(t *testing.T) {
	path := writeBank(t, "", "2", "3.7", "abc", "-1", 4)
	bank := loadBank(t, path, BankOptions{Threshold: 10})

	want := []int{0, 2, 3, 0, 0, 4}
	for i, w := range want {
		q, err := bank.Question(i)
		require.NoError(t, err)
		assert.Equal(t, w, q.MasteryCount, "row %d", i)
	}
}

func TestLoadQuestionBankErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	_, err := LoadQuestionBank(ctx, newTestRepo(), newTestLogger(), filepath.Join(dir, "absent.xlsx"), BankOptions{})
	assert.ErrorIs(t, err, ErrInputMissing)

	noStem := filepath.Join(dir, "nostem.xlsx")
	writeTable(t, noStem, [][]any{{"标题", "答案"}, {"q", "A"}})
	_, err = LoadQuestionBank(ctx, newTestRepo(), newTestLogger(), noStem, BankOptions{})
	assert.True(t, IsSchema(err))

	_, err = LoadQuestionBank(ctx, newTestRepo(), newTestLogger(), noStem, BankOptions{Threshold: -1})
	assert.True(t, IsValidation(err))
}

func TestSelectConvergesToEqualFrequency(t *testing.T) {
	bank := loadBank(t, writeBank(t, 0, 0), BankOptions{Threshold: 1})
	rng := rand.New(rand.NewSource(42))

	const draws = 20000
	hits := make([]int, 2)
	for i := 0; i < draws; i++ {
		sel, ok := bank.Select(rng)
		require.True(t, ok)
		assert.Equal(t, 2, sel.RemainingCount)
		hits[sel.Index]++
	}

	assert.InDelta(t, 0.5, float64(hits[0])/draws, 0.02)
	assert.InDelta(t, 0.5, float64(hits[1])/draws, 0.02)
}

func TestSelectWeightsByInverseMastery(t *testing.T) {
	bank := loadBank(t, writeBank(t, 0, 1), BankOptions{Threshold: 5})
	rng := rand.New(rand.NewSource(7))

	const draws = 30000
	zero := 0
	for i := 0; i < draws; i++ {
		sel, ok := bank.Select(rng)
		require.True(t, ok)
		if sel.Index == 0 {
			zero++
		}
	}
	// weights 1 and 1/2: the unmastered question is drawn two thirds of the time
	assert.InDelta(t, 2.0/3.0, float64(zero)/draws, 0.02)
}

func TestSelectUsesInjectedSourceAndWeight(t *testing.T) {
	path := writeBank(t, 0, 0, 0)

	bank := loadBank(t, path, BankOptions{})
	sel, ok := bank.Select(&fixedSource{values: []float64{0}})
	require.True(t, ok)
	assert.Equal(t, 0, sel.Index)

	sel, ok = bank.Select(&fixedSource{values: []float64{0.999}})
	require.True(t, ok)
	assert.Equal(t, 2, sel.Index)

	// only the last question carries weight
	onlyLast := func(count int) float64 { return float64(count) }
	weighted := loadBank(t, writeBank(t, 0, 0, 3), BankOptions{Weight: onlyLast})
	for _, draw := range []float64{0, 0.5, 0.99} {
		sel, ok := weighted.Select(&fixedSource{values: []float64{draw}})
		require.True(t, ok)
		assert.Equal(t, 2, sel.Index)
	}
}

func TestRecordCorrectUntilExhausted(t *testing.T) {
	bank := loadBank(t, writeBank(t, 0, 0), BankOptions{Threshold: 2})
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 4; i++ {
		sel, ok := bank.Select(rng)
		require.True(t, ok)
		require.NoError(t, bank.RecordCorrect(sel))

		for _, q := range bank.Remaining() {
			assert.Less(t, q.MasteryCount, 2)
		}
	}

	sel, ok := bank.Select(rng)
	assert.False(t, ok)
	assert.Nil(t, sel)
	assert.Equal(t, 0, bank.RemainingCount())
	assert.Equal(t, 2, bank.Stats().Mastered)
}

func TestRecordCorrectErrors(t *testing.T) {
	bank := loadBank(t, writeBank(t, 0), BankOptions{})

	err := bank.RecordCorrectBy(&models.Selection{Index: 0}, -1)
	assert.ErrorIs(t, err, ErrInvalidIncrement)

	err = bank.RecordCorrect(&models.Selection{Index: 5})
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	err = bank.RecordCorrect(nil)
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	require.NoError(t, bank.RecordCorrectBy(&models.Selection{Index: 0}, 3))
	q, _ := bank.Question(0)
	assert.Equal(t, 3, q.MasteryCount)
}

func TestSaveThenLoadCountsOnce(t *testing.T) {
	ctx := context.Background()
	path := writeBank(t, 0, 2)

	bank := loadBank(t, path, BankOptions{})
	require.NoError(t, bank.RecordCorrect(&models.Selection{Index: 1}))
	require.NoError(t, bank.Save(ctx))
	require.NoError(t, bank.Save(ctx))

	reloaded := loadBank(t, path, BankOptions{})
	q0, _ := reloaded.Question(0)
	q1, _ := reloaded.Question(1)
	assert.Equal(t, 0, q0.MasteryCount)
	assert.Equal(t, 3, q1.MasteryCount)

	// passthrough columns survive the rewrite
	saved := readTable(t, path)
	assert.Equal(t, []string{"题目", "选项", "答案", "正确次数", "备注"}, saved[0])
	assert.Equal(t, "note", saved[2][4])
}

func TestResetAndReload(t *testing.T) {
	ctx := context.Background()
	path := writeBank(t, 5, 3)
	bank := loadBank(t, path, BankOptions{})
	assert.Equal(t, 1, bank.RemainingCount())

	require.NoError(t, bank.RecordCorrect(&models.Selection{Index: 1}))
	require.NoError(t, bank.Reload(ctx))
	q1, _ := bank.Question(1)
	assert.Equal(t, 3, q1.MasteryCount, "reload discards unsaved changes")

	bank.Reset()
	require.NoError(t, bank.Save(ctx))

	reloaded := loadBank(t, path, BankOptions{})
	assert.Equal(t, 2, reloaded.RemainingCount())
	stats := reloaded.Stats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 0, stats.Mastered)
	assert.Equal(t, models.DefaultCorrectColumn, stats.CorrectColumn)
}

func TestCustomCorrectColumn(t *testing.T) {
	ctx := context.Background()
	path := writeBank(t, 1)
	bank := loadBank(t, path, BankOptions{CorrectColumn: "mastery"})

	q, _ := bank.Question(0)
	assert.Zero(t, q.MasteryCount)
	require.NoError(t, bank.RecordCorrect(&models.Selection{Index: 0}))
	require.NoError(t, bank.Save(ctx))

	saved := readTable(t, path)
	assert.Equal(t, "mastery", saved[0][5])
	assert.Equal(t, "1", saved[1][5])
	assert.Equal(t, "1", saved[1][3], "the default counter column is left untouched")
}

func TestDescribe(t *testing.T) {
	view := Describe(&models.Selection{
		Stem:    "单选题  3. What is 2+2?",
		Options: "单选题, A.3, B.4, C.5",
	})
	assert.Equal(t, "单选题", view.Type)
	require.NotNil(t, view.Number)
	assert.Equal(t, 3, *view.Number)
	assert.Equal(t, "What is 2+2?", view.Stem)
	assert.Len(t, view.Options, 3)

	bare := Describe(&models.Selection{Stem: "free text"})
	assert.Equal(t, "", bare.Type)
	assert.Empty(t, bare.Options)
}
