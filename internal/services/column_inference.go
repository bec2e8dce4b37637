package services

import (
	"strings"

	"github.com/SAP-F-2025/quizbank/internal/utils"
)

// Header labels recognised by the tabular strategy
const (
	labelTitle    = "标题"
	labelQuestion = "题目"
	labelOption   = "选项"
)

const (
	// answer cells longer than this are penalised per extra rune
	answerLengthAllowance = 4
	answerLengthPenalty   = 0.02
)

// ColumnScore is the answer-column heuristic evaluated over one candidate column
type ColumnScore struct {
	Index     int     `json:"index"`
	NonEmpty  int     `json:"non_empty"`
	MatchRate float64 `json:"match_rate"`
	AvgLength float64 `json:"avg_length"`
	Score     float64 `json:"score"`
}

// ColumnRoles records which column plays which part in a tabular sheet.
// Options maps a letter A-D to its column; absent letters are missing from the map.
type ColumnRoles struct {
	HeaderRow      int
	Title          int
	Options        map[string]int
	Answer         int
	AnswerScore    float64
	AnswerFallback bool
}

// FindHeaderRow returns the first row holding a cleaned cell equal to 标题 or 题目, or -1
func FindHeaderRow(rows [][]string) int {
	for i, row := range rows {
		for _, cell := range row {
			switch utils.CleanText(cell) {
			case labelTitle, labelQuestion:
				return i
			}
		}
	}
	return -1
}

// ScoreAnswerColumn scores one column of data cells. A cell matches when it carries at least one
// A-D letter once upper-cased; the score is the match rate minus a penalty for long cells.
// Empty cells are ignored. A column without non-empty cells scores zero with NonEmpty == 0.
func ScoreAnswerColumn(index int, cells []string) ColumnScore {
	score := ColumnScore{Index: index}

	matched, totalLen := 0, 0
	for _, raw := range cells {
		cell := strings.ToUpper(utils.CleanText(raw))
		if cell == "" {
			continue
		}
		score.NonEmpty++
		totalLen += len([]rune(cell))
		if utils.ExtractOptionLetters(cell) != "" {
			matched++
		}
	}
	if score.NonEmpty == 0 {
		return score
	}

	score.MatchRate = float64(matched) / float64(score.NonEmpty)
	score.AvgLength = float64(totalLen) / float64(score.NonEmpty)
	score.Score = score.MatchRate - answerLengthPenalty*max(0, score.AvgLength-answerLengthAllowance)
	return score
}

// InferAnswerColumn picks the answer column among candidates. The best score among columns with a
// positive match rate wins, the lowest index winning ties. When no candidate matches at all the
// column with the most non-blank raw cells is chosen, again preferring the lowest index.
// ok is false only when there are no candidates.
func InferAnswerColumn(data [][]string, candidates []int) (best ColumnScore, fallback bool, ok bool) {
	if len(candidates) == 0 {
		return ColumnScore{}, false, false
	}

	found := false
	for _, col := range candidates {
		s := ScoreAnswerColumn(col, column(data, col))
		if s.MatchRate <= 0 {
			continue
		}
		if !found || s.Score > best.Score || (s.Score == best.Score && col < best.Index) {
			best = s
			found = true
		}
	}
	if found {
		return best, false, true
	}

	bestCount := -1
	for _, col := range candidates {
		count := 0
		for _, row := range data {
			if strings.TrimSpace(utils.CellAt(row, col)) != "" {
				count++
			}
		}
		if count > bestCount || (count == bestCount && col < best.Index) {
			bestCount = count
			best = ColumnScore{Index: col, NonEmpty: count}
		}
	}
	return best, true, true
}

// ResolveTabularColumns locates the header row and assigns the title, option and answer roles.
// A column is claimed by at most one role. The returned reason is non-empty when the layout
// cannot be resolved.
func ResolveTabularColumns(rows [][]string) (*ColumnRoles, string) {
	headerRow := FindHeaderRow(rows)
	if headerRow < 0 {
		return nil, "no header row containing 标题 or 题目"
	}

	header := rows[headerRow]
	labels := make([]string, len(header))
	for i, cell := range header {
		labels[i] = utils.CleanText(cell)
	}

	roles := &ColumnRoles{
		HeaderRow: headerRow,
		Title:     0,
		Options:   make(map[string]int),
	}
	if idx := indexOf(labels, labelTitle); idx >= 0 {
		roles.Title = idx
	} else if idx := indexOf(labels, labelQuestion); idx >= 0 {
		roles.Title = idx
	}

	claimed := map[int]bool{roles.Title: true}
	for _, letter := range utils.OptionLetters {
		idx := indexOf(labels, labelOption+letter)
		if idx < 0 || claimed[idx] {
			continue
		}
		roles.Options[letter] = idx
		claimed[idx] = true
	}

	width := 0
	for _, row := range rows {
		width = max(width, len(row))
	}
	var candidates []int
	for col := 0; col < width; col++ {
		if !claimed[col] {
			candidates = append(candidates, col)
		}
	}

	best, fallback, ok := InferAnswerColumn(rows[headerRow+1:], candidates)
	if !ok {
		return nil, "no unclaimed column left for the answer"
	}
	roles.Answer = best.Index
	roles.AnswerScore = best.Score
	roles.AnswerFallback = fallback
	return roles, ""
}

func column(rows [][]string, idx int) []string {
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = utils.CellAt(row, idx)
	}
	return out
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
