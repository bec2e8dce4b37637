package models

// QuestionType is the single/multi-answer label embedded in canonical stems and options
type QuestionType string

const (
	SingleChoice QuestionType = "单选题"
	MultiChoice  QuestionType = "多选题"
)

// Canonical table column names
const (
	ColumnStem           = "题目"
	ColumnOptions        = "选项"
	ColumnAnswer         = "答案"
	DefaultCorrectColumn = "正确次数"
)

// CanonicalColumns is the column order written by the normalization engine
var CanonicalColumns = []string{ColumnStem, ColumnOptions, ColumnAnswer}

// QuestionTypeForAnswer derives the question type from the answer key length.
// An empty key counts as single-answer.
func QuestionTypeForAnswer(answer string) QuestionType {
	if len([]rune(answer)) > 1 {
		return MultiChoice
	}
	return SingleChoice
}

// Question is one canonical record. Index is the stable row position inside its table
// and is the identity used for mastery updates.
type Question struct {
	Index        int    `json:"index"`
	Stem         string `json:"stem" validate:"required"`
	Options      string `json:"options"`
	Answer       string `json:"answer"`
	MasteryCount int    `json:"mastery_count" validate:"min=0"`
}

// Selection is the result of one weighted draw from the remaining set
type Selection struct {
	Index          int    `json:"index"`
	Stem           string `json:"stem"`
	Options        string `json:"options"`
	Answer         string `json:"answer"`
	MasteryCount   int    `json:"mastery_count"`
	RemainingCount int    `json:"remaining_count"`
}

// OptionEntry is a single "<letter>.<text>" option
type OptionEntry struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// QuestionView is a selection decomposed for rendering
type QuestionView struct {
	Type    string        `json:"type"`
	Number  *int          `json:"number,omitempty"`
	Stem    string        `json:"stem"`
	Options []OptionEntry `json:"options"`
}

// AnswerOutcome describes what happened to a submitted learner answer
type AnswerOutcome struct {
	Index          int      `json:"index"`
	Correct        bool     `json:"correct"`
	Submitted      []string `json:"submitted"`
	Expected       string   `json:"expected"`
	MasteryCount   int      `json:"mastery_count"`
	Mastered       bool     `json:"mastered"`
	RemainingCount int      `json:"remaining_count"`
}

// BankStats summarizes mastery progress over a loaded table
type BankStats struct {
	Path          string `json:"path"`
	Total         int    `json:"total"`
	Remaining     int    `json:"remaining"`
	Mastered      int    `json:"mastered"`
	Threshold     int    `json:"threshold"`
	CorrectColumn string `json:"correct_column"`
}
