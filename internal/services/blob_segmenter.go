package services

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/SAP-F-2025/quizbank/internal/models"
	"github.com/SAP-F-2025/quizbank/internal/utils"
)

var (
	trailingParen     = regexp.MustCompile(`(?s)[（(]([^（）()]*)[）)]\s*$`)
	trailingTypeParen = regexp.MustCompile(`(?s)[（(][^（）()]*?(?:单选题|多选题)[^（）()]*?[）)]\s*$`)
	leadingNumber     = regexp.MustCompile(`^\s*"?\s*(\d+)\s*[：:.．、]?\s*`)
	optionMarker      = regexp.MustCompile(`([A-D])\s*[.．、]`)
	optionLine        = regexp.MustCompile(`^\s*([A-D])\s*[.．、]\s*(.+?)\s*$`)
	newlineRun        = regexp.MustCompile(`\s*\n\s*`)
)

// BlobParts is one embedded question cell split into its fields
type BlobParts struct {
	Type    models.QuestionType
	Number  int
	Stem    string
	Options map[string]string
	Answer  string
}

// SegmentBlob runs the extraction pipeline over a cleaned question cell and its answer cell.
// fallbackNumber is used when the text carries no leading sequence number.
func SegmentBlob(question, answer string, fallbackNumber int) BlobParts {
	key := utils.ExtractOptionLetters(utils.CleanText(answer))
	qtype := DetectQuestionType(question, key)

	text := StripTrailingQuestionType(question)
	number, rest, ok := SplitLeadingNumber(text)
	if !ok {
		number = fallbackNumber
	}
	stem, block := SplitStem(rest)

	return BlobParts{
		Type:    qtype,
		Number:  number,
		Stem:    stem,
		Options: ParseOptionsBlock(block),
		Answer:  key,
	}
}

// Record renders the parts in canonical form
func (p BlobParts) Record() models.Question {
	return models.Question{
		Stem:    utils.FormatStem(p.Type, p.Number, p.Stem),
		Options: utils.FormatOptions(p.Type, p.Options),
		Answer:  p.Answer,
	}
}

// DetectQuestionType reads the type from a trailing parenthetical annotation, preferring 多选题
// over 单选题. Without an annotation the answer key length decides.
func DetectQuestionType(text, answer string) models.QuestionType {
	if m := trailingParen.FindStringSubmatch(text); m != nil {
		switch {
		case strings.Contains(m[1], string(models.MultiChoice)):
			return models.MultiChoice
		case strings.Contains(m[1], string(models.SingleChoice)):
			return models.SingleChoice
		}
	}
	return models.QuestionTypeForAnswer(answer)
}

// StripTrailingQuestionType removes a trailing parenthetical that names a question type
func StripTrailingQuestionType(text string) string {
	return strings.TrimSpace(trailingTypeParen.ReplaceAllString(text, ""))
}

// SplitLeadingNumber consumes a leading sequence number and its separator.
// ok is false when the text does not start with digits.
func SplitLeadingNumber(text string) (number int, rest string, ok bool) {
	loc := leadingNumber.FindStringSubmatchIndex(text)
	if loc == nil {
		return 0, text, false
	}
	n, err := strconv.Atoi(text[loc[2]:loc[3]])
	if err != nil {
		return 0, text, false
	}
	return n, strings.TrimLeftFunc(text[loc[1]:], unicode.IsSpace), true
}

// SplitStem cuts text at the first option marker. The stem has its line breaks folded into
// spaces; block is the remainder starting at the marker, or "" when there is none.
func SplitStem(text string) (stem, block string) {
	markers := findOptionMarkers(text)
	cut := len(text)
	if len(markers) > 0 {
		cut = markers[0].start
	}
	stem = strings.TrimSpace(newlineRun.ReplaceAllString(strings.TrimSpace(text[:cut]), " "))
	return stem, text[cut:]
}

// ParseOptionsBlock assigns option texts to letters. Line mode applies when every line that
// carries a marker is a single clean "<letter><sep><text>" line; otherwise each marker's value
// runs to the next marker with whitespace collapsed. Later duplicates of a letter win.
func ParseOptionsBlock(block string) map[string]string {
	options := make(map[string]string)
	if strings.TrimSpace(block) == "" {
		return options
	}

	if parseOptionLines(block, options) {
		return options
	}

	markers := findOptionMarkers(block)
	for i, m := range markers {
		end := len(block)
		if i+1 < len(markers) {
			end = markers[i+1].start
		}
		if value := utils.CollapseWhitespace(block[m.end:end]); value != "" {
			options[m.letter] = value
		}
	}
	return options
}

func parseOptionLines(block string, options map[string]string) bool {
	found := make(map[string]string)
	for _, line := range strings.Split(block, "\n") {
		markers := findOptionMarkers(line)
		if len(markers) == 0 {
			continue
		}
		m := optionLine.FindStringSubmatch(line)
		if m == nil || len(markers) > 1 {
			return false
		}
		found[m[1]] = strings.TrimSpace(m[2])
	}
	if len(found) == 0 {
		return false
	}
	for letter, value := range found {
		options[letter] = value
	}
	return true
}

type optionMarkerPos struct {
	letter     string
	start, end int
}

// findOptionMarkers lists "<letter><sep>" occurrences whose letter starts the text or follows
// whitespace or a rune that is neither a letter nor a digit. A marker glued to the previous
// option's text ("A.3B.4") still counts when its letter is the next one after that option's.
func findOptionMarkers(text string) []optionMarkerPos {
	var out []optionMarkerPos
	for _, loc := range optionMarker.FindAllStringSubmatchIndex(text, -1) {
		start := loc[0]
		letter := text[loc[2]:loc[3]]
		if start > 0 && !nextOptionLetter(out, letter) {
			prev, _ := utf8.DecodeLastRuneInString(text[:start])
			if unicode.IsLetter(prev) || unicode.IsDigit(prev) {
				continue
			}
		}
		out = append(out, optionMarkerPos{letter: letter, start: start, end: loc[1]})
	}
	return out
}

func nextOptionLetter(found []optionMarkerPos, letter string) bool {
	if len(found) == 0 {
		return false
	}
	return found[len(found)-1].letter[0]+1 == letter[0]
}
