package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/SAP-F-2025/quizbank/internal/models"
)

var (
	promptPattern      = regexp.MustCompile(`(?s)^\s*(?P<qtype>[\x{4e00}-\x{9fa5}A-Za-z]+题)?\s*(?P<num>\d+)?[.:：、]?\s*(?P<stem>.*)$`)
	optionEntryPattern = regexp.MustCompile(`^\s*([A-Z])\s*[.:：．、]\s*(.*)$`)
	optionsSplitter    = regexp.MustCompile(`[，,]|\n`)
)

// FormatStem renders the canonical stem "<type>  <number>. <body>"
func FormatStem(qtype models.QuestionType, number int, body string) string {
	return fmt.Sprintf("%s  %d. %s", qtype, number, body)
}

// FormatOptions renders the canonical options string: the type label followed by
// "<letter>.<text>" for every non-empty option in A–D order, joined by ", "
func FormatOptions(qtype models.QuestionType, options map[string]string) string {
	parts := []string{string(qtype)}
	for _, letter := range OptionLetters {
		if value := options[letter]; value != "" {
			parts = append(parts, letter+"."+value)
		}
	}
	return strings.Join(parts, ", ")
}

// ParsePrompt splits a canonical stem into its type label, number and body.
// Missing parts come back as "" and nil.
func ParsePrompt(prompt string) (string, *int, string) {
	if prompt == "" {
		return "", nil, ""
	}
	m := promptPattern.FindStringSubmatch(prompt)
	if m == nil {
		return "", nil, strings.TrimSpace(prompt)
	}
	qtype := m[promptPattern.SubexpIndex("qtype")]
	stem := strings.TrimSpace(m[promptPattern.SubexpIndex("stem")])

	var number *int
	if numText := m[promptPattern.SubexpIndex("num")]; numText != "" {
		if n, err := strconv.Atoi(numText); err == nil {
			number = &n
		}
	}
	return qtype, number, stem
}

// ParseOptionsText splits a canonical options string (comma or newline separated) into its
// type label and option entries
func ParseOptionsText(text string) (string, []models.OptionEntry) {
	if text == "" {
		return "", nil
	}

	qtype := ""
	var options []models.OptionEntry
	for _, raw := range optionsSplitter.Split(text, -1) {
		part := strings.TrimSpace(raw)
		if part == "" {
			continue
		}
		if m := optionEntryPattern.FindStringSubmatch(part); m != nil {
			options = append(options, models.OptionEntry{Letter: m[1], Text: strings.TrimSpace(m[2])})
		} else if qtype == "" && strings.HasSuffix(part, "题") {
			qtype = part
		}
	}
	return qtype, options
}
