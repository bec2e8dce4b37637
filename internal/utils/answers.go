package utils

import (
	"sort"
	"strings"
	"unicode"
)

// ValidChoices are the letters a learner may answer with. Digit answers map onto them 1-based.
var ValidChoices = []string{"A", "B", "C", "D", "E"}

// OptionLetters are the option slots the normalization engine extracts
var OptionLetters = []string{"A", "B", "C", "D"}

// NormalizeAnswers converts free-form answer text into a sorted, duplicate-free letter set.
// All-digit input maps each digit d in [1, len(ValidChoices)] to the d-th letter and drops the
// rest; otherwise only valid choice letters are kept. An empty result means the input is invalid.
func NormalizeAnswers(raw string) []string {
	text := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, strings.ToUpper(raw))
	if text == "" {
		return []string{}
	}

	seen := make(map[string]bool)
	letters := make([]string, 0, len(ValidChoices))
	add := func(letter string) {
		if !seen[letter] {
			seen[letter] = true
			letters = append(letters, letter)
		}
	}

	if isAllDigits(text) {
		for _, r := range text {
			d := int(r - '0')
			if d >= 1 && d <= len(ValidChoices) {
				add(ValidChoices[d-1])
			}
		}
	} else {
		for _, r := range text {
			letter := string(r)
			if isValidChoice(letter) {
				add(letter)
			}
		}
	}

	sort.Strings(letters)
	return letters
}

// AnswersMatch reports whether the user's letters and the expected answer key denote the same
// set. Both sides go through NormalizeAnswers, so order, case and digit forms are absorbed.
func AnswersMatch(user []string, expected string) bool {
	got := NormalizeAnswers(strings.Join(user, ""))
	want := NormalizeAnswers(expected)
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// LettersToString joins a letter set in canonical (sorted) order
func LettersToString(letters []string) string {
	ordered := append([]string(nil), letters...)
	sort.Strings(ordered)
	return strings.Join(ordered, "")
}

// ExtractOptionLetters keeps the first occurrence of each A–D character of an upper-cased
// value, in source order
func ExtractOptionLetters(value string) string {
	var b strings.Builder
	var seen [4]bool
	for _, r := range strings.ToUpper(value) {
		if r >= 'A' && r <= 'D' && !seen[r-'A'] {
			seen[r-'A'] = true
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isAllDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func isValidChoice(letter string) bool {
	for _, c := range ValidChoices {
		if c == letter {
			return true
		}
	}
	return false
}
