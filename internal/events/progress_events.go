package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of progress events
type EventType string

const (
	// Conversion events
	EventConversionCompleted EventType = "conversion.completed"

	// Study events
	EventQuestionAnswered EventType = "question.answered"
	EventQuestionMastered EventType = "question.mastered"
	EventBankExhausted    EventType = "bank.exhausted"
	EventBankReset        EventType = "bank.reset"
)

const (
	eventSource  = "quizbank"
	eventVersion = "1.0"
)

// ProgressEvent is the envelope for every event the service publishes
type ProgressEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Event payloads

type ConversionCompletedEvent struct {
	Strategy     string `json:"strategy"`
	InputPath    string `json:"input_path"`
	OutputPath   string `json:"output_path"`
	RetainedRows int    `json:"retained_rows"`
	SkippedRows  int    `json:"skipped_rows"`
	IssueCount   int    `json:"issue_count"`
}

type QuestionAnsweredEvent struct {
	BankPath       string   `json:"bank_path"`
	Index          int      `json:"index"`
	Correct        bool     `json:"correct"`
	Submitted      []string `json:"submitted"`
	MasteryCount   int      `json:"mastery_count"`
	RemainingCount int      `json:"remaining_count"`
}

type QuestionMasteredEvent struct {
	BankPath     string `json:"bank_path"`
	Index        int    `json:"index"`
	MasteryCount int    `json:"mastery_count"`
	Threshold    int    `json:"threshold"`
}

// BankSnapshotEvent is the payload of bank-wide events (exhausted, reset)
type BankSnapshotEvent struct {
	BankPath  string `json:"bank_path"`
	Total     int    `json:"total"`
	Remaining int    `json:"remaining"`
	Threshold int    `json:"threshold"`
}

// Factory functions

func newEvent(eventType EventType, data interface{}) *ProgressEvent {
	return &ProgressEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    eventSource,
		Version:   eventVersion,
		Data:      data,
	}
}

func NewConversionCompletedEvent(data ConversionCompletedEvent) *ProgressEvent {
	return newEvent(EventConversionCompleted, data)
}

func NewQuestionAnsweredEvent(data QuestionAnsweredEvent) *ProgressEvent {
	return newEvent(EventQuestionAnswered, data)
}

func NewQuestionMasteredEvent(data QuestionMasteredEvent) *ProgressEvent {
	return newEvent(EventQuestionMastered, data)
}

func NewBankExhaustedEvent(data BankSnapshotEvent) *ProgressEvent {
	return newEvent(EventBankExhausted, data)
}

func NewBankResetEvent(data BankSnapshotEvent) *ProgressEvent {
	return newEvent(EventBankReset, data)
}

// GenerateEventID returns a random event identifier
func GenerateEventID() string {
	return uuid.NewString()
}
