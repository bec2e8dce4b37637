package models

import "time"

type ConversionStrategy string

const (
	StrategyTabular  ConversionStrategy = "tabular"
	StrategyEmbedded ConversionStrategy = "embedded"
)

type ConversionStatus string

const (
	ConversionCompleted ConversionStatus = "completed"
	ConversionFailed    ConversionStatus = "failed"
)

// ConversionRequest is the input of both normalization entry points.
// Sheet is a sheet name or a zero-based sheet index; empty selects the first sheet.
type ConversionRequest struct {
	InputPath  string `json:"input_path" validate:"required,table_path"`
	OutputPath string `json:"output_path,omitempty" validate:"omitempty,table_path"`
	Sheet      string `json:"sheet,omitempty" validate:"omitempty,sheet_selector"`
}

// ConversionResult reports one full read/normalize/write pass
type ConversionResult struct {
	Strategy       ConversionStrategy `json:"strategy"`
	InputPath      string             `json:"input_path"`
	OutputPath     string             `json:"output_path"`
	TotalRows      int                `json:"total_rows"`
	RetainedRows   int                `json:"retained_rows"`
	SkippedRows    int                `json:"skipped_rows"`
	HeaderRow      int                `json:"header_row"`
	TitleColumn    int                `json:"title_column"`
	AnswerColumn   int                `json:"answer_column"`
	AnswerScore    float64            `json:"answer_score"`
	Issues         []RowIssue         `json:"issues,omitempty"`
	Records        []Question         `json:"records,omitempty"`
	Status         ConversionStatus   `json:"status"`
	ProcessingTime time.Duration      `json:"processing_time"`
}

// RowIssue is a non-fatal, per-row degradation (malformed cell)
type RowIssue struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Message string `json:"message"`
	Value   string `json:"value"`
	Code    string `json:"code"`
}

const (
	IssueEmptyAnswer = "empty_answer"
	IssueNoOptions   = "no_options"
)
