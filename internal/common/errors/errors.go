// Package errors provides the standardized error taxonomy for the lab
// pipeline. Every recoverable per-task failure is classified here so
// batch records stay auditable.
package errors

import (
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodePlanGateDenied   ErrorCode = "PLAN_GATE_DENIED"

	ErrCodeClassifyFallback ErrorCode = "CLASSIFY_FALLBACK"

	ErrCodeRefineFailed  ErrorCode = "REFINE_FAILED"
	ErrCodeRefineTimeout ErrorCode = "REFINE_TIMEOUT"

	ErrCodeScoreFailed        ErrorCode = "SCORE_FAILED"
	ErrCodeScorePersistFailed ErrorCode = "SCORE_PERSIST_FAILED"

	ErrCodeRunPersistFailed ErrorCode = "RUN_PERSIST_FAILED"
	ErrCodeRecordNotFound   ErrorCode = "RECORD_NOT_FOUND"

	ErrCodeTaskSourceFailed   ErrorCode = "TASK_SOURCE_FAILED"
	ErrCodeBatchLimitExceeded ErrorCode = "BATCH_LIMIT_EXCEEDED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError is a structured application error carrying the code the
// run record is annotated with.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// New creates a StandardError with the current timestamp.
func New(code ErrorCode, message string) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Retryable: isRetryable(code),
		Timestamp: time.Now().UTC(),
	}
}

// Wrap creates a StandardError whose details carry the underlying error.
func Wrap(code ErrorCode, message string, err error) *StandardError {
	se := New(code, message)
	if err != nil {
		se.Details = err.Error()
	}
	return se
}

// WithMetadata attaches task-identifying context used in failure logs.
func (e *StandardError) WithMetadata(md map[string]interface{}) *StandardError {
	e.Metadata = md
	return e
}

// Normalize ensures any error is a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	if se, ok := err.(*StandardError); ok {
		return se
	}
	return Wrap(ErrCodeInternal, "unexpected error", err)
}

func isRetryable(code ErrorCode) bool {
	switch code {
	case ErrCodeRefineTimeout, ErrCodeTaskSourceFailed:
		return true
	}
	return false
}
