// cmd/veridex/errors.go
package main

import "fmt"

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeReasoning ErrorType = "reasoning"
	ErrorTypeEvidence  ErrorType = "evidence"
	ErrorTypePipeline  ErrorType = "pipeline"
	ErrorTypeConfig    ErrorType = "config"
	ErrorTypeServer    ErrorType = "server"
	ErrorTypeInternal  ErrorType = "internal"
)

// VeridexError is the custom error type for the application
type VeridexError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
	Inner   error     `json:"-"`
}

func (e *VeridexError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("[%s-%s] %s: %v", e.Type, e.Code, e.Message, e.Inner)
	}
	return fmt.Sprintf("[%s-%s] %s", e.Type, e.Code, e.Message)
}

func (e *VeridexError) Unwrap() error { return e.Inner }

// NewError creates a new VeridexError
func NewError(errType ErrorType, code string, message string, inner error) *VeridexError {
	return &VeridexError{
		Type:    errType,
		Code:    code,
		Message: message,
		Inner:   inner,
	}
}

// Common error constructors
func NewReasoningError(code string, message string, inner error) *VeridexError {
	return NewError(ErrorTypeReasoning, code, message, inner)
}

func NewEvidenceError(code string, message string, inner error) *VeridexError {
	return NewError(ErrorTypeEvidence, code, message, inner)
}

func NewPipelineError(code string, message string, inner error) *VeridexError {
	return NewError(ErrorTypePipeline, code, message, inner)
}

func NewConfigError(code string, message string, inner error) *VeridexError {
	return NewError(ErrorTypeConfig, code, message, inner)
}

// Error codes
const (
	// Reasoning error codes
	ErrReasoningCall  = "LLM_001"
	ErrReasoningParse = "LLM_002"
	ErrReasoningRate  = "LLM_003"

	// Evidence error codes
	ErrEvidenceFetch = "EVID_001"
	ErrEvidenceParse = "EVID_002"
	ErrEvidenceAuth  = "EVID_003"

	// Pipeline error codes
	ErrPipelineStage    = "PIPE_001"
	ErrPipelineContract = "PIPE_002"

	// Config error codes
	ErrConfigLoad       = "CONFIG_001"
	ErrConfigValidation = "CONFIG_002"

	// Server error codes
	ErrServerRequest = "SRV_001"
	ErrServerJob     = "SRV_002"
)
