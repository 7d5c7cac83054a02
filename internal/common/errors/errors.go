// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Validation: required fields/files missing. No network call is issued.
	ErrCodeValidationFailed  ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidTransition ErrorCode = "INVALID_TRANSITION"

	// AI gateway
	ErrCodeAIGatewayFailed      ErrorCode = "AI_GATEWAY_FAILED"
	ErrCodeAICredentialMissing  ErrorCode = "AI_CREDENTIAL_MISSING"
	ErrCodeAIResponseInvalid    ErrorCode = "AI_RESPONSE_INVALID"
	ErrCodeIdentityMismatch     ErrorCode = "IDENTITY_MISMATCH"
	ErrCodeOverrideConfirmation ErrorCode = "OVERRIDE_CONFIRMATION_REQUIRED"

	// Remote store
	ErrCodeStoreRequestFailed ErrorCode = "STORE_REQUEST_FAILED"
	ErrCodeStoreStaleData     ErrorCode = "STORE_STALE_DATA"
	ErrCodeRecordNotFound     ErrorCode = "RECORD_NOT_FOUND"
	ErrCodeShallowRecord      ErrorCode = "SHALLOW_RECORD"

	// Director authentication
	ErrCodePinInvalid       ErrorCode = "PIN_INVALID"
	ErrCodePinFormatInvalid ErrorCode = "PIN_FORMAT_INVALID"

	ErrCodeWorkflowBusy ErrorCode = "WORKFLOW_BUSY"

	ErrCodeAuditInsertFailed      ErrorCode = "AUDIT_INSERT_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job error variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewValidationError reports missing or malformed operator input.
func NewValidationError(details string) *StandardError {
	return newError(ErrCodeValidationFailed, "Validation failed", details, nil)
}

// NewInvalidTransitionError reports a status move the state machine does not allow.
func NewInvalidTransitionError(from, to string) *StandardError {
	e := newError(ErrCodeInvalidTransition, "Status transition not allowed",
		fmt.Sprintf("from: %s, to: %s", from, to), nil)
	e.Metadata = map[string]interface{}{"from": from, "to": to}
	return e
}

// NewAIGatewayError wraps a transport or HTTP status failure of the AI service.
func NewAIGatewayError(operation string, err error) *StandardError {
	return newError(ErrCodeAIGatewayFailed, fmt.Sprintf("AI gateway '%s' failed", operation), err.Error(), err)
}

func NewAICredentialMissingError() *StandardError {
	return newError(ErrCodeAICredentialMissing, "AI API key is not configured", "apis.genai.api_key is empty", nil)
}

// NewAIResponseInvalidError reports an AI answer that is empty, not JSON or off-schema.
func NewAIResponseInvalidError(operation, details string) *StandardError {
	return newError(ErrCodeAIResponseInvalid, fmt.Sprintf("AI gateway '%s' returned an invalid response", operation), details, nil)
}

// NewIdentityMismatchError is recoverable through the director PIN override.
func NewIdentityMismatchError(fileName, reason string) *StandardError {
	e := newError(ErrCodeIdentityMismatch, fmt.Sprintf("Identity check failed for %s", fileName), reason, nil)
	e.Metadata = map[string]interface{}{"file": fileName, "reason": reason}
	return e
}

func NewOverrideConfirmationError(requested, liberal float64) *StandardError {
	e := newError(ErrCodeOverrideConfirmation, "Approved limit exceeds the liberal bound; confirmation required",
		fmt.Sprintf("requested: %.0f, liberal: %.0f", requested, liberal), nil)
	e.Metadata = map[string]interface{}{"requested": requested, "liberal": liberal}
	return e
}

// NewStoreRequestError wraps a remote store HTTP failure or a success=false envelope.
func NewStoreRequestError(action string, err error) *StandardError {
	return newError(ErrCodeStoreRequestFailed, fmt.Sprintf("Remote store action '%s' failed", action), err.Error(), err)
}

// NewStaleDataError reports the store's optimistic-locking conflict.
func NewStaleDataError(action, details string) *StandardError {
	return newError(ErrCodeStoreStaleData, fmt.Sprintf("Remote store rejected stale data on '%s'", action), details, nil)
}

func NewRecordNotFoundError(id string) *StandardError {
	return newError(ErrCodeRecordNotFound, "Application not found", fmt.Sprintf("id: %s", id), nil)
}

// NewShallowRecordError blocks decisions on a list-derived record lacking analysis data.
func NewShallowRecordError(id string) *StandardError {
	return newError(ErrCodeShallowRecord, "Full record with analysis is required; load it before deciding",
		fmt.Sprintf("id: %s", id), nil)
}

func NewPinInvalidError() *StandardError {
	return newError(ErrCodePinInvalid, "Director PIN rejected", "", nil)
}

func NewPinFormatError() *StandardError {
	return newError(ErrCodePinFormatInvalid, "PIN must be exactly 6 digits", "", nil)
}

func NewWorkflowBusyError(operation string) *StandardError {
	return newError(ErrCodeWorkflowBusy, "Another workflow operation is in progress",
		fmt.Sprintf("rejected: %s", operation), nil)
}

func NewAuditInsertFailedError(err error) *StandardError {
	return newError(ErrCodeAuditInsertFailed, "Audit log insert failed", err.Error(), err)
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("channel: %s, error: %s", channel, err.Error()), err)
}

// ==========================
// 4. Inspection helpers
// ==========================

// AsStandardError extracts a StandardError from an error chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// IsStaleData reports whether err is the store's optimistic-locking conflict.
func IsStaleData(err error) bool {
	return HasCode(err, ErrCodeStoreStaleData)
}

// IsIdentityMismatch reports whether err is the recoverable identity-check failure.
func IsIdentityMismatch(err error) bool {
	return HasCode(err, ErrCodeIdentityMismatch)
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
// Codes map one to one. Nothing in this workflow is retried automatically.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"errorCategory":     GetErrorCategory(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      false,
		Retries:        0,
		ErrorVariables: vars,
	}
}

// GetErrorCategory returns the taxonomy group of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case code == ErrCodeIdentityMismatch:
		return "IDENTITY"
	case strings.HasPrefix(codeStr, "AI_"):
		return "AI"
	case strings.HasPrefix(codeStr, "STORE_") || code == ErrCodeRecordNotFound:
		return "STORE"
	case strings.HasPrefix(codeStr, "PIN_"):
		return "AUTH"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	case code == ErrCodeShallowRecord || code == ErrCodeInvalidTransition ||
		code == ErrCodeWorkflowBusy || code == ErrCodeOverrideConfirmation:
		return "WORKFLOW"
	case code == ErrCodeAuditInsertFailed || code == ErrCodeNotificationSendFailed:
		return "BACKGROUND"
	default:
		return "OTHER"
	}
}
