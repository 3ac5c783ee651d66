// Package errors provides the standardized error taxonomy for query answering.
// Every failure kind carries the user-visible message shown in place of a table.
package errors

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ErrorCode is a stable machine-readable error identifier.
type ErrorCode string

const (
	ErrCodeEmptyQuery        ErrorCode = "EMPTY_QUERY"
	ErrCodeNoMatchingDataset ErrorCode = "NO_MATCHING_DATASET"

	ErrCodeCredentialMissing ErrorCode = "CREDENTIAL_MISSING"
	ErrCodeUnknownDataset    ErrorCode = "UNKNOWN_DATASET"

	ErrCodeUpstreamStatus    ErrorCode = "UPSTREAM_STATUS"
	ErrCodeUpstreamTransport ErrorCode = "UPSTREAM_TRANSPORT"
	ErrCodeUpstreamTimeout   ErrorCode = "UPSTREAM_TIMEOUT"

	ErrCodePayloadParseFailed ErrorCode = "PAYLOAD_PARSE_FAILED"
	ErrCodeNoData             ErrorCode = "NO_DATA"

	ErrCodeInvalidJobInput ErrorCode = "INVALID_JOB_INPUT"
	ErrCodeInvalidRegistry ErrorCode = "INVALID_REGISTRY"
)

// User-visible messages.
const (
	MsgEmptyQuery        = "Please enter a valid query."
	MsgCredentialMissing = "API key not found for the selected API."
	MsgUnknownDataset    = "Invalid API identifier."
	MsgNoData            = "No data found for the given filters."
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func newError(code ErrorCode, message, details string, retryable bool) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewEmptyQueryError() *StandardError {
	return newError(ErrCodeEmptyQuery, MsgEmptyQuery, "", false)
}

// NewNoMatchingDatasetError carries the assistance text as its message.
func NewNoMatchingDatasetError(assistance string) *StandardError {
	return newError(ErrCodeNoMatchingDataset, assistance, "", false)
}

func NewCredentialMissingError(datasetID string) *StandardError {
	return newError(ErrCodeCredentialMissing, MsgCredentialMissing, fmt.Sprintf("datasetId: %s", datasetID), false)
}

func NewUnknownDatasetError(datasetID string) *StandardError {
	return newError(ErrCodeUnknownDataset, MsgUnknownDataset, fmt.Sprintf("datasetId: %s", datasetID), false)
}

func NewUpstreamStatusError(datasetID string, status int) *StandardError {
	e := newError(ErrCodeUpstreamStatus,
		fmt.Sprintf("Request failed with status code %d.", status),
		fmt.Sprintf("datasetId: %s", datasetID),
		status >= 500)
	e.Metadata = map[string]interface{}{"statusCode": status}
	return e
}

// NewUpstreamTransportError reports a failed request. A *url.Error is reduced
// to its cause so the request URL, and the api-key in it, never reaches the
// message.
func NewUpstreamTransportError(datasetID string, err error) *StandardError {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		err = ue.Err
	}
	return newError(ErrCodeUpstreamTransport,
		fmt.Sprintf("Request failed: %v", err),
		fmt.Sprintf("datasetId: %s", datasetID),
		true)
}

func NewUpstreamTimeoutError(datasetID string) *StandardError {
	return newError(ErrCodeUpstreamTimeout,
		"Request timed out while contacting the data service.",
		fmt.Sprintf("datasetId: %s", datasetID),
		true)
}

// NewPayloadParseError describes a malformed body. kind is "CSV" or "JSON".
func NewPayloadParseError(kind string, err error) *StandardError {
	return newError(ErrCodePayloadParseFailed,
		fmt.Sprintf("Failed to parse %s data: %v", kind, err),
		"",
		false)
}

func NewNoDataError() *StandardError {
	return newError(ErrCodeNoData, MsgNoData, "", false)
}

func NewInvalidJobInputError(err error) *StandardError {
	return newError(ErrCodeInvalidJobInput, "Invalid job variables", err.Error(), false)
}

func NewInvalidRegistryError(details string) *StandardError {
	return newError(ErrCodeInvalidRegistry, "Dataset registry is invalid", details, false)
}

// AsStandardError unwraps err to a *StandardError when one is in the chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if errors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// BPMNError is thrown to the Camunda workflow engine.
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

// ToErrorVariables returns the variables attached to a failed or thrown job.
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

// GetRetryCount returns how many times a job failing with code may be retried.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeUpstreamTransport:
		return 3
	case ErrCodeUpstreamTimeout, ErrCodeUpstreamStatus:
		return 2
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError for the workflow engine.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}
	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"errorCategory": GetErrorCategory(stdErr.Code),
			"timestamp":     stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// GetErrorCategory groups codes for logging and metrics.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case codeStr == string(ErrCodeEmptyQuery) || codeStr == string(ErrCodeNoMatchingDataset):
		return "CLASSIFICATION"
	case strings.HasPrefix(codeStr, "UPSTREAM"):
		return "TRANSPORT"
	case strings.Contains(codeStr, "PARSE") || codeStr == string(ErrCodeNoData):
		return "PAYLOAD"
	case strings.Contains(codeStr, "CREDENTIAL") || strings.Contains(codeStr, "DATASET") || strings.Contains(codeStr, "REGISTRY"):
		return "CONFIGURATION"
	case strings.Contains(codeStr, "INVALID"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
