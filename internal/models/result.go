// internal/models/result.go
package models

import (
	apperrors "gov-dash/internal/common/errors"
)

// Record is one table row keyed by column name. Values are string, int64,
// float64, bool or nil.
type Record map[string]interface{}

// Outcome is the machine-readable result of answering one question.
type Outcome string

const (
	OutcomeOK                Outcome = "ok"
	OutcomeNoMatch           Outcome = "no_match"
	OutcomeEmptyQuery        Outcome = "empty_query"
	OutcomeMissingCredential Outcome = "missing_credential"
	OutcomeUnknownDataset    Outcome = "unknown_dataset"
	OutcomeUpstreamStatus    Outcome = "upstream_status"
	OutcomeTransportFailed   Outcome = "transport_failed"
	OutcomeParseFailed       Outcome = "parse_failed"
	OutcomeNoData            Outcome = "no_data"
)

// Kind selects the single panel a renderer shows.
type Kind string

const (
	KindTable      Kind = "table"
	KindAssistance Kind = "assistance"
	KindMessage    Kind = "message"
)

// QueryResult holds either records or a message, never both.
type QueryResult struct {
	ID          string     `json:"id,omitempty"`
	Query       string     `json:"query,omitempty"`
	DatasetID   string     `json:"datasetId,omitempty"`
	DatasetName string     `json:"datasetName,omitempty"`
	Filters     *FilterSet `json:"filters,omitempty"`
	Columns     []string   `json:"columns"`
	Records     []Record   `json:"records"`
	Message     string     `json:"message,omitempty"`
	Outcome     Outcome    `json:"outcome"`
	Kind        Kind       `json:"kind"`
}

func NewTableResult(columns []string, records []Record) *QueryResult {
	return &QueryResult{
		Columns: columns,
		Records: records,
		Outcome: OutcomeOK,
		Kind:    KindTable,
	}
}

func NewMessageResult(outcome Outcome, message string) *QueryResult {
	kind := KindMessage
	if outcome == OutcomeNoMatch {
		kind = KindAssistance
	}
	return &QueryResult{
		Columns: []string{},
		Records: []Record{},
		Message: message,
		Outcome: outcome,
		Kind:    kind,
	}
}

// NewErrorResult turns a StandardError into a message result.
func NewErrorResult(err *apperrors.StandardError) *QueryResult {
	return NewMessageResult(OutcomeFromCode(err.Code), err.Message)
}

// HasTable reports whether the result carries rows to render.
func (r *QueryResult) HasTable() bool {
	return r != nil && len(r.Records) > 0
}

// OutcomeFromCode maps error codes to outcomes.
func OutcomeFromCode(code apperrors.ErrorCode) Outcome {
	switch code {
	case apperrors.ErrCodeEmptyQuery:
		return OutcomeEmptyQuery
	case apperrors.ErrCodeNoMatchingDataset:
		return OutcomeNoMatch
	case apperrors.ErrCodeCredentialMissing:
		return OutcomeMissingCredential
	case apperrors.ErrCodeUnknownDataset:
		return OutcomeUnknownDataset
	case apperrors.ErrCodeUpstreamStatus:
		return OutcomeUpstreamStatus
	case apperrors.ErrCodeUpstreamTransport, apperrors.ErrCodeUpstreamTimeout:
		return OutcomeTransportFailed
	case apperrors.ErrCodePayloadParseFailed:
		return OutcomeParseFailed
	case apperrors.ErrCodeNoData:
		return OutcomeNoData
	default:
		return OutcomeTransportFailed
	}
}
