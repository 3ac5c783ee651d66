package errors

import (
	"fmt"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsCarryUserMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *StandardError
		code ErrorCode
		msg  string
	}{
		{"empty query", NewEmptyQueryError(), ErrCodeEmptyQuery, "Please enter a valid query."},
		{"credential", NewCredentialMissingError("flight_schedule"), ErrCodeCredentialMissing, "API key not found for the selected API."},
		{"unknown dataset", NewUnknownDatasetError("rail"), ErrCodeUnknownDataset, "Invalid API identifier."},
		{"status", NewUpstreamStatusError("aviation_faqs", 503), ErrCodeUpstreamStatus, "Request failed with status code 503."},
		{"csv parse", NewPayloadParseError("CSV", fmt.Errorf("empty body")), ErrCodePayloadParseFailed, "Failed to parse CSV data: empty body"},
		{"json parse", NewPayloadParseError("JSON", fmt.Errorf("invalid json")), ErrCodePayloadParseFailed, "Failed to parse JSON data: invalid json"},
		{"no data", NewNoDataError(), ErrCodeNoData, "No data found for the given filters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.msg, tt.err.Message)
			assert.False(t, tt.err.Timestamp.IsZero())
		})
	}
}

func TestUpstreamStatusRetryable(t *testing.T) {
	assert.True(t, NewUpstreamStatusError("x", 502).Retryable)
	assert.False(t, NewUpstreamStatusError("x", 404).Retryable)
	assert.Equal(t, 404, NewUpstreamStatusError("x", 404).Metadata["statusCode"])
}

func TestUpstreamTransportErrorDropsRequestURL(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "https://api.data.gov.in/resource/x?api-key=secret&format=csv",
		Err: fmt.Errorf("dial tcp 10.0.0.1:443: connect: connection refused"),
	}

	stdErr := NewUpstreamTransportError("petroleum_consumption", err)
	assert.Equal(t, "Request failed: dial tcp 10.0.0.1:443: connect: connection refused", stdErr.Message)
	assert.NotContains(t, stdErr.Error(), "secret")
}

func TestAsStandardError(t *testing.T) {
	wrapped := fmt.Errorf("dispatch: %w", NewNoDataError())

	stdErr, ok := AsStandardError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrCodeNoData, stdErr.Code)

	_, ok = AsStandardError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(NewUpstreamTransportError("flight_schedule", fmt.Errorf("connection refused")))
	assert.Equal(t, "UPSTREAM_TRANSPORT", bpmn.Code)
	assert.Equal(t, 3, bpmn.Retries)
	assert.Equal(t, "TRANSPORT", bpmn.ErrorVariables["errorCategory"])

	vars := bpmn.ToErrorVariables()
	assert.Equal(t, "UPSTREAM_TRANSPORT", vars["errorCode"])
	assert.Equal(t, true, vars["retryable"])

	nonRetry := ConvertToBPMNError(NewUpstreamStatusError("x", 404))
	assert.Equal(t, 0, nonRetry.Retries)
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "CLASSIFICATION", GetErrorCategory(ErrCodeEmptyQuery))
	assert.Equal(t, "CLASSIFICATION", GetErrorCategory(ErrCodeNoMatchingDataset))
	assert.Equal(t, "TRANSPORT", GetErrorCategory(ErrCodeUpstreamStatus))
	assert.Equal(t, "PAYLOAD", GetErrorCategory(ErrCodePayloadParseFailed))
	assert.Equal(t, "PAYLOAD", GetErrorCategory(ErrCodeNoData))
	assert.Equal(t, "CONFIGURATION", GetErrorCategory(ErrCodeCredentialMissing))
	assert.Equal(t, "CONFIGURATION", GetErrorCategory(ErrCodeUnknownDataset))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidJobInput))
	assert.Equal(t, "OTHER", GetErrorCategory("SOMETHING_ELSE"))
}
