package models

import (
	"encoding/json"
	"testing"

	apperrors "gov-dash/internal/common/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterSet_MarshalFlat(t *testing.T) {
	fs := NewFilterSet(15)
	fs.Set("year", "2022")
	fs.Set("products", "LPG")

	data, err := json.Marshal(fs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"offset":0,"limit":15,"format":"csv","year":"2022","products":"LPG"}`, string(data))
	assert.Equal(t, []string{"products", "year"}, fs.Names())
}

func TestFilterSet_Unmarshal(t *testing.T) {
	var fs FilterSet
	require.NoError(t, json.Unmarshal([]byte(`{"offset":"5","limit":20,"airline":"Vistara","origin":null}`), &fs))

	assert.Equal(t, 5, fs.Offset)
	assert.Equal(t, 20, fs.Limit)
	assert.Equal(t, "csv", fs.Format)
	assert.Equal(t, "Vistara", fs.Get("airline"))
	_, present := fs.Fields["origin"]
	assert.False(t, present)

	assert.Error(t, json.Unmarshal([]byte(`{"limit":"ten"}`), &fs))
}

func TestFilterSet_UnmarshalRejectsBadPagination(t *testing.T) {
	for _, doc := range []string{
		`{"offset":-5}`,
		`{"offset":"-1"}`,
		`{"limit":2.9}`,
		`{"limit":-10}`,
	} {
		var fs FilterSet
		assert.Error(t, json.Unmarshal([]byte(doc), &fs), doc)
	}

	var fs FilterSet
	require.NoError(t, json.Unmarshal([]byte(`{"offset":3.0,"limit":"0"}`), &fs))
	assert.Equal(t, 3, fs.Offset)
	assert.Equal(t, 0, fs.Limit)
}

func TestNewMessageResult(t *testing.T) {
	r := NewMessageResult(OutcomeNoData, "No data found for the given filters.")
	assert.Equal(t, KindMessage, r.Kind)
	assert.Empty(t, r.Records)
	assert.False(t, r.HasTable())

	a := NewMessageResult(OutcomeNoMatch, "help")
	assert.Equal(t, KindAssistance, a.Kind)
}

func TestNewErrorResult(t *testing.T) {
	r := NewErrorResult(apperrors.NewUpstreamStatusError("flight_schedule", 500))
	assert.Equal(t, OutcomeUpstreamStatus, r.Outcome)
	assert.Equal(t, "Request failed with status code 500.", r.Message)

	assert.Equal(t, OutcomeMissingCredential, OutcomeFromCode(apperrors.ErrCodeCredentialMissing))
	assert.Equal(t, OutcomeParseFailed, OutcomeFromCode(apperrors.ErrCodePayloadParseFailed))
	assert.Equal(t, OutcomeTransportFailed, OutcomeFromCode(apperrors.ErrCodeUpstreamTimeout))
}

func TestTableResult(t *testing.T) {
	r := NewTableResult([]string{"year"}, []Record{{"year": int64(2022)}})
	assert.True(t, r.HasTable())
	assert.Equal(t, KindTable, r.Kind)
	assert.Empty(t, r.Message)
}
