package parsedatasetquery

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gov-dash/internal/common/config"
	apperrors "gov-dash/internal/common/errors"
	govhttp "gov-dash/internal/common/http"
	"gov-dash/internal/common/logger"
	"gov-dash/internal/opendata/dispatcher"
	"gov-dash/internal/opendata/service"
	"gov-dash/pkg/registry"
)

func newTestHandler(t *testing.T) *Handler {
	log := logger.NewTestLogger(t)
	reg := registry.Default()
	d := dispatcher.New(reg, dispatcher.StaticCredentials{}, govhttp.NewClient(time.Second, 1), log)
	svc := service.New(reg, d, log)
	return NewHandler(LoadConfig(config.WorkerConfig{}), svc, log)
}

func TestExecute(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name      string
		question  string
		matched   bool
		datasetID string
		fields    map[string]string
	}{
		{
			name:      "petroleum",
			question:  "Show me the consumption of LPG in 2022.",
			matched:   true,
			datasetID: "petroleum_consumption",
			fields:    map[string]string{"products": "LPG", "year": "2022"},
		},
		{
			name:      "grievance has no filters",
			question:  "Show me the aviation grievances for Ethiopian Airlines in 2024.",
			matched:   true,
			datasetID: "aviation_grievance",
			fields:    map[string]string{},
		},
		{
			name:      "airport services",
			question:  "Where are the pharmacy services at Mumbai Airport?",
			matched:   true,
			datasetID: "airport_services",
			fields:    map[string]string{"airport": "Mumbai"},
		},
		{
			name:     "no match",
			question: "hello there",
			matched:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := h.Execute(context.Background(), &Input{Question: tt.question})
			require.NoError(t, err)
			assert.Equal(t, tt.matched, out.Matched)
			if !tt.matched {
				assert.Contains(t, out.Message, "Examples:")
				assert.Nil(t, out.Filters)
				return
			}
			assert.Equal(t, tt.datasetID, out.DatasetID)
			require.NotNil(t, out.Filters)
			assert.Equal(t, tt.fields, out.Filters.Fields)
			assert.Equal(t, "csv", out.Format)
		})
	}
}

func TestExecute_EmptyQuestion(t *testing.T) {
	h := newTestHandler(t)

	_, err := h.Execute(context.Background(), &Input{Question: "   "})
	stdErr, ok := apperrors.AsStandardError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeEmptyQuery, stdErr.Code)
}

func TestOutput_FlatFilters(t *testing.T) {
	h := newTestHandler(t)

	out, err := h.Execute(context.Background(), &Input{Question: "Show me the consumption of LPG in 2022 limit 5"})
	require.NoError(t, err)

	data, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"matched": true,
		"datasetId": "petroleum_consumption",
		"filters": {"offset": 0, "limit": 5, "format": "csv", "products": "LPG", "year": "2022"},
		"format": "csv"
	}`, string(data))
}

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, int64(10000), LoadConfig(config.WorkerConfig{}).Timeout.Milliseconds())
	assert.Equal(t, int64(2500), LoadConfig(config.WorkerConfig{Timeout: 2500}).Timeout.Milliseconds())
}

func TestInputSchema(t *testing.T) {
	assert.True(t, validator.Validate(`{"question":"Show me grievance data","extra":1}`).Valid)
	assert.True(t, validator.Validate(`{}`).HasErrors("question"))
	assert.True(t, validator.Validate(`{"question":7}`).HasErrors("question"))
}
