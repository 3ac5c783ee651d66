// Package querylog records every answered question to a durable sink.
package querylog

import (
	"context"
	"encoding/json"
	"time"

	"gov-dash/internal/models"

	"github.com/google/uuid"
)

// Entry is one answered question.
type Entry struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	DatasetID   string    `json:"datasetId,omitempty"`
	Outcome     string    `json:"outcome"`
	RecordCount int       `json:"recordCount"`
	Filters     string    `json:"filters,omitempty"`
	Message     string    `json:"message,omitempty"`
	DurationMS  int64     `json:"durationMs"`
	CreatedAt   time.Time `json:"createdAt"`
}

// NewEntry summarises result. The result ID is reused when set.
func NewEntry(result *models.QueryResult, duration time.Duration) Entry {
	id := result.ID
	if id == "" {
		id = uuid.NewString()
	}

	e := Entry{
		ID:          id,
		Query:       result.Query,
		DatasetID:   result.DatasetID,
		Outcome:     string(result.Outcome),
		RecordCount: len(result.Records),
		Message:     result.Message,
		DurationMS:  duration.Milliseconds(),
		CreatedAt:   time.Now().UTC(),
	}
	if result.Kind == models.KindAssistance {
		// the assistance text is static and long
		e.Message = ""
	}
	if result.Filters != nil {
		if data, err := json.Marshal(result.Filters); err == nil {
			e.Filters = string(data)
		}
	}
	return e
}

// Sink persists entries.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// NopSink drops entries.
type NopSink struct{}

func (NopSink) Record(context.Context, Entry) error { return nil }
