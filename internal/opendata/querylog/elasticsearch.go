package querylog

import (
	"context"
	"encoding/json"

	"gov-dash/internal/common/database"
)

// ElasticsearchSink indexes entries as documents keyed by entry id.
type ElasticsearchSink struct {
	es    *database.ElasticsearchClient
	index string
}

func NewElasticsearchSink(es *database.ElasticsearchClient, index string) *ElasticsearchSink {
	return &ElasticsearchSink{es: es, index: index}
}

func (s *ElasticsearchSink) Record(ctx context.Context, e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return s.es.IndexDocument(ctx, s.index, e.ID, body)
}
