// Package service answers one natural-language question end to end:
// classify, extract filters, dispatch, record.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	apperrors "gov-dash/internal/common/errors"
	"gov-dash/internal/common/logger"
	"gov-dash/internal/common/metrics"
	"gov-dash/internal/common/observability"
	"gov-dash/internal/models"
	"gov-dash/internal/opendata/classifier"
	"gov-dash/internal/opendata/dispatcher"
	"gov-dash/internal/opendata/extractor"
	"gov-dash/internal/opendata/querylog"
	"gov-dash/pkg/registry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Dispatcher is the part of dispatcher.Dispatcher the service needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, datasetID string, filters models.FilterSet, format string) *models.QueryResult
}

var _ Dispatcher = (*dispatcher.Dispatcher)(nil)

type Service struct {
	classifier *classifier.Classifier
	extractor  *extractor.Extractor
	dispatcher Dispatcher
	sink       querylog.Sink
	obs        *observability.Observability
	tracer     trace.Tracer
	logger     logger.Logger
	assistance string
}

type Option func(*Service)

func WithQueryLog(sink querylog.Sink) Option {
	return func(s *Service) { s.sink = sink }
}

func WithObservability(o *observability.Observability) Option {
	return func(s *Service) {
		s.obs = o
		s.tracer = o.Tracer()
	}
}

func New(reg *registry.Registry, d Dispatcher, log logger.Logger, opts ...Option) *Service {
	s := &Service{
		classifier: classifier.New(reg),
		extractor:  extractor.NewDefault(reg),
		dispatcher: d,
		sink:       querylog.NopSink{},
		obs:        observability.NewNoop(),
		logger:     log.With(map[string]interface{}{"component": "query-service"}),
	}
	s.tracer = s.obs.Tracer()
	for _, opt := range opts {
		opt(s)
	}
	s.assistance = buildAssistance(reg)
	return s
}

// Assistance returns the guidance shown when no dataset matches.
func (s *Service) Assistance() string {
	return s.assistance
}

// Plan classifies text and extracts its filters without touching the
// network. ok is false on an empty question or a classification miss.
func (s *Service) Plan(text string) (datasetID string, filters models.FilterSet, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", models.FilterSet{}, false
	}
	datasetID, ok = s.classifier.Classify(text)
	if !ok {
		return "", models.FilterSet{}, false
	}
	return datasetID, s.extractor.Extract(datasetID, text), true
}

// Answer resolves text to exactly one of a table, the assistance panel or a
// message. It never returns nil and never panics on upstream failures.
func (s *Service) Answer(ctx context.Context, text string) *models.QueryResult {
	start := time.Now()
	query := strings.TrimSpace(text)

	ctx, span := s.tracer.Start(ctx, "opendata.answer")
	defer span.End()

	result := s.answer(ctx, query)
	result.ID = uuid.NewString()
	result.Query = query
	elapsed := time.Since(start)

	dataset := result.DatasetID
	if dataset == "" {
		dataset = "none"
	}
	span.SetAttributes(
		attribute.String("dataset.id", dataset),
		attribute.String("query.outcome", string(result.Outcome)),
		attribute.Int("query.records", len(result.Records)),
	)
	metrics.QueriesTotal.WithLabelValues(dataset, string(result.Outcome)).Inc()
	s.obs.RecordQuery(ctx, dataset, string(result.Outcome), elapsed)

	if err := s.sink.Record(ctx, querylog.NewEntry(result, elapsed)); err != nil {
		s.logger.Warn("query log write failed", map[string]interface{}{
			"queryId": result.ID,
			"error":   err.Error(),
		})
	}

	s.logger.Info("query answered", map[string]interface{}{
		"queryId":    result.ID,
		"datasetId":  result.DatasetID,
		"outcome":    result.Outcome,
		"records":    len(result.Records),
		"durationMs": elapsed.Milliseconds(),
	})
	return result
}

func (s *Service) answer(ctx context.Context, query string) *models.QueryResult {
	if query == "" {
		return models.NewErrorResult(apperrors.NewEmptyQueryError())
	}

	datasetID, ok := s.classifier.Classify(query)
	if !ok {
		s.logger.Debug("no dataset matched", map[string]interface{}{"query": query})
		return models.NewErrorResult(apperrors.NewNoMatchingDatasetError(s.assistance))
	}

	filters := s.extractor.Extract(datasetID, query)
	s.logger.Debug("filters extracted", map[string]interface{}{
		"datasetId": datasetID,
		"filters":   filters.AsMap(),
	})
	return s.dispatcher.Dispatch(ctx, datasetID, filters, filters.Format)
}

func buildAssistance(reg *registry.Registry) string {
	var b strings.Builder
	b.WriteString("It seems your query doesn't match the available data parameters. ")
	b.WriteString("Please ask about one of the following categories:\n")

	var examples []string
	for _, d := range reg.Descriptors() {
		fmt.Fprintf(&b, "- %s\n", d.Name)
		examples = append(examples, d.Examples...)
	}
	if len(examples) > 0 {
		b.WriteString("\nExamples:\n")
		for _, e := range examples {
			fmt.Fprintf(&b, "- %q\n", e)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
