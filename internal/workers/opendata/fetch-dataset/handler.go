// internal/workers/opendata/fetch-dataset/handler.go
package fetchdataset

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "gov-dash/internal/common/errors"
	"gov-dash/internal/common/logger"
	"gov-dash/internal/common/metrics"
	"gov-dash/internal/common/validation"
	"gov-dash/internal/models"
	"gov-dash/pkg/registry"
)

const TaskType = "fetch-dataset"

var ErrMissingDatasetID = errors.New("datasetId is required")

// Dispatcher fetches one dataset.
type Dispatcher interface {
	Dispatch(ctx context.Context, datasetID string, filters models.FilterSet, format string) *models.QueryResult
}

var validator = validation.MustCompile(inputSchema)

type Handler struct {
	config       *Config
	registry     *registry.Registry
	dispatcher   Dispatcher
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, reg *registry.Registry, d Dispatcher, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		registry:     reg,
		dispatcher:   d,
		logger:       log,
		errorHandler: apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	if res := validator.Validate(job.Variables); !res.Valid {
		h.fail(ctx, client, job, apperrors.NewInvalidJobInputError(res.Err()))
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, apperrors.NewInvalidJobInputError(err))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.fail(ctx, client, job, apperrors.NewInvalidJobInputError(err))
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	code := "INTERNAL_ERROR"
	if stdErr, ok := apperrors.AsStandardError(err); ok {
		code = string(stdErr.Code)
	}
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

// Execute dispatches the request. Every dispatch outcome, failures included,
// completes the job; the process branches on Outcome.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	datasetID := strings.TrimSpace(input.DatasetID)
	if datasetID == "" {
		return nil, apperrors.NewInvalidJobInputError(ErrMissingDatasetID)
	}

	var filters models.FilterSet
	if input.Filters != nil {
		filters = *input.Filters
	}
	if filters.Offset < 0 {
		filters.Offset = 0
	}
	if filters.Limit <= 0 {
		filters.Limit = h.defaultLimit(datasetID)
	}

	format := input.Format
	if format == "" {
		format = filters.Format
	}

	result := h.dispatcher.Dispatch(ctx, datasetID, filters, format)

	h.logger.Info("dataset fetched", map[string]interface{}{
		"datasetId": datasetID,
		"outcome":   result.Outcome,
		"records":   len(result.Records),
	})
	return &Output{
		Columns:     result.Columns,
		Records:     result.Records,
		RecordCount: len(result.Records),
		Message:     result.Message,
		Outcome:     result.Outcome,
		Kind:        result.Kind,
	}, nil
}

func (h *Handler) defaultLimit(datasetID string) int {
	if desc, ok := h.registry.Lookup(datasetID); ok && desc.DefaultLimit > 0 {
		return desc.DefaultLimit
	}
	return 10
}
