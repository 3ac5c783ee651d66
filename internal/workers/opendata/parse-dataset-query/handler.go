// internal/workers/opendata/parse-dataset-query/handler.go
package parsedatasetquery

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "gov-dash/internal/common/errors"
	"gov-dash/internal/common/logger"
	"gov-dash/internal/common/metrics"
	"gov-dash/internal/common/validation"
	"gov-dash/internal/models"
)

const TaskType = "parse-dataset-query"

// Planner turns a question into a dataset and filter set.
type Planner interface {
	Plan(text string) (datasetID string, filters models.FilterSet, ok bool)
	Assistance() string
}

var validator = validation.MustCompile(inputSchema)

type Handler struct {
	config       *Config
	planner      Planner
	logger       logger.Logger
	errorHandler *apperrors.ErrorHandler
}

func NewHandler(config *Config, planner Planner, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		planner:      planner,
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

// Execute classifies the question and extracts its filters. A miss is not an
// error: the output carries matched=false and the assistance text.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, apperrors.NewEmptyQueryError()
	}

	datasetID, filters, ok := h.planner.Plan(question)
	if !ok {
		h.logger.Info("no dataset matched", map[string]interface{}{"question": question})
		return &Output{Matched: false, Message: h.planner.Assistance()}, nil
	}

	h.logger.Info("query parsed", map[string]interface{}{
		"datasetId": datasetID,
		"filters":   filters.Names(),
	})
	return &Output{
		Matched:   true,
		DatasetID: datasetID,
		Filters:   &filters,
		Format:    filters.Format,
	}, nil
}
