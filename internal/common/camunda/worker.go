// internal/common/camunda/worker.go
package camunda

import (
	"time"

	"gov-dash/internal/common/logger"
	"gov-dash/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

// HandlerFunc processes one job and completes, fails or throws it itself.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// WorkerOptions tune one job worker.
type WorkerOptions struct {
	MaxJobsActive int
	Timeout       time.Duration
}

// StartWorker opens a job worker for taskType. Handler durations and
// completions are recorded under the task type.
func StartWorker(client zbc.Client, taskType string, opts WorkerOptions, handler HandlerFunc, log logger.Logger) worker.JobWorker {
	log = log.With(map[string]interface{}{"taskType": taskType})

	builder := client.NewJobWorker().
		JobType(taskType).
		Handler(func(jc worker.JobClient, job entities.Job) {
			start := time.Now()
			handler(jc, job)
			metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(time.Since(start).Seconds())
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		}).
		MaxJobsActive(opts.MaxJobsActive).
		Name(taskType)
	if opts.Timeout > 0 {
		builder = builder.Timeout(opts.Timeout)
	}

	w := builder.Open()
	log.Info("worker started", map[string]interface{}{
		"maxJobsActive": opts.MaxJobsActive,
		"timeout":       opts.Timeout.String(),
	})
	return w
}
