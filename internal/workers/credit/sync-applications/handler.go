// internal/workers/credit/sync-applications/handler.go
package syncapplications

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"credit-workflow/internal/common/errors"
	"credit-workflow/internal/common/logger"
	"credit-workflow/internal/common/metrics"
	"credit-workflow/internal/common/validation"
	"credit-workflow/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "sync-applications"
)

var schema = validation.MustCompile(TaskType, inputSchema)

type Workflow interface {
	Refresh(ctx context.Context) (int, error)
	LoadFull(ctx context.Context, id string) (*models.CreditApplication, error)
	Applications() []models.Summary
}

type Handler struct {
	config       *Config
	workflow     Workflow
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, wf Workflow, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		workflow:     wf,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()
	defer func() {
		metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	}()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		h.fail(ctx, client, job, err)
		return err
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.fail(ctx, client, job, err)
		return err
	}

	return h.completeJob(ctx, client, job, output)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	raw := []byte(job.Variables)
	if strings.TrimSpace(job.Variables) == "" {
		raw = []byte("{}")
	}
	result := schema.ValidateJSON(raw)
	if !result.Valid {
		return nil, errors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}
	var input Input
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

// Execute reloads the application list and optionally one full record.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if _, err := h.workflow.Refresh(ctx); err != nil {
		return nil, err
	}

	list := h.workflow.Applications()
	out := &Output{
		Count:            len(list),
		StatusCounts:     map[models.Status]int{},
		AwaitingDecision: []string{},
	}
	for _, s := range list {
		out.StatusCounts[s.Status]++
		if s.Status.AwaitingDirector() {
			out.AwaitingDecision = append(out.AwaitingDecision, s.ID)
		}
	}

	if input.ApplicationID != "" {
		app, err := h.workflow.LoadFull(ctx, input.ApplicationID)
		if err != nil {
			return nil, err
		}
		out.Application = &ApplicationView{
			ID:            app.ID,
			ClientName:    app.ClientName,
			Status:        app.Status,
			Analyzed:      app.Deep(),
			ApprovedLimit: app.ApprovedLimit,
			ApprovedTerm:  app.ApprovedTerm,
		}
	}
	return out, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey": job.Key,
		"count":  output.Count,
	})
	return nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
