// internal/workers/credit/record-decision/handler.go
package recorddecision

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
	"credit-workflow/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "record-decision"
)

var schema = validation.MustCompile(TaskType, inputSchema)

type Workflow interface {
	Decide(ctx context.Context, d workflow.Decision) (*models.CreditApplication, error)
	LoadFull(ctx context.Context, id string) (*models.CreditApplication, error)
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
	result := schema.ValidateJSON([]byte(job.Variables))
	if !result.Valid {
		return nil, errors.NewValidationError(strings.Join(result.GetErrorMessages(), "; "))
	}
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("parse input: %v", err))
	}
	return &input, nil
}

// Execute records the director's decision. A record known only from the
// list is hydrated once and the decision retried.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	decision := workflow.Decision{
		ID:              input.ApplicationID,
		Approve:         input.Approve,
		Limit:           input.ApprovedLimit,
		TermDays:        input.ApprovedTerm,
		PIN:             input.PIN,
		ConfirmOverride: input.ConfirmOverride,
	}

	app, err := h.workflow.Decide(ctx, decision)
	if err != nil && h.config.LoadOnShallow && needsHydration(err) {
		h.logger.Info("hydrating application before decision", map[string]interface{}{
			"applicationId": input.ApplicationID,
		})
		if _, lerr := h.workflow.LoadFull(ctx, input.ApplicationID); lerr != nil {
			return nil, lerr
		}
		app, err = h.workflow.Decide(ctx, decision)
	}
	if err != nil {
		return nil, err
	}

	out := &Output{
		ApplicationID:   app.ID,
		Status:          app.Status,
		ApprovedTerm:    app.ApprovedTerm,
		RejectionReason: app.RejectionReason,
		Detail:          workflow.DeniedDetail,
	}
	if app.ApprovedLimit != nil {
		out.ApprovedLimit = *app.ApprovedLimit
	}
	if app.Status == models.StatusApproved && app.ApprovedTerm != nil {
		out.Detail = workflow.ApprovalDetail(out.ApprovedLimit, *app.ApprovedTerm)
	}
	return out, nil
}

func needsHydration(err error) bool {
	return errors.HasCode(err, errors.ErrCodeShallowRecord) || errors.HasCode(err, errors.ErrCodeRecordNotFound)
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
		"jobKey":        job.Key,
		"applicationId": output.ApplicationID,
		"status":        output.Status,
	})
	return nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
