// internal/workers/credit/advance-analysis/handler.go
package advanceanalysis

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
	TaskType = "advance-analysis"
)

var schema = validation.MustCompile(TaskType, inputSchema)

type Workflow interface {
	Advance(ctx context.Context, in workflow.AdvanceInput) (*models.CreditApplication, error)
	Refresh(ctx context.Context) (int, error)
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

// Execute runs the analyst step for one application.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	files, err := decodeReports(input.Documents)
	if err != nil {
		return nil, err
	}
	req := workflow.AdvanceInput{
		ID:          input.ApplicationID,
		RiskFiles:   files,
		OverridePIN: input.OverridePIN,
	}

	app, err := h.workflow.Advance(ctx, req)
	if err != nil && h.config.RefreshOnMiss && errors.HasCode(err, errors.ErrCodeRecordNotFound) {
		h.logger.Info("application unknown locally, refreshing list", map[string]interface{}{
			"applicationId": input.ApplicationID,
		})
		if _, rerr := h.workflow.Refresh(ctx); rerr != nil {
			return nil, rerr
		}
		app, err = h.workflow.Advance(ctx, req)
	}
	if err != nil {
		if errors.IsIdentityMismatch(err) {
			h.logger.Warn("identity mismatch, director override required", map[string]interface{}{
				"applicationId": input.ApplicationID,
			})
		}
		return nil, err
	}

	return toOutput(app, input.OverridePIN != ""), nil
}

func decodeReports(docs []models.Attachment) (models.Files, error) {
	files := models.Files{}
	for _, doc := range docs {
		kind, ok := doc.Kind()
		if !ok || kind.Commercial() {
			return nil, errors.NewValidationError(fmt.Sprintf("document %q is not a bureau report", doc.Name))
		}
		f, err := doc.Decode()
		if err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
		files[kind] = f
	}
	return files, nil
}

func toOutput(app *models.CreditApplication, overridden bool) *Output {
	out := &Output{
		ApplicationID:          app.ID,
		Status:                 app.Status,
		RiskLevel:              app.RiskLevel,
		DefaultProbabilityText: app.DefaultProbabilityText,
		RedFlags:               []string{},
		GreenFlags:             []string{},
		IdentityOverridden:     overridden,
	}
	if app.Limit != nil {
		out.ConservativeLimit = app.Limit.Conservative
		out.LiberalLimit = app.Limit.Liberal
		out.AverageLimit = app.Limit.Average
		out.RecommendedTermDays = app.Limit.RecommendedTermDays
	}
	if app.AIResult != nil {
		out.Verdict = app.AIResult.Verdict
		out.RedFlags = append(out.RedFlags, app.AIResult.Flags.Red...)
		out.GreenFlags = append(out.GreenFlags, app.AIResult.Flags.Green...)
	}
	return out
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
		"riskLevel":     output.RiskLevel,
	})
	return nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
