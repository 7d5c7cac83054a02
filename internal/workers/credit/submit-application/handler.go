// internal/workers/credit/submit-application/handler.go
package submitapplication

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
	TaskType = "submit-application"
)

var schema = validation.MustCompile(TaskType, inputSchema)

type Workflow interface {
	PrefillIdentity(ctx context.Context, kind models.DocumentKind, file *models.File, in workflow.SubmitInput) (workflow.SubmitInput, error)
	CheckDocuments(ctx context.Context, in workflow.SubmitInput) (*models.ValidationResult, error)
	Submit(ctx context.Context, in workflow.SubmitInput) (*models.CreditApplication, error)
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

// identitySources are read, in order, when the form lacks the legal name
// or tax id.
var identitySources = []models.DocumentKind{models.DocChamberOfCommerce, models.DocTaxRegistration}

// Execute decodes the documents, fills a missing identity from them,
// optionally checks them and submits the application.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	files, err := decodeDocuments(input.Documents)
	if err != nil {
		return nil, err
	}

	form := workflow.SubmitInput{
		ClientName:     input.ClientName,
		TaxID:          input.TaxID,
		SubmitterName:  input.SubmitterName,
		SubmitterEmail: input.SubmitterEmail,
		Files:          files,
	}

	form, err = h.prefill(ctx, form)
	if err != nil {
		return nil, err
	}

	if h.config.CheckDocuments && !input.SkipCheck {
		result, err := h.workflow.CheckDocuments(ctx, form)
		if err != nil {
			return nil, err
		}
		form.ValidationResult = result
		if !result.OverallValid {
			h.logger.Warn("documents failed compliance check, submitting anyway", map[string]interface{}{
				"clientName": input.ClientName,
				"summary":    result.Summary,
			})
		}
	}

	app, err := h.workflow.Submit(ctx, form)
	if err != nil {
		return nil, err
	}

	out := &Output{
		ApplicationID:    app.ID,
		FolderID:         app.RemoteFolderID,
		FolderURL:        app.RemoteFolderURL,
		Status:           app.Status,
		SubmittedAt:      app.Date,
		ValidationResult: app.ValidationResult,
	}
	if app.ValidationResult != nil {
		valid := app.ValidationResult.OverallValid
		out.DocumentsValid = &valid
	}
	return out, nil
}

func (h *Handler) prefill(ctx context.Context, form workflow.SubmitInput) (workflow.SubmitInput, error) {
	for _, kind := range identitySources {
		if strings.TrimSpace(form.ClientName) != "" && strings.TrimSpace(form.TaxID) != "" {
			break
		}
		file, ok := form.Files[kind]
		if !ok {
			continue
		}
		filled, err := h.workflow.PrefillIdentity(ctx, kind, file, form)
		if err != nil {
			return form, err
		}
		h.logger.Info("identity read from document", map[string]interface{}{
			"kind":       kind,
			"clientName": filled.ClientName,
		})
		form = filled
	}
	return form, nil
}

// decodeDocuments rebuilds the commercial bucket from tagged attachments.
func decodeDocuments(docs []models.Attachment) (models.Files, error) {
	files := models.Files{}
	for _, doc := range docs {
		kind, ok := doc.Kind()
		if !ok {
			return nil, errors.NewValidationError(fmt.Sprintf("document %q has no known category tag", doc.Name))
		}
		if _, dup := files[kind]; dup {
			return nil, errors.NewValidationError(fmt.Sprintf("document %s supplied twice", kind))
		}
		f, err := doc.Decode()
		if err != nil {
			return nil, errors.NewValidationError(err.Error())
		}
		files[kind] = f
	}
	return files, nil
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
	})
	return nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}
