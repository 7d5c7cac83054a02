package workflow

import (
	"context"
	"fmt"

	"credit-workflow/internal/audit"
	"credit-workflow/internal/common/errors"
	"credit-workflow/internal/credit/format"
	"credit-workflow/internal/credit/indicators"
	"credit-workflow/internal/credit/limit"
	"credit-workflow/internal/gateway/store"
	"credit-workflow/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

// AdvanceInput is the analyst step: the two bureau reports and, when the
// identity check must be skipped, the director PIN.
type AdvanceInput struct {
	ID          string
	RiskFiles   models.Files
	OverridePIN string
}

// Advance checks the bureau reports, runs the full analysis and moves the
// record to ANALYZED. The snapshot and the sheet status are written before
// anything is committed locally.
func (o *Orchestrator) Advance(ctx context.Context, in AdvanceInput) (app *models.CreditApplication, err error) {
	ctx, finish, err := o.begin(ctx, "advance", attribute.String("application.id", in.ID))
	if err != nil {
		return nil, err
	}
	defer finish(&err)

	current, ok := o.lookup(in.ID)
	if !ok {
		return nil, errors.NewRecordNotFoundError(in.ID)
	}
	riskKinds := models.RiskKinds()
	if missing := in.RiskFiles.Missing(riskKinds); len(missing) > 0 {
		return nil, errors.NewValidationError("missing bureau reports: " + joinKinds(missing))
	}
	if !models.CanTransition(current.Status, models.StatusAnalyzed) {
		return nil, errors.NewInvalidTransitionError(string(current.Status), string(models.StatusAnalyzed))
	}
	current, err = o.hydrate(ctx, current)
	if err != nil {
		return nil, err
	}

	riskFiles, err := encodeFiles(ctx, in.RiskFiles, riskKinds)
	if err != nil {
		return nil, err
	}

	overridden := in.OverridePIN != ""
	if overridden {
		if err := o.pin.Verify(ctx, in.OverridePIN); err != nil {
			return nil, err
		}
		o.logger.Warn("Identity check bypassed by director PIN", map[string]interface{}{"applicationId": current.ID})
	} else if err := o.checkIdentity(ctx, riskFiles, current.ClientName); err != nil {
		return nil, err
	}

	next := current.Clone()
	next.RiskFiles = models.Files{}
	for _, kind := range riskKinds {
		f := *in.RiskFiles[kind]
		next.RiskFiles[kind] = &f
	}

	if _, err := o.store.Upload(ctx, store.UploadRequest{
		NotificationType: store.NotifyRiskUpload,
		Application:      next,
		Files:            riskFiles,
	}); err != nil {
		return nil, err
	}

	commercial, err := o.commercialAttachments(ctx, next)
	if err != nil {
		return nil, err
	}

	result, err := o.ai.RunFullAnalysis(ctx, append(commercial, riskFiles...), next.ClientName, next.TaxID)
	if err != nil {
		return nil, err
	}
	applyAnalysis(next, result)

	if err := o.store.SaveState(ctx, next); err != nil {
		return nil, err
	}
	detail := analysisDetail(next)
	if err := o.store.UpdateSheet(ctx, sheetUpdate(next, detail)); err != nil {
		return nil, err
	}

	o.commit(next, detail)

	if o.channels != nil {
		published := next.Clone()
		o.dispatcher.Go("sms", func(ctx context.Context) error {
			return o.channels.TextAnalysis(ctx, published)
		})
	}
	if overridden {
		o.record(audit.Event{
			Type:          audit.EventIdentityOverride,
			ApplicationID: next.ID,
			Status:        string(next.Status),
		})
	}
	o.record(audit.Event{
		Type:          audit.EventAnalysisCompleted,
		ApplicationID: next.ID,
		Status:        string(next.Status),
		Details: map[string]interface{}{
			"scoreProbability": result.ScoreProbability,
			"suggestedLimit":   result.SuggestedLimit,
			"riskLevel":        next.RiskLevel,
		},
	})
	return next.Clone(), nil
}

// checkIdentity asks whether each bureau report names the applicant. The
// first mismatch stops the step.
func (o *Orchestrator) checkIdentity(ctx context.Context, files []models.Attachment, legalName string) error {
	for _, f := range files {
		match, err := o.ai.CheckIdentityMatch(ctx, f, legalName)
		if err != nil {
			return err
		}
		if !match.IsValid {
			reason := match.Reason
			if reason == "" {
				reason = fmt.Sprintf("document does not refer to %s", legalName)
			}
			return errors.NewIdentityMismatchError(f.FileName, reason)
		}
	}
	return nil
}

// commercialAttachments prefers the files held in memory and falls back to
// the originals stored in the record's folder.
func (o *Orchestrator) commercialAttachments(ctx context.Context, app *models.CreditApplication) ([]models.Attachment, error) {
	if kinds := app.CommercialFiles.Present(models.CommercialKinds()); len(kinds) > 0 {
		return encodeFiles(ctx, app.CommercialFiles, kinds)
	}
	if app.RemoteFolderID == "" {
		return nil, errors.NewValidationError("commercial documents are not available locally and the record has no folder")
	}

	o.logger.Info("Fetching commercial documents from store", map[string]interface{}{
		"applicationId": app.ID,
		"folderId":      app.RemoteFolderID,
	})
	files, err := o.store.FetchFilesForAI(ctx, app.RemoteFolderID)
	if err != nil {
		return nil, err
	}
	out := make([]models.Attachment, 0, len(files))
	for _, f := range files {
		if kind, ok := f.Kind(); ok && !kind.Commercial() {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// applyAnalysis fills the derived fields from the AI result and moves the
// record to ANALYZED.
func applyAnalysis(app *models.CreditApplication, result *models.AIResult) {
	score := result.ScoreProbability
	cycle := result.Figures.OperatingCycle
	tier := limit.TierFromScore(score)

	breakdown := limit.Compute(result.LimitVariables, tier, cycle)
	result.LimitBreakdown = &breakdown

	ind := indicators.Compute(result.Figures)
	bounds := limit.ProbabilityBounds(result.SuggestedLimit, score)

	app.AIResult = result
	app.Indicators = &ind
	app.Limit = &models.LimitRange{
		Conservative:        bounds.Conservative,
		Liberal:             bounds.Liberal,
		Average:             bounds.Suggested,
		RecommendedTermDays: limit.AnalysisTerm(cycle),
	}
	app.RiskLevel = tier
	app.DefaultProbabilityText = format.Percent(score)
	app.Status = models.StatusAnalyzed
	app.Source = models.SourceSession
}

func analysisDetail(app *models.CreditApplication) string {
	return fmt.Sprintf("Analyzed: %s - %s, risk %s",
		format.Currency(app.Limit.Conservative), format.Currency(app.Limit.Liberal), app.RiskLevel)
}

func sheetUpdate(app *models.CreditApplication, detail string) store.SheetUpdate {
	return store.SheetUpdate{
		ID:              app.ID,
		ClientName:      app.ClientName,
		TaxID:           app.TaxID,
		CommercialName:  app.SubmittedBy.Name,
		CommercialEmail: app.SubmittedBy.Email,
		Detail:          detail,
		Status:          app.Status,
	}
}
