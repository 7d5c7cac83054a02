package workflow

import (
	"context"
	"fmt"
	"strings"

	"credit-workflow/internal/audit"
	"credit-workflow/internal/common/errors"
	"credit-workflow/internal/gateway/store"
	"credit-workflow/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const dateLayout = "2006-01-02 15:04"

var validate = validator.New(validator.WithRequiredStructEnabled())

// SubmitInput is the commercial application form.
type SubmitInput struct {
	ClientName     string `json:"clientName" validate:"required,min=2,max=200"`
	TaxID          string `json:"taxId" validate:"required,min=5,max=20"`
	SubmitterName  string `json:"submitterName" validate:"required,max=120"`
	SubmitterEmail string `json:"submitterEmail" validate:"required,email"`

	Files models.Files `json:"-" validate:"-"`

	// ValidationResult is a prior CheckDocuments outcome kept on the record.
	ValidationResult *models.ValidationResult `json:"validationResult,omitempty" validate:"-"`
}

func (in SubmitInput) validate() error {
	if err := validate.Struct(in); err != nil {
		var fields []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
		} else {
			fields = append(fields, err.Error())
		}
		return errors.NewValidationError("invalid fields: " + strings.Join(fields, ", "))
	}
	if missing := in.Files.Missing(models.RequiredCommercialKinds()); len(missing) > 0 {
		return errors.NewValidationError("missing documents: " + joinKinds(missing))
	}
	for kind := range in.Files {
		if !kind.Commercial() {
			return errors.NewValidationError(fmt.Sprintf("%s is not a commercial document", kind))
		}
	}
	return nil
}

// CheckDocuments runs the creation-time compliance check on the files
// present in the form.
func (o *Orchestrator) CheckDocuments(ctx context.Context, in SubmitInput) (result *models.ValidationResult, err error) {
	ctx, finish, err := o.begin(ctx, "check_documents")
	if err != nil {
		return nil, err
	}
	defer finish(&err)

	if strings.TrimSpace(in.ClientName) == "" || strings.TrimSpace(in.TaxID) == "" {
		return nil, errors.NewValidationError("client name and tax id are required")
	}
	kinds := in.Files.Present(models.CommercialKinds())
	if len(kinds) == 0 {
		return nil, errors.NewValidationError("no documents to check")
	}

	files, err := encodeFiles(ctx, in.Files, kinds)
	if err != nil {
		return nil, err
	}
	return o.ai.ValidateDocuments(ctx, files, in.ClientName, in.TaxID)
}

// PrefillIdentity reads the legal name and tax id from file. Fields the
// model could not read keep the form's values.
func (o *Orchestrator) PrefillIdentity(ctx context.Context, kind models.DocumentKind, file *models.File, in SubmitInput) (out SubmitInput, err error) {
	ctx, finish, err := o.begin(ctx, "prefill_identity")
	if err != nil {
		return in, err
	}
	defer finish(&err)

	if file.Empty() {
		return in, errors.NewValidationError("empty document")
	}
	id, err := o.ai.ExtractIdentity(ctx, models.EncodeAttachment(kind, file))
	if err != nil {
		return in, err
	}

	out = in
	if id.LegalName != "" {
		out.ClientName = id.LegalName
	}
	if id.TaxID != "" {
		out.TaxID = id.TaxID
	}
	return out, nil
}

// Submit creates the application on the store and saves its first
// snapshot. Nothing is committed locally unless both calls succeed.
func (o *Orchestrator) Submit(ctx context.Context, in SubmitInput) (app *models.CreditApplication, err error) {
	ctx, finish, err := o.begin(ctx, "submit", attribute.String("client", in.ClientName))
	if err != nil {
		return nil, err
	}
	defer finish(&err)

	if err := in.validate(); err != nil {
		return nil, err
	}

	files, err := encodeFiles(ctx, in.Files, in.Files.Present(models.CommercialKinds()))
	if err != nil {
		return nil, err
	}

	draft := &models.CreditApplication{
		ID:               models.ProvisionalIDPrefix + uuid.New().String(),
		ClientName:       strings.TrimSpace(in.ClientName),
		TaxID:            strings.TrimSpace(in.TaxID),
		SubmittedBy:      models.Submitter{Name: in.SubmitterName, Email: in.SubmitterEmail},
		Date:             o.now().Format(dateLayout),
		Status:           models.StatusPendingAnalyst,
		CommercialFiles:  in.Files,
		RiskFiles:        models.Files{},
		ValidationResult: in.ValidationResult,
		Source:           models.SourceSession,
	}
	draft = draft.Clone()

	res, err := o.store.Upload(ctx, store.UploadRequest{
		NotificationType: store.NotifyCommercialUpload,
		Application:      draft,
		Files:            files,
	})
	if err != nil {
		return nil, err
	}
	draft.ID = res.ID
	draft.RemoteFolderID = res.FolderID
	draft.RemoteFolderURL = res.FolderURL

	if err := o.store.SaveState(ctx, draft); err != nil {
		return nil, err
	}

	o.commit(draft, "")
	o.record(audit.Event{
		Type:          audit.EventApplicationSubmitted,
		ApplicationID: draft.ID,
		Status:        string(draft.Status),
		Details: map[string]interface{}{
			"clientName":  draft.ClientName,
			"submittedBy": draft.SubmittedBy.Email,
			"documents":   len(files),
		},
	})
	return draft.Clone(), nil
}

// encodeFiles converts the given kinds concurrently. The result keeps the
// order of kinds.
func encodeFiles(ctx context.Context, files models.Files, kinds []models.DocumentKind) ([]models.Attachment, error) {
	out := make([]models.Attachment, len(kinds))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i, kind := range kinds {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f := files[kind]
			if f.Empty() {
				return errors.NewValidationError(fmt.Sprintf("document %s is empty", kind))
			}
			out[i] = models.EncodeAttachment(kind, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func joinKinds(kinds []models.DocumentKind) string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
