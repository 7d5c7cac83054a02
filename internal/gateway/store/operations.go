package store

import (
	"context"
	"fmt"

	"credit-workflow/internal/common/errors"
	"credit-workflow/internal/models"
)

// UploadRequest creates a record (commercial upload) or attaches files to
// an existing folder (risk upload).
type UploadRequest struct {
	NotificationType string
	Application      *models.CreditApplication
	Files            []models.Attachment
}

// UploadResult carries the store-assigned identity of the record.
type UploadResult struct {
	ID        string `json:"id"`
	FolderID  string `json:"folderId"`
	FolderURL string `json:"folderUrl"`
}

// Upload sends files with the record header. The store emails the next
// role according to NotificationType.
func (c *Client) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	app := req.Application
	payload := map[string]interface{}{
		"notificationType": req.NotificationType,
		"id":               app.ID,
		"clientName":       app.ClientName,
		"taxId":            app.TaxID,
		"commercialName":   app.SubmittedBy.Name,
		"commercialEmail":  app.SubmittedBy.Email,
		"date":             app.Date,
		"status":           app.Status,
		"files":            req.Files,
	}
	if app.RemoteFolderID != "" {
		payload["folderId"] = app.RemoteFolderID
	}

	var result UploadResult
	if err := c.call(ctx, ActionUpload, payload, &result); err != nil {
		return nil, err
	}
	if req.NotificationType == NotifyCommercialUpload && (result.ID == "" || result.FolderID == "") {
		return nil, errors.NewStoreRequestError(ActionUpload, fmt.Errorf("response is missing id or folderId"))
	}
	return &result, nil
}

// summaryRow is the GET_ALL row. Older sheets use commercialName/Email
// columns instead of a nested submitter.
type summaryRow struct {
	ID              string        `json:"id"`
	ClientName      string        `json:"clientName"`
	TaxID           string        `json:"taxId"`
	Status          models.Status `json:"status"`
	Date            string        `json:"date"`
	FolderID        string        `json:"folderId"`
	FolderURL       string        `json:"folderUrl"`
	Detail          string        `json:"detail"`
	CommercialName  string        `json:"commercialName"`
	CommercialEmail string        `json:"commercialEmail"`
}

// GetAll returns every list row. Detail text is left unparsed.
func (c *Client) GetAll(ctx context.Context) ([]models.Summary, error) {
	var rows []summaryRow
	if err := c.call(ctx, ActionGetAll, nil, &rows); err != nil {
		return nil, err
	}

	out := make([]models.Summary, 0, len(rows))
	for _, r := range rows {
		out = append(out, models.Summary{
			ID:          r.ID,
			ClientName:  r.ClientName,
			TaxID:       r.TaxID,
			Status:      r.Status,
			Date:        r.Date,
			FolderID:    r.FolderID,
			FolderURL:   r.FolderURL,
			Detail:      r.Detail,
			SubmittedBy: models.Submitter{Name: r.CommercialName, Email: r.CommercialEmail},
		})
	}
	return out, nil
}

// SaveState stores the record snapshot in its folder. File buckets are
// always emptied before sending.
func (c *Client) SaveState(ctx context.Context, app *models.CreditApplication) error {
	if app.RemoteFolderID == "" {
		return errors.NewStoreRequestError(ActionSaveState, fmt.Errorf("record %s has no folder", app.ID))
	}
	return c.call(ctx, ActionSaveState, map[string]interface{}{
		"folderId": app.RemoteFolderID,
		"id":       app.ID,
		"state":    app.Snapshot(),
	}, nil)
}

// LoadState returns the stored snapshot, or nil when the folder has none.
func (c *Client) LoadState(ctx context.Context, folderID string) (*models.CreditApplication, error) {
	var state *models.CreditApplication
	if err := c.call(ctx, ActionLoadState, map[string]interface{}{"folderId": folderID}, &state); err != nil {
		return nil, err
	}
	return state, nil
}

// FetchFilesForAI returns the original commercial files of a folder.
func (c *Client) FetchFilesForAI(ctx context.Context, folderID string) ([]models.Attachment, error) {
	var files []models.Attachment
	if err := c.call(ctx, ActionFetchFilesForAI, map[string]interface{}{"folderId": folderID}, &files); err != nil {
		return nil, err
	}
	return files, nil
}

// SheetUpdate is a decision or status event logged on the sheet.
type SheetUpdate struct {
	ID              string        `json:"id"`
	ClientName      string        `json:"clientName"`
	TaxID           string        `json:"taxId"`
	CommercialName  string        `json:"commercialName"`
	CommercialEmail string        `json:"commercialEmail"`
	Detail          string        `json:"detail"`
	Status          models.Status `json:"status"`
}

func (c *Client) UpdateSheet(ctx context.Context, u SheetUpdate) error {
	return c.call(ctx, ActionUpdateSheet, map[string]interface{}{
		"id":              u.ID,
		"clientName":      u.ClientName,
		"taxId":           u.TaxID,
		"commercialName":  u.CommercialName,
		"commercialEmail": u.CommercialEmail,
		"detail":          u.Detail,
		"status":          u.Status,
	}, nil)
}

// CheckPIN asks the store whether pin is the director PIN.
func (c *Client) CheckPIN(ctx context.Context, pin string) (bool, error) {
	var res struct {
		Valid bool `json:"valid"`
	}
	if err := c.call(ctx, ActionCheckPIN, map[string]interface{}{"pin": pin}, &res); err != nil {
		return false, err
	}
	return res.Valid, nil
}

// UpdatePIN rotates the director PIN on the store.
func (c *Client) UpdatePIN(ctx context.Context, currentPIN, newPIN string) error {
	return c.call(ctx, ActionUpdatePIN, map[string]interface{}{
		"currentPin": currentPIN,
		"newPin":     newPIN,
	}, nil)
}
