// internal/workers/credit/submit-application/models.go
package submitapplication

import "credit-workflow/internal/models"

type Input struct {
	ClientName     string              `json:"clientName"`
	TaxID          string              `json:"taxId"`
	SubmitterName  string              `json:"submitterName"`
	SubmitterEmail string              `json:"submitterEmail"`
	Documents      []models.Attachment `json:"documents"`
	SkipCheck      bool                `json:"skipDocumentCheck,omitempty"`
}

type Output struct {
	ApplicationID    string                   `json:"applicationId"`
	FolderID         string                   `json:"folderId"`
	FolderURL        string                   `json:"folderUrl"`
	Status           models.Status            `json:"status"`
	SubmittedAt      string                   `json:"submittedAt"`
	DocumentsValid   *bool                    `json:"documentsValid,omitempty"`
	ValidationResult *models.ValidationResult `json:"validationResult,omitempty"`
}

var inputSchema = `{
	"type": "object",
	"required": ["submitterName", "submitterEmail", "documents"],
	"properties": {
		"clientName": {"type": "string"},
		"taxId": {"type": "string"},
		"submitterName": {"type": "string", "minLength": 1},
		"submitterEmail": {"type": "string", "minLength": 3},
		"skipDocumentCheck": {"type": "boolean"},
		"documents": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"required": ["name", "data"],
				"properties": {
					"name": {"type": "string", "minLength": 1},
					"fileName": {"type": "string"},
					"mimeType": {"type": "string"},
					"data": {"type": "string"}
				}
			}
		}
	}
}`
