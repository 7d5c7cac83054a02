// internal/workers/credit/record-decision/models.go
package recorddecision

import "credit-workflow/internal/models"

type Input struct {
	ApplicationID   string  `json:"applicationId"`
	Approve         bool    `json:"approve"`
	ApprovedLimit   float64 `json:"approvedLimit,omitempty"`
	ApprovedTerm    int     `json:"approvedTerm,omitempty"`
	PIN             string  `json:"pin"`
	ConfirmOverride bool    `json:"confirmOverride,omitempty"`
}

type Output struct {
	ApplicationID   string        `json:"applicationId"`
	Status          models.Status `json:"status"`
	ApprovedLimit   float64       `json:"approvedLimit"`
	ApprovedTerm    *int          `json:"approvedTerm,omitempty"`
	RejectionReason string        `json:"rejectionReason,omitempty"`
	Detail          string        `json:"detail"`
}

var inputSchema = `{
	"type": "object",
	"required": ["applicationId", "approve", "pin"],
	"properties": {
		"applicationId": {"type": "string", "minLength": 1},
		"approve": {"type": "boolean"},
		"approvedLimit": {"type": "number", "minimum": 0},
		"approvedTerm": {"type": "integer", "minimum": 0},
		"pin": {"type": "string"},
		"confirmOverride": {"type": "boolean"}
	}
}`
