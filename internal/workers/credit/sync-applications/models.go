// internal/workers/credit/sync-applications/models.go
package syncapplications

import "credit-workflow/internal/models"

type Input struct {
	// ApplicationID, when set, is hydrated from its snapshot after the
	// list refresh.
	ApplicationID string `json:"applicationId,omitempty"`
}

type Output struct {
	Count            int                   `json:"count"`
	StatusCounts     map[models.Status]int `json:"statusCounts"`
	AwaitingDecision []string              `json:"awaitingDecision"`
	Application      *ApplicationView      `json:"application,omitempty"`
}

// ApplicationView is the subset of a hydrated record exposed to the process.
type ApplicationView struct {
	ID            string        `json:"id"`
	ClientName    string        `json:"clientName"`
	Status        models.Status `json:"status"`
	Analyzed      bool          `json:"analyzed"`
	ApprovedLimit *float64      `json:"approvedLimit,omitempty"`
	ApprovedTerm  *int          `json:"approvedTerm,omitempty"`
}

var inputSchema = `{
	"type": "object",
	"properties": {
		"applicationId": {"type": "string"}
	}
}`
