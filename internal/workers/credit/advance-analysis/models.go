// internal/workers/credit/advance-analysis/models.go
package advanceanalysis

import (
	"credit-workflow/internal/credit/limit"
	"credit-workflow/internal/models"
)

type Input struct {
	ApplicationID string              `json:"applicationId"`
	Documents     []models.Attachment `json:"documents"`
	OverridePIN   string              `json:"overridePin,omitempty"`
}

type Output struct {
	ApplicationID          string         `json:"applicationId"`
	Status                 models.Status  `json:"status"`
	ConservativeLimit      float64        `json:"conservativeLimit"`
	LiberalLimit           float64        `json:"liberalLimit"`
	AverageLimit           float64        `json:"averageLimit"`
	RecommendedTermDays    int            `json:"recommendedTermDays"`
	RiskLevel              limit.RiskTier `json:"riskLevel"`
	DefaultProbabilityText string         `json:"defaultProbabilityText"`
	Verdict                string         `json:"verdict"`
	RedFlags               []string       `json:"redFlags"`
	GreenFlags             []string       `json:"greenFlags"`
	IdentityOverridden     bool           `json:"identityOverridden"`
}

var inputSchema = `{
	"type": "object",
	"required": ["applicationId", "documents"],
	"properties": {
		"applicationId": {"type": "string", "minLength": 1},
		"overridePin": {"type": "string"},
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
