package ai

import "credit-workflow/internal/common/validation"

var identitySchema = validation.MustCompile("identity", `{
	"type": "object",
	"properties": {
		"legalName": {"type": ["string", "null"]},
		"taxId": {"type": ["string", "null"]}
	}
}`)

var documentsSchema = validation.MustCompile("documents", `{
	"type": "object",
	"required": ["perFile"],
	"properties": {
		"overallValid": {"type": "boolean"},
		"summary": {"type": "string"},
		"perFile": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["fileName", "isValid"],
				"properties": {
					"fileName": {"type": "string"},
					"isValid": {"type": "boolean"},
					"issue": {"type": ["string", "null"]},
					"detectedDate": {"type": ["string", "null"]},
					"signatures": {
						"type": "object",
						"properties": {
							"legalRepresentative": {"type": "boolean"},
							"accountant": {"type": "boolean"}
						}
					}
				}
			}
		}
	}
}`)

var identityMatchSchema = validation.MustCompile("identity-match", `{
	"type": "object",
	"required": ["isValid"],
	"properties": {
		"isValid": {"type": "boolean"},
		"reason": {"type": ["string", "null"]}
	}
}`)

var analysisSchema = validation.MustCompile("analysis", `{
	"type": "object",
	"required": ["verdict", "suggestedLimit", "scoreProbability", "limitVariables", "financialIndicators", "flags"],
	"properties": {
		"verdict": {"type": "string", "minLength": 1},
		"suggestedLimit": {"type": "number", "minimum": 0},
		"scoreProbability": {"type": "number", "minimum": 0, "maximum": 1},
		"justification": {"type": "string"},
		"limitVariables": {
			"type": "object",
			"properties": {
				"bureauALastPeriods": {"type": "array", "items": {"type": "number"}},
				"platformScoreLimit": {"type": "number"},
				"bureauBOpinionLimit": {"type": "number"},
				"annualNetIncome": {"type": "number"},
				"tradeReferences": {"type": "array", "items": {"type": "number"}},
				"ebitda": {"type": "number"},
				"taxes": {"type": "number"},
				"financialExpenses": {"type": "number"},
				"cash": {"type": "number"}
			}
		},
		"financialIndicators": {
			"type": "object",
			"required": ["totalAssets", "totalLiabilities", "revenue"],
			"properties": {
				"currentAssets": {"type": "number"},
				"totalAssets": {"type": "number"},
				"inventories": {"type": "number"},
				"currentLiabilities": {"type": "number"},
				"totalLiabilities": {"type": "number"},
				"nonCurrentLiabilities": {"type": "number"},
				"equity": {"type": "number"},
				"revenue": {"type": "number"},
				"netIncome": {"type": "number"},
				"ebit": {"type": "number"},
				"ebitda": {"type": ["number", "null"]},
				"daysReceivables": {"type": "number"},
				"daysInventory": {"type": "number"},
				"operatingCycle": {"type": "number"}
			}
		},
		"flags": {
			"type": "object",
			"properties": {
				"green": {"type": "array", "items": {"type": "string"}},
				"red": {"type": "array", "items": {"type": "string"}}
			}
		}
	}
}`)
