package ai

import (
	"context"
	"fmt"
	"strings"

	"credit-workflow/internal/models"
)

// Identity is the best-effort extraction from an identity document.
// Empty fields mean the model could not read them.
type Identity struct {
	LegalName string `json:"legalName"`
	TaxID     string `json:"taxId"`
}

// IdentityMatch is the verdict of comparing a bureau report to the
// declared applicant.
type IdentityMatch struct {
	IsValid bool   `json:"isValid"`
	Reason  string `json:"reason"`
}

// ExtractIdentity reads the legal name and tax id from one document.
func (c *Client) ExtractIdentity(ctx context.Context, file models.Attachment) (*Identity, error) {
	prompt := "Extract the company's legal name and tax identification number from the attached document. " +
		`Answer only JSON: {"legalName": string|null, "taxId": string|null}.`

	var out Identity
	if err := c.generate(ctx, "extractIdentity", prompt, []models.Attachment{file}, identitySchema, &out); err != nil {
		return nil, err
	}
	out.LegalName = strings.TrimSpace(out.LegalName)
	out.TaxID = strings.TrimSpace(out.TaxID)
	return &out, nil
}

// CheckIdentityMatch verifies that a bureau report belongs to legalName.
func (c *Client) CheckIdentityMatch(ctx context.Context, file models.Attachment, legalName string) (*IdentityMatch, error) {
	prompt := fmt.Sprintf("Does the attached credit bureau report refer to the company %q? "+
		`Answer only JSON: {"isValid": boolean, "reason": string}.`, legalName)

	var out IdentityMatch
	if err := c.generate(ctx, "checkIdentityMatch", prompt, []models.Attachment{file}, identityMatchSchema, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RunFullAnalysis extracts the financial figures, limit signals, default
// probability and risk flags from the whole document set.
func (c *Client) RunFullAnalysis(ctx context.Context, files []models.Attachment, clientName, taxID string) (*models.AIResult, error) {
	prompt := fmt.Sprintf("Analyse the credit application of %q (tax id %s) using the attached financial, legal and "+
		"credit bureau documents. Answer only JSON with verdict, suggestedLimit, limitVariables, scoreProbability (0-1), "+
		"financialIndicators, flags {green, red} and justification.", clientName, taxID)

	var out models.AIResult
	if err := c.generate(ctx, "runFullAnalysis", prompt, files, analysisSchema, &out); err != nil {
		return nil, err
	}
	if out.Flags.Green == nil {
		out.Flags.Green = []string{}
	}
	if out.Flags.Red == nil {
		out.Flags.Red = []string{}
	}
	c.logger.Info("analysis completed", map[string]interface{}{
		"clientName":       clientName,
		"verdict":          out.Verdict,
		"scoreProbability": out.ScoreProbability,
		"redFlags":         len(out.Flags.Red),
	})
	return &out, nil
}
