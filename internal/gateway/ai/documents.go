package ai

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"credit-workflow/internal/models"
)

type signatures struct {
	LegalRepresentative bool `json:"legalRepresentative"`
	Accountant          bool `json:"accountant"`
}

type documentFinding struct {
	FileName     string      `json:"fileName"`
	IsValid      bool        `json:"isValid"`
	Issue        string      `json:"issue"`
	DetectedDate string      `json:"detectedDate"`
	Signatures   *signatures `json:"signatures"`
}

type documentsAnswer struct {
	OverallValid bool              `json:"overallValid"`
	Summary      string            `json:"summary"`
	PerFile      []documentFinding `json:"perFile"`
}

var dateLayouts = []string{"2006-01-02", "02/01/2006", "2006/01/02", "02-01-2006"}

// ValidateDocuments asks the model for per-file compliance and then applies
// the fixed rules: freshness limits per kind counted against today, and
// both signatures on the shareholder composition. A required kind missing
// from the set fails the whole validation.
func (c *Client) ValidateDocuments(ctx context.Context, files []models.Attachment, legalName, taxID string) (*models.ValidationResult, error) {
	prompt := fmt.Sprintf("Check that each attached document belongs to %q (tax id %s), is legible and complete. "+
		"Report the issue date as YYYY-MM-DD when present. For the shareholder composition report whether the legal "+
		"representative and the accountant signed. Answer only JSON with perFile[{fileName, isValid, issue, detectedDate, "+
		"signatures}], overallValid and summary.", legalName, taxID)

	var answer documentsAnswer
	if err := c.generate(ctx, "validateDocuments", prompt, files, documentsSchema, &answer); err != nil {
		return nil, err
	}

	return c.applyDocumentRules(files, answer), nil
}

func (c *Client) applyDocumentRules(files []models.Attachment, answer documentsAnswer) *models.ValidationResult {
	today := truncateDay(c.now())

	findings := make(map[string]documentFinding, len(answer.PerFile))
	for _, f := range answer.PerFile {
		findings[f.FileName] = f
	}

	result := &models.ValidationResult{OverallValid: true, Summary: answer.Summary}
	var notes []string
	seen := make(map[models.DocumentKind]bool)

	for _, file := range files {
		kind, _ := file.Kind()
		seen[kind] = true

		finding, ok := findings[file.Name]
		if !ok {
			finding, ok = findings[file.FileName]
		}
		check := models.DocumentCheck{FileName: file.FileName, Kind: kind}
		if !ok {
			check.Issue = "document not evaluated"
		} else {
			check.IsValid = finding.IsValid
			check.Issue = finding.Issue
			check.DetectedDate = finding.DetectedDate
		}

		if check.IsValid {
			if issue := ageIssue(kind, finding.DetectedDate, today); issue != "" {
				check.IsValid, check.Issue = false, issue
			}
		}
		if check.IsValid && kind == models.DocShareholderComposition {
			if issue := signatureIssue(finding.Signatures); issue != "" {
				check.IsValid, check.Issue = false, issue
			}
		}

		if !check.IsValid {
			result.OverallValid = false
			notes = append(notes, fmt.Sprintf("%s: %s", check.FileName, check.Issue))
		}
		result.PerFile = append(result.PerFile, check)
	}

	for _, kind := range models.RequiredCommercialKinds() {
		if !seen[kind] {
			result.OverallValid = false
			notes = append(notes, fmt.Sprintf("missing document %s", kind))
		}
	}

	if len(notes) > 0 {
		result.Summary = strings.TrimSpace(result.Summary + "\n" + strings.Join(notes, "\n"))
	}
	return result
}

func ageIssue(kind models.DocumentKind, detected string, today time.Time) string {
	maxAge := kind.MaxAgeDays()
	if maxAge == 0 {
		return ""
	}
	issued, ok := parseDate(detected)
	if !ok {
		return "issue date not detected"
	}
	age := int(math.Round(today.Sub(issued).Hours() / 24))
	if age > maxAge {
		return fmt.Sprintf("issued %d days ago, maximum %d", age, maxAge)
	}
	return ""
}

func signatureIssue(s *signatures) string {
	var missing []string
	if s == nil || !s.LegalRepresentative {
		missing = append(missing, "legal representative")
	}
	if s == nil || !s.Accountant {
		missing = append(missing, "accountant")
	}
	if len(missing) == 0 {
		return ""
	}
	return "missing signature of " + strings.Join(missing, " and ")
}

func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
