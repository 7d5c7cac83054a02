package models

import (
	"fmt"
	"strings"

	"credit-workflow/internal/credit/indicators"
	"credit-workflow/internal/credit/limit"
)

// RecordSource tells how complete an in-memory record is.
type RecordSource string

const (
	// SourceSummary records were built from the list endpoint only and lack
	// analysis data and files.
	SourceSummary RecordSource = "summary"
	// SourceSnapshot records were merged from a stored JSON snapshot.
	SourceSnapshot RecordSource = "snapshot"
	// SourceSession records were created or advanced in this process.
	SourceSession RecordSource = "session"
)

// ProvisionalIDPrefix marks ids minted before the store assigns one.
const ProvisionalIDPrefix = "tmp-"

type Submitter struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DocumentCheck is the compliance verdict for one uploaded file.
type DocumentCheck struct {
	FileName     string       `json:"fileName"`
	Kind         DocumentKind `json:"kind,omitempty"`
	IsValid      bool         `json:"isValid"`
	Issue        string       `json:"issue,omitempty"`
	DetectedDate string       `json:"detectedDate,omitempty"`
}

// ValidationResult is the creation-time document compliance outcome.
type ValidationResult struct {
	OverallValid bool            `json:"overallValid"`
	PerFile      []DocumentCheck `json:"perFile"`
	Summary      string          `json:"summary"`
}

type RiskFlags struct {
	Green []string `json:"green"`
	Red   []string `json:"red"`
}

// AIResult is the full analysis outcome. LimitBreakdown is filled by the
// six-variable engine from LimitVariables.
type AIResult struct {
	Verdict          string                      `json:"verdict"`
	SuggestedLimit   float64                     `json:"suggestedLimit"`
	LimitVariables   limit.Signals               `json:"limitVariables"`
	LimitBreakdown   *limit.Result               `json:"limitBreakdown,omitempty"`
	ScoreProbability float64                     `json:"scoreProbability"`
	Figures          indicators.FinancialFigures `json:"financialIndicators"`
	Flags            RiskFlags                   `json:"flags"`
	Justification    string                      `json:"justification"`
}

// LimitRange is the displayed recommendation.
type LimitRange struct {
	Conservative        float64 `json:"conservative"`
	Liberal             float64 `json:"liberal"`
	Average             float64 `json:"average"`
	RecommendedTermDays int     `json:"recommendedTermDays"`
}

// CreditApplication is the full record. Source is process-local.
type CreditApplication struct {
	ID              string    `json:"id"`
	ClientName      string    `json:"clientName"`
	TaxID           string    `json:"taxId"`
	SubmittedBy     Submitter `json:"submittedBy"`
	Date            string    `json:"date"`
	Status          Status    `json:"status"`
	RemoteFolderID  string    `json:"remoteFolderId,omitempty"`
	RemoteFolderURL string    `json:"remoteFolderUrl,omitempty"`

	CommercialFiles Files `json:"commercialFiles"`
	RiskFiles       Files `json:"riskFiles"`

	ValidationResult *ValidationResult `json:"validationResult,omitempty"`
	AIResult         *AIResult         `json:"aiResult,omitempty"`

	Indicators             *indicators.Indicators `json:"indicators,omitempty"`
	Limit                  *LimitRange            `json:"limit,omitempty"`
	RiskLevel              limit.RiskTier         `json:"riskLevel,omitempty"`
	DefaultProbabilityText string                 `json:"defaultProbabilityText,omitempty"`

	ApprovedLimit   *float64 `json:"approvedLimit,omitempty"`
	ApprovedTerm    *int     `json:"approvedTerm,omitempty"`
	RejectionReason string   `json:"rejectionReason,omitempty"`

	Source RecordSource `json:"-"`
}

// Provisional reports whether the store has not assigned an id yet.
func (a *CreditApplication) Provisional() bool {
	return strings.HasPrefix(a.ID, ProvisionalIDPrefix)
}

// Deep reports whether the record carries the analysis data a decision
// must preserve.
func (a *CreditApplication) Deep() bool {
	return a.Source != SourceSummary && a.AIResult != nil
}

// Clone returns a copy that shares no maps or pointers with a. File
// contents are shared; they are never mutated in place.
func (a *CreditApplication) Clone() *CreditApplication {
	if a == nil {
		return nil
	}
	c := *a
	c.CommercialFiles = cloneFiles(a.CommercialFiles)
	c.RiskFiles = cloneFiles(a.RiskFiles)
	if a.ValidationResult != nil {
		v := *a.ValidationResult
		v.PerFile = append([]DocumentCheck(nil), a.ValidationResult.PerFile...)
		c.ValidationResult = &v
	}
	if a.AIResult != nil {
		r := *a.AIResult
		r.Flags.Green = append([]string(nil), a.AIResult.Flags.Green...)
		r.Flags.Red = append([]string(nil), a.AIResult.Flags.Red...)
		r.LimitVariables.BureauALastPeriods = append([]float64(nil), a.AIResult.LimitVariables.BureauALastPeriods...)
		r.LimitVariables.TradeReferences = append([]float64(nil), a.AIResult.LimitVariables.TradeReferences...)
		if a.AIResult.LimitBreakdown != nil {
			b := *a.AIResult.LimitBreakdown
			r.LimitBreakdown = &b
		}
		if a.AIResult.Figures.EBITDA != nil {
			e := *a.AIResult.Figures.EBITDA
			r.Figures.EBITDA = &e
		}
		c.AIResult = &r
	}
	if a.Indicators != nil {
		i := *a.Indicators
		c.Indicators = &i
	}
	if a.Limit != nil {
		l := *a.Limit
		c.Limit = &l
	}
	if a.ApprovedLimit != nil {
		v := *a.ApprovedLimit
		c.ApprovedLimit = &v
	}
	if a.ApprovedTerm != nil {
		v := *a.ApprovedTerm
		c.ApprovedTerm = &v
	}
	return &c
}

// Snapshot is the copy persisted with SAVE_STATE: both file buckets are
// emptied because binary content lives in the remote folder.
func (a *CreditApplication) Snapshot() *CreditApplication {
	c := a.Clone()
	c.CommercialFiles = Files{}
	c.RiskFiles = Files{}
	return c
}

// Summary projects the record onto its list-view row.
func (a *CreditApplication) Summary() Summary {
	s := Summary{
		ID:          a.ID,
		ClientName:  a.ClientName,
		TaxID:       a.TaxID,
		Status:      a.Status,
		Date:        a.Date,
		FolderID:    a.RemoteFolderID,
		FolderURL:   a.RemoteFolderURL,
		SubmittedBy: a.SubmittedBy,
	}
	if a.ApprovedLimit != nil {
		v := *a.ApprovedLimit
		s.ApprovedLimit = &v
	}
	if a.ApprovedTerm != nil {
		v := *a.ApprovedTerm
		s.ApprovedTerm = &v
	}
	return s
}

// CheckInvariants reports the first lifecycle rule the record breaks.
func (a *CreditApplication) CheckInvariants() error {
	if !a.Status.Valid() {
		return fmt.Errorf("unknown status %q", a.Status)
	}
	if a.Status == StatusPendingAnalyst {
		if len(a.RiskFiles.Present(RiskKinds())) > 0 {
			return fmt.Errorf("risk files present before analyst step")
		}
		if a.AIResult != nil {
			return fmt.Errorf("analysis present on %s", a.Status)
		}
	}
	if (a.Status == StatusAnalyzed || a.Status.Decided()) && a.AIResult == nil {
		return fmt.Errorf("analysis missing on %s", a.Status)
	}
	if !a.Status.Decided() {
		if a.ApprovedLimit != nil || a.ApprovedTerm != nil || a.RejectionReason != "" {
			return fmt.Errorf("decision fields set on %s", a.Status)
		}
		return nil
	}
	if a.ApprovedLimit == nil || a.ApprovedTerm == nil {
		return fmt.Errorf("approved limit and term missing on %s", a.Status)
	}
	if a.Status == StatusDenied && a.RejectionReason == "" {
		return fmt.Errorf("rejection reason missing on %s", a.Status)
	}
	return nil
}

func cloneFiles(in Files) Files {
	out := make(Files, len(in))
	for k, f := range in {
		if f == nil {
			continue
		}
		cp := *f
		out[k] = &cp
	}
	return out
}
