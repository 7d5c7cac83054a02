package models

// Summary is the list-view row returned by the store's GET_ALL. It is
// authoritative for Status only.
type Summary struct {
	ID          string    `json:"id"`
	ClientName  string    `json:"clientName"`
	TaxID       string    `json:"taxId"`
	Status      Status    `json:"status"`
	Date        string    `json:"date"`
	FolderID    string    `json:"folderId,omitempty"`
	FolderURL   string    `json:"folderUrl,omitempty"`
	Detail      string    `json:"detail,omitempty"`
	SubmittedBy Submitter `json:"submittedBy"`

	ApprovedLimit *float64 `json:"approvedLimit,omitempty"`
	ApprovedTerm  *int     `json:"approvedTerm,omitempty"`
}

// FromSummary builds the shallow record used when no snapshot exists.
func FromSummary(s Summary) *CreditApplication {
	a := &CreditApplication{
		ID:              s.ID,
		ClientName:      s.ClientName,
		TaxID:           s.TaxID,
		SubmittedBy:     s.SubmittedBy,
		Date:            s.Date,
		Status:          s.Status,
		RemoteFolderID:  s.FolderID,
		RemoteFolderURL: s.FolderURL,
		CommercialFiles: Files{},
		RiskFiles:       Files{},
		Source:          SourceSummary,
	}
	if s.ApprovedLimit != nil {
		v := *s.ApprovedLimit
		a.ApprovedLimit = &v
	}
	if s.ApprovedTerm != nil {
		v := *s.ApprovedTerm
		a.ApprovedTerm = &v
	}
	return a
}

// MergeAuthoritative combines a list row with a stored full record. The
// summary wins for ID and Status, the full record for everything else.
// A nil full record yields the shallow record.
func MergeAuthoritative(s Summary, full *CreditApplication) *CreditApplication {
	if full == nil {
		return FromSummary(s)
	}
	merged := full.Clone()
	merged.ID = s.ID
	merged.Status = s.Status
	if merged.CommercialFiles == nil {
		merged.CommercialFiles = Files{}
	}
	if merged.RiskFiles == nil {
		merged.RiskFiles = Files{}
	}
	merged.Source = SourceSnapshot
	return merged
}
