package models

// DocumentKind identifies a slot in one of the two file buckets.
type DocumentKind string

const (
	DocTaxRegistration        DocumentKind = "taxRegistration"
	DocChamberOfCommerce      DocumentKind = "chamberOfCommerce"
	DocLegalRepresentativeID  DocumentKind = "legalRepresentativeId"
	DocFinancialStatements    DocumentKind = "financialStatements"
	DocBankCertificate        DocumentKind = "bankCertificate"
	DocTradeReference         DocumentKind = "tradeReference"
	DocShareholderComposition DocumentKind = "shareholderComposition"
	DocIncomeTaxReturn        DocumentKind = "incomeTaxReturn"

	DocCreditBureauA DocumentKind = "creditBureauA"
	DocCreditBureauB DocumentKind = "creditBureauB"
)

type documentSpec struct {
	tag        string
	required   bool
	commercial bool
	// maxAgeDays is the freshness limit checked after AI validation; 0 means none.
	maxAgeDays int
}

var documentSpecs = map[DocumentKind]documentSpec{
	DocTaxRegistration:        {tag: "RUT", required: true, commercial: true},
	DocChamberOfCommerce:      {tag: "CAMARA", required: true, commercial: true, maxAgeDays: 60},
	DocLegalRepresentativeID:  {tag: "CEDULA_RL", required: true, commercial: true},
	DocFinancialStatements:    {tag: "ESTADOS_FIN", required: true, commercial: true},
	DocBankCertificate:        {tag: "CERT_BANCARIA", required: true, commercial: true, maxAgeDays: 60},
	DocTradeReference:         {tag: "REF_COMERCIAL", required: true, commercial: true, maxAgeDays: 90},
	DocShareholderComposition: {tag: "COMP_ACCIONARIA", required: true, commercial: true},
	DocIncomeTaxReturn:        {tag: "DECLARACION_RENTA", commercial: true},

	DocCreditBureauA: {tag: "BURO_A", required: true},
	DocCreditBureauB: {tag: "BURO_B", required: true},
}

var (
	commercialOrder = []DocumentKind{
		DocTaxRegistration, DocChamberOfCommerce, DocLegalRepresentativeID, DocFinancialStatements,
		DocBankCertificate, DocTradeReference, DocShareholderComposition, DocIncomeTaxReturn,
	}
	riskOrder = []DocumentKind{DocCreditBureauA, DocCreditBureauB}
)

// CommercialKinds lists every commercial slot in display order.
func CommercialKinds() []DocumentKind {
	return append([]DocumentKind(nil), commercialOrder...)
}

// RequiredCommercialKinds lists the commercial slots that must be filled
// on submission.
func RequiredCommercialKinds() []DocumentKind {
	var out []DocumentKind
	for _, k := range commercialOrder {
		if documentSpecs[k].required {
			out = append(out, k)
		}
	}
	return out
}

// RiskKinds lists the two bureau slots.
func RiskKinds() []DocumentKind {
	return append([]DocumentKind(nil), riskOrder...)
}

// Known reports whether k is a defined slot.
func (k DocumentKind) Known() bool {
	_, ok := documentSpecs[k]
	return ok
}

// Tag is the category prefix put on transferred file names.
func (k DocumentKind) Tag() string {
	if spec, ok := documentSpecs[k]; ok {
		return spec.tag
	}
	return "OTRO"
}

func (k DocumentKind) Commercial() bool {
	return documentSpecs[k].commercial
}

func (k DocumentKind) Required() bool {
	return documentSpecs[k].required
}

// MaxAgeDays is the document freshness limit, 0 when the kind has none.
func (k DocumentKind) MaxAgeDays() int {
	return documentSpecs[k].maxAgeDays
}

// KindForTag reverses Tag. Used when the store returns tagged file names.
func KindForTag(tag string) (DocumentKind, bool) {
	for k, spec := range documentSpecs {
		if spec.tag == tag {
			return k, true
		}
	}
	return "", false
}

// File is an uploaded document held in memory.
type File struct {
	Name     string `json:"name"`
	MimeType string `json:"mimeType"`
	Content  []byte `json:"content,omitempty"`
}

// Empty reports whether f carries no content.
func (f *File) Empty() bool {
	return f == nil || len(f.Content) == 0
}

// Files is a bucket keyed by document kind.
type Files map[DocumentKind]*File

// Present lists the kinds with content, in the given order.
func (fs Files) Present(order []DocumentKind) []DocumentKind {
	var out []DocumentKind
	for _, k := range order {
		if !fs[k].Empty() {
			out = append(out, k)
		}
	}
	return out
}

// Missing lists required kinds without content.
func (fs Files) Missing(required []DocumentKind) []DocumentKind {
	var out []DocumentKind
	for _, k := range required {
		if fs[k].Empty() {
			out = append(out, k)
		}
	}
	return out
}
