package workflow

import (
	"context"
	"testing"
	"time"

	"credit-workflow/internal/common/logger"
	"credit-workflow/internal/credit/indicators"
	"credit-workflow/internal/credit/limit"
	"credit-workflow/internal/gateway/ai"
	"credit-workflow/internal/gateway/store"
	"credit-workflow/internal/models"
	"credit-workflow/internal/notify"

	"github.com/stretchr/testify/mock"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Upload(ctx context.Context, req store.UploadRequest) (*store.UploadResult, error) {
	args := m.Called(ctx, req)
	if r := args.Get(0); r != nil {
		return r.(*store.UploadResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) GetAll(ctx context.Context) ([]models.Summary, error) {
	args := m.Called(ctx)
	if r := args.Get(0); r != nil {
		return r.([]models.Summary), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) SaveState(ctx context.Context, app *models.CreditApplication) error {
	return m.Called(ctx, app).Error(0)
}

func (m *mockStore) LoadState(ctx context.Context, folderID string) (*models.CreditApplication, error) {
	args := m.Called(ctx, folderID)
	if r := args.Get(0); r != nil {
		return r.(*models.CreditApplication), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) FetchFilesForAI(ctx context.Context, folderID string) ([]models.Attachment, error) {
	args := m.Called(ctx, folderID)
	if r := args.Get(0); r != nil {
		return r.([]models.Attachment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockStore) UpdateSheet(ctx context.Context, u store.SheetUpdate) error {
	return m.Called(ctx, u).Error(0)
}

type mockAI struct{ mock.Mock }

func (m *mockAI) ExtractIdentity(ctx context.Context, file models.Attachment) (*ai.Identity, error) {
	args := m.Called(ctx, file)
	if r := args.Get(0); r != nil {
		return r.(*ai.Identity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAI) ValidateDocuments(ctx context.Context, files []models.Attachment, legalName, taxID string) (*models.ValidationResult, error) {
	args := m.Called(ctx, files, legalName, taxID)
	if r := args.Get(0); r != nil {
		return r.(*models.ValidationResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAI) CheckIdentityMatch(ctx context.Context, file models.Attachment, legalName string) (*ai.IdentityMatch, error) {
	args := m.Called(ctx, file, legalName)
	if r := args.Get(0); r != nil {
		return r.(*ai.IdentityMatch), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAI) RunFullAnalysis(ctx context.Context, files []models.Attachment, clientName, taxID string) (*models.AIResult, error) {
	args := m.Called(ctx, files, clientName, taxID)
	if r := args.Get(0); r != nil {
		return r.(*models.AIResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPIN struct{ mock.Mock }

func (m *mockPIN) Verify(ctx context.Context, pin string) error {
	return m.Called(ctx, pin).Error(0)
}

func (m *mockPIN) Rotate(ctx context.Context, currentPIN, newPIN string) error {
	return m.Called(ctx, currentPIN, newPIN).Error(0)
}

type mockNotifier struct{ mock.Mock }

func (m *mockNotifier) EmailDecision(ctx context.Context, app *models.CreditApplication) error {
	return m.Called(ctx, app).Error(0)
}

func (m *mockNotifier) TextAnalysis(ctx context.Context, app *models.CreditApplication) error {
	return m.Called(ctx, app).Error(0)
}

type fixture struct {
	orch     *Orchestrator
	store    *mockStore
	ai       *mockAI
	pin      *mockPIN
	notifier *mockNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    &mockStore{},
		ai:       &mockAI{},
		pin:      &mockPIN{},
		notifier: &mockNotifier{},
	}
	log := logger.NewTestLogger(t)
	f.orch = New(Dependencies{
		Store:      f.store,
		AI:         f.ai,
		PIN:        f.pin,
		Channels:   f.notifier,
		Dispatcher: notify.NewDispatcher(log, time.Second),
		Logger:     log,
		Now:        func() time.Time { return time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC) },
	})
	return f
}

func pdf(name string) *models.File {
	return &models.File{Name: name, MimeType: "application/pdf", Content: []byte("%PDF-1.4 " + name)}
}

func commercialFiles() models.Files {
	files := models.Files{}
	for _, kind := range models.RequiredCommercialKinds() {
		files[kind] = pdf(string(kind) + ".pdf")
	}
	return files
}

func riskFiles() models.Files {
	return models.Files{
		models.DocCreditBureauA: pdf("bureau-a.pdf"),
		models.DocCreditBureauB: pdf("bureau-b.pdf"),
	}
}

func validInput() SubmitInput {
	return SubmitInput{
		ClientName:     "ACME SAS",
		TaxID:          "900123456",
		SubmitterName:  "Ana Gómez",
		SubmitterEmail: "ana@example.com",
		Files:          commercialFiles(),
	}
}

func analysisResult() *models.AIResult {
	return &models.AIResult{
		Verdict:          "favorable",
		SuggestedLimit:   100_000_000,
		ScoreProbability: 0.3,
		LimitVariables: limit.Signals{
			BureauALastPeriods:  []float64{300_000_000, 330_000_000, 360_000_000},
			PlatformScoreLimit:  50_000_000,
			BureauBOpinionLimit: 400_000_000,
			AnnualNetIncome:     240_000_000,
			TradeReferences:     []float64{30_000_000, 50_000_000},
			EBITDA:              600_000_000,
			Taxes:               100_000_000,
			FinancialExpenses:   20_000_000,
			Cash:                40_000_000,
		},
		Figures: indicators.FinancialFigures{
			CurrentAssets:      500,
			TotalAssets:        1000,
			CurrentLiabilities: 250,
			TotalLiabilities:   400,
			Equity:             600,
			Revenue:            900,
			NetIncome:          90,
			EBIT:               120,
			OperatingCycle:     75,
		},
		Flags: models.RiskFlags{
			Green: []string{"solid equity"},
			Red:   []string{"late payments", " ", "high leverage"},
		},
	}
}

// analyzedApp is a deep record waiting for the director.
func analyzedApp() *models.CreditApplication {
	return &models.CreditApplication{
		ID:              "APP-1",
		ClientName:      "ACME SAS",
		TaxID:           "900123456",
		SubmittedBy:     models.Submitter{Name: "Ana", Email: "ana@example.com"},
		Date:            "2026-03-01 10:30",
		Status:          models.StatusAnalyzed,
		RemoteFolderID:  "folder-1",
		CommercialFiles: models.Files{},
		RiskFiles:       models.Files{},
		AIResult:        analysisResult(),
		Limit:           &models.LimitRange{Conservative: 80_000_000, Liberal: 100_000_000, Average: 100_000_000, RecommendedTermDays: 45},
		RiskLevel:       limit.TierLow,
		Source:          models.SourceSession,
	}
}
