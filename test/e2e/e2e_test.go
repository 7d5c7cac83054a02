// test/e2e/e2e_test.go
package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credit-workflow/internal/auth/pin"
	"credit-workflow/internal/common/errors"
	"credit-workflow/internal/common/logger"
	"credit-workflow/internal/gateway/ai"
	"credit-workflow/internal/gateway/store"
	"credit-workflow/internal/models"
	"credit-workflow/internal/notify"
	"credit-workflow/internal/workflow"

	advanceanalysis "credit-workflow/internal/workers/credit/advance-analysis"
	recorddecision "credit-workflow/internal/workers/credit/record-decision"
	rotatedirectorpin "credit-workflow/internal/workers/credit/rotate-director-pin"
	submitapplication "credit-workflow/internal/workers/credit/submit-application"
	syncapplications "credit-workflow/internal/workers/credit/sync-applications"
)

const (
	directorPIN = "123456"
	clientName  = "COMERCIAL ANDINA S.A.S."
	taxID       = "900123456"
)

// ==========================
// Fake remote store
// ==========================

type storeRow struct {
	ID              string        `json:"id"`
	ClientName      string        `json:"clientName"`
	TaxID           string        `json:"taxId"`
	Status          models.Status `json:"status"`
	Date            string        `json:"date"`
	FolderID        string        `json:"folderId"`
	FolderURL       string        `json:"folderUrl"`
	Detail          string        `json:"detail"`
	CommercialName  string        `json:"commercialName"`
	CommercialEmail string        `json:"commercialEmail"`
}

type fakeStore struct {
	mu        sync.Mutex
	rows      []*storeRow
	snapshots map[string]json.RawMessage
	files     map[string][]models.Attachment
	pin       string
	staleSave bool
	actions   []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		snapshots: map[string]json.RawMessage{},
		files:     map[string][]models.Attachment{},
		pin:       directorPIN,
	}
}

func (s *fakeStore) row(id string) *storeRow {
	for _, r := range s.rows {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (s *fakeStore) get(id string) storeRow {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r := s.row(id); r != nil {
		return *r
	}
	return storeRow{}
}

func (s *fakeStore) snapshot(folderID string) json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots[folderID]
}

func (s *fakeStore) count(action string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, a := range s.actions {
		if a == action {
			n++
		}
	}
	return n
}

func (s *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action           string              `json:"action"`
		NotificationType string              `json:"notificationType"`
		ID               string              `json:"id"`
		ClientName       string              `json:"clientName"`
		TaxID            string              `json:"taxId"`
		CommercialName   string              `json:"commercialName"`
		CommercialEmail  string              `json:"commercialEmail"`
		Date             string              `json:"date"`
		Status           models.Status       `json:"status"`
		FolderID         string              `json:"folderId"`
		Files            []models.Attachment `json:"files"`
		State            json.RawMessage     `json:"state"`
		Detail           string              `json:"detail"`
		PIN              string              `json:"pin"`
		CurrentPIN       string              `json:"currentPin"`
		NewPIN           string              `json:"newPin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, req.Action)

	reply := func(data interface{}) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": data})
	}
	fail := func(msg string, stale bool) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": msg, "isStaleData": stale})
	}

	switch req.Action {
	case store.ActionUpload:
		if req.NotificationType == store.NotifyCommercialUpload {
			n := len(s.rows) + 1
			row := &storeRow{
				ID:              fmt.Sprintf("CR-%03d", n),
				ClientName:      req.ClientName,
				TaxID:           req.TaxID,
				Status:          req.Status,
				Date:            req.Date,
				FolderID:        fmt.Sprintf("folder-%d", n),
				FolderURL:       fmt.Sprintf("https://drive.example.com/folder-%d", n),
				CommercialName:  req.CommercialName,
				CommercialEmail: req.CommercialEmail,
			}
			s.rows = append(s.rows, row)
			s.files[row.FolderID] = req.Files
			reply(map[string]string{"id": row.ID, "folderId": row.FolderID, "folderUrl": row.FolderURL})
			return
		}
		s.files[req.FolderID] = append(s.files[req.FolderID], req.Files...)
		reply(map[string]string{"id": req.ID, "folderId": req.FolderID})
	case store.ActionGetAll:
		reply(s.rows)
	case store.ActionSaveState:
		if s.staleSave {
			fail("the sheet changed since it was read", true)
			return
		}
		s.snapshots[req.FolderID] = req.State
		reply(nil)
	case store.ActionLoadState:
		reply(s.snapshots[req.FolderID])
	case store.ActionFetchFilesForAI:
		reply(s.files[req.FolderID])
	case store.ActionUpdateSheet:
		row := s.row(req.ID)
		if row == nil {
			fail("unknown id "+req.ID, false)
			return
		}
		row.Status = req.Status
		row.Detail = req.Detail
		reply(nil)
	case store.ActionCheckPIN:
		reply(map[string]bool{"valid": req.PIN == s.pin})
	case store.ActionUpdatePIN:
		if req.CurrentPIN != s.pin {
			fail("current pin is wrong", false)
			return
		}
		s.pin = req.NewPIN
		reply(nil)
	default:
		fail("unknown action "+req.Action, false)
	}
}

// ==========================
// Fake document model
// ==========================

type fakeModel struct {
	mu    sync.Mutex
	score float64
	red   []string
}

func (m *fakeModel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Prompt string              `json:"prompt"`
		Files  []models.Attachment `json:"files"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	m.mu.Lock()
	score, red := m.score, m.red
	m.mu.Unlock()

	var answer interface{}
	switch {
	case strings.Contains(req.Prompt, "Extract the company"):
		answer = map[string]string{"legalName": clientName, "taxId": taxID}
	case strings.Contains(req.Prompt, "Check that each attached document"):
		today := time.Now().Format("2006-01-02")
		var perFile []map[string]interface{}
		for _, f := range req.Files {
			perFile = append(perFile, map[string]interface{}{
				"fileName":     f.FileName,
				"isValid":      true,
				"detectedDate": today,
				"signatures":   map[string]bool{"legalRepresentative": true, "accountant": true},
			})
		}
		answer = map[string]interface{}{"overallValid": true, "summary": "documentos completos", "perFile": perFile}
	case strings.Contains(req.Prompt, "Does the attached credit bureau report"):
		valid := true
		for _, f := range req.Files {
			if strings.Contains(f.FileName, "otra") {
				valid = false
			}
		}
		answer = map[string]interface{}{"isValid": valid, "reason": "el reporte corresponde a OTRA EMPRESA LTDA"}
	case strings.Contains(req.Prompt, "Analyse the credit application"):
		answer = map[string]interface{}{
			"verdict":          "favorable",
			"suggestedLimit":   100_000_000,
			"scoreProbability": score,
			"justification":    "ventas crecientes",
			"limitVariables": map[string]interface{}{
				"bureauALastPeriods":  []float64{40_000_000, 50_000_000, 60_000_000},
				"platformScoreLimit":  90_000_000,
				"bureauBOpinionLimit": 80_000_000,
				"annualNetIncome":     300_000_000,
				"tradeReferences":     []float64{20_000_000, 30_000_000},
				"ebitda":              150_000_000,
				"taxes":               20_000_000,
				"financialExpenses":   10_000_000,
				"cash":                50_000_000,
			},
			"financialIndicators": map[string]interface{}{
				"currentAssets":         500_000_000,
				"totalAssets":           1_200_000_000,
				"inventories":           100_000_000,
				"currentLiabilities":    250_000_000,
				"totalLiabilities":      600_000_000,
				"nonCurrentLiabilities": 350_000_000,
				"equity":                600_000_000,
				"revenue":               2_000_000_000,
				"netIncome":             300_000_000,
				"ebit":                  400_000_000,
				"daysReceivables":       45,
				"daysInventory":         30,
				"operatingCycle":        75,
			},
			"flags": map[string]interface{}{
				"green": []string{"ventas crecientes"},
				"red":   red,
			},
		}
	default:
		http.Error(w, "unexpected prompt", http.StatusBadRequest)
		return
	}

	text, _ := json.Marshal(answer)
	_ = json.NewEncoder(w).Encode(map[string]string{"text": "```json\n" + string(text) + "\n```"})
}

// ==========================
// Notification capture
// ==========================

type outbox struct {
	mu    sync.Mutex
	mails []string
	texts []string
}

func (o *outbox) SendText(_ context.Context, to, subject, body string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mails = append(o.mails, to+"|"+subject+"|"+body)
	return fmt.Sprintf("mail-%d", len(o.mails)), nil
}

func (o *outbox) SendSMS(_ context.Context, phone, msg string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.texts = append(o.texts, phone+"|"+msg)
	return fmt.Sprintf("sms-%d", len(o.texts)), nil
}

func (o *outbox) snapshot() ([]string, []string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.mails...), append([]string(nil), o.texts...)
}

// ==========================
// Environment
// ==========================

type env struct {
	t      *testing.T
	store  *fakeStore
	model  *fakeModel
	outbox *outbox
	rdb    *redis.Client
	log    logger.Logger

	storeURL string
	modelURL string

	orch     *workflow.Orchestrator
	submit   *submitapplication.Handler
	advance  *advanceanalysis.Handler
	decide   *recorddecision.Handler
	sync     *syncapplications.Handler
	rotation *rotatedirectorpin.Handler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		t:      t,
		store:  newFakeStore(),
		model:  &fakeModel{score: 0.3, red: []string{"pagos tardíos", "alto apalancamiento"}},
		outbox: &outbox{},
		log:    logger.NewTestLogger(t),
	}

	storeServer := httptest.NewServer(e.store)
	modelServer := httptest.NewServer(e.model)
	t.Cleanup(storeServer.Close)
	t.Cleanup(modelServer.Close)
	e.storeURL, e.modelURL = storeServer.URL, modelServer.URL

	mr := miniredis.RunT(t)
	e.rdb = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = e.rdb.Close() })

	e.boot()
	return e
}

// boot builds a fresh process: new orchestrator and workers over the same
// remote store, as after a restart.
func (e *env) boot() {
	e.t.Helper()
	ctx := context.Background()

	storeClient := store.New(store.Config{URL: e.storeURL, Timeout: 5 * time.Second}, e.log, nil)
	aiClient := ai.New(ai.Config{BaseURL: e.modelURL, APIKey: "test-key", Model: "document-analysis", Timeout: 5 * time.Second}, e.log, nil)

	pins := pin.NewService(pin.Config{DefaultPIN: directorPIN, CacheKey: "e2e:director:pin"}, storeClient, e.rdb, e.log)
	require.NoError(e.t, pins.Init(ctx))

	channels := notify.NewChannels(notify.ChannelsConfig{
		EmailEnabled:  true,
		SMSEnabled:    true,
		DirectorPhone: "+573001112233",
	}, e.outbox, e.outbox, e.log)

	e.orch = workflow.New(workflow.Dependencies{
		Store:      storeClient,
		AI:         aiClient,
		PIN:        pins,
		Channels:   channels,
		Dispatcher: notify.NewDispatcher(e.log, 10*time.Second),
		Logger:     e.log,
	})
	orch := e.orch
	e.t.Cleanup(func() { orch.Dispatcher().Wait() })
	_, err := e.orch.Refresh(ctx)
	require.NoError(e.t, err)

	e.submit = submitapplication.NewHandler(submitapplication.LoadConfig(), e.orch, e.log)
	e.advance = advanceanalysis.NewHandler(advanceanalysis.LoadConfig(), e.orch, e.log)
	e.decide = recorddecision.NewHandler(recorddecision.LoadConfig(), e.orch, e.log)
	e.sync = syncapplications.NewHandler(syncapplications.LoadConfig(), e.orch, e.log)
	e.rotation = rotatedirectorpin.NewHandler(rotatedirectorpin.LoadConfig(), e.orch, e.log)
}

func pdf(kind models.DocumentKind, name string) models.Attachment {
	return models.EncodeAttachment(kind, &models.File{
		Name:     name,
		MimeType: "application/pdf",
		Content:  []byte("%PDF-1.4 " + name),
	})
}

func commercialDocuments() []models.Attachment {
	var docs []models.Attachment
	for _, k := range models.RequiredCommercialKinds() {
		docs = append(docs, pdf(k, string(k)+".pdf"))
	}
	return docs
}

func bureauReports(names ...string) []models.Attachment {
	if len(names) == 0 {
		names = []string{"buro_a.pdf", "buro_b.pdf"}
	}
	return []models.Attachment{
		pdf(models.DocCreditBureauA, names[0]),
		pdf(models.DocCreditBureauB, names[1]),
	}
}

func (e *env) submitApplication() *submitapplication.Output {
	e.t.Helper()
	out, err := e.submit.Execute(context.Background(), &submitapplication.Input{
		SubmitterName:  "Laura Gómez",
		SubmitterEmail: "laura@example.com",
		Documents:      commercialDocuments(),
	})
	require.NoError(e.t, err)
	return out
}

func (e *env) analyze(id string) *advanceanalysis.Output {
	e.t.Helper()
	out, err := e.advance.Execute(context.Background(), &advanceanalysis.Input{
		ApplicationID: id,
		Documents:     bureauReports(),
	})
	require.NoError(e.t, err)
	return out
}

func (e *env) summary(id string) models.Summary {
	e.t.Helper()
	for _, s := range e.orch.Applications() {
		if s.ID == id {
			return s
		}
	}
	e.t.Fatalf("application %s not listed", id)
	return models.Summary{}
}

// ==========================
// Scenarios
// ==========================

func TestE2E_SubmitAnalyzeApprove(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	submitted := e.submitApplication()
	assert.Equal(t, "CR-001", submitted.ApplicationID)
	assert.Equal(t, "folder-1", submitted.FolderID)
	assert.Equal(t, models.StatusPendingAnalyst, submitted.Status)
	require.NotNil(t, submitted.DocumentsValid)
	assert.True(t, *submitted.DocumentsValid)
	assert.Equal(t, clientName, e.summary("CR-001").ClientName)

	analyzed := e.analyze("CR-001")
	assert.Equal(t, models.StatusAnalyzed, analyzed.Status)
	assert.Equal(t, 80_000_000.0, analyzed.ConservativeLimit)
	assert.Equal(t, 100_000_000.0, analyzed.LiberalLimit)
	assert.Equal(t, "LOW", string(analyzed.RiskLevel))
	assert.Equal(t, models.StatusAnalyzed, e.store.get("CR-001").Status)

	decided, err := e.decide.Execute(ctx, &recorddecision.Input{
		ApplicationID: "CR-001",
		Approve:       true,
		ApprovedLimit: 90_000_000,
		ApprovedTerm:  60,
		PIN:           directorPIN,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, decided.Status)
	assert.Equal(t, "Limit: $ 90.000.000 - Term: 60 days", decided.Detail)

	e.orch.Dispatcher().Wait()

	synced, err := e.sync.Execute(ctx, &syncapplications.Input{})
	require.NoError(t, err)
	assert.Equal(t, 1, synced.StatusCounts[models.StatusApproved])
	assert.Empty(t, synced.AwaitingDecision)

	row := e.summary("CR-001")
	require.NotNil(t, row.ApprovedLimit)
	require.NotNil(t, row.ApprovedTerm)
	assert.Equal(t, 90_000_000.0, *row.ApprovedLimit)
	assert.Equal(t, 60, *row.ApprovedTerm)

	mails, texts := e.outbox.snapshot()
	require.Len(t, mails, 1)
	assert.Contains(t, mails[0], "laura@example.com|Crédito aprobado: "+clientName)
	require.Len(t, texts, 1)
	assert.Contains(t, texts[0], "+573001112233|")
}

func TestE2E_IdentityMismatchThenOverride(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.submitApplication()

	_, err := e.advance.Execute(ctx, &advanceanalysis.Input{
		ApplicationID: "CR-001",
		Documents:     bureauReports("buro_otra.pdf", "buro_b.pdf"),
	})
	require.True(t, errors.IsIdentityMismatch(err))
	vars := errors.ConvertToBPMNError(errors.Normalize(err)).ToErrorVariables()
	assert.Equal(t, "buro_otra.pdf", vars["file"])
	assert.Equal(t, models.StatusPendingAnalyst, e.summary("CR-001").Status)
	assert.Zero(t, e.store.count(store.ActionFetchFilesForAI))

	_, err = e.advance.Execute(ctx, &advanceanalysis.Input{
		ApplicationID: "CR-001",
		Documents:     bureauReports("buro_otra.pdf", "buro_b.pdf"),
		OverridePIN:   "999999",
	})
	assert.True(t, errors.HasCode(err, errors.ErrCodePinInvalid))

	out, err := e.advance.Execute(ctx, &advanceanalysis.Input{
		ApplicationID: "CR-001",
		Documents:     bureauReports("buro_otra.pdf", "buro_b.pdf"),
		OverridePIN:   directorPIN,
	})
	require.NoError(t, err)
	assert.True(t, out.IdentityOverridden)
	assert.Equal(t, models.StatusAnalyzed, out.Status)
}

func TestE2E_DenyUsesRedFlags(t *testing.T) {
	e := newEnv(t)
	e.submitApplication()
	e.analyze("CR-001")

	out, err := e.decide.Execute(context.Background(), &recorddecision.Input{
		ApplicationID: "CR-001",
		PIN:           directorPIN,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDenied, out.Status)
	assert.Equal(t, "pagos tardíos; alto apalancamiento", out.RejectionReason)
	assert.Zero(t, out.ApprovedLimit)

	e.orch.Dispatcher().Wait()
	assert.Equal(t, workflow.DeniedDetail, e.store.get("CR-001").Detail)
	mails, _ := e.outbox.snapshot()
	require.Len(t, mails, 1)
	assert.Contains(t, mails[0], "Motivo:")
}

func TestE2E_OverrideConfirmationAboveLiberalBound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.submitApplication()
	e.analyze("CR-001")

	input := &recorddecision.Input{
		ApplicationID: "CR-001",
		Approve:       true,
		ApprovedLimit: 150_000_000,
		ApprovedTerm:  45,
		PIN:           directorPIN,
	}
	_, err := e.decide.Execute(ctx, input)
	require.True(t, errors.HasCode(err, errors.ErrCodeOverrideConfirmation))
	assert.Equal(t, models.StatusAnalyzed, e.summary("CR-001").Status)

	input.ConfirmOverride = true
	out, err := e.decide.Execute(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, 150_000_000.0, out.ApprovedLimit)
}

func TestE2E_StaleSnapshotCommitsNothing(t *testing.T) {
	e := newEnv(t)
	e.submitApplication()

	e.store.mu.Lock()
	e.store.staleSave = true
	e.store.mu.Unlock()

	_, err := e.advance.Execute(context.Background(), &advanceanalysis.Input{
		ApplicationID: "CR-001",
		Documents:     bureauReports(),
	})

	require.True(t, errors.IsStaleData(err))
	assert.Equal(t, models.StatusPendingAnalyst, e.summary("CR-001").Status)
	assert.Equal(t, models.StatusPendingAnalyst, e.store.get("CR-001").Status)
	assert.Zero(t, e.store.count(store.ActionUpdateSheet))
	assert.False(t, e.orch.Busy())
}

func TestE2E_RestartHydratesSnapshotBeforeDecision(t *testing.T) {
	e := newEnv(t)
	e.submitApplication()
	e.analyze("CR-001")

	e.boot()
	assert.Equal(t, models.StatusAnalyzed, e.summary("CR-001").Status)
	assert.Nil(t, e.orch.Open())

	out, err := e.decide.Execute(context.Background(), &recorddecision.Input{
		ApplicationID: "CR-001",
		Approve:       true,
		ApprovedLimit: 80_000_000,
		ApprovedTerm:  30,
		PIN:           directorPIN,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, out.Status)

	open := e.orch.Open()
	require.NotNil(t, open)
	require.NotNil(t, open.AIResult)
	assert.Equal(t, "favorable", open.AIResult.Verdict)
	assert.Equal(t, 100_000_000.0, open.Limit.Liberal)
	assert.Equal(t, "laura@example.com", open.SubmittedBy.Email)
}

func TestE2E_AnalysisAfterRestartKeepsSubmissionSnapshot(t *testing.T) {
	e := newEnv(t)
	e.submitApplication()

	var submitted models.CreditApplication
	require.NoError(t, json.Unmarshal(e.store.snapshot("folder-1"), &submitted))
	require.NotNil(t, submitted.ValidationResult)

	e.boot()
	e.analyze("CR-001")
	assert.Equal(t, 1, e.store.count(store.ActionLoadState))

	var analyzed models.CreditApplication
	require.NoError(t, json.Unmarshal(e.store.snapshot("folder-1"), &analyzed))

	assert.Equal(t, models.StatusAnalyzed, analyzed.Status)
	require.NotNil(t, analyzed.AIResult)
	assert.Equal(t, submitted.ValidationResult, analyzed.ValidationResult)
	assert.Equal(t, submitted.SubmittedBy, analyzed.SubmittedBy)
	assert.Equal(t, submitted.Date, analyzed.Date)
}

func TestE2E_SnapshotRoundTrip(t *testing.T) {
	e := newEnv(t)
	e.submitApplication()
	e.analyze("CR-001")
	before := e.orch.Open()
	require.NotNil(t, before)

	e.boot()
	out, err := e.sync.Execute(context.Background(), &syncapplications.Input{ApplicationID: "CR-001"})
	require.NoError(t, err)
	require.NotNil(t, out.Application)
	assert.True(t, out.Application.Analyzed)

	after := e.orch.Open()
	require.NotNil(t, after)

	want := before.Snapshot()
	got := after.Snapshot()
	want.Source, got.Source = "", ""
	wantJSON, err := json.Marshal(want)
	require.NoError(t, err)
	gotJSON, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, string(wantJSON), string(gotJSON))
	assert.Empty(t, got.CommercialFiles)
	assert.Empty(t, got.RiskFiles)
}

func TestE2E_RotatePIN(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.rotation.Execute(ctx, &rotatedirectorpin.Input{CurrentPIN: directorPIN, NewPIN: "12ab56"})
	assert.True(t, errors.HasCode(err, errors.ErrCodePinFormatInvalid))

	out, err := e.rotation.Execute(ctx, &rotatedirectorpin.Input{CurrentPIN: directorPIN, NewPIN: "654321"})
	require.NoError(t, err)
	assert.True(t, out.Rotated)

	e.submitApplication()
	e.analyze("CR-001")

	_, err = e.decide.Execute(ctx, &recorddecision.Input{ApplicationID: "CR-001", PIN: directorPIN})
	assert.True(t, errors.HasCode(err, errors.ErrCodePinInvalid))

	decided, err := e.decide.Execute(ctx, &recorddecision.Input{ApplicationID: "CR-001", PIN: "654321"})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDenied, decided.Status)
}
