package workflow

import (
	"context"
	stderrors "errors"
	"testing"

	"credit-workflow/internal/common/errors"
	"credit-workflow/internal/gateway/store"
	"credit-workflow/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func expectBackground(f *fixture, detail string) {
	f.store.On("SaveState", mock.Anything, mock.Anything).Return(nil)
	f.store.On("UpdateSheet", mock.Anything, mock.MatchedBy(func(u store.SheetUpdate) bool {
		return u.Detail == detail
	})).Return(nil)
	f.notifier.On("EmailDecision", mock.Anything, mock.Anything).Return(nil)
}

func TestDecide_ApproveWithinBounds(t *testing.T) {
	f := newFixture(t)
	f.orch.commit(analyzedApp(), "")
	f.pin.On("Verify", mock.Anything, "123456").Return(nil)
	expectBackground(f, "Limit: $ 90.000.000 - Term: 45 days")

	app, err := f.orch.Decide(context.Background(), Decision{ID: "APP-1", Approve: true, Limit: 90_000_000, TermDays: 45, PIN: "123456"})
	require.NoError(t, err)
	f.orch.Dispatcher().Wait()

	assert.Equal(t, models.StatusApproved, app.Status)
	assert.Equal(t, 90_000_000.0, *app.ApprovedLimit)
	assert.Equal(t, 45, *app.ApprovedTerm)
	assert.NotNil(t, app.AIResult)
	assert.NoError(t, app.CheckInvariants())

	row := f.orch.Applications()[0]
	assert.Equal(t, models.StatusApproved, row.Status)
	assert.Equal(t, "Limit: $ 90.000.000 - Term: 45 days", row.Detail)

	f.store.AssertCalled(t, "SaveState", mock.Anything, mock.MatchedBy(func(a *models.CreditApplication) bool {
		return a.Status == models.StatusApproved && a.AIResult != nil
	}))
	f.store.AssertExpectations(t)
	f.notifier.AssertExpectations(t)
}

func TestDecide_OverrideNeedsConfirmation(t *testing.T) {
	f := newFixture(t)
	f.orch.commit(analyzedApp(), "")
	f.pin.On("Verify", mock.Anything, "123456").Return(nil)

	_, err := f.orch.Decide(context.Background(), Decision{ID: "APP-1", Approve: true, Limit: 150_000_000, TermDays: 30, PIN: "123456"})

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeOverrideConfirmation))
	assert.Equal(t, models.StatusAnalyzed, f.orch.Applications()[0].Status)
	f.store.AssertNotCalled(t, "SaveState", mock.Anything, mock.Anything)

	expectBackground(f, "Limit: $ 150.000.000 - Term: 30 days")
	app, err := f.orch.Decide(context.Background(), Decision{ID: "APP-1", Approve: true, Limit: 150_000_000, TermDays: 30, PIN: "123456", ConfirmOverride: true})
	require.NoError(t, err)
	f.orch.Dispatcher().Wait()
	assert.Equal(t, models.StatusApproved, app.Status)
}

func TestDecide_DenyComposesReason(t *testing.T) {
	f := newFixture(t)
	f.orch.commit(analyzedApp(), "")
	f.pin.On("Verify", mock.Anything, "123456").Return(nil)
	expectBackground(f, DeniedDetail)

	app, err := f.orch.Decide(context.Background(), Decision{ID: "APP-1", Approve: false, PIN: "123456"})
	require.NoError(t, err)
	f.orch.Dispatcher().Wait()

	assert.Equal(t, models.StatusDenied, app.Status)
	assert.Equal(t, "late payments; high leverage", app.RejectionReason)
	assert.Equal(t, 0.0, *app.ApprovedLimit)
	require.NotNil(t, app.ApprovedTerm)
	assert.Equal(t, 0, *app.ApprovedTerm)
	assert.NoError(t, app.CheckInvariants())
}

func TestDecide_DenyWithoutFlagsUsesFallback(t *testing.T) {
	assert.Equal(t, defaultRejectionReason, rejectionReason(&models.AIResult{}))
	assert.Equal(t, defaultRejectionReason, rejectionReason(nil))
}

func TestDecide_ShallowRecordRejected(t *testing.T) {
	f := newFixture(t)
	f.orch.collection = []models.Summary{{ID: "APP-1", Status: models.StatusAnalyzed, FolderID: "folder-1"}}
	f.pin.On("Verify", mock.Anything, "123456").Return(nil)

	_, err := f.orch.Decide(context.Background(), Decision{ID: "APP-1", Approve: false, PIN: "123456"})

	assert.True(t, errors.HasCode(err, errors.ErrCodeShallowRecord))
	f.store.AssertNotCalled(t, "SaveState", mock.Anything, mock.Anything)
}

func TestDecide_WrongPIN(t *testing.T) {
	f := newFixture(t)
	f.orch.commit(analyzedApp(), "")
	f.pin.On("Verify", mock.Anything, "000000").Return(errors.NewPinInvalidError())

	_, err := f.orch.Decide(context.Background(), Decision{ID: "APP-1", Approve: true, Limit: 1, TermDays: 30, PIN: "000000"})

	assert.True(t, errors.HasCode(err, errors.ErrCodePinInvalid))
	assert.Equal(t, models.StatusAnalyzed, f.orch.Open().Status)
}

func TestDecide_TerminalRecord(t *testing.T) {
	f := newFixture(t)
	app := analyzedApp()
	app.Status = models.StatusDenied
	zero := 0.0
	app.ApprovedLimit = &zero
	f.orch.commit(app, "")
	f.pin.On("Verify", mock.Anything, "123456").Return(nil)

	_, err := f.orch.Decide(context.Background(), Decision{ID: "APP-1", Approve: true, Limit: 1, TermDays: 30, PIN: "123456"})

	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidTransition))
}

func TestDecide_BackgroundFailuresAreNotSurfaced(t *testing.T) {
	f := newFixture(t)
	f.orch.commit(analyzedApp(), "")
	f.pin.On("Verify", mock.Anything, "123456").Return(nil)
	f.store.On("SaveState", mock.Anything, mock.Anything).Return(errors.NewStaleDataError(store.ActionSaveState, "conflict"))
	f.store.On("UpdateSheet", mock.Anything, mock.Anything).Return(errors.NewStoreRequestError(store.ActionUpdateSheet, stderrors.New("500")))
	f.notifier.On("EmailDecision", mock.Anything, mock.Anything).Return(nil)

	app, err := f.orch.Decide(context.Background(), Decision{ID: "APP-1", Approve: false, PIN: "123456"})
	require.NoError(t, err)
	f.orch.Dispatcher().Wait()

	assert.Equal(t, models.StatusDenied, app.Status)
	assert.Equal(t, models.StatusDenied, f.orch.Applications()[0].Status)

	failed := map[string]bool{}
	for len(f.orch.Dispatcher().Errors()) > 0 {
		te := <-f.orch.Dispatcher().Errors()
		failed[te.Task] = true
	}
	assert.True(t, failed["save_state"])
	assert.True(t, failed["update_sheet"])
}

func TestRotatePIN(t *testing.T) {
	f := newFixture(t)
	f.pin.On("Rotate", mock.Anything, "123456", "654321").Return(nil)

	require.NoError(t, f.orch.RotatePIN(context.Background(), "123456", "654321"))
	f.pin.AssertExpectations(t)
}

func TestApprovalDetail(t *testing.T) {
	assert.Equal(t, "Limit: $ 5.000.000 - Term: 30 days", ApprovalDetail(5_000_000, 30))
}
