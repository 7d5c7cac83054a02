package recorddecision

import (
	"context"
	"encoding/json"
	"testing"

	"credit-workflow/internal/common/errors"
	"credit-workflow/internal/common/logger"
	"credit-workflow/internal/models"
	"credit-workflow/internal/workflow"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockWorkflow struct {
	mock.Mock
}

func (m *mockWorkflow) Decide(ctx context.Context, d workflow.Decision) (*models.CreditApplication, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreditApplication), args.Error(1)
}

func (m *mockWorkflow) LoadFull(ctx context.Context, id string) (*models.CreditApplication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreditApplication), args.Error(1)
}

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               TaskType,
		ProcessInstanceKey: key * 10,
		BpmnProcessId:      "credit-application",
		ElementId:          "Activity_RecordDecision",
		CustomHeaders:      "{}",
		Variables:          string(variablesJSON),
	}}
}

func newTestHandler(t *testing.T) (*Handler, *mockWorkflow) {
	wf := &mockWorkflow{}
	return NewHandler(LoadConfig(), wf, logger.NewTestLogger(t)), wf
}

func approved(limit float64, term int) *models.CreditApplication {
	return &models.CreditApplication{
		ID:            "APP-1",
		Status:        models.StatusApproved,
		ApprovedLimit: &limit,
		ApprovedTerm:  &term,
	}
}

func TestHandler_Execute_Approve(t *testing.T) {
	h, wf := newTestHandler(t)
	wf.On("Decide", mock.Anything, workflow.Decision{
		ID:       "APP-1",
		Approve:  true,
		Limit:    90_000_000,
		TermDays: 60,
		PIN:      "123456",
	}).Return(approved(90_000_000, 60), nil)

	out, err := h.Execute(context.Background(), &Input{
		ApplicationID: "APP-1",
		Approve:       true,
		ApprovedLimit: 90_000_000,
		ApprovedTerm:  60,
		PIN:           "123456",
	})

	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, out.Status)
	assert.Equal(t, 90_000_000.0, out.ApprovedLimit)
	assert.Equal(t, "Limit: $ 90.000.000 - Term: 60 days", out.Detail)
	wf.AssertNotCalled(t, "LoadFull", mock.Anything, mock.Anything)
}

func TestHandler_Execute_Deny(t *testing.T) {
	h, wf := newTestHandler(t)
	zero, zeroTerm := 0.0, 0
	wf.On("Decide", mock.Anything, mock.Anything).Return(&models.CreditApplication{
		ID:              "APP-1",
		Status:          models.StatusDenied,
		ApprovedLimit:   &zero,
		ApprovedTerm:    &zeroTerm,
		RejectionReason: "late payments; high leverage",
	}, nil)

	out, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-1", PIN: "123456"})

	require.NoError(t, err)
	assert.Equal(t, models.StatusDenied, out.Status)
	assert.Zero(t, out.ApprovedLimit)
	require.NotNil(t, out.ApprovedTerm)
	assert.Zero(t, *out.ApprovedTerm)
	assert.Equal(t, workflow.DeniedDetail, out.Detail)
	assert.Equal(t, "late payments; high leverage", out.RejectionReason)
}

func TestHandler_Execute_HydratesShallowRecord(t *testing.T) {
	h, wf := newTestHandler(t)
	wf.On("Decide", mock.Anything, mock.Anything).Return(nil, errors.NewShallowRecordError("APP-1")).Once()
	wf.On("LoadFull", mock.Anything, "APP-1").Return(&models.CreditApplication{ID: "APP-1"}, nil).Once()
	wf.On("Decide", mock.Anything, mock.Anything).Return(approved(50_000_000, 30), nil).Once()

	out, err := h.Execute(context.Background(), &Input{
		ApplicationID: "APP-1",
		Approve:       true,
		ApprovedLimit: 50_000_000,
		ApprovedTerm:  30,
		PIN:           "123456",
	})

	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, out.Status)
	wf.AssertExpectations(t)
}

func TestHandler_Execute_PinErrorNotRetried(t *testing.T) {
	h, wf := newTestHandler(t)
	wf.On("Decide", mock.Anything, mock.Anything).Return(nil, errors.NewPinInvalidError()).Once()

	_, err := h.Execute(context.Background(), &Input{ApplicationID: "APP-1", PIN: "000000"})

	assert.True(t, errors.HasCode(err, errors.ErrCodePinInvalid))
	wf.AssertNotCalled(t, "LoadFull", mock.Anything, mock.Anything)
	wf.AssertNumberOfCalls(t, "Decide", 1)
}

func TestHandler_Execute_OverrideConfirmationRequired(t *testing.T) {
	h, wf := newTestHandler(t)
	wf.On("Decide", mock.Anything, mock.Anything).Return(nil, errors.NewOverrideConfirmationError(150_000_000, 100_000_000))

	_, err := h.Execute(context.Background(), &Input{
		ApplicationID: "APP-1",
		Approve:       true,
		ApprovedLimit: 150_000_000,
		ApprovedTerm:  60,
		PIN:           "123456",
	})

	vars := errors.ConvertToBPMNError(errors.Normalize(err)).ToErrorVariables()
	assert.Equal(t, "OVERRIDE_CONFIRMATION_REQUIRED", vars["errorCode"])
	assert.Equal(t, 100_000_000.0, vars["liberal"])
}

func TestHandler_ParseInput(t *testing.T) {
	h, _ := newTestHandler(t)

	input, err := h.parseInput(createMockJob(1, map[string]interface{}{
		"applicationId": "APP-1",
		"approve":       true,
		"approvedLimit": 90000000,
		"approvedTerm":  60,
		"pin":           "123456",
	}))
	require.NoError(t, err)
	assert.True(t, input.Approve)
	assert.Equal(t, 60, input.ApprovedTerm)

	_, err = h.parseInput(createMockJob(2, map[string]interface{}{
		"applicationId": "APP-1",
		"approve":       true,
		"approvedLimit": -5,
		"pin":           "123456",
	}))
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))

	_, err = h.parseInput(createMockJob(3, map[string]interface{}{"applicationId": "APP-1", "approve": false}))
	assert.True(t, errors.HasCode(err, errors.ErrCodeValidationFailed))
}
